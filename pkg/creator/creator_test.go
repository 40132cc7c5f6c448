package creator

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"photonotes/pkg/config"
	"photonotes/pkg/database"
	apperrors "photonotes/pkg/errors"
	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
)

// fakeAPI serves canned Flickr REST responses keyed by method name,
// and image bytes under /img/. Responses can be swapped per test
// because the maps are read at request time.
type fakeAPI struct {
	responses map[string]string
	images    map[string][]byte
	calls     map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: make(map[string]string),
		images:    make(map[string][]byte),
		calls:     make(map[string]int),
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/img/") {
		data, ok := f.images[strings.TrimPrefix(r.URL.Path, "/img/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
		return
	}

	method := r.URL.Query().Get("method")
	f.calls[method]++
	body, ok := f.responses[method]
	if !ok {
		fmt.Fprintf(w, `{"stat":"fail","code":112,"message":"Method %s not stubbed"}`, method)
		return
	}
	io.WriteString(w, body)
}

// newBackupFile creates a SQLite file with the backup tool's tables,
// which photonotes itself never creates
func newBackupFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "en_backup.db")
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(`
		CREATE TABLE notebooks (
			guid TEXT PRIMARY KEY,
			name TEXT,
			stack TEXT
		);
		CREATE TABLE notes (
			guid TEXT PRIMARY KEY,
			title TEXT,
			notebook_guid TEXT,
			is_active BOOLEAN,
			raw_note BLOB
		);
	`)
	require.NoError(t, err)
	return path
}

// testCreator builds a Creator against a fake API server with temp
// directories and a fixed clock. Returns the creator, the server URL
// for image sources and the base directory holding import/ and data/.
func testCreator(t *testing.T, api *fakeAPI) (*Creator, string, string) {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger()
	client := flickr.NewClient("test-key", "test-secret", 5*time.Second, log)
	client.SetBaseURL(srv.URL + "/rest/")

	db, err := database.Open(context.Background(), newBackupFile(t), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	base := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.ImportDir = filepath.Join(base, "import")
	cfg.Output.BaseDir = filepath.Join(base, "data")
	cfg.Output.ArchiveDir = ""
	cfg.Walker.PageSize = 10
	cfg.Walker.MaxPosition = 50

	c, err := New(cfg, client, db, log)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC) }
	return c, srv.URL, base
}

func TestCreateNoteRejectsWrongKind(t *testing.T) {
	api := newFakeAPI()
	c, _, base := testCreator(t, api)
	ctx := context.Background()

	err := c.CreatePhotoNote(ctx, "https://www.flickr.com/people/walter/")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeParsing, apperrors.TypeOf(err))

	err = c.CreateBlogNote(ctx, "https://www.flickr.com/photos/walter/9001/")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeParsing, apperrors.TypeOf(err))

	entries, globErr := filepath.Glob(filepath.Join(base, "import", "*"))
	require.NoError(t, globErr)
	assert.Empty(t, entries, "rejected URLs must leave no trace in the import dir")
}

func TestUnixDate(t *testing.T) {
	want := time.Unix(1711960200, 0).Format("2006-01-02")
	assert.Equal(t, want, unixDate("1711960200"))
	assert.Equal(t, "---", unixDate(""))
	assert.Equal(t, "---", unixDate("soon"))

	wantFull := time.Unix(1711960200, 0).Format("2006-01-02 15:04:05")
	assert.Equal(t, wantFull, unixDateTime("1711960200"))
	assert.Equal(t, "---", unixDateTime("x"))
}

func TestTakenStamp(t *testing.T) {
	photo := &flickr.PhotoInfo{}
	photo.Dates.Taken = "2024-04-01 09:30:12"
	assert.Equal(t, "2024-04-01 09:30", takenStamp(photo))

	photo.Dates.TakenUnknown = 1
	assert.Equal(t, "2024-04-01 09:30 (unknown)", takenStamp(photo))

	photo.Dates.TakenUnknown = 3
	assert.Equal(t, "2024-04-01 09:30 (unknown-3)", takenStamp(photo))
}

func TestUserInfoLine(t *testing.T) {
	person := &flickr.Person{}
	person.Username.Text = "walter"
	person.RealName.Text = "Walter & Co"
	person.Location.Text = "Vienna"
	assert.Equal(t, "Walter &amp; Co | walter | blog-1 || Vienna", userInfoLine(person, "blog-1"))

	person.RealName.Text = "walter"
	person.Location.Text = ""
	assert.Equal(t, "walter | blog-1", userInfoLine(person, "blog-1"))
}

func TestPreviewName(t *testing.T) {
	size := &flickr.Size{
		Source: "https://live.staticflickr.com/65535/9001_aa.jpg",
		URL:    "https://www.flickr.com/photos/walter/9001/sizes/m/",
	}
	assert.Equal(t, "9001_aa_m.jpg", previewName(size))
}

func TestPickSize(t *testing.T) {
	sizes := []flickr.Size{
		{Label: "Thumbnail"},
		{Label: "Small"},
		{Label: "Large"},
	}
	require.NotNil(t, pickSize(sizes, "Medium", "Small"))
	assert.Equal(t, "Small", pickSize(sizes, "Medium", "Small").Label)
	assert.Nil(t, pickSize(sizes, "Original"))
}

func TestRenderNoteTags(t *testing.T) {
	tags := map[string]struct{}{
		"image":  {},
		"a<b":    {},
		"flickr": {},
		"":       {},
	}
	assert.Equal(t, "<tag>a&lt;b</tag>\n<tag>flickr</tag>\n<tag>image</tag>", renderNoteTags(tags))
}

func TestErrorDetails(t *testing.T) {
	inner := apperrors.New(apperrors.ErrorTypeNetwork, "connection reset")
	outer := fmt.Errorf("fetching sizes: %w", inner)
	details := errorDetails(outer)
	lines := strings.Split(details, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "fetching sizes")
	assert.Contains(t, lines[1], "connection reset")
}
