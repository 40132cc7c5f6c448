package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photonotes/pkg/logger"
)

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

func seedNotebook(t *testing.T, path, guid, name, stack string) {
	t.Helper()

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(`INSERT INTO notebooks (guid, name, stack) VALUES (?, ?, ?)`,
		guid, name, stack)
	require.NoError(t, err)
}

func seedNote(t *testing.T, path string, note *Note) {
	t.Helper()

	raw := &RawNote{
		Title:   note.Title,
		Content: note.Content,
		Created: FormatNoteTime(note.Created),
		Updated: FormatNoteTime(note.Updated),
		Tags:    note.Tags,
	}
	blob, err := EncodeRawNote(raw)
	require.NoError(t, err)

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(
		`INSERT INTO notes (guid, title, notebook_guid, is_active, raw_note) VALUES (?, ?, ?, ?, ?)`,
		note.GUID, note.Title, note.NotebookGUID, note.IsActive, blob)
	require.NoError(t, err)
}

func newTestDB(t *testing.T) (*DB, *logger.TestLogger) {
	t.Helper()

	path := newBackupFile(t)
	log := logger.NewTestLogger()
	db, err := Open(context.Background(), path, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, log
}

func TestOpenRejectsNonBackupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "random.db")
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE something_else (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	db, err := Open(context.Background(), path, logger.NewTestLogger())
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "not a note backup file")
}

func TestOpenCreatesInventoryTables(t *testing.T) {
	db, _ := newTestDB(t)

	var count int
	err := db.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('flickr_blog', 'flickr_image')`,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Opening again must not disturb existing tables
	require.NoError(t, db.ensureTables(context.Background()))
}

func TestNotebookLookups(t *testing.T) {
	path := newBackupFile(t)
	seedNotebook(t, path, "nb-1", "Photo blogs", "Flickr")
	seedNotebook(t, path, "nb-2", "Archive", "")

	db, err := Open(context.Background(), path, logger.NewTestLogger())
	require.NoError(t, err)
	defer db.Close()

	t.Run("list sorted by name", func(t *testing.T) {
		notebooks, err := db.ListNotebooks(context.Background())
		require.NoError(t, err)
		require.Len(t, notebooks, 2)
		assert.Equal(t, "Archive", notebooks[0].Name)
		assert.Equal(t, "Photo blogs", notebooks[1].Name)
		assert.Equal(t, "Flickr", notebooks[1].Stack)
	})

	t.Run("by name", func(t *testing.T) {
		nb, err := db.GetNotebookByName(context.Background(), "Photo blogs")
		require.NoError(t, err)
		require.NotNil(t, nb)
		assert.Equal(t, "nb-1", nb.GUID)
	})

	t.Run("absent name", func(t *testing.T) {
		nb, err := db.GetNotebookByName(context.Background(), "No such notebook")
		require.NoError(t, err)
		assert.Nil(t, nb)
	})
}

func TestNoteLookups(t *testing.T) {
	path := newBackupFile(t)
	created := time.Date(2019, 4, 1, 10, 30, 0, 0, time.UTC)
	seedNote(t, path, &Note{
		GUID:         "note-1",
		Title:        "owner123 9876543 ",
		NotebookGUID: "nb-1",
		IsActive:     true,
		Tags:         []string{"flickr-image", "image", "2019"},
		Content:      `<en-note><div>see: IMG_1000.jpg</div></en-note>`,
		Created:      created,
		Updated:      created.Add(48 * time.Hour),
	})

	log := logger.NewTestLogger()
	db, err := Open(context.Background(), path, log)
	require.NoError(t, err)
	defer db.Close()

	t.Run("by guid", func(t *testing.T) {
		note, err := db.GetNoteByGUID(context.Background(), "note-1")
		require.NoError(t, err)
		require.NotNil(t, note)
		assert.Equal(t, "owner123 9876543 ", note.Title)
		assert.Equal(t, []string{"flickr-image", "image", "2019"}, note.Tags)
		assert.Contains(t, note.Content, "IMG_1000.jpg")
		assert.Equal(t, created, note.Created)
		assert.True(t, note.HasTag("flickr-image"))
		assert.False(t, note.HasTag("flickr-blog"))
	})

	t.Run("absent guid", func(t *testing.T) {
		note, err := db.GetNoteByGUID(context.Background(), "no-such-guid")
		require.NoError(t, err)
		assert.Nil(t, note)
	})

	t.Run("by title", func(t *testing.T) {
		note, err := db.GetNoteByTitle(context.Background(), "owner123 9876543 ")
		require.NoError(t, err)
		require.NotNil(t, note)
		assert.Equal(t, "note-1", note.GUID)
	})

	t.Run("duplicate title warns", func(t *testing.T) {
		seedNote(t, path, &Note{
			GUID:     "note-2",
			Title:    "owner123 9876543 ",
			IsActive: true,
		})

		note, err := db.GetNoteByTitle(context.Background(), "owner123 9876543 ")
		require.NoError(t, err)
		require.NotNil(t, note)
		assert.True(t, log.HasMessage("multiple notes share title"))
	})

	t.Run("list in notebook", func(t *testing.T) {
		notes, err := db.ListNotesInNotebook(context.Background(), "nb-1")
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "note-1", notes[0].GUID)
	})
}

func TestPhotoNoteRoundTrip(t *testing.T) {
	db, _ := newTestDB(t)
	fixed := time.Date(2024, 8, 15, 13, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return fixed }

	pn := &PhotoNote{
		ImageKey:      ImageKey("11111111@N00", "9876543"),
		SeeInfo:       "IMG_1000.jpg",
		Reference:     "https://www.flickr.com/photos/owner123/9876543/",
		GUIDNote:      "note-1",
		NoteTags:      "flickr-image,image,2019",
		BlogID:        "11111111@N00",
		PhotoID:       "9876543",
		SecretID:      "abc123",
		SizeSuffix:    "b",
		PhotoTaken:    mustDate(t, "2019-04-01"),
		PhotoUploaded: mustDate(t, "2019-04-02"),
	}
	require.NoError(t, db.UpsertPhotoNote(context.Background(), pn))
	assert.Equal(t, "2024-08-15", pn.EntryUpdated.String())

	t.Run("by key", func(t *testing.T) {
		got, err := db.GetPhotoNote(context.Background(), "11111111@N00|9876543")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pn.SeeInfo, got.SeeInfo)
		assert.Equal(t, pn.Reference, got.Reference)
		assert.Equal(t, "2024-08-15", got.EntryUpdated.String())
		assert.Equal(t, "2019-04-01", got.PhotoTaken.String())
		assert.False(t, got.DateVerified.Valid)
		assert.False(t, got.IsGone)
	})

	t.Run("by note guid", func(t *testing.T) {
		got, err := db.GetPhotoNoteByGUID(context.Background(), "note-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, pn.ImageKey, got.ImageKey)
	})

	t.Run("absent key", func(t *testing.T) {
		got, err := db.GetPhotoNote(context.Background(), "nobody|0")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("replace keeps key unique", func(t *testing.T) {
		pn.SeeInfo = "IMG_2000.jpg"
		require.NoError(t, db.UpsertPhotoNote(context.Background(), pn))

		all, err := db.ListPhotoNotesForBlog(context.Background(), "11111111@N00")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "IMG_2000.jpg", all[0].SeeInfo)
	})
}

func TestBlogRoundTrip(t *testing.T) {
	db, _ := newTestDB(t)
	fixed := time.Date(2024, 8, 15, 13, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return fixed }

	pb := &PhotoBlog{
		BlogID:     "11111111@N00",
		GUIDNote:   "blog-note-1",
		ImageCount: 1728,
		Favorite:   true,
		LastUpload: mustDate(t, "2024-07-30"),
	}
	require.NoError(t, db.UpsertBlog(context.Background(), pb))
	assert.Equal(t, "2024-08-15", pb.EntryUpdated.String())

	got, err := db.GetBlog(context.Background(), "11111111@N00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1728, got.ImageCount)
	assert.True(t, got.Favorite)
	assert.Equal(t, "2024-07-30", got.LastUpload.String())

	byGUID, err := db.GetBlogByGUID(context.Background(), "blog-note-1")
	require.NoError(t, err)
	require.NotNil(t, byGUID)
	assert.Equal(t, "11111111@N00", byGUID.BlogID)

	absent, err := db.GetBlog(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestReset(t *testing.T) {
	db, _ := newTestDB(t)

	require.NoError(t, db.UpsertPhotoNote(context.Background(), &PhotoNote{
		ImageKey: "11111111@N00|1", PhotoID: "1", BlogID: "11111111@N00",
	}))
	require.NoError(t, db.UpsertBlog(context.Background(), &PhotoBlog{
		BlogID: "11111111@N00",
	}))

	require.NoError(t, db.Reset(context.Background()))

	pn, err := db.GetPhotoNote(context.Background(), "11111111@N00|1")
	require.NoError(t, err)
	assert.Nil(t, pn)

	pb, err := db.GetBlog(context.Background(), "11111111@N00")
	require.NoError(t, err)
	assert.Nil(t, pb)

	// Tables exist again after reset
	require.NoError(t, db.UpsertBlog(context.Background(), &PhotoBlog{BlogID: "x"}))
}

func TestDate(t *testing.T) {
	t.Run("parse and render", func(t *testing.T) {
		d, err := ParseDate("2024-08-15")
		require.NoError(t, err)
		assert.True(t, d.Valid)
		assert.Equal(t, "2024-08-15", d.String())
	})

	t.Run("empty is null", func(t *testing.T) {
		d, err := ParseDate("")
		require.NoError(t, err)
		assert.False(t, d.Valid)
		assert.Equal(t, "", d.String())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseDate("15.08.2024")
		assert.Error(t, err)
	})

	t.Run("days ago", func(t *testing.T) {
		now := time.Date(2024, 8, 15, 13, 0, 0, 0, time.UTC)
		d := NewDate(now.AddDate(0, 0, -91))
		assert.Equal(t, 91, d.DaysAgo(now))
		assert.Equal(t, -1, Date{}.DaysAgo(now))
	})

	t.Run("scan null", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan(nil))
		assert.False(t, d.Valid)
	})

	t.Run("scan text", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan("2024-08-15"))
		assert.Equal(t, "2024-08-15", d.String())
	})
}

func TestImageKey(t *testing.T) {
	assert.Equal(t, "11111111@N00|9876543", ImageKey("11111111@N00", "9876543"))
}

func TestRawNoteRoundTrip(t *testing.T) {
	raw := &RawNote{
		Title:   "owner123 9876543 ",
		Content: `<en-note><div>see: IMG_1000.jpg</div></en-note>`,
		Created: "20190401T103000Z",
		Updated: "20190403T103000Z",
		Tags:    []string{"flickr-image", "image"},
	}

	blob, err := EncodeRawNote(raw)
	require.NoError(t, err)

	decoded, err := DecodeRawNote(blob)
	require.NoError(t, err)
	assert.Equal(t, raw.Title, decoded.Title)
	assert.Equal(t, raw.Tags, decoded.Tags)
	assert.Equal(t, raw.Content, decoded.Content)

	var note Note
	require.NoError(t, decoded.apply(&note))
	assert.Equal(t, time.Date(2019, 4, 1, 10, 30, 0, 0, time.UTC), note.Created)
	assert.True(t, note.Deleted.IsZero())
}

func TestDecodeRawNoteRejectsGarbage(t *testing.T) {
	_, err := DecodeRawNote([]byte("not zlib at all"))
	assert.Error(t, err)
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}
