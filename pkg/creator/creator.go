package creator

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"photonotes/pkg/config"
	"photonotes/pkg/database"
	"photonotes/pkg/enex"
	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
	"photonotes/pkg/metadata"
	"photonotes/pkg/storage"
	"photonotes/pkg/walker"
)

// noteStampFormat is the created/updated timestamp format ENEX expects.
const noteStampFormat = "20060102T150405Z"

// Creator builds export notes for Flickr photos and profiles. Each
// create call resolves the owner, gathers the photo or profile detail
// through the API client, renders the note and settles the start
// marker in the import directory.
type Creator struct {
	client   *flickr.Client
	db       *database.DB
	exports  *storage.Manager
	dumps    *metadata.Store
	renderer *enex.Renderer
	walker   *walker.Walker
	logger   logger.Logger

	archiveDir     string
	pageSize       int
	xmlDiagnostics bool

	now func() time.Time
}

// New wires a Creator from the loaded configuration. The import and
// metadata directories are created on demand.
func New(cfg *config.Config, client *flickr.Client, db *database.DB, log logger.Logger) (*Creator, error) {
	exports, err := storage.NewManager(cfg.Output.ImportDir)
	if err != nil {
		return nil, err
	}

	renderer := enex.NewRenderer(log)
	if cfg.Output.TemplateDir != "" {
		renderer.SetTemplateDir(cfg.Output.TemplateDir)
	}

	return &Creator{
		client:         client,
		db:             db,
		exports:        exports,
		dumps:          metadata.NewStore(cfg.Output.BaseDir, log),
		renderer:       renderer,
		walker:         walker.New(client, cfg.Walker.PageSize, cfg.Walker.MaxPosition, log),
		logger:         log,
		archiveDir:     cfg.Output.ArchiveDir,
		pageSize:       cfg.Walker.PageSize,
		xmlDiagnostics: cfg.Output.WriteXML,
		now:            time.Now,
	}, nil
}

// SetXMLDiagnostics controls whether a .xml copy of the note body is
// written next to every export, not only next to failed ones.
func (c *Creator) SetXMLDiagnostics(on bool) {
	c.xmlDiagnostics = on
}

// notCreatedError wraps failures whose evidence already sits in the
// import directory (a scan list or a diagnostic body). The start
// marker keeps the plain URL for these instead of being rewritten
// with error details.
type notCreatedError struct {
	err error
}

func (e *notCreatedError) Error() string { return e.err.Error() }
func (e *notCreatedError) Unwrap() error { return e.err }

// finish settles the start marker after a build: cleared on success,
// rewritten with the failure for unexpected errors, left as the plain
// URL when the failure wrote its own evidence.
func (c *Creator) finish(exportPath, url string, err error) error {
	if err == nil {
		return c.exports.ClearMarker(exportPath)
	}
	var kept *notCreatedError
	if errors.As(err, &kept) {
		return kept.err
	}
	if markErr := c.exports.FailMarker(exportPath, url, err, errorDetails(err)); markErr != nil {
		c.logger.WithError(markErr).Error("cannot update failure marker")
	}
	return err
}

// errorDetails renders the cause chain for the failure marker, one
// cause per line.
func errorDetails(err error) string {
	var lines []string
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		lines = append(lines, cause.Error())
	}
	return strings.Join(lines, "\n")
}

// lookupOwner resolves a Flickr page URL to the owner's profile and
// hands the raw payload to save for the metadata dump.
func (c *Creator) lookupOwner(ctx context.Context, pageURL, blogID string,
	save func(string, json.RawMessage) (string, error)) (*flickr.Person, error) {

	ref, err := c.client.LookupUser(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	person, raw, err := c.client.GetPersonInfo(ctx, ref.User.ID)
	if err != nil {
		return nil, err
	}
	if _, err := save(blogID, raw); err != nil {
		c.logger.WithError(err).Warn("cannot write profile dump")
	}

	c.logger.InfoWithFields("resolved stream owner", map[string]interface{}{
		"blog_id":  blogID,
		"user_id":  person.ID,
		"username": person.Username.Text,
		"photos":   person.Photos.Count.Int(),
	})
	return person, nil
}

// streamSummary is the newest-photo snapshot shown in the activity
// line of both note kinds.
type streamSummary struct {
	recent     *flickr.StreamPhoto
	count      int
	lastTaken  string
	lastUpload string
}

// summarizeStream fetches the first stream page and extracts the
// newest photo's dates. Streams without public photos yield the "---"
// placeholders.
func (c *Creator) summarizeStream(ctx context.Context, person *flickr.Person) (*streamSummary, error) {
	page, err := c.client.GetPhotos(ctx, person.ID, 1, c.pageSize)
	if err != nil {
		return nil, err
	}

	summary := &streamSummary{
		count:      person.Photos.Count.Int(),
		lastTaken:  "---",
		lastUpload: "---",
	}
	if len(page.Photo) == 0 {
		c.logger.WithField("user_id", person.ID).Warn("photo stream is empty")
		return summary, nil
	}

	recent := page.Photo[0]
	summary.recent = &recent
	if recent.DateTaken != "" {
		taken := recent.DateTaken
		if len(taken) > 10 {
			taken = taken[:10]
		}
		if recent.DateTakenUnknown.Int() == 1 {
			taken = "?" + taken
		}
		summary.lastTaken = taken
	}
	summary.lastUpload = unixDate(recent.DateUpload)
	return summary, nil
}

// stampDraft fills the clock-derived parameters every note carries.
func (c *Creator) stampDraft(draft *enex.Draft) {
	now := c.now()
	stamp := now.UTC().Format(noteStampFormat)
	draft.Set("note_created", stamp)
	draft.Set("note_updated", stamp)
	draft.Set("today", now.Format("2006-01-02"))
	draft.Set("timestamp", now.Format("2006-01-02T15:04"))
}

// ownerDraft fills the owner parameters shared by both note kinds.
func ownerDraft(draft *enex.Draft, person *flickr.Person, blogID string) {
	draft.Set("blog_id", blogID)
	draft.SetQuoted("user_name", person.Username.Text)
	draft.SetQuoted("real_name", person.RealName.Text)

	profileURL := person.ProfileURL.Text
	if profileURL == "" {
		profileURL = flickr.PeopleURL(blogID)
	}
	draft.Set("profile_url", profileURL)

	location := person.Location.Text
	if location == "" {
		location = "(no location)"
	}
	draft.SetQuoted("user_location", location)
}

// userInfoLine renders the owner header of a photo note:
// "real | user | blog-id || location", with the real name and the
// location dropped when absent.
func userInfoLine(person *flickr.Person, blogID string) string {
	var line string
	if real := person.RealName.Text; real != "" && real != person.Username.Text {
		line = enex.QuoteXML(real) + " | "
	}
	line += enex.QuoteXML(person.Username.Text) + " | " + blogID
	if location := person.Location.Text; location != "" {
		line += " || " + enex.QuoteXML(location)
	}
	return line
}

// unixDate formats a unix-seconds string as a date, "---" when the
// value is missing or malformed.
func unixDate(value string) string {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return "---"
	}
	return time.Unix(seconds, 0).Format("2006-01-02")
}

// unixDateTime is unixDate with second precision.
func unixDateTime(value string) string {
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return "---"
	}
	return time.Unix(seconds, 0).Format("2006-01-02 15:04:05")
}

// pickSize returns the first size whose label matches, in the order
// the labels are given, nil when none match.
func pickSize(sizes []flickr.Size, labels ...string) *flickr.Size {
	for _, label := range labels {
		for i := range sizes {
			if sizes[i].Label == label {
				return &sizes[i]
			}
		}
	}
	return nil
}

// lastSegment returns the final path segment of a URL.
func lastSegment(u string) string {
	parts := strings.Split(u, "/")
	return parts[len(parts)-1]
}

// previewName builds the cache filename for a rendition:
// "<source stem>_<size key><ext>". The size key is the final segment
// of the size's photo-page URL, which keeps different renditions of
// one source apart in the cache.
func previewName(size *flickr.Size) string {
	source := lastSegment(size.Source)
	ext := path.Ext(source)
	stem := strings.TrimSuffix(source, ext)
	key := lastSegment(strings.TrimSuffix(size.URL, "/"))
	return stem + "_" + key + ext
}

// cachedImage returns the image bytes for source, reusing the
// per-owner disk cache to keep repeated runs off the image hosts.
func (c *Creator) cachedImage(ctx context.Context, ownerID, filename, source string) ([]byte, error) {
	data, err := c.dumps.LoadImage(ownerID, filename)
	if err != nil {
		c.logger.WithError(err).Warn("cannot read cached image")
	}
	if data != nil {
		c.logger.WithField("file", filename).Debug("using cached image")
		return data, nil
	}

	data, err = c.client.DownloadImage(ctx, source)
	if err != nil {
		return nil, err
	}
	if _, err := c.dumps.SaveImage(ownerID, filename, data); err != nil {
		c.logger.WithError(err).Warn("cannot cache image")
	} else {
		c.logger.WithField("file", filename).Info("saved image to cache")
	}
	return data, nil
}

// applyResource copies an attachment into the draft's preview and
// media parameters. name is the preview label, "-NA-" for the
// placeholder square.
func applyResource(draft *enex.Draft, resource *enex.Resource, name string) {
	draft.Set("preview_fn", name)
	draft.Set("filehash", resource.Hash)
	draft.Set("mimetype", resource.Mime)
	draft.SetInt("preview_width", resource.Width)
	draft.SetInt("preview_height", resource.Height)
	draft.SetInt("media_width", resource.Width)
	draft.SetInt("media_height", resource.Height)
	draft.Set("resource_data", resource.Base64())
}

// renderNoteTags serializes a tag set for the export wrapper, sorted
// for stable output.
func renderNoteTags(tags map[string]struct{}) string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	items := make([]string, len(names))
	for i, name := range names {
		items[i] = "<tag>" + enex.QuoteXML(name) + "</tag>"
	}
	return strings.Join(items, "\n")
}

// writeExport persists a rendered note. A body that fails validation
// becomes a .xml diagnostic instead of an export; a wrapper that
// fails validation is still exported with the problem prefixed so it
// can be patched by hand.
func (c *Creator) writeExport(rendered *enex.RenderedNote, exportPath string) error {
	if rendered.ContentErr != nil {
		diagPath, err := c.exports.WriteDiagnostic(exportPath, rendered.ContentErr.Error(), rendered.Content)
		if err != nil {
			c.logger.WithError(err).Error("cannot write diagnostic body")
		} else {
			c.logger.WithField("file", diagPath).Warn("note body failed validation")
		}
		c.logCacheStats()
		return &notCreatedError{err: rendered.ContentErr}
	}

	if c.xmlDiagnostics {
		if _, err := c.exports.WriteDiagnostic(exportPath, "OK", rendered.Content); err != nil {
			c.logger.WithError(err).Warn("cannot write diagnostic body")
		}
	}

	if err := c.exports.WriteExport(exportPath, rendered.ENEX); err != nil {
		return err
	}
	c.logCacheStats()

	if rendered.ENEXErr != nil {
		c.logger.WithFields(map[string]interface{}{
			"file":  exportPath,
			"error": rendered.ENEXErr.Error(),
		}).Warn("export failed validation, written with diagnostic prefix")
		return &notCreatedError{err: rendered.ENEXErr}
	}

	c.logger.WithField("file", exportPath).Info("created note")
	return nil
}

func (c *Creator) logCacheStats() {
	c.logger.Info("api cache stats:\n" + c.client.Cache().String())
}
