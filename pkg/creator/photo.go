package creator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photonotes/pkg/database"
	"photonotes/pkg/enex"
	apperrors "photonotes/pkg/errors"
	"photonotes/pkg/flickr"
	"photonotes/pkg/metadata"
	"photonotes/pkg/walker"
)

// CreatePhotoNote builds the photo-note export for a Flickr photo
// URL. The URL may pin the stream page with a ":<page>" suffix when
// the photo sits deeper than the walk limit.
func (c *Creator) CreatePhotoNote(ctx context.Context, rawURL string) error {
	target, err := flickr.ParseURL(rawURL)
	if err != nil {
		return err
	}
	if target.Kind != flickr.URLKindPhoto {
		return apperrors.New(apperrors.ErrorTypeParsing,
			fmt.Sprintf("not a Flickr photo URL: %s", rawURL))
	}

	fields := map[string]interface{}{"url": target.URL}
	if target.Page > 0 {
		fields["page"] = target.Page
	}
	c.logger.InfoWithFields("creating photo note", fields)

	exportPath := c.exports.PhotoNotePath(target.Owner, target.PhotoID)
	if err := c.exports.StartMarker(exportPath, target.URL); err != nil {
		return err
	}
	return c.finish(exportPath, target.URL, c.buildPhotoNote(ctx, target, exportPath))
}

func (c *Creator) buildPhotoNote(ctx context.Context, target *flickr.URLSpec, exportPath string) error {
	person, err := c.lookupOwner(ctx, target.URL, target.Owner, c.dumps.SavePersonInfo)
	if err != nil {
		return err
	}
	summary, err := c.summarizeStream(ctx, person)
	if err != nil {
		return err
	}

	draft := enex.NewDraft()
	c.stampDraft(draft)
	ownerDraft(draft, person, target.Owner)
	draft.Set("flickr_url", target.URL)
	draft.Set("user_info", userInfoLine(person, target.Owner))
	draft.Set("blog_info", fmt.Sprintf("%s: #=%s,  t=%s,  u=%s",
		draft.Get("today"), enex.FormatCount(summary.count), summary.lastTaken, summary.lastUpload))

	// The photo must be reachable by walking the public stream,
	// otherwise the note would point at an unlisted or deleted image.
	ref, err := c.findPhoto(ctx, person.ID, target)
	if err != nil {
		return c.reportMissingPhoto(target, person.ID, err)
	}
	c.logger.DebugWithFields("photo located", map[string]interface{}{
		"position": ref.Position,
		"page":     ref.Page,
	})

	imageKey := database.ImageKey(target.Owner, target.PhotoID)
	photoNote, err := c.db.GetPhotoNote(ctx, imageKey)
	if err != nil {
		return err
	}
	if photoNote != nil {
		c.logger.WithField("image_key", imageKey).Info("image already has a photo note")
	} else {
		c.logger.WithField("image_key", imageKey).Debug("image not in the note inventory")
	}

	photo, raw, err := c.client.GetPhotoInfo(ctx, target.PhotoID, "")
	if err != nil {
		return err
	}
	if _, err := c.dumps.SavePhotoInfo(target.Owner, target.PhotoID, raw); err != nil {
		c.logger.WithError(err).Warn("cannot write photo dump")
	}

	noteTags := map[string]struct{}{
		"flickr-photonote":     {},
		"flickr-image":         {},
		"image":                {},
		"image-update":         {},
		c.now().Format("2006"): {},
	}

	// Repeat notes keep the tags of the inventoried note and flag
	// themselves with a "[new]" title prefix so they are easy to merge
	// by hand.
	noteTitle := photo.Title.Text
	if photoNote != nil {
		for _, tag := range strings.Split(photoNote.NoteTags, "|") {
			if tag != "" {
				noteTags[tag] = struct{}{}
			}
		}
		existing, err := c.db.GetNoteByGUID(ctx, photoNote.GUIDNote)
		if err != nil {
			return err
		}
		noteTitle = "[new] " + photo.Title.Text
		if existing != nil {
			noteTitle = "[new] " + existing.Title
		}
	}
	draft.SetQuoted("flickr_title", photo.Title.Text)

	license, err := enex.LookupLicense(photo.License)
	if err != nil {
		return err
	}
	draft.Set("license", photo.License)
	draft.Set("license_text", license.Text())
	for _, tag := range license.Tags() {
		noteTags[tag] = struct{}{}
	}

	draft.Set("photo_taken", takenStamp(photo))
	draft.Set("photo_uploaded", unixDate(photo.Dates.Posted))
	draft.Set("lastupdate", unixDateTime(photo.Dates.LastUpdate))

	description, err := enex.CleanupDescription(photo.Description.Text, c.logger)
	if err != nil {
		return err
	}
	draft.Set("description", description)

	pageURL := photo.PageURL()
	if pageURL == "" {
		pageURL = flickr.PhotoPageURL(target.Owner, target.PhotoID)
	}
	draft.Set("photo_url", pageURL)
	draft.Set("image_id", target.PhotoID)

	locationInfo, err := c.photoLocation(ctx, draft, target.PhotoID)
	if err != nil {
		return err
	}
	if locationInfo != "" && photoNote == nil {
		noteTitle += " | " + locationInfo
	}
	draft.SetQuoted("note_title", noteTitle)

	sizes, err := c.client.GetSizes(ctx, target.PhotoID)
	if err != nil {
		return err
	}
	resource, previewFn, err := c.photoPreview(ctx, target.Owner, sizes)
	if err != nil {
		return err
	}
	applyResource(draft, resource, previewFn)

	draft.Set("tags_info", tagList(photo))

	contexts, err := c.client.GetAllContexts(ctx, target.PhotoID)
	if err != nil {
		return err
	}
	contextLists(draft, contexts, person)

	if err := c.archivePhoto(ctx, draft, target, person.ID, sizes); err != nil {
		return err
	}

	draft.Set("note_tags", renderNoteTags(noteTags))

	rendered, err := c.renderer.RenderNote(enex.PhotoNote, draft)
	if err != nil {
		return err
	}
	return c.writeExport(rendered, exportPath)
}

func (c *Creator) findPhoto(ctx context.Context, ownerID string, target *flickr.URLSpec) (*walker.PhotoReference, error) {
	if target.Page > 0 {
		return c.walker.FindPhotoOnPage(ctx, ownerID, target.PhotoID, target.Page)
	}
	return c.walker.FindPhoto(ctx, ownerID, target.PhotoID)
}

// reportMissingPhoto dumps the scanned window for inspection and wraps
// not-found outcomes so the start marker keeps the plain URL. Other
// walk failures pass through unchanged.
func (c *Creator) reportMissingPhoto(target *flickr.URLSpec, ownerID string, err error) error {
	var notFound *walker.NotFoundError
	if errors.As(err, &notFound) && len(notFound.Scanned) > 0 {
		listPath, dumpErr := metadata.WriteScanList(c.exports.ImportDir(), ownerID, notFound.Scanned)
		if dumpErr != nil {
			c.logger.WithError(dumpErr).Warn("cannot write scan list")
		} else if listPath != "" {
			c.logger.WithField("file", listPath).Info("scan list written for inspection")
		}
	}

	if !apperrors.IsNotFound(err) {
		return err
	}
	c.logger.ErrorWithFields("image not found in stream", map[string]interface{}{
		"blog_id":  target.Owner,
		"photo_id": target.PhotoID,
	})
	c.logCacheStats()
	return &notCreatedError{err: err}
}

// takenStamp formats the taken date at minute precision, with the
// unknown-granularity marker Flickr reports for scanned uploads.
func takenStamp(photo *flickr.PhotoInfo) string {
	taken := photo.Dates.Taken
	if len(taken) > 16 {
		taken = taken[:16]
	}
	switch unknown := photo.Dates.TakenUnknown.Int(); {
	case unknown == 1:
		taken += " (unknown)"
	case unknown > 1:
		taken += fmt.Sprintf(" (unknown-%d)", unknown)
	}
	return taken
}

// photoLocation fills the geo line and returns the place description
// appended to fresh note titles, empty when the photo has no geo data.
func (c *Creator) photoLocation(ctx context.Context, draft *enex.Draft, photoID string) (string, error) {
	location, err := c.client.GetLocation(ctx, photoID)
	if err != nil {
		return "", err
	}
	if location == nil {
		c.logger.WithField("photo_id", photoID).Debug("photo has no location information")
		draft.Set("location_text", "<span>(no location info)</span>")
		return "", nil
	}

	info := location.Describe()
	zoom := location.Accuracy
	if zoom == "" {
		zoom = "13"
	}
	mapURL := fmt.Sprintf("https://www.flickr.com/map/?fLat=%s&amp;fLon=%s&amp;zl=%s&amp;photo=%s",
		location.Latitude, location.Longitude, zoom, photoID)
	draft.Set("location_text", fmt.Sprintf(
		`<span style="color:rgb(0, 0, 0);">%s</span> | <a href="%s" rev="en_rl_none"><span style="color:rgb(0, 0, 0);">map/?fLat=%s&amp;fLon=%s</span></a>`,
		enex.QuoteXML(info), mapURL, location.Latitude, location.Longitude))
	return info, nil
}

// photoPreview builds the embedded preview attachment, preferring the
// Medium rendition and falling back to the placeholder square when the
// photo exposes no usable size.
func (c *Creator) photoPreview(ctx context.Context, blogID string, sizes []flickr.Size) (*enex.Resource, string, error) {
	size := pickSize(sizes, "Medium", "Medium 500", "Small")
	if size == nil {
		c.logger.Warn("no preview size available, embedding placeholder")
		return enex.MissingImage(c.logger), "-NA-", nil
	}

	name := previewName(size)
	data, err := c.cachedImage(ctx, blogID, name, size.Source)
	if err != nil {
		return nil, "", err
	}
	return enex.NewResource(data, name, size.Width.Int(), size.Height.Int(), c.logger), name, nil
}

// tagList renders the photo's tags, one list item per tag.
func tagList(photo *flickr.PhotoInfo) string {
	var spans []string
	for _, tag := range photo.Tags.Tag {
		spans = append(spans, `<span style="color:rgb(0, 0, 0);">`+enex.QuoteXML(tag.Text)+`</span>`)
	}
	if len(spans) == 0 {
		return "<div>(no tags)</div>"
	}
	return "<ul>\n<li><div>" + strings.Join(spans, "</div></li>\n<li><div>") + "\n</div></li>\n</ul>"
}

// contextLists renders the album and group memberships into the
// draft. Groups are ordered by pool size, smallest first, so the
// niche groups stay visible at the top of the list.
func contextLists(draft *enex.Draft, contexts *flickr.Contexts, person *flickr.Person) {
	draft.SetInt("albums_count", len(contexts.Sets))
	if len(contexts.Sets) == 0 {
		draft.Set("albums_info", "no albums")
	} else {
		lines := []string{"<ul>"}
		for _, set := range contexts.Sets {
			href := person.PhotosURL.Text + "albums/" + set.ID
			lines = append(lines,
				"<li><div>",
				fmt.Sprintf(`<a href="%s" rev="en_rl_none"><span style="color:rgb(0, 0, 0);">%s</span></a> (#=%s)`,
					href, enex.QuoteXML(set.Title), enex.FormatCount(set.CountPhoto.Int())),
				"</div></li>")
		}
		lines = append(lines, "</ul>")
		draft.Set("albums_info", strings.Join(lines, "\n"))
	}

	pools := make([]flickr.ContextPool, len(contexts.Pools))
	copy(pools, contexts.Pools)
	sort.SliceStable(pools, func(i, j int) bool {
		return pools[i].PoolCount.Int() < pools[j].PoolCount.Int()
	})

	draft.SetInt("groups_count", len(pools))
	if len(pools) == 0 {
		draft.Set("groups_info", "no groups")
	} else {
		lines := []string{"<ul>"}
		for _, pool := range pools {
			lines = append(lines,
				"<li><div>",
				fmt.Sprintf(`<a href="%s" rev="en_rl_none"><span style="color:rgb(0, 0, 0);">%s</span></a> (#=%s)`,
					pool.URL, enex.QuoteXML(pool.Title), enex.FormatCount(pool.PoolCount.Int())),
				"</div></li>")
		}
		lines = append(lines, "</ul>", "<br/>")
		draft.Set("groups_info", strings.Join(lines, "\n"))
	}
}

// archivePhoto saves a full-size rendition under the archive
// directory's current-month folder and fills the archive parameters.
// Archiving is skipped, not failed, when no archive directory is
// configured or the directory is gone.
func (c *Creator) archivePhoto(ctx context.Context, draft *enex.Draft, target *flickr.URLSpec, ownerID string, sizes []flickr.Size) error {
	archiveName := "(not archived)"
	archiveInfo := ""
	filename := "-NA-"

	size := pickSize(sizes, "Large", "Medium")
	if size == nil {
		c.logger.WithField("photo_id", target.PhotoID).Warn("no archive size available")
	} else {
		filename = lastSegment(size.Source)
		if dir := c.archiveRoot(); dir != "" {
			month := c.now().Format("2006-01")
			monthDir := filepath.Join(dir, month)
			if err := os.MkdirAll(monthDir, 0755); err != nil {
				return fmt.Errorf("failed to create archive folder: %w", err)
			}

			// Source names start with the photo id; the rest of the
			// name survives so renamed accounts still sort together.
			parts := strings.Split(filename, "_")
			archiveName = ownerID + " " + target.PhotoID + " " + strings.Join(parts[1:], "_")
			if target.Owner != ownerID {
				archiveName = target.Owner + " " + archiveName
			}

			dest := filepath.Join(monthDir, archiveName)
			if _, statErr := os.Stat(dest); os.IsNotExist(statErr) {
				c.logger.InfoWithFields("archiving image", map[string]interface{}{
					"file": filename,
					"size": size.Label,
				})
				data, err := c.client.DownloadImage(ctx, size.Source)
				if err != nil {
					return err
				}
				if err := os.WriteFile(dest, data, 0644); err != nil {
					return fmt.Errorf("failed to write archive copy: %w", err)
				}
			}
			archiveInfo = " | " + month
		}
	}

	draft.Set("archive_name", archiveName)
	draft.Set("archive_info", archiveInfo)
	draft.Set("filename", filename)
	return nil
}

// archiveRoot returns the archive directory, empty when archiving is
// off or the directory does not exist.
func (c *Creator) archiveRoot() string {
	if c.archiveDir == "" {
		return ""
	}
	info, err := os.Stat(c.archiveDir)
	if err != nil || !info.IsDir() {
		c.logger.WithField("dir", c.archiveDir).Warn("archive directory unavailable, skipping archive copy")
		return ""
	}
	return c.archiveDir
}
