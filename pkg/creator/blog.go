package creator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"photonotes/pkg/enex"
	apperrors "photonotes/pkg/errors"
	"photonotes/pkg/flickr"
)

// CreateBlogNote builds the blog-note export for a Flickr people URL.
func (c *Creator) CreateBlogNote(ctx context.Context, rawURL string) error {
	target, err := flickr.ParseURL(rawURL)
	if err != nil {
		return err
	}
	if target.Kind != flickr.URLKindPerson {
		return apperrors.New(apperrors.ErrorTypeParsing,
			fmt.Sprintf("not a Flickr people URL: %s", rawURL))
	}

	c.logger.WithField("url", target.URL).Info("creating blog note")

	exportPath := c.exports.BlogNotePath(target.Owner)
	if err := c.exports.StartMarker(exportPath, target.URL); err != nil {
		return err
	}
	return c.finish(exportPath, target.URL, c.buildBlogNote(ctx, target, exportPath))
}

func (c *Creator) buildBlogNote(ctx context.Context, target *flickr.URLSpec, exportPath string) error {
	person, err := c.lookupOwner(ctx, target.URL, target.Owner, c.dumps.SaveBlogInfo)
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
	draft.Set("last_taken", summary.lastTaken)
	draft.Set("last_upload", summary.lastUpload)

	// Streams whose newest photo has no taken date at all drop the
	// taken part instead of showing a placeholder.
	blogInfo := fmt.Sprintf("%s: #=%s,  t=%s,  u=%s",
		draft.Get("today"), enex.FormatCount(summary.count), summary.lastTaken, summary.lastUpload)
	if summary.recent != nil && summary.recent.DateTaken == "" {
		blogInfo = fmt.Sprintf("%s: #=%s,  u=%s",
			draft.Get("today"), enex.FormatCount(summary.count), summary.lastUpload)
	}
	draft.Set("blog_info", blogInfo)

	details := "<div>(no description)</div>"
	if person.Description.Text != "" {
		details, err = enex.CleanupProfile(person.Description.Text, c.logger)
		if err != nil {
			return err
		}
	}
	draft.Set("blog_details", details)
	draft.Set("blog_props", blogProps(person))

	draft.SetQuoted("note_title", blogNoteTitle(person, target.Owner))
	draft.Set("blog_url", person.PhotosURL.Text)
	draft.Set("blog_link", fmt.Sprintf("<a href=\"%s\">\n%s\n</a>", target.URL, target.URL))

	albums, err := c.client.GetPhotosets(ctx, person.ID)
	if err != nil {
		return err
	}
	draft.Set("albums_list", c.albumList(albums))

	galleries, err := c.client.GetGalleries(ctx, person.ID)
	if err != nil {
		return err
	}
	draft.Set("gallery_list", galleryList(galleries))
	extraTags := ""
	if len(galleries) > 0 {
		extraTags = "<tag>blog_galleries</tag>"
	}
	draft.Set("extratags", extraTags)

	resource, previewFn, err := c.blogThumbnail(ctx, target.Owner, person, summary.recent)
	if err != nil {
		return err
	}
	applyResource(draft, resource, previewFn)
	draft.Set("filename", previewFn)

	rendered, err := c.renderer.RenderNote(enex.BlogNote, draft)
	if err != nil {
		return err
	}
	return c.writeExport(rendered, exportPath)
}

// blogNoteTitle assembles "[new] real | user | blog-id | Flickr blog",
// with the NSID appended when the URL segment is a path alias.
func blogNoteTitle(person *flickr.Person, blogID string) string {
	var parts []string
	if real := strings.TrimSpace(person.RealName.Text); real != "" && real != person.Username.Text {
		parts = append(parts, real)
	}
	if user := strings.TrimSpace(person.Username.Text); user != "" {
		parts = append(parts, user)
	}
	parts = append(parts, blogID)
	if !flickr.IsNSID(blogID) {
		parts = append(parts, person.ID)
	}
	return "[new] " + strings.Join(parts, " | ") + " | Flickr blog"
}

// blogProps renders the profile facts list: join date, first taken
// date, current city and the pro badge when present.
func blogProps(person *flickr.Person) string {
	joined := unixDate(person.Photos.FirstDate.Text)
	firstTaken := person.Photos.FirstDateTaken.Text
	if len(firstTaken) > 10 {
		firstTaken = firstTaken[:10]
	}
	if firstTaken == "" {
		firstTaken = "---"
	}
	city := enex.QuoteXML(person.Location.Text)
	if city == "" {
		city = "---"
	}

	props := fmt.Sprintf("<li>Joined:  %s</li>\n<li>First taken:  %s</li>\n<li>Current city:  %s</li>",
		joined, firstTaken, city)
	if person.IsPro.Int() != 0 {
		props += "\n<li>FlickrPro:  Yes</li>"
	}
	return props
}

// albumList renders the owner's albums, largest first. A count
// mismatch between the photos and count_photos fields usually means
// videos, worth a warning because the note only reports one number.
func (c *Creator) albumList(albums []flickr.Photoset) string {
	if len(albums) == 0 {
		return "<div><span>No albums</span></div>"
	}

	sorted := make([]flickr.Photoset, len(albums))
	copy(sorted, albums)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CountPhotos.Int() > sorted[j].CountPhotos.Int()
	})

	var items []string
	for _, album := range sorted {
		if album.Photos.Int() != album.CountPhotos.Int() {
			c.logger.WarnWithFields("album counts disagree", map[string]interface{}{
				"album":        album.Title.Text,
				"photos":       album.Photos.Int(),
				"count_photos": album.CountPhotos.Int(),
			})
		}
		items = append(items, fmt.Sprintf("<li>%s | #=%s u=%s</li>",
			enex.QuoteXML(album.Title.Text),
			enex.FormatCount(album.CountPhotos.Int()),
			unixDate(album.DateUpdate)))
	}
	return "<ul>\n" + strings.Join(items, "\n") + "\n</ul>"
}

// galleryList renders the owner's galleries, largest first.
func galleryList(galleries []flickr.Gallery) string {
	if len(galleries) == 0 {
		return "<div><span>No galleries</span></div>"
	}

	sorted := make([]flickr.Gallery, len(galleries))
	copy(sorted, galleries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CountPhotos.Int() > sorted[j].CountPhotos.Int()
	})

	var items []string
	for _, gallery := range sorted {
		id := gallery.GalleryID
		if id == "" {
			id = gallery.ID
		}
		items = append(items, fmt.Sprintf("<li>%s | %s | #=%s c=%s u=%s</li>",
			enex.QuoteXML(gallery.Title.Text),
			id,
			enex.FormatCount(gallery.CountPhotos.Int()),
			unixDate(gallery.DateCreate),
			unixDate(gallery.DateUpdate)))
	}
	return "<ul>\n" + strings.Join(items, "\n") + "\n</ul>"
}

// blogThumbnail embeds the newest photo's thumbnail. Empty streams
// fall back to the owner's buddy icon when they uploaded one, and to
// the placeholder square otherwise.
func (c *Creator) blogThumbnail(ctx context.Context, blogID string, person *flickr.Person, recent *flickr.StreamPhoto) (*enex.Resource, string, error) {
	if recent == nil {
		if iconURL := buddyIconSource(person); iconURL != "" {
			name := lastSegment(iconURL)
			data, err := c.cachedImage(ctx, blogID, name, iconURL)
			if err != nil {
				c.logger.WithError(err).Warn("cannot fetch buddy icon, embedding placeholder")
			} else {
				// Buddy icons are 48x48 squares
				return enex.NewResource(data, name, 48, 48, c.logger), name, nil
			}
		}
		c.logger.Warn("no recent photo, embedding placeholder")
		return enex.MissingImage(c.logger), "-NA-", nil
	}

	sizes, err := c.client.GetSizes(ctx, recent.ID)
	if err != nil {
		return nil, "", err
	}
	size := pickSize(sizes, "Thumbnail", "Small")
	if size == nil {
		c.logger.WithField("photo_id", recent.ID).Warn("no thumbnail size available, embedding placeholder")
		return enex.MissingImage(c.logger), "-NA-", nil
	}

	name := lastSegment(size.Source)
	data, err := c.cachedImage(ctx, blogID, name, size.Source)
	if err != nil {
		return nil, "", err
	}
	return enex.NewResource(data, name, size.Width.Int(), size.Height.Int(), c.logger), name, nil
}

// buddyIconSource returns the owner's custom avatar URL, empty for
// accounts on the shared default icon.
func buddyIconSource(person *flickr.Person) string {
	if person == nil || person.IconServer == "" || person.IconServer == "0" {
		return ""
	}
	return flickr.BuddyIconURL(person.IconFarm.Int(), person.IconServer, person.ID)
}
