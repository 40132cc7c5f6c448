package updater

import (
	"context"
	"fmt"

	"photonotes/pkg/database"
	"photonotes/pkg/errors"
	"photonotes/pkg/notes"
)

// updateBlogNote reconciles one blog note with its flickr_blog row.
// The blog id comes from the note's photostream link, falling back to
// the owner shared by its photo links.
func (u *Updater) updateBlogNote(ctx context.Context, note *database.Note, ref string, summary *Summary) error {
	analysis, err := u.analyzer.Analyze(note.Content)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing,
			fmt.Sprintf("cannot analyze note %s", note.GUID), err)
	}

	blogID := analysis.StreamOwner
	if blogID == "" {
		blogID = singleLinkOwner(analysis.Links)
	}
	if blogID == "" {
		u.logger.WarnWithFields("cannot tell which blog the note describes", map[string]interface{}{
			"note": ref,
		})
		return nil
	}

	row, rejected, err := u.fetchBlogRow(ctx, note, blogID)
	if err != nil {
		return err
	}
	if rejected {
		return nil
	}

	fresh := row == nil
	if fresh {
		prior, err := u.db.GetBlogByGUID(ctx, note.GUID)
		if err != nil {
			return err
		}
		if prior != nil {
			u.logger.WarnWithFields("note switched to a different blog", map[string]interface{}{
				"note":     ref,
				"old_blog": prior.BlogID,
				"new_blog": blogID,
			})
		}

		u.logger.DebugWithFields("new blog row", map[string]interface{}{
			"blog_id": blogID,
		})
		row = &database.PhotoBlog{BlogID: blogID, GUIDNote: note.GUID}
	}

	moved := row.GUIDNote != note.GUID
	if moved {
		u.logger.InfoWithFields("binding blog to its new note", map[string]interface{}{
			"blog_id": blogID,
			"note":    ref,
		})
	}

	images, err := u.db.ListPhotoNotesForBlog(ctx, blogID)
	if err != nil {
		return err
	}

	stale := fresh || moved || noteChangedSince(note, row.DateVerified)
	if len(images) != row.ImageCount {
		row.ImageCount = len(images)
		stale = true
	}

	if !stale && row.EntryUpdated.Valid && row.EntryUpdated.DaysAgo(u.now()) < u.quietDays {
		u.logger.WithField("blog_id", blogID).Debug("blog row is current")
		return nil
	}

	row.GUIDNote = note.GUID
	row.DateVerified = database.NewDate(u.now())
	if err := u.db.UpsertBlog(ctx, row); err != nil {
		return err
	}
	summary.Updated++
	return nil
}

// fetchBlogRow loads the blog row and sorts out moved and duplicated
// notes, the same way photo rows are handled.
func (u *Updater) fetchBlogRow(ctx context.Context, note *database.Note, blogID string) (*database.PhotoBlog, bool, error) {
	row, err := u.db.GetBlog(ctx, blogID)
	if err != nil || row == nil {
		return row, false, err
	}
	if row.GUIDNote == note.GUID {
		return row, false, nil
	}

	holder, err := u.db.GetNoteByGUID(ctx, row.GUIDNote)
	if err != nil {
		return nil, false, err
	}
	switch {
	case holder == nil:
		u.logger.InfoWithFields("old blog note replaced by a new one", map[string]interface{}{
			"blog_id": blogID,
			"title":   note.Title,
		})
	case holder.Deleted.IsZero():
		u.logger.ErrorWithFields("a different note already describes this blog", map[string]interface{}{
			"blog_id":  blogID,
			"existing": holder.Title,
			"rejected": note.Title,
		})
		return nil, true, nil
	default:
		u.logger.InfoWithFields("replacing a deleted blog note", map[string]interface{}{
			"blog_id": blogID,
			"title":   note.Title,
		})
	}
	return row, false, nil
}

// singleLinkOwner returns the owner shared by every photo link, empty
// when the links disagree or there are none
func singleLinkOwner(links []*notes.PhotoLink) string {
	owner := ""
	for _, link := range links {
		if owner == "" {
			owner = link.BlogID
		} else if owner != link.BlogID {
			return ""
		}
	}
	return owner
}
