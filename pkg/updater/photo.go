package updater

import (
	"context"
	"fmt"
	"strings"

	"photonotes/pkg/database"
	"photonotes/pkg/errors"
	"photonotes/pkg/notes"
)

// updatePhotoNote reconciles one photo note with its flickr_image row.
// Notes without a usable photo link are reported and left alone.
func (u *Updater) updatePhotoNote(ctx context.Context, note *database.Note, ref string, summary *Summary) error {
	analysis, err := u.analyzer.Analyze(note.Content)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeParsing,
			fmt.Sprintf("cannot analyze note %s", note.GUID), err)
	}

	link := analysis.Link
	if link == nil {
		if analysis.SeeInfo != "" {
			u.logger.WarnWithFields("note has see-info but no image link", map[string]interface{}{
				"note":     ref,
				"see_info": analysis.SeeInfo,
			})
		} else {
			u.logger.WarnWithFields("note has no link to a photo", map[string]interface{}{
				"note": ref,
			})
		}
		analysis.Warnings.Report(u.logger, ref)
		return nil
	}

	// the see-info parse feeds the warning report, so it runs whether
	// or not the row fields get rewritten below
	var seeInfo *notes.SeeFileInfo
	if analysis.SeeInfo != "" {
		seeInfo = notes.ParseSeeFilename(analysis.SeeInfo, link.PhotoID, u.logger)
		for _, marker := range seeInfo.Cleanup {
			analysis.Warnings.Add(marker, analysis.SeeInfo, "")
		}
	}

	row, rejected, err := u.fetchPhotoRow(ctx, note, link.ImageKey)
	if err != nil {
		return err
	}
	if rejected {
		analysis.Warnings.Report(u.logger, ref)
		return nil
	}

	fresh := row == nil
	if fresh {
		// collection pages sneak through as photo links now and then
		if !isDigits(link.PhotoID) {
			analysis.Warnings.Report(u.logger, ref)
			return errors.New(errors.ErrorTypeNotFound,
				fmt.Sprintf("link names no photo: %s", link.Href))
		}

		prior, err := u.db.GetPhotoNoteByGUID(ctx, note.GUID)
		if err != nil {
			return err
		}
		if prior != nil {
			u.logger.WarnWithFields("note switched to a different image", map[string]interface{}{
				"note":      ref,
				"old_image": prior.ImageKey,
				"new_image": link.ImageKey,
			})
		}

		u.logger.DebugWithFields("new inventory row", map[string]interface{}{
			"image_key": link.ImageKey,
		})
		row = &database.PhotoNote{ImageKey: link.ImageKey, GUIDNote: note.GUID}
	}

	moved := row.GUIDNote != note.GUID
	if moved {
		u.logger.InfoWithFields("binding image to its new note", map[string]interface{}{
			"image_key": row.ImageKey,
			"note":      ref,
		})
	}

	stale := fresh || moved || noteChangedSince(note, row.DateVerified)
	if stale {
		row.NoteTags = "|" + strings.Join(note.Tags, "|") + "|"
		row.BlogID = link.BlogID
		row.PhotoID = link.PhotoID
		row.SeeInfo = analysis.SeeInfo
		row.SecretID = ""
		row.SizeSuffix = ""
		if seeInfo != nil {
			row.SecretID = seeInfo.SecretID
			row.SizeSuffix = seeInfo.SizeSuffix
		}
	}

	cleanups := analysis.Warnings.Report(u.logger, ref)
	if len(cleanups) > 0 {
		summary.Cleanups++
	}
	if needCleanup := strings.Join(cleanups, "|"); needCleanup != row.NeedCleanup {
		row.NeedCleanup = needCleanup
		stale = true
	}

	if !stale && row.EntryUpdated.Valid && row.EntryUpdated.DaysAgo(u.now()) < u.quietDays {
		u.logger.WithField("image_key", row.ImageKey).Debug("inventory row is current")
		return nil
	}

	row.GUIDNote = note.GUID
	row.DateVerified = database.NewDate(u.now())
	if err := u.db.UpsertPhotoNote(ctx, row); err != nil {
		return err
	}
	summary.Updated++
	return nil
}

// fetchPhotoRow loads the inventory row for an image and sorts out
// moved and duplicated notes. The second result is true when a
// different live note already describes the image; the scanned note is
// rejected then.
func (u *Updater) fetchPhotoRow(ctx context.Context, note *database.Note, imageKey string) (*database.PhotoNote, bool, error) {
	row, err := u.db.GetPhotoNote(ctx, imageKey)
	if err != nil || row == nil {
		return row, false, err
	}
	if row.GUIDNote == note.GUID {
		u.logger.WithField("image_key", imageKey).Debug("note already in the inventory")
		return row, false, nil
	}

	holder, err := u.db.GetNoteByGUID(ctx, row.GUIDNote)
	if err != nil {
		return nil, false, err
	}
	switch {
	case holder == nil:
		u.logger.InfoWithFields("old note replaced by a new one", map[string]interface{}{
			"image_key": imageKey,
			"title":     note.Title,
		})
	case holder.Deleted.IsZero():
		u.logger.ErrorWithFields("a different note already describes this image", map[string]interface{}{
			"image_key": imageKey,
			"existing":  holder.Title,
			"rejected":  note.Title,
		})
		return nil, true, nil
	default:
		u.logger.InfoWithFields("replacing a deleted note", map[string]interface{}{
			"image_key": imageKey,
			"title":     note.Title,
		})
	}
	return row, false, nil
}
