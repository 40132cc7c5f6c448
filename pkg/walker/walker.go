package walker

import (
	"context"
	"fmt"

	"photonotes/pkg/errors"
	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
)

// ErrEmptyStream is returned when the owner has no public photos at all
var ErrEmptyStream = &errors.Error{
	Type:    errors.ErrorTypeNotFound,
	Message: "photo stream is empty",
}

// ErrNotFoundWithinLimit is the class of every unsuccessful walk; the
// wrapping NotFoundError carries the details
var ErrNotFoundWithinLimit = &errors.Error{
	Type:    errors.ErrorTypeNotFound,
	Message: "photo not found within scan limit",
}

// PhotoReference identifies one photo within an owner's stream. The
// position is 1-based, counted most-recent-first, and only meaningful
// relative to the walk that produced it.
type PhotoReference struct {
	OwnerID   string
	OwnerName string
	PhotoID   string
	Position  int
	Page      int
}

// NotFoundError reports a walk that ended without a match. Scanned
// holds every photo seen, in stream order, so the caller can dump the
// window for manual inspection.
type NotFoundError struct {
	PhotoID   string
	Positions int
	Exhausted bool
	Scanned   []flickr.StreamPhoto
}

func (e *NotFoundError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("photo %s not in stream, exhausted after %d photos", e.PhotoID, e.Positions)
	}
	return fmt.Sprintf("photo %s not found within first %d stream positions", e.PhotoID, e.Positions)
}

// Unwrap links the error into the not-found class for errors.Is checks
func (e *NotFoundError) Unwrap() error {
	return ErrNotFoundWithinLimit
}

// Walker locates a photo's position in an owner's public photostream
// by linear scan, newest first
type Walker struct {
	source      StreamSource
	logger      logger.Logger
	pageSize    int
	maxPosition int
}

// New creates a Walker. pageSize and maxPosition fall back to the
// stream defaults when zero or negative.
func New(source StreamSource, pageSize, maxPosition int, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	if pageSize <= 0 || pageSize > flickr.DefaultPageSize {
		pageSize = flickr.DefaultPageSize
	}
	if maxPosition <= 0 {
		maxPosition = 5000
	}
	return &Walker{
		source:      source,
		logger:      log,
		pageSize:    pageSize,
		maxPosition: maxPosition,
	}
}

// MaxPosition returns the scan bound the walker stops at
func (w *Walker) MaxPosition() int {
	return w.maxPosition
}

// FindPhoto scans the owner's photostream for the target photo id,
// newest photos first. Positions 1..maxPosition are compared; a walk
// that passes the bound or runs out of photos returns a NotFoundError
// carrying everything scanned so far.
func (w *Walker) FindPhoto(ctx context.Context, ownerID, photoID string) (*PhotoReference, error) {
	w.logger.WarnWithFields("looking up photo in photostream", map[string]interface{}{
		"owner_id": ownerID,
		"photo_id": photoID,
		"max_pos":  w.maxPosition,
	})

	var scanned []flickr.StreamPhoto
	pos := 0
	page := 1

	for {
		photoPage, err := w.source.GetPhotos(ctx, ownerID, page, w.pageSize)
		if err != nil {
			return nil, err
		}

		if page == 1 && len(photoPage.Photo) == 0 {
			return nil, fmt.Errorf("owner %s: %w", ownerID, ErrEmptyStream)
		}

		for _, photo := range photoPage.Photo {
			pos++
			if photo.ID == photoID {
				w.logger.InfoWithFields("photo found in stream", map[string]interface{}{
					"photo_id": photoID,
					"position": pos,
					"page":     page,
				})
				return &PhotoReference{
					OwnerID:   ownerID,
					OwnerName: photo.OwnerName,
					PhotoID:   photoID,
					Position:  pos,
					Page:      page,
				}, nil
			}

			w.logger.DebugWithFields("scanned stream photo", map[string]interface{}{
				"position": pos,
				"photo_id": photo.ID,
				"title":    photo.Title,
			})
			scanned = append(scanned, photo)

			if pos >= w.maxPosition {
				w.logger.WarnWithFields("scan limit reached without match", map[string]interface{}{
					"photo_id": photoID,
					"position": pos,
				})
				return nil, &NotFoundError{PhotoID: photoID, Positions: pos, Scanned: scanned}
			}
		}

		logger.LogWalkProgress(w.logger, ownerID, pos, w.maxPosition)

		if page >= photoPage.Pages.Int() {
			w.logger.WarnWithFields("stream exhausted without match", map[string]interface{}{
				"photo_id": photoID,
				"position": pos,
			})
			return nil, &NotFoundError{PhotoID: photoID, Positions: pos, Exhausted: true, Scanned: scanned}
		}
		page++
	}
}

// FindPhotoOnPage scans exactly one stream page, for URLs pinned with a
// ":N" page suffix. The reported position is the ordinal within that
// page.
func (w *Walker) FindPhotoOnPage(ctx context.Context, ownerID, photoID string, page int) (*PhotoReference, error) {
	if page < 1 {
		return nil, errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("invalid stream page %d", page))
	}

	photoPage, err := w.source.GetPhotos(ctx, ownerID, page, w.pageSize)
	if err != nil {
		return nil, err
	}

	if len(photoPage.Photo) == 0 {
		return nil, fmt.Errorf("owner %s page %d: %w", ownerID, page, ErrEmptyStream)
	}

	for i, photo := range photoPage.Photo {
		if photo.ID == photoID {
			w.logger.DebugWithFields("photo found on pinned page", map[string]interface{}{
				"photo_id": photoID,
				"position": i + 1,
				"page":     page,
			})
			return &PhotoReference{
				OwnerID:   ownerID,
				OwnerName: photo.OwnerName,
				PhotoID:   photoID,
				Position:  i + 1,
				Page:      page,
			}, nil
		}
	}

	w.logger.WarnWithFields("photo not on pinned page", map[string]interface{}{
		"photo_id": photoID,
		"page":     page,
		"scanned":  len(photoPage.Photo),
	})
	return nil, &NotFoundError{PhotoID: photoID, Positions: len(photoPage.Photo)}
}
