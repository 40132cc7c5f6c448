package walker

import (
	"context"

	"photonotes/pkg/flickr"
)

// StreamSource defines the photostream paging operation the walker needs
type StreamSource interface {
	GetPhotos(ctx context.Context, userID string, page, perPage int) (*flickr.PhotoPage, error)
}
