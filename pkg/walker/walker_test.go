package walker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "photonotes/pkg/errors"
	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
)

// fakeStream serves a fixed stream sliced into pages on demand
type fakeStream struct {
	photos   []flickr.StreamPhoto
	calls    int
	failPage int
}

func (f *fakeStream) GetPhotos(ctx context.Context, userID string, page, perPage int) (*flickr.PhotoPage, error) {
	f.calls++
	if f.failPage != 0 && page == f.failPage {
		return nil, apperrors.New(apperrors.ErrorTypeServerError, "stream page unavailable")
	}

	pages := (len(f.photos) + perPage - 1) / perPage
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(f.photos) {
		start = len(f.photos)
	}
	if end > len(f.photos) {
		end = len(f.photos)
	}

	return &flickr.PhotoPage{
		Page:    flickr.Number(page),
		Pages:   flickr.Number(pages),
		PerPage: flickr.Number(perPage),
		Total:   flickr.Number(len(f.photos)),
		Photo:   f.photos[start:end],
	}, nil
}

func newStream(n int) *fakeStream {
	photos := make([]flickr.StreamPhoto, n)
	for i := range photos {
		photos[i] = flickr.StreamPhoto{
			ID:        fmt.Sprintf("photo-%d", i+1),
			Owner:     "11111111@N00",
			OwnerName: "owner123",
			Title:     fmt.Sprintf("Photo %d", i+1),
		}
	}
	return &fakeStream{photos: photos}
}

func TestFindPhoto(t *testing.T) {
	stream := newStream(12)
	log := logger.NewTestLogger()
	w := New(stream, 5, 5000, log)

	ref, err := w.FindPhoto(context.Background(), "11111111@N00", "photo-7")
	require.NoError(t, err)
	assert.Equal(t, 7, ref.Position)
	assert.Equal(t, 2, ref.Page)
	assert.Equal(t, "11111111@N00", ref.OwnerID)
	assert.Equal(t, "owner123", ref.OwnerName)
	assert.Equal(t, "photo-7", ref.PhotoID)
	assert.Equal(t, 2, stream.calls, "walk must stop on the matching page")
	assert.True(t, log.HasMessage("Walk progress"), "page boundaries report progress")
}

func TestFindPhotoPositionStableAcrossLimits(t *testing.T) {
	for _, maxPos := range []int{4, 10, 5000} {
		w := New(newStream(12), 5, maxPos, logger.NewTestLogger())
		ref, err := w.FindPhoto(context.Background(), "11111111@N00", "photo-4")
		require.NoError(t, err, "max_pos=%d", maxPos)
		assert.Equal(t, 4, ref.Position, "max_pos=%d", maxPos)
	}
}

func TestFindPhotoLimitReached(t *testing.T) {
	w := New(newStream(12), 5, 5, logger.NewTestLogger())

	ref, err := w.FindPhoto(context.Background(), "11111111@N00", "photo-7")
	require.Error(t, err)
	assert.Nil(t, ref)
	assert.ErrorIs(t, err, ErrNotFoundWithinLimit)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 5, notFound.Positions)
	assert.False(t, notFound.Exhausted)
	assert.Len(t, notFound.Scanned, 5)
	assert.Equal(t, "photo-1", notFound.Scanned[0].ID)
}

func TestFindPhotoStreamExhausted(t *testing.T) {
	w := New(newStream(12), 5, 5000, logger.NewTestLogger())

	_, err := w.FindPhoto(context.Background(), "11111111@N00", "no-such-photo")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFoundWithinLimit)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.True(t, notFound.Exhausted)
	assert.Equal(t, 12, notFound.Positions)
	assert.Len(t, notFound.Scanned, 12)
}

func TestFindPhotoAtExactLimit(t *testing.T) {
	w := New(newStream(12), 5, 7, logger.NewTestLogger())

	ref, err := w.FindPhoto(context.Background(), "11111111@N00", "photo-7")
	require.NoError(t, err)
	assert.Equal(t, 7, ref.Position)
}

func TestFindPhotoEmptyStream(t *testing.T) {
	w := New(&fakeStream{}, 5, 5000, logger.NewTestLogger())

	_, err := w.FindPhoto(context.Background(), "11111111@N00", "photo-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyStream)
}

func TestFindPhotoSourceError(t *testing.T) {
	stream := newStream(12)
	stream.failPage = 2
	w := New(stream, 5, 5000, logger.NewTestLogger())

	_, err := w.FindPhoto(context.Background(), "11111111@N00", "photo-11")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeServerError, apperrors.TypeOf(err))
}

func TestFindPhotoOnPage(t *testing.T) {
	stream := newStream(12)
	w := New(stream, 5, 5000, logger.NewTestLogger())

	t.Run("found", func(t *testing.T) {
		ref, err := w.FindPhotoOnPage(context.Background(), "11111111@N00", "photo-7", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, ref.Position, "position is the ordinal within the page")
		assert.Equal(t, 2, ref.Page)
	})

	t.Run("not on page", func(t *testing.T) {
		_, err := w.FindPhotoOnPage(context.Background(), "11111111@N00", "photo-7", 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFoundWithinLimit)

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, 5, notFound.Positions)
		assert.Empty(t, notFound.Scanned)
	})

	t.Run("invalid page", func(t *testing.T) {
		_, err := w.FindPhotoOnPage(context.Background(), "11111111@N00", "photo-7", 0)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeConfig, apperrors.TypeOf(err))
	})
}

func TestNewDefaults(t *testing.T) {
	w := New(&fakeStream{}, 0, 0, nil)
	assert.Equal(t, flickr.DefaultPageSize, w.pageSize)
	assert.Equal(t, 5000, w.maxPosition)
	assert.Equal(t, 5000, w.MaxPosition())
}
