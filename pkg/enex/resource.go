package enex

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"sync"

	"photonotes/pkg/logger"
)

// Resource is one embedded note attachment, in practice always the
// preview image of the photo or the buddy icon of the blog.
type Resource struct {
	Data     []byte
	Hash     string
	Mime     string
	Width    int
	Height   int
	Filename string
}

// NewResource wraps raw image bytes for embedding. The hash feeds the
// en-media reference inside the note body.
func NewResource(data []byte, filename string, width, height int, log logger.Logger) *Resource {
	return &Resource{
		Data:     data,
		Hash:     fmt.Sprintf("%x", md5.Sum(data)),
		Mime:     MimeType(filepath.Ext(filename), log),
		Width:    width,
		Height:   height,
		Filename: filename,
	}
}

// Base64 renders the attachment body for the export document.
func (r *Resource) Base64() string {
	return base64.StdEncoding.EncodeToString(r.Data)
}

// MimeType maps an image file suffix like ".jpg" to its mime type.
// Unknown suffixes degrade to image/<suffix> with a warning because the
// export is still usable even when the type is off.
func MimeType(suffix string, log logger.Logger) string {
	switch strings.ToLower(suffix) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		mime := "image/" + strings.TrimPrefix(strings.ToLower(suffix), ".")
		log.WarnWithFields("unexpected image suffix", map[string]interface{}{
			"suffix":   suffix,
			"mimetype": mime,
		})
		return mime
	}
}

const missingImageSize = 142

var (
	missingImageOnce sync.Once
	missingImage     *Resource
)

// MissingImage returns the placeholder attachment used when no preview
// could be fetched, a neutral gray square generated once per process.
func MissingImage(log logger.Logger) *Resource {
	missingImageOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, missingImageSize, missingImageSize))
		gray := color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}
		for y := 0; y < missingImageSize; y++ {
			for x := 0; x < missingImageSize; x++ {
				img.Set(x, y, gray)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			log.WithError(err).Error("cannot encode placeholder image")
		}
		missingImage = NewResource(buf.Bytes(), "missing_image.png", missingImageSize, missingImageSize, log)
	})
	return missingImage
}
