package imageset

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/mattsolo1/grove-imgtag/pkg/models"
)

// DefaultThumbnailSize is the bounding box used by previews.
const DefaultThumbnailSize = 500

// Thumbnail decodes the image and returns a PNG that fits in size x size.
func Thumbnail(img *models.Image, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	src, err := imaging.Open(img.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(src, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
