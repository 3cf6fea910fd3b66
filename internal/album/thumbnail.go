package album

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Thumbnail bounding box, matching the original CloudAlbum size.
const (
	thumbnailMaxWidth  = 300
	thumbnailMaxHeight = 200
)

// makeThumbnail decodes the image, scales it down to fit the bounding
// box preserving aspect ratio, and re-encodes it in the same format.
// Images already inside the box are returned re-encoded but unscaled.
func makeThumbnail(data []byte, extension string) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	scale := 1.0
	if width > thumbnailMaxWidth {
		scale = float64(thumbnailMaxWidth) / float64(width)
	}
	if float64(height)*scale > thumbnailMaxHeight {
		scale = float64(thumbnailMaxHeight) / float64(height)
	}

	dstWidth := int(float64(width) * scale)
	dstHeight := int(float64(height) * scale)
	if dstWidth < 1 {
		dstWidth = 1
	}
	if dstHeight < 1 {
		dstHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch extension {
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	case "bmp":
		err = bmp.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("thumbnail encode failed: %w", err)
	}

	return buf.Bytes(), nil
}
