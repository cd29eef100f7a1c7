// Package albumart fetches, downscales and caches album art.
package albumart

import (
	"image"

	"github.com/nfnt/resize"
)

// Default bounds for the two cached renditions.
const (
	FullWidth   = 800
	FullHeight  = 480
	ThumbWidth  = 128
	ThumbHeight = 128
)

// Art is a decoded image pair.
type Art struct {
	Full  image.Image
	Thumb image.Image
}

// Size returns the decoded byte size of both images.
func (a Art) Size() int64 {
	return byteSize(a.Full) + byteSize(a.Thumb)
}

// scale bounds img to maxW x maxH preserving aspect ratio. Images that
// already fit are returned unchanged.
func scale(img image.Image, maxW, maxH uint) image.Image {
	return resize.Thumbnail(maxW, maxH, img, resize.Bilinear)
}

func byteSize(img image.Image) int64 {
	switch m := img.(type) {
	case nil:
		return 0
	case *image.RGBA:
		return int64(len(m.Pix))
	case *image.NRGBA:
		return int64(len(m.Pix))
	case *image.RGBA64:
		return int64(len(m.Pix))
	case *image.Gray:
		return int64(len(m.Pix))
	case *image.Paletted:
		return int64(len(m.Pix))
	case *image.YCbCr:
		return int64(len(m.Y) + len(m.Cb) + len(m.Cr))
	default:
		b := img.Bounds()
		return int64(b.Dx()) * int64(b.Dy()) * 4
	}
}
