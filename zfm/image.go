package zfm

import (
	"fmt"
	"image"
)

// Captured fingerprint raster dimensions.
const (
	ImageWidth  = 256
	ImageHeight = 288
)

// AssembleImage expands a 4-bit-per-pixel image stream into an 8-bit
// grayscale raster. Each byte carries two pixels, upper nibble first;
// nibbles are scaled by 17 so the 16 gray levels span the full 0..255
// range. Pixels are laid out row-major.
func AssembleImage(data []byte) (*image.Gray, error) {
	const want = ImageWidth * ImageHeight / 2
	if len(data) < want {
		return nil, fmt.Errorf("%w: image stream is %d bytes, want %d", ErrBadLength, len(data), want)
	}

	img := image.NewGray(image.Rect(0, 0, ImageWidth, ImageHeight))
	for i := 0; i < want; i++ {
		b := data[i]
		img.Pix[2*i] = (b >> 4) * 17
		img.Pix[2*i+1] = (b & 0x0F) * 17
	}
	return img, nil
}
