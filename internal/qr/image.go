package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Registered image decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage indicates the data is not an image in a known format
// or is truncated beyond what the codec can recover.
var ErrUnsupportedImage = errors.New("unsupported image data")

// DecodeImage decodes data into an image and returns the codec name.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, format, nil
}
