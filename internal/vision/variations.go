package vision

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Variation is one enhanced rendition of the input image.
type Variation struct {
	ID    string
	Image image.Image
}

// Decode decodes raw image bytes. Any decode failure maps to ErrImageDecode.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, nil
}

// Variations produces the four fixed renditions every classifier sees:
// the original, a contrast-enhanced copy, a brightness-enhanced copy and a
// sharpened copy.
func Variations(img image.Image) []Variation {
	return []Variation{
		{ID: "original", Image: img},
		{ID: "contrast", Image: imaging.AdjustContrast(img, 20)},
		{ID: "brightness", Image: imaging.AdjustBrightness(img, 10)},
		{ID: "sharp", Image: imaging.Sharpen(img, 1.0)},
	}
}
