package frames

import (
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/transform"
)

// Decoder loads image files and scales them to fixed display dimensions.
type Decoder struct {
	w, h int
}

func NewDecoder(w, h int) *Decoder {
	return &Decoder{w: w, h: h}
}

// Decode reads one file and returns a grid whose bounds always equal the
// configured dimensions. Any open or decode failure is reported as-is so the
// caller can skip the frame.
func (d *Decoder) Decode(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return transform.Resize(img, d.w, d.h, transform.Linear), nil
}
