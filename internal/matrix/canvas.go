package matrix

import "image"

// Canvas is a writable pixel grid in display order (row-major, 3 bytes per
// pixel). Canvases are handed out by Matrix and returned through SwapOnSync;
// callers never own more than one at a time.
type Canvas struct {
	w, h int
	pix  []byte
}

func newCanvas(w, h int) *Canvas {
	return &Canvas{w: w, h: h, pix: make([]byte, w*h*3)}
}

func (c *Canvas) Bounds() image.Rectangle { return image.Rect(0, 0, c.w, c.h) }

// SetPixel writes one pixel. Out-of-range coordinates are ignored.
func (c *Canvas) SetPixel(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := (y*c.w + x) * 3
	c.pix[i+0] = r
	c.pix[i+1] = g
	c.pix[i+2] = b
}

// Fill sets every pixel to the same color.
func (c *Canvas) Fill(r, g, b uint8) {
	for i := 0; i < len(c.pix); i += 3 {
		c.pix[i+0] = r
		c.pix[i+1] = g
		c.pix[i+2] = b
	}
}
