// Package panel describes the physical arrangement of an LED matrix:
// individual panels of rows x cols, daisy-chained horizontally and stacked
// in parallel rows, addressed as one continuous LED chain.
package panel

import "fmt"

// Geometry is the panel configuration. Width and Height are derived:
// the display is Cols*Chain wide and Rows*Parallel tall.
type Geometry struct {
	Rows     int
	Cols     int
	Chain    int
	Parallel int

	// Serpentine flips every odd display row along X, for chains wired
	// back-and-forth instead of restarting at the left edge.
	Serpentine bool
}

func (g Geometry) Width() int  { return g.Cols * g.Chain }
func (g Geometry) Height() int { return g.Rows * g.Parallel }
func (g Geometry) Count() int  { return g.Width() * g.Height() }

// Index maps display coordinates (x, y) to the linear LED index on the
// chain (0..Count()-1). The mapping is a bijection for valid coordinates.
func (g Geometry) Index(x, y int) int {
	xx := x
	if g.Serpentine && y%2 == 1 {
		xx = g.Width() - 1 - x
	}
	return y*g.Width() + xx
}

// Validate rejects geometries that would produce an empty or negative display.
func (g Geometry) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("panel: invalid dimensions %dx%d", g.Cols, g.Rows)
	}
	if g.Chain <= 0 || g.Parallel <= 0 {
		return fmt.Errorf("panel: invalid chain=%d parallel=%d", g.Chain, g.Parallel)
	}
	return nil
}
