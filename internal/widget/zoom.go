package widget

import "fmt"

// Zoom bounds, in tenths.
const (
	minZoomTenths     = 5
	maxZoomTenths     = 30
	defaultZoomTenths = 10
)

// Zoom is the viewer's scale factor, kept on the 0.1 grid between 0.5 and
// 3.0. The zero value is 1.0.
type Zoom struct {
	// offset from 1.0 in steps of 0.1
	steps int
}

func (z *Zoom) tenths() int { return defaultZoomTenths + z.steps }

// In steps up by 0.1 unless already at 3.0. It reports whether the level
// changed.
func (z *Zoom) In() bool {
	if !z.CanZoomIn() {
		return false
	}
	z.steps++
	return true
}

// Out steps down by 0.1 unless already at 0.5.
func (z *Zoom) Out() bool {
	if !z.CanZoomOut() {
		return false
	}
	z.steps--
	return true
}

// Reset returns to 1.0.
func (z *Zoom) Reset() { z.steps = 0 }

// Level returns the scale factor.
func (z *Zoom) Level() float64 { return float64(z.tenths()) / 10 }

// Percent returns the level as a whole percentage, 100 for 1.0.
func (z *Zoom) Percent() int { return z.tenths() * 10 }

// CanZoomIn reports whether the zoom-in control is enabled.
func (z *Zoom) CanZoomIn() bool { return z.tenths() < maxZoomTenths }

// CanZoomOut reports whether the zoom-out control is enabled.
func (z *Zoom) CanZoomOut() bool { return z.tenths() > minZoomTenths }

// Scale applies the level to a pixel size.
func (z *Zoom) Scale(w, h int) (int, int) {
	t := z.tenths()
	return w * t / 10, h * t / 10
}

func (z *Zoom) String() string { return fmt.Sprintf("%d%%", z.Percent()) }
