package widget

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/ziadkadry99/flowgraph/internal/graph"
)

// Viewer holds the current graph image and its zoom.
type Viewer struct {
	image []byte
	zoom  Zoom
}

// RenderImage replaces the image. Zoom goes back to 1.0 first so the new
// graph always appears at its natural size.
func (v *Viewer) RenderImage(img []byte) {
	v.zoom.Reset()
	v.image = img
}

// Clear removes the image. The zoom level is left alone.
func (v *Viewer) Clear() { v.image = nil }

// HasImage reports whether an image is shown.
func (v *Viewer) HasImage() bool { return len(v.image) > 0 }

// Image returns the PNG bytes, nil when empty.
func (v *Viewer) Image() []byte { return v.image }

// Zoom returns the viewer's zoom state.
func (v *Viewer) Zoom() *Zoom { return &v.zoom }

// ZoomIn zooms in one step.
func (v *Viewer) ZoomIn() bool { return v.zoom.In() }

// ZoomOut zooms out one step.
func (v *Viewer) ZoomOut() bool { return v.zoom.Out() }

// Size returns the natural pixel size of the image.
func (v *Viewer) Size() (int, int, error) {
	if !v.HasImage() {
		return 0, 0, fmt.Errorf("no image")
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(v.image))
	if err != nil {
		return 0, 0, fmt.Errorf("decoding PNG header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ScaledSize returns the image size at the current zoom.
func (v *Viewer) ScaledSize() (int, int, error) {
	w, h, err := v.Size()
	if err != nil {
		return 0, 0, err
	}
	w, h = v.zoom.Scale(w, h)
	return w, h, nil
}

// HTML renders the image element with its scale transform, or nothing
// when empty.
func (v *Viewer) HTML() string {
	if !v.HasImage() {
		return ""
	}
	return fmt.Sprintf(`<img src="data:image/png;base64,%s" alt="Control Flow Graph" style="transform: scale(%.1f)">`,
		graph.EncodeImage(v.image), v.zoom.Level())
}
