// Package viewport maps between world space, where graph geometry lives, and
// screen space, where pointer events arrive.
//
// The mapping is screen = world*scale + offset. Pan offsets are in screen
// units so a drag moves the canvas exactly as far as the pointer travelled,
// whatever the zoom.
package viewport

import (
	"log/slog"
	"math"

	"flow-canvas/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 3.0
	DefaultZoomStep = 1.2
)

// State is the authoritative pan/zoom state a Transform derives its matrices from.
type State struct {
	Offset geometry.Point2D `json:"offset"`
	Scale  float64          `json:"scale"`
}

// Transform holds the pan offset and scale of a canvas and the world->screen
// matrix (plus inverse) they imply. The matrices are never edited directly;
// they are rebuilt from offset and scale before every use.
type Transform struct {
	offset   geometry.Point2D
	scale    float64
	minScale float64
	maxScale float64
	zoomStep float64

	matrix  geometry.AffineTransform
	inverse geometry.AffineTransform

	logger *slog.Logger
}

// New creates an identity transform with the default zoom bounds.
func New() *Transform {
	t := &Transform{
		scale:    1.0,
		minScale: DefaultMinScale,
		maxScale: DefaultMaxScale,
		zoomStep: DefaultZoomStep,
		logger:   slog.Default(),
	}
	t.update()
	return t
}

// SetLogger replaces the logger used for transform diagnostics.
func (t *Transform) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// SetBounds sets the zoom limits and re-clamps the current scale.
// Bounds that are non-positive or inverted are ignored.
func (t *Transform) SetBounds(minScale, maxScale float64) {
	if minScale <= 0 || maxScale < minScale {
		t.logger.Warn("ignoring invalid zoom bounds", "min", minScale, "max", maxScale)
		return
	}
	t.minScale = minScale
	t.maxScale = maxScale
	t.scale = t.clamp(t.scale)
	t.update()
}

// Bounds returns the zoom limits.
func (t *Transform) Bounds() (minScale, maxScale float64) {
	return t.minScale, t.maxScale
}

// SetZoomStep sets the multiplier used by ZoomIn and ZoomOut.
func (t *Transform) SetZoomStep(step float64) {
	if step > 1 {
		t.zoomStep = step
	}
}

// Offset returns the pan offset in screen units.
func (t *Transform) Offset() geometry.Point2D {
	return t.offset
}

// Scale returns the current zoom factor.
func (t *Transform) Scale() float64 {
	return t.scale
}

// State returns the pan/zoom state.
func (t *Transform) State() State {
	return State{Offset: t.offset, Scale: t.scale}
}

// SetState restores a previously saved state, clamping the scale.
func (t *Transform) SetState(s State) {
	scale := s.Scale
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1.0
	}
	t.offset = s.Offset
	t.scale = t.clamp(scale)
	t.update()
}

// Reset returns to the identity transform.
func (t *Transform) Reset() {
	t.offset = geometry.Point2D{}
	t.scale = t.clamp(1.0)
	t.update()
}

// Matrix returns the world->screen matrix.
func (t *Transform) Matrix() geometry.AffineTransform {
	t.update()
	return t.matrix
}

// Inverse returns the screen->world matrix.
func (t *Transform) Inverse() geometry.AffineTransform {
	t.update()
	return t.inverse
}

// ToWorld maps a screen point to world space.
func (t *Transform) ToWorld(screen geometry.Point2D) geometry.Point2D {
	t.update()
	return t.inverse.Apply(screen)
}

// ToScreen maps a world point to screen space.
func (t *Transform) ToScreen(world geometry.Point2D) geometry.Point2D {
	t.update()
	return t.matrix.Apply(world)
}

// Pan shifts the view by a screen-space delta.
func (t *Transform) Pan(delta geometry.Point2D) {
	t.offset = t.offset.Add(delta)
	t.update()
}

// ApplyZoom multiplies the scale by multiplier, clamped to the zoom bounds,
// keeping the world point under anchor fixed on screen. It reports whether
// anything changed; a zoom that the clamp turns into a no-op leaves the state
// untouched.
func (t *Transform) ApplyZoom(multiplier float64, anchor geometry.Point2D) bool {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return false
	}
	newScale := t.clamp(t.scale * multiplier)
	if newScale == t.scale {
		return false
	}

	worldAnchor := t.ToWorld(anchor)
	t.scale = newScale
	t.offset = anchor.Sub(worldAnchor.Scale(newScale))
	t.update()

	t.logger.Debug("applied zoom", "scale", t.scale)
	return true
}

// ZoomIn zooms in by one step around anchor.
func (t *Transform) ZoomIn(anchor geometry.Point2D) bool {
	return t.ApplyZoom(t.zoomStep, anchor)
}

// ZoomOut zooms out by one step around anchor.
func (t *Transform) ZoomOut(anchor geometry.Point2D) bool {
	return t.ApplyZoom(1/t.zoomStep, anchor)
}

// VisibleWorldRect returns the world-space rectangle covered by a viewport of
// the given screen size.
func (t *Transform) VisibleWorldRect(width, height float64) geometry.Rect {
	tl := t.ToWorld(geometry.Point2D{})
	br := t.ToWorld(geometry.Point2D{X: width, Y: height})
	return geometry.Rect{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}
}

func (t *Transform) clamp(scale float64) float64 {
	return math.Max(t.minScale, math.Min(scale, t.maxScale))
}

// update rebuilds the matrix pair from offset and scale.
func (t *Transform) update() {
	t.matrix = geometry.Translation(t.offset.X, t.offset.Y).Compose(geometry.Scale(t.scale, t.scale))
	inv, ok := invert(t.matrix)
	if !ok {
		t.logger.Warn("transform not invertible, using identity inverse",
			"scale", t.scale, "offset_x", t.offset.X, "offset_y", t.offset.Y)
		inv = geometry.Identity()
	}
	t.inverse = inv
}

// invert computes the inverse of an affine transform through its 3x3
// homogeneous matrix.
func invert(a geometry.AffineTransform) (geometry.AffineTransform, bool) {
	if math.Abs(a.Determinant()) < 1e-10 {
		return geometry.AffineTransform{}, false
	}
	m := mat.NewDense(3, 3, []float64{
		a.A, a.B, a.TX,
		a.C, a.D, a.TY,
		0, 0, 1,
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return geometry.AffineTransform{}, false
	}
	return geometry.AffineTransform{
		A: inv.At(0, 0), B: inv.At(0, 1), TX: inv.At(0, 2),
		C: inv.At(1, 0), D: inv.At(1, 1), TY: inv.At(1, 2),
	}, true
}
