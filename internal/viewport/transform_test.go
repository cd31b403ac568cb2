package viewport

import (
	"math"
	"testing"

	"flow-canvas/pkg/geometry"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func near(a, b geometry.Point2D, tol float64) bool {
	return a.Distance(b) <= tol*(1+math.Max(a.Len(), b.Len()))
}

func TestTransformLaws(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	coord := gen.Float64Range(-5000, 5000)
	scale := gen.Float64Range(DefaultMinScale, DefaultMaxScale)

	properties.Property("screen->world->screen round trips", prop.ForAll(
		func(ox, oy, s, px, py float64) bool {
			tr := New()
			tr.SetState(State{Offset: geometry.NewPoint2D(ox, oy), Scale: s})
			p := geometry.NewPoint2D(px, py)
			return near(tr.ToScreen(tr.ToWorld(p)), p, 1e-9)
		},
		coord, coord, scale, coord, coord,
	))

	properties.Property("zoom keeps the anchor's world point fixed", prop.ForAll(
		func(ox, oy, s, ax, ay, m float64) bool {
			tr := New()
			tr.SetState(State{Offset: geometry.NewPoint2D(ox, oy), Scale: s})
			anchor := geometry.NewPoint2D(ax, ay)
			before := tr.ToWorld(anchor)
			tr.ApplyZoom(m, anchor)
			return near(tr.ToWorld(anchor), before, 1e-9)
		},
		coord, coord, scale, coord, coord, gen.Float64Range(0.05, 20),
	))

	properties.Property("zoom then reciprocal zoom restores scale", prop.ForAll(
		func(s, m, ax, ay float64) bool {
			tr := New()
			tr.SetState(State{Scale: s})
			anchor := geometry.NewPoint2D(ax, ay)
			tr.ApplyZoom(m, anchor)
			tr.ApplyZoom(1/m, anchor)
			return math.Abs(tr.Scale()-s) < 1e-9
		},
		gen.Float64Range(0.5, 2.0), gen.Float64Range(0.5, 1.5), coord, coord,
	))

	properties.Property("scale never leaves its bounds", prop.ForAll(
		func(m float64) bool {
			tr := New()
			tr.ApplyZoom(m, geometry.Point2D{})
			return tr.Scale() >= DefaultMinScale && tr.Scale() <= DefaultMaxScale
		},
		gen.Float64Range(0.001, 1000),
	))

	properties.TestingRun(t)
}

func TestApplyZoomClampedNoop(t *testing.T) {
	tr := New()
	tr.SetState(State{Offset: geometry.NewPoint2D(12, 34), Scale: DefaultMaxScale})

	changed := tr.ApplyZoom(2, geometry.NewPoint2D(100, 100))
	assert.False(t, changed)
	assert.Equal(t, DefaultMaxScale, tr.Scale())
	assert.Equal(t, geometry.NewPoint2D(12, 34), tr.Offset())
}

func TestApplyZoomRejectsBadMultiplier(t *testing.T) {
	tr := New()
	assert.False(t, tr.ApplyZoom(0, geometry.Point2D{}))
	assert.False(t, tr.ApplyZoom(-1, geometry.Point2D{}))
	assert.False(t, tr.ApplyZoom(math.NaN(), geometry.Point2D{}))
	assert.Equal(t, 1.0, tr.Scale())
}

func TestZoomInOutUseStep(t *testing.T) {
	tr := New()
	center := geometry.NewPoint2D(200, 150)
	assert.True(t, tr.ZoomIn(center))
	assert.InDelta(t, DefaultZoomStep, tr.Scale(), 1e-12)
	assert.True(t, tr.ZoomOut(center))
	assert.InDelta(t, 1.0, tr.Scale(), 1e-12)
}

func TestPanIsScreenSpace(t *testing.T) {
	tr := New()
	tr.SetState(State{Scale: 2})
	world := geometry.NewPoint2D(10, 10)
	before := tr.ToScreen(world)

	tr.Pan(geometry.NewPoint2D(5, -7))

	after := tr.ToScreen(world)
	assert.InDelta(t, before.X+5, after.X, 1e-12)
	assert.InDelta(t, before.Y-7, after.Y, 1e-12)
}

func TestDegenerateScaleFallsBackToIdentity(t *testing.T) {
	tr := New()
	tr.scale = 0
	tr.offset = geometry.NewPoint2D(3, 4)

	assert.Equal(t, geometry.Identity(), tr.Inverse())
	assert.Equal(t, geometry.NewPoint2D(7, 9), tr.ToWorld(geometry.NewPoint2D(7, 9)))
}

func TestSetBoundsReclampsScale(t *testing.T) {
	tr := New()
	tr.SetState(State{Scale: 2.5})
	tr.SetBounds(0.5, 2)
	assert.Equal(t, 2.0, tr.Scale())

	tr.SetBounds(3, 1)
	lo, hi := tr.Bounds()
	assert.Equal(t, 0.5, lo)
	assert.Equal(t, 2.0, hi)
}

func TestVisibleWorldRect(t *testing.T) {
	tr := New()
	tr.SetState(State{Offset: geometry.NewPoint2D(100, 50), Scale: 2})
	r := tr.VisibleWorldRect(400, 300)
	assert.InDelta(t, -50, r.X, 1e-12)
	assert.InDelta(t, -25, r.Y, 1e-12)
	assert.InDelta(t, 200, r.Width, 1e-12)
	assert.InDelta(t, 150, r.Height, 1e-12)
}
