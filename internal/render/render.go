// Package render rasterizes an editor snapshot into an RGBA frame.
//
// Sizes follow the canvas they are drawn on: base sizes are divided by the
// zoom scale and clamped in world units, then the result is mapped to screen
// pixels. Lines stay legible when zoomed out and do not balloon when zoomed
// in.
package render

import (
	"image"
	"math"

	"flow-canvas/internal/assets"
	"flow-canvas/internal/editor"
	"flow-canvas/internal/graph"
	"flow-canvas/internal/interaction"
	"flow-canvas/pkg/colorutil"
	"flow-canvas/pkg/geometry"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Dash patterns in world units.
const (
	EdgeDashOn  = 20.0
	EdgeDashOff = 10.0
	TempDashOn  = 15.0
	TempDashOff = 10.0
)

const (
	minGridPixels   = 4.0
	curveSegments   = 32
	highlightFactor = 1.6
	highlightAlpha  = 100

	// world units around a node reached by its handles and rings
	cullMargin = 24.0
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// frame carries the per-call drawing state.
type frame struct {
	snap  *editor.Snapshot
	style Style
	res   assets.Resolver
	phase float64
	scale float64
	p     *painter
}

// Render draws one frame of the snapshot. phase offsets the dash pattern of
// animated edges, in world units; advancing it animates them. res may be nil.
func Render(snap *editor.Snapshot, style Style, res assets.Resolver, phase float64) *image.RGBA {
	w := max(0, int(math.Ceil(snap.Width)))
	h := max(0, int(math.Ceil(snap.Height)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)
	if w == 0 || h == 0 {
		return dst
	}

	scale := snap.View.Scale
	if scale <= 0 {
		scale = 1
	}
	f := &frame{snap: snap, style: style, res: res, phase: phase, scale: scale, p: newPainter(dst)}

	f.drawGrid()
	f.drawEdges()
	f.drawNodes()
	f.drawLabels()
	f.drawHandles()
	f.drawTempConnection()
	return dst
}

func (f *frame) screen(p geometry.Point2D) geometry.Point2D {
	return f.snap.ToScreen(p)
}

func (f *frame) screenAll(pts []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = f.screen(p)
	}
	return out
}

func (f *frame) screenRect(r geometry.Rect) geometry.Rect {
	tl := f.screen(r.TopLeft())
	return geometry.Rect{X: tl.X, Y: tl.Y, Width: r.Width * f.scale, Height: r.Height * f.scale}
}

func (f *frame) drawGrid() {
	spacing := f.style.GridSpacing
	if spacing <= 0 || spacing*f.scale < minGridPixels {
		return
	}
	radius := clamp(f.style.GridDotRadius/f.scale*1.2, 0.5, 3) * f.scale
	alpha := uint8(math.Min(1, f.scale) * 150)

	view := f.snap.Visible
	pad := spacing * 2
	startX := math.Floor((view.X-pad)/spacing) * spacing
	endX := math.Ceil((view.X+view.Width+pad)/spacing) * spacing
	startY := math.Floor((view.Y-pad)/spacing) * spacing
	endY := math.Ceil((view.Y+view.Height+pad)/spacing) * spacing

	var dots [][]geometry.Point2D
	for x := startX; x <= endX; x += spacing {
		for y := startY; y <= endY; y += spacing {
			dots = append(dots, circle(f.screen(geometry.Point2D{X: x, Y: y}), radius))
		}
	}
	f.p.fill(colorutil.WithAlpha(f.style.GridDot, alpha), dots...)
}

// onScreen reports whether anything drawn for n (body, rings, handles) can
// reach the viewport. Labels are not culled.
func (f *frame) onScreen(n *graph.Node) bool {
	return f.snap.Visible.Inset(-cullMargin).Intersects(n.Bounds())
}

func (f *frame) drawEdges() {
	width := clamp(f.style.StrokeWidth/f.scale, 1, 6) * f.scale
	arrow := f.style.ArrowheadSize // size/scale in world units is constant on screen

	for i := range f.snap.Edges {
		e := &f.snap.Edges[i]
		src, ok1 := f.snap.Handle(e.SourceHandleID)
		dst, ok2 := f.snap.Handle(e.TargetHandleID)
		if !ok1 || !ok2 {
			continue
		}
		curve := geometry.BowedCurve(src.World, dst.World, f.style.Curvature)
		pts := curve.Flatten(curveSegments)

		runs := [][]geometry.Point2D{pts}
		if e.Animated {
			runs = geometry.Dash(pts, EdgeDashOn, EdgeDashOff, -f.phase)
		}
		var polys [][]geometry.Point2D
		for _, run := range runs {
			polys = append(polys, stroke(f.screenAll(run), width)...)
		}
		f.p.fill(f.style.Edge, polys...)

		if f.style.Arrowheads && geometry.PolylineLength(pts) > 0.01 {
			f.p.fill(f.style.Arrowhead, arrowhead(f.screen(curve.P1), curve.EndAngle(), arrow))
		}
	}
}

// arrowhead is a triangle with its tip at tip, pointing along angle.
func arrowhead(tip geometry.Point2D, angle, size float64) []geometry.Point2D {
	rot := geometry.Rotation(angle)
	local := []geometry.Point2D{
		{X: -size, Y: size / 2},
		{X: 0, Y: 0},
		{X: -size, Y: -size / 2},
	}
	out := make([]geometry.Point2D, len(local))
	for i, p := range local {
		out[i] = rot.Apply(p).Add(tip)
	}
	return solid(out)
}

func (f *frame) nodeOutline(n *graph.Node) func(inset float64) []geometry.Point2D {
	r := f.screenRect(n.Bounds())
	corner := f.style.CornerRadius * f.scale
	return func(inset float64) []geometry.Point2D {
		return roundRect(r.Inset(inset), corner-inset)
	}
}

func (f *frame) drawNodes() {
	border := clamp(1.5/f.scale, 0.8, 3) * f.scale
	dragging := ""
	if f.snap.Interaction.Mode == interaction.DraggingNode {
		dragging = f.snap.Interaction.NodeID
	}

	for _, n := range f.snap.Nodes {
		if !f.onScreen(n) {
			continue
		}
		outline := f.nodeOutline(n)

		if n.ID == dragging {
			f.p.fill(f.style.DragHighlight, ring(outline, border*2)...)
		}

		var bg image.Image
		if f.res != nil && n.Background != "" {
			bg = f.res.Resolve(n.Background)
		}
		if bg != nil {
			clip := f.p.mask(outline(0))
			f.p.image(bg, toRect(f.screenRect(n.Bounds())), clip)
		} else {
			f.p.fill(f.style.NodeBackground, outline(0))
			f.p.fill(f.style.NodeBorder, ring(outline, border)...)
		}

		if f.res != nil && n.Icon != "" {
			if icon := f.res.Resolve(n.Icon); icon != nil {
				size := f.style.IconSize * f.scale
				c := f.screen(n.Position)
				f.p.image(icon, toRect(geometry.Rect{X: c.X - size/2, Y: c.Y - size/2, Width: size, Height: size}), nil)
			}
		}
	}
}

// drawLabels centers each label below its node. The bitmap face does not
// scale, so only the placement follows the zoom.
func (f *frame) drawLabels() {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: f.p.dst, Src: image.NewUniform(f.style.NodeText), Face: face}
	ascent := face.Metrics().Ascent

	for _, n := range f.snap.Nodes {
		if n.Label == "" {
			continue
		}
		b := f.screenRect(n.Bounds())
		x := b.X + b.Width/2 - float64(d.MeasureString(n.Label).Round())/2
		y := b.Y + b.Height + f.style.LabelMargin
		d.Dot = fixed.Point26_6{X: fixed.I(int(math.Round(x))), Y: fixed.I(int(math.Round(y))) + ascent}
		d.DrawString(n.Label)
	}
}

func (f *frame) drawHandles() {
	radius := clamp(f.style.HandleRadius/f.scale*1.3, 3, 12) * f.scale
	border := clamp(1.5/f.scale, 0.5, 2) * f.scale
	candidate := ""
	if f.snap.Interaction.Mode == interaction.Connecting {
		candidate = f.snap.Interaction.CandidateID
	}

	for _, n := range f.snap.Nodes {
		if !f.onScreen(n) {
			continue
		}
		for _, h := range n.Handles() {
			fill := f.style.HandleInput
			if h.Direction == graph.Output {
				fill = f.style.HandleOutput
			}
			c := f.screen(h.World)
			if h.ID == candidate {
				f.p.fill(colorutil.WithAlpha(fill, highlightAlpha), circle(c, radius*highlightFactor))
			}
			f.p.fill(fill, circle(c, radius))
			outline := func(inset float64) []geometry.Point2D { return circle(c, radius-inset) }
			f.p.fill(f.style.HandleBorder, ring(outline, border)...)
		}
	}
}

func (f *frame) drawTempConnection() {
	st := f.snap.Interaction
	if st.Mode != interaction.Connecting {
		return
	}
	start, ok := f.snap.Handle(st.StartHandleID)
	if !ok {
		return
	}
	width := clamp(4/f.scale, 1.5, 6) * f.scale
	var polys [][]geometry.Point2D
	for _, run := range geometry.Dash([]geometry.Point2D{start.World, st.Current}, TempDashOn, TempDashOff, 0) {
		polys = append(polys, stroke(f.screenAll(run), width)...)
	}
	f.p.fill(f.style.TempConnection, polys...)
}
