package render

import (
	"image"
	"image/color"
	"math"

	"flow-canvas/pkg/geometry"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// painter fills screen-space polygons into an RGBA frame. Every fill is
// rasterized over the bounding box of its polygons only.
//
// The rasterizer accumulates signed coverage, so overlapping polygons must
// share a winding direction; solid and hole normalize it.
type painter struct {
	dst  *image.RGBA
	rast *vector.Rasterizer
}

func newPainter(dst *image.RGBA) *painter {
	return &painter{dst: dst, rast: vector.NewRasterizer(1, 1)}
}

// signedArea is the shoelace sum of a closed polygon.
func signedArea(pts []geometry.Point2D) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

func orient(pts []geometry.Point2D, positive bool) []geometry.Point2D {
	if (signedArea(pts) > 0) == positive {
		return pts
	}
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// solid returns pts wound as filled area.
func solid(pts []geometry.Point2D) []geometry.Point2D { return orient(pts, false) }

// hole returns pts wound against solid, cancelling coverage where it
// overlaps a solid polygon of the same fill.
func hole(pts []geometry.Point2D) []geometry.Point2D { return orient(pts, true) }

func bounds(polys [][]geometry.Point2D) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		for _, p := range poly {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if minX > maxX {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
}

// rasterize loads polys into the rasterizer relative to r.Min.
func (p *painter) rasterize(r image.Rectangle, polys [][]geometry.Point2D) {
	p.rast.Reset(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		p.rast.MoveTo(float32(poly[0].X-ox), float32(poly[0].Y-oy))
		for _, pt := range poly[1:] {
			p.rast.LineTo(float32(pt.X-ox), float32(pt.Y-oy))
		}
		p.rast.ClosePath()
	}
}

// fill paints the union of polys in c.
func (p *painter) fill(c color.Color, polys ...[]geometry.Point2D) {
	r := bounds(polys).Intersect(p.dst.Bounds())
	if r.Empty() {
		return
	}
	p.rasterize(r, polys)
	p.rast.Draw(p.dst, r, image.NewUniform(c), image.Point{})
}

// mask rasterizes polys into an alpha mask in frame coordinates.
func (p *painter) mask(polys ...[]geometry.Point2D) *image.Alpha {
	r := bounds(polys).Intersect(p.dst.Bounds())
	m := image.NewAlpha(r)
	if r.Empty() {
		return m
	}
	p.rasterize(r, polys)
	p.rast.Draw(m, r, image.Opaque, image.Point{})
	return m
}

// image scales src into the screen rectangle dr, clipped by an optional mask.
func (p *painter) image(src image.Image, dr image.Rectangle, clip *image.Alpha) {
	if src == nil || dr.Empty() || !dr.Overlaps(p.dst.Bounds()) {
		return
	}
	var opts *draw.Options
	if clip != nil {
		opts = &draw.Options{DstMask: clip}
	}
	draw.ApproxBiLinear.Scale(p.dst, dr, src, src.Bounds(), draw.Over, opts)
}

// circle approximates a circle with a polygon fine enough for its radius.
func circle(c geometry.Point2D, r float64) []geometry.Point2D {
	n := int(math.Ceil(r * 1.5))
	n = max(12, min(n, 96))
	pts := make([]geometry.Point2D, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geometry.Point2D{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return solid(pts)
}

// roundRect outlines r with corners of the given radius.
func roundRect(r geometry.Rect, radius float64) []geometry.Point2D {
	radius = math.Max(0, math.Min(radius, math.Min(r.Width, r.Height)/2))
	if radius == 0 {
		return solid([]geometry.Point2D{
			{X: r.X, Y: r.Y},
			{X: r.X + r.Width, Y: r.Y},
			{X: r.X + r.Width, Y: r.Y + r.Height},
			{X: r.X, Y: r.Y + r.Height},
		})
	}

	const steps = 8
	corners := []struct {
		c     geometry.Point2D
		start float64
	}{
		{geometry.Point2D{X: r.X + r.Width - radius, Y: r.Y + radius}, -math.Pi / 2},
		{geometry.Point2D{X: r.X + r.Width - radius, Y: r.Y + r.Height - radius}, 0},
		{geometry.Point2D{X: r.X + radius, Y: r.Y + r.Height - radius}, math.Pi / 2},
		{geometry.Point2D{X: r.X + radius, Y: r.Y + radius}, math.Pi},
	}
	pts := make([]geometry.Point2D, 0, 4*(steps+1))
	for _, k := range corners {
		for i := 0; i <= steps; i++ {
			a := k.start + (math.Pi/2)*float64(i)/steps
			pts = append(pts, geometry.Point2D{X: k.c.X + radius*math.Cos(a), Y: k.c.Y + radius*math.Sin(a)})
		}
	}
	return solid(pts)
}

// stroke returns the polygons of a polyline of the given width with round
// joins and caps.
func stroke(pts []geometry.Point2D, width float64) [][]geometry.Point2D {
	if len(pts) == 0 || width <= 0 {
		return nil
	}
	hw := width / 2
	polys := make([][]geometry.Point2D, 0, 2*len(pts))
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		d := b.Sub(a)
		l := d.Len()
		if l < 1e-9 {
			continue
		}
		n := geometry.Point2D{X: -d.Y / l * hw, Y: d.X / l * hw}
		polys = append(polys, solid([]geometry.Point2D{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}))
	}
	for _, p := range pts {
		polys = append(polys, circle(p, hw))
	}
	return polys
}

// ring returns the band of width w centered on a closed outline produced by
// shape(inset): shape(-w/2) is the outer edge, shape(w/2) the inner one.
func ring(shape func(inset float64) []geometry.Point2D, w float64) [][]geometry.Point2D {
	return [][]geometry.Point2D{solid(shape(-w / 2)), hole(shape(w / 2))}
}

func toRect(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)), int(math.Round(r.Y+r.Height)),
	)
}
