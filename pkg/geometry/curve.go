package geometry

import "math"

// QuadCurve is a quadratic Bezier curve from P0 to P1 pulled toward Ctrl.
type QuadCurve struct {
	P0, Ctrl, P1 Point2D
}

// BowedCurve returns a curve from start to end whose control point sits at the
// midpoint, pushed along the left-hand perpendicular by bend times the chord.
func BowedCurve(start, end Point2D, bend float64) QuadCurve {
	mid := start.Lerp(end, 0.5)
	d := end.Sub(start)
	return QuadCurve{
		P0:   start,
		Ctrl: Point2D{X: mid.X - d.Y*bend, Y: mid.Y + d.X*bend},
		P1:   end,
	}
}

// At evaluates the curve at t in [0,1].
func (q QuadCurve) At(t float64) Point2D {
	u := 1 - t
	return Point2D{
		X: u*u*q.P0.X + 2*u*t*q.Ctrl.X + t*t*q.P1.X,
		Y: u*u*q.P0.Y + 2*u*t*q.Ctrl.Y + t*t*q.P1.Y,
	}
}

// Tangent returns the (unnormalized) derivative at t.
func (q QuadCurve) Tangent(t float64) Point2D {
	u := 1 - t
	return Point2D{
		X: 2*u*(q.Ctrl.X-q.P0.X) + 2*t*(q.P1.X-q.Ctrl.X),
		Y: 2*u*(q.Ctrl.Y-q.P0.Y) + 2*t*(q.P1.Y-q.Ctrl.Y),
	}
}

// EndAngle returns the direction of travel at the end of the curve in radians.
// A degenerate curve (all points coincident) reports 0.
func (q QuadCurve) EndAngle() float64 {
	tan := q.Tangent(1)
	if tan.Len() < 1e-9 {
		tan = q.P1.Sub(q.P0)
	}
	return math.Atan2(tan.Y, tan.X)
}

// Flatten approximates the curve with segments+1 points.
func (q QuadCurve) Flatten(segments int) []Point2D {
	if segments < 1 {
		segments = 1
	}
	pts := make([]Point2D, segments+1)
	for i := 0; i <= segments; i++ {
		pts[i] = q.At(float64(i) / float64(segments))
	}
	return pts
}

// PolylineLength returns the summed length of consecutive segments.
func PolylineLength(pts []Point2D) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += pts[i].Distance(pts[i-1])
	}
	return total
}

// Dash splits a polyline into "on" runs of the given dash pattern, starting
// phase units into the pattern. A pattern with a non-positive total returns
// the input as a single run.
func Dash(pts []Point2D, on, off, phase float64) [][]Point2D {
	period := on + off
	if period <= 0 || on <= 0 || len(pts) < 2 {
		return [][]Point2D{pts}
	}
	phase = math.Mod(phase, period)
	if phase < 0 {
		phase += period
	}

	var runs [][]Point2D
	var cur []Point2D
	pos := phase // position within the pattern
	drawing := pos < on
	if drawing {
		cur = append(cur, pts[0])
	}

	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		segLen := a.Distance(b)
		travelled := 0.0
		for segLen-travelled > 1e-9 {
			var boundary float64
			if drawing {
				boundary = on - pos
			} else {
				boundary = period - pos
			}
			step := math.Min(boundary, segLen-travelled)
			travelled += step
			pos += step
			p := a.Lerp(b, travelled/segLen)
			if drawing {
				cur = append(cur, p)
			}
			if step == boundary {
				if drawing {
					runs = append(runs, cur)
					cur = nil
					drawing = false
				} else {
					pos = 0
					drawing = true
					cur = []Point2D{p}
				}
			}
		}
	}
	if drawing && len(cur) > 1 {
		runs = append(runs, cur)
	}
	return runs
}
