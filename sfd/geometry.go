package sfd

import "math"

// Matrix is an affine transformation in PostScript order [a b c d e f],
// mapping (x, y) to (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity is the identity transformation.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translate returns a translation by (dx, dy).
func Translate(dx, dy float64) Matrix {
	return Matrix{1, 0, 0, 1, dx, dy}
}

// Scale returns a scaling by (sx, sy) around the origin.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a counter-clockwise rotation around the origin.
// The angle is given in radians.
func Rotate(theta float64) Matrix {
	s, c := math.Sincos(theta)
	// sin(pi) is not exactly 0; snap so that rotated integer outlines stay integer
	s, c = snap(s), snap(c)
	return Matrix{c, s, -s, c, 0, 0}
}

func snap(v float64) float64 {
	const eps = 1e-12
	r := math.Round(v)
	if math.Abs(v-r) < eps {
		return r
	}
	return v
}

// Compose returns the transformation applying m first, then n.
func (m Matrix) Compose(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Mirrors reports whether m flips orientation (negative determinant).
func (m Matrix) Mirrors() bool {
	return m[0]*m[3]-m[1]*m[2] < 0
}

// Point is a point in font units.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned bounding box. An empty Rect has Empty set.
type Rect struct {
	XMin, YMin, XMax, YMax float64
	Empty                  bool
}

func emptyRect() Rect {
	return Rect{Empty: true}
}

func (r *Rect) addPoint(p Point) {
	if r.Empty {
		*r = Rect{XMin: p.X, YMin: p.Y, XMax: p.X, YMax: p.Y}
		return
	}
	r.XMin = math.Min(r.XMin, p.X)
	r.YMin = math.Min(r.YMin, p.Y)
	r.XMax = math.Max(r.XMax, p.X)
	r.YMax = math.Max(r.YMax, p.Y)
}

// Union returns the smallest rectangle containing r and s.
func (r Rect) Union(s Rect) Rect {
	if r.Empty {
		return s
	}
	if s.Empty {
		return r
	}
	r.addPoint(Point{s.XMin, s.YMin})
	r.addPoint(Point{s.XMax, s.YMax})
	return r
}

// Segment kinds of a contour.
const (
	SegLine = iota
	SegCurve
)

// Segment is a line or a cubic Bézier segment. Start is the end point of
// the previous segment (or the contour start).
type Segment struct {
	Kind   int
	C1, C2 Point // control points, curves only
	End    Point
}

// Contour is a closed path of line and cubic segments.
type Contour struct {
	Start    Point
	Segments []Segment
}

// Transform returns a transformed copy of the contour.
func (c Contour) Transform(m Matrix) Contour {
	t := Contour{Start: m.Apply(c.Start), Segments: make([]Segment, len(c.Segments))}
	for i, s := range c.Segments {
		t.Segments[i] = Segment{Kind: s.Kind, C1: m.Apply(s.C1), C2: m.Apply(s.C2), End: m.Apply(s.End)}
	}
	return t
}

// Reverse returns the contour traversed in the opposite direction.
func (c Contour) Reverse() Contour {
	n := len(c.Segments)
	if n == 0 {
		return c
	}
	r := Contour{Start: c.Segments[n-1].End, Segments: make([]Segment, 0, n)}
	for i := n - 1; i >= 0; i-- {
		from := c.Start
		if i > 0 {
			from = c.Segments[i-1].End
		}
		s := c.Segments[i]
		r.Segments = append(r.Segments, Segment{Kind: s.Kind, C1: s.C2, C2: s.C1, End: from})
	}
	return r
}

// Bounds returns the exact bounding box of the contour, including
// extrema of curve segments.
func (c Contour) Bounds() Rect {
	r := emptyRect()
	r.addPoint(c.Start)
	cur := c.Start
	for _, s := range c.Segments {
		r.addPoint(s.End)
		if s.Kind == SegCurve {
			for _, t := range cubicExtrema(cur.X, s.C1.X, s.C2.X, s.End.X) {
				r.addPoint(cubicAt(cur, s.C1, s.C2, s.End, t))
			}
			for _, t := range cubicExtrema(cur.Y, s.C1.Y, s.C2.Y, s.End.Y) {
				r.addPoint(cubicAt(cur, s.C1, s.C2, s.End, t))
			}
		}
		cur = s.End
	}
	return r
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// cubicExtrema returns parameters t in (0,1) where the derivative of the
// one-dimensional cubic Bézier vanishes.
func cubicExtrema(p0, p1, p2, p3 float64) []float64 {
	// B'(t)/3 = a t^2 + b t + c
	a := -p0 + 3*p1 - 3*p2 + p3
	b := 2 * (p0 - 2*p1 + p2)
	c := p1 - p0
	var ts []float64
	inside := func(t float64) {
		if t > 0 && t < 1 {
			ts = append(ts, t)
		}
	}
	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) > eps {
			inside(-c / b)
		}
		return ts
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return ts
	}
	sq := math.Sqrt(disc)
	inside((-b + sq) / (2 * a))
	inside((-b - sq) / (2 * a))
	return ts
}
