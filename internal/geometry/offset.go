package geometry

import "math"

// OffsetKind tags the outcome of a polygon offset.
type OffsetKind int

const (
	// OffsetExpanded means the offset produced a single simple polygon.
	OffsetExpanded OffsetKind = iota
	// OffsetDegenerate means the offset collapsed or self-intersected.
	// Callers are expected to fall back to a bounding rectangle.
	OffsetDegenerate
)

// OffsetResult is the tagged outcome of OffsetPolygon. Polygon is only
// meaningful when Kind is OffsetExpanded.
type OffsetResult struct {
	Kind    OffsetKind
	Polygon []Point
}

// OffsetPolygon dilates a simple polygon outward by delta using per-edge
// offsetting with miter joins. Offsetting highly concave or thin polygons is
// unstable: edges can cross after dilation, which in a full Clipper-style
// implementation surfaces as multiple disjoint output polygons. Such inputs
// are reported as OffsetDegenerate instead of returning broken geometry.
func OffsetPolygon(pts []Point, delta float64) OffsetResult {
	if len(pts) < 3 || delta <= 0 {
		return OffsetResult{Kind: OffsetDegenerate}
	}
	poly := dedupeClosed(pts)
	if len(poly) < 3 {
		return OffsetResult{Kind: OffsetDegenerate}
	}

	// Outward normal orientation depends on the winding of the input.
	sign := 1.0
	if SignedPolygonArea(poly) < 0 {
		sign = -1.0
	}

	n := len(poly)
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		prev := poly[(i-1+n)%n]
		cur := poly[i]
		next := poly[(i+1)%n]

		l1, ok1 := offsetLine(prev, cur, delta, sign)
		l2, ok2 := offsetLine(cur, next, delta, sign)
		if !ok1 || !ok2 {
			return OffsetResult{Kind: OffsetDegenerate}
		}
		p, ok := intersectLines(l1, l2)
		if !ok {
			// Near-parallel join: shift the vertex along the shared normal.
			nx, ny := l1.nx, l1.ny
			p = Point{X: cur.X + delta*nx, Y: cur.Y + delta*ny}
		}
		out = append(out, p)
	}

	if PolygonArea(out) <= PolygonArea(poly) || edgeReversed(poly, out) || selfIntersects(out) {
		return OffsetResult{Kind: OffsetDegenerate}
	}
	return OffsetResult{Kind: OffsetExpanded, Polygon: out}
}

// edgeReversed reports whether any offset edge flipped direction relative to
// its source edge. A flip means two offset walls passed through each other,
// the local collapse that splits thin concave notches into disjoint pieces.
func edgeReversed(in, out []Point) bool {
	n := len(in)
	if len(out) != n {
		return true
	}
	for i := 0; i < n; i++ {
		a := in[(i+1)%n]
		b := in[i]
		c := out[(i+1)%n]
		d := out[i]
		if (a.X-b.X)*(c.X-d.X)+(a.Y-b.Y)*(c.Y-d.Y) <= 0 {
			return true
		}
	}
	return false
}

// line is a directed line through p with unit direction (dx, dy) and unit
// outward normal (nx, ny).
type line struct {
	p              Point
	dx, dy, nx, ny float64
}

func offsetLine(a, b Point, delta, sign float64) (line, bool) {
	ex, ey := b.X-a.X, b.Y-a.Y
	l := math.Hypot(ex, ey)
	if l == 0 {
		return line{}, false
	}
	dx, dy := ex/l, ey/l
	nx, ny := sign*dy, -sign*dx
	return line{
		p:  Point{X: a.X + delta*nx, Y: a.Y + delta*ny},
		dx: dx, dy: dy, nx: nx, ny: ny,
	}, true
}

func intersectLines(a, b line) (Point, bool) {
	det := a.dx*b.dy - a.dy*b.dx
	if math.Abs(det) < 1e-9 {
		return Point{}, false
	}
	t := ((b.p.X-a.p.X)*b.dy - (b.p.Y-a.p.Y)*b.dx) / det
	return Point{X: a.p.X + t*a.dx, Y: a.p.Y + t*a.dy}, true
}

// dedupeClosed removes consecutive duplicate vertices, treating the polygon
// as closed.
func dedupeClosed(pts []Point) []Point {
	out := make([]Point, 0, len(pts))
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			out = append(out, p)
		}
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// selfIntersects reports whether any two non-adjacent edges of the closed
// polygon cross. Contours here are small, so the quadratic scan is fine.
func selfIntersects(pts []Point) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1 := pts[i]
		a2 := pts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			b1 := pts[j]
			b2 := pts[(j+1)%n]
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a1, a2, b1, b2 Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
