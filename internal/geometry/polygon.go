package geometry

import (
	"math"
	"sort"
)

// PolygonArea returns the absolute area of a closed polygon (shoelace formula).
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var s float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		s += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(s) / 2
}

// SignedPolygonArea returns the signed area; positive when the vertex order
// is counter-clockwise in a y-down coordinate system.
func SignedPolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var s float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		s += p.X*q.Y - q.X*p.Y
	}
	return s / 2
}

// PolygonPerimeter returns the length of the closed polygon boundary.
func PolygonPerimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	var s float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		s += math.Hypot(q.X-p.X, q.Y-p.Y)
	}
	return s
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull computes the convex hull of a point set with the monotone chain
// algorithm. The hull is returned in counter-clockwise order without the
// closing point repeated.
func ConvexHull(pts []Point) []Point {
	if len(pts) <= 1 {
		return append([]Point(nil), pts...)
	}
	p := append([]Point(nil), pts...)
	sort.Slice(p, func(i, j int) bool {
		if p[i].X != p[j].X {
			return p[i].X < p[j].X
		}
		return p[i].Y < p[j].Y
	})
	p = dedupePoints(p)
	if len(p) <= 2 {
		return p
	}
	hull := make([]Point, 0, 2*len(p))
	// Lower chain.
	for _, pt := range p {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	// Upper chain.
	lower := len(hull) + 1
	for i := len(p) - 2; i >= 0; i-- {
		pt := p[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], pt) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, pt)
	}
	return hull[:len(hull)-1]
}

func dedupePoints(sorted []Point) []Point {
	out := sorted[:0]
	for i, pt := range sorted {
		if i == 0 || pt != sorted[i-1] {
			out = append(out, pt)
		}
	}
	return out
}

// MinAreaRect fits the minimum-area enclosing rectangle to a point set using
// rotating calipers over the convex hull. The result follows the minAreaRect
// convention: Angle is in [-90, 0) and Width is the extent of the side whose
// direction is congruent to Angle modulo 180 degrees. Degenerate inputs
// (empty, single point, collinear) yield thin rectangles of unit thickness.
func MinAreaRect(pts []Point) RotatedBox {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return RotatedBox{Angle: -90}
	case 1:
		return RotatedBox{CenterX: hull[0].X, CenterY: hull[0].Y, Width: 1, Height: 1, Angle: -90}
	case 2:
		return rectFromSegment(hull[0], hull[1])
	}

	bestArea := math.Inf(1)
	var best struct {
		ux, uy                 float64
		minS, maxS, minT, maxT float64
	}
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		ex, ey := b.X-a.X, b.Y-a.Y
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ux, uy := ex/l, ey/l
		vx, vy := -uy, ux
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s := p.X*ux + p.Y*uy
			t := p.X*vx + p.Y*vy
			minS = math.Min(minS, s)
			maxS = math.Max(maxS, s)
			minT = math.Min(minT, t)
			maxT = math.Max(maxT, t)
		}
		area := (maxS - minS) * (maxT - minT)
		if area < bestArea {
			bestArea = area
			best.ux, best.uy = ux, uy
			best.minS, best.maxS, best.minT, best.maxT = minS, maxS, minT, maxT
		}
	}
	if math.IsInf(bestArea, 1) {
		return RotatedBox{Angle: -90}
	}

	vx, vy := -best.uy, best.ux
	cs := (best.minS + best.maxS) / 2
	ct := (best.minT + best.maxT) / 2
	center := Point{X: best.ux*cs + vx*ct, Y: best.uy*cs + vy*ct}
	extentU := best.maxS - best.minS
	extentV := best.maxT - best.minT
	return normalizeRect(center, best.ux, best.uy, extentU, extentV)
}

// rectFromSegment builds a unit-thickness rectangle around a segment.
func rectFromSegment(a, b Point) RotatedBox {
	ex, ey := b.X-a.X, b.Y-a.Y
	l := math.Hypot(ex, ey)
	if l == 0 {
		return RotatedBox{CenterX: a.X, CenterY: a.Y, Width: 1, Height: 1, Angle: -90}
	}
	center := Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	return normalizeRect(center, ex/l, ey/l, l, 1)
}

// normalizeRect maps a rectangle given by a side direction (ux, uy) and the
// extents along/across it onto the [-90, 0) angle convention, swapping width
// and height when the side direction falls in the first quadrant.
func normalizeRect(center Point, ux, uy, extentU, extentV float64) RotatedBox {
	theta := math.Atan2(uy, ux) * 180 / math.Pi
	if theta < 0 {
		theta += 180
	}
	if theta >= 180 {
		theta -= 180
	}
	rb := RotatedBox{CenterX: center.X, CenterY: center.Y}
	if theta >= 90 {
		// The u side itself has a direction congruent to [-90, 0).
		rb.Angle = theta - 180
		rb.Width = extentU
		rb.Height = extentV
	} else {
		// The perpendicular side does; swap roles.
		rb.Angle = theta - 90
		rb.Width = extentV
		rb.Height = extentU
	}
	return rb
}

// SimplifyPolygon reduces a polygon with the Douglas-Peucker algorithm.
// Endpoints are always kept so closed contours stay closed.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	douglasPeucker(pts, 0, len(pts)-1, epsilon, keep)
	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func douglasPeucker(pts []Point, lo, hi int, eps float64, keep []bool) {
	if hi <= lo+1 {
		return
	}
	maxDist, split := -1.0, -1
	for i := lo + 1; i < hi; i++ {
		if d := segmentDistance(pts[i], pts[lo], pts[hi]); d > maxDist {
			maxDist, split = d, i
		}
	}
	if maxDist > eps {
		keep[split] = true
		douglasPeucker(pts, lo, split, eps, keep)
		douglasPeucker(pts, split, hi, eps, keep)
	}
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs((p.X-a.X)*vy-(p.Y-a.Y)*vx) / math.Hypot(vx, vy)
}
