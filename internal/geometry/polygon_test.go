package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolygonAreaPerimeter(t *testing.T) {
	square := []Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	assert.InDelta(t, 16.0, PolygonArea(square), 1e-9)
	assert.InDelta(t, 16.0, PolygonPerimeter(square), 1e-9)

	assert.Zero(t, PolygonArea([]Point{{1, 1}, {2, 2}}))
	assert.Zero(t, PolygonPerimeter([]Point{{1, 1}}))
}

func TestConvexHull_Square(t *testing.T) {
	pts := []Point{
		{0, 0}, {4, 0}, {4, 4}, {0, 4},
		{2, 2}, {1, 3}, {3, 1}, // interior points must disappear
		{0, 0},                 // duplicate
	}
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 16.0, PolygonArea(hull), 1e-9)
}

func TestConvexHull_Collinear(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	hull := ConvexHull(pts)
	require.Len(t, hull, 2)
	assert.Equal(t, Point{0, 0}, hull[0])
	assert.Equal(t, Point{3, 3}, hull[1])
}

func TestMinAreaRect_AxisAligned(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 4}, {0, 4}}
	rect := MinAreaRect(pts)
	// Axis-aligned boxes land on the -90 end of the convention with the
	// extents swapped accordingly.
	assert.InDelta(t, -90.0, rect.Angle, 1e-9)
	assert.InDelta(t, 4.0, rect.Width, 1e-9)
	assert.InDelta(t, 10.0, rect.Height, 1e-9)
	assert.InDelta(t, 5.0, rect.CenterX, 1e-9)
	assert.InDelta(t, 2.0, rect.CenterY, 1e-9)
}

func TestMinAreaRect_Rotated30(t *testing.T) {
	// A 20x6 rectangle whose long side runs at 30 degrees counter-clockwise
	// (visually), i.e. at -30 degrees in y-down coordinates.
	rect := rotatedRectPoints(50, 50, 20, 6, -30)
	got := MinAreaRect(rect)
	assert.InDelta(t, -30.0, got.Angle, 1e-6)
	assert.InDelta(t, 20.0, got.Width, 1e-6)
	assert.InDelta(t, 6.0, got.Height, 1e-6)
	assert.GreaterOrEqual(t, got.Angle, -90.0)
	assert.Less(t, got.Angle, 0.0)
}

func TestMinAreaRect_Degenerate(t *testing.T) {
	assert.Equal(t, -90.0, MinAreaRect(nil).Angle)

	single := MinAreaRect([]Point{{3, 7}})
	assert.Equal(t, 1.0, single.Width)
	assert.Equal(t, 1.0, single.Height)

	segment := MinAreaRect([]Point{{0, 0}, {0, 8}})
	assert.Positive(t, segment.Width)
	assert.Positive(t, segment.Height)
	assert.GreaterOrEqual(t, segment.Angle, -90.0)
	assert.Less(t, segment.Angle, 0.0)
}

func TestSimplifyPolygon(t *testing.T) {
	// A straight edge with redundant midpoints collapses to its endpoints.
	pts := []Point{{0, 0}, {1, 0.01}, {2, 0}, {3, -0.01}, {4, 0}}
	out := SimplifyPolygon(pts, 0.5)
	assert.Len(t, out, 2)

	// A sharp corner survives.
	corner := []Point{{0, 0}, {5, 0}, {5, 5}}
	out = SimplifyPolygon(corner, 0.5)
	assert.Len(t, out, 3)
}

// rotatedRectPoints returns the corners of a w x h rectangle centered at
// (cx, cy) with its long side at thetaDeg in y-down coordinates.
func rotatedRectPoints(cx, cy, w, h, thetaDeg float64) []Point {
	a := thetaDeg * math.Pi / 180
	dx, dy := math.Cos(a), math.Sin(a)
	px, py := -dy, dx
	out := make([]Point, 0, 4)
	for _, c := range [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		out = append(out, Point{
			X: cx + c[0]*w/2*dx + c[1]*h/2*px,
			Y: cy + c[0]*w/2*dy + c[1]*h/2*py,
		})
	}
	return out
}
