// Package geometry provides the coordinate types and geometric algorithms
// shared by the detection post-processor and the page predictor: points,
// axis-aligned and rotated boxes, binary bitmaps, contour extraction,
// convex hulls, minimum-area rectangles, polygon offsetting, page-angle
// estimation, box/page rotation and crop extraction.
//
// Boxes come in two flavors. A Box is axis-aligned (xmin, ymin, xmax, ymax).
// A RotatedBox is (center, width, height, angle) with the angle in degrees,
// positive counter-clockwise, kept in [-90, 90). Both may carry relative
// coordinates in [0, 1] or absolute pixel coordinates; functions state which
// they expect.
package geometry

import (
	"errors"
	"math"
)

// Validation errors for caller contract violations. These fail before any
// geometric computation and are never retried.
var (
	ErrRelativeCoords = errors.New("geometry: box coordinates must be relative, in [0, 1]")
	ErrEmptyBox       = errors.New("geometry: box must have positive width and height")
	ErrBitmapShape    = errors.New("geometry: bitmap data length must equal width*height")
)

// Point is a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Contour is an ordered boundary polygon of a connected bitmap region.
type Contour []Point

// Box is an axis-aligned bounding box.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from two corner coordinates, normalizing ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center returns the box center point.
func (b Box) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// IsRelative reports whether all coordinates lie in [0, 1].
func (b Box) IsRelative() bool {
	return b.MinX >= 0 && b.MinY >= 0 && b.MaxX <= 1 && b.MaxY <= 1
}

// RotatedBox is an oriented bounding box. Angle is in degrees, positive
// counter-clockwise, in [-90, 90). Width is the extent along the side whose
// direction is congruent to Angle; Height is the perpendicular extent.
type RotatedBox struct {
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
	Angle   float64
}

// Corners returns the four corner points in order top-left, top-right,
// bottom-right, bottom-left with respect to the box's own frame (reading
// direction along the width side).
func (r RotatedBox) Corners() [4]Point {
	a := r.Angle * math.Pi / 180
	dx, dy := math.Cos(a), math.Sin(a)
	// Perpendicular, pointing toward the "bottom" of the box.
	px, py := -dy, dx
	hw, hh := r.Width/2, r.Height/2
	c := Point{X: r.CenterX, Y: r.CenterY}
	return [4]Point{
		{X: c.X - hw*dx - hh*px, Y: c.Y - hw*dy - hh*py},
		{X: c.X + hw*dx - hh*px, Y: c.Y + hw*dy - hh*py},
		{X: c.X + hw*dx + hh*px, Y: c.Y + hw*dy + hh*py},
		{X: c.X - hw*dx + hh*px, Y: c.Y - hw*dy + hh*py},
	}
}

// AxisAligned returns the axis-aligned box spanned by the rotated corners.
func (r RotatedBox) AxisAligned() Box {
	pts := r.Corners()
	return BoundingBox(pts[:])
}

// Bitmap is a binarized segmentation map. Data is row-major, Data[y*Width+x].
type Bitmap struct {
	Data   []byte
	Width  int
	Height int
}

// NewBitmap allocates an all-zero bitmap of the given dimensions.
func NewBitmap(w, h int) Bitmap {
	return Bitmap{Data: make([]byte, w*h), Width: w, Height: h}
}

// Validate checks the bitmap shape contract.
func (b Bitmap) Validate() error {
	if b.Width <= 0 || b.Height <= 0 || len(b.Data) != b.Width*b.Height {
		return ErrBitmapShape
	}
	return nil
}

// At reports whether the pixel at (x, y) is set. Out-of-bounds reads are false.
func (b Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Data[y*b.Width+x] != 0
}

// Set marks the pixel at (x, y). Out-of-bounds writes are ignored.
func (b Bitmap) Set(x, y int) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	b.Data[y*b.Width+x] = 1
}

// BoundingBox returns the axis-aligned bounding box of a set of points.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// ScalePoints returns a copy of pts scaled by sx, sy.
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}
