package geometry

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ExtractCrops slices one sub-image per straight box out of a page image.
// Boxes must be relative (coordinates in [0, 1]) with positive extents; a
// violation fails with a validation error before any cropping happens.
// An empty box list yields an empty crop list, not an error.
func ExtractCrops(img image.Image, boxes []Box) ([]image.Image, error) {
	if len(boxes) == 0 {
		return []image.Image{}, nil
	}
	if img == nil {
		return nil, fmt.Errorf("geometry: extract crops: nil image")
	}
	for i, b := range boxes {
		if !b.IsRelative() {
			return nil, fmt.Errorf("box %d (%v): %w", i, b, ErrRelativeCoords)
		}
		if b.Width() <= 0 || b.Height() <= 0 {
			return nil, fmt.Errorf("box %d (%v): %w", i, b, ErrEmptyBox)
		}
	}

	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	crops := make([]image.Image, 0, len(boxes))
	for _, b := range boxes {
		x0 := int(math.Round(b.MinX * w))
		y0 := int(math.Round(b.MinY * h))
		x1 := int(math.Round(b.MaxX * w))
		y1 := int(math.Round(b.MaxY * h))
		if x1 <= x0 {
			x1 = x0 + 1
		}
		if y1 <= y0 {
			y1 = y0 + 1
		}
		rect := image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
		crops = append(crops, imaging.Crop(img, rect))
	}
	return crops, nil
}

// ExtractRotatedCrops rectifies one sub-image per rotated box using a
// perspective warp, so that rotated text reads left to right afterwards.
// Boxes must be relative with positive extents. The destination corner
// ordering (clockwise or counter-clockwise) is decided once for the whole
// batch by comparing summed widths against summed heights, keeping a
// consistent reading direction across all crops of a call.
func ExtractRotatedCrops(img image.Image, boxes []RotatedBox) ([]image.Image, error) {
	if len(boxes) == 0 {
		return []image.Image{}, nil
	}
	if img == nil {
		return nil, fmt.Errorf("geometry: extract rotated crops: nil image")
	}
	var sumW, sumH float64
	for i, rb := range boxes {
		if rb.Width <= 0 || rb.Height <= 0 {
			return nil, fmt.Errorf("rotated box %d (%v): %w", i, rb, ErrEmptyBox)
		}
		if rb.CenterX < 0 || rb.CenterX > 1 || rb.CenterY < 0 || rb.CenterY > 1 ||
			rb.Width > 1 || rb.Height > 1 {
			return nil, fmt.Errorf("rotated box %d (%v): %w", i, rb, ErrRelativeCoords)
		}
		sumW += rb.Width
		sumH += rb.Height
	}
	// Batch-global reading-direction heuristic.
	clockwise := sumW > sumH

	bounds := img.Bounds()
	pw, ph := float64(bounds.Dx()), float64(bounds.Dy())
	crops := make([]image.Image, 0, len(boxes))
	for _, rb := range boxes {
		abs := RotatedBox{
			CenterX: rb.CenterX * pw,
			CenterY: rb.CenterY * ph,
			Width:   rb.Width * pw,
			Height:  rb.Height * ph,
			Angle:   rb.Angle,
		}
		crops = append(crops, rectifyQuad(img, abs, clockwise))
	}
	return crops, nil
}

// rectifyQuad warps the rotated box's quadrilateral onto an upright
// rectangle. In clockwise mode the output is Width x Height with the box's
// top-left corner at the origin; in counter-clockwise mode the output is
// Height x Width with the quad rotated a quarter turn, which un-mirrors
// vertically-written batches.
func rectifyQuad(img image.Image, rb RotatedBox, clockwise bool) image.Image {
	src := rb.Corners()
	w := max(int(math.Round(rb.Width)), 1)
	h := max(int(math.Round(rb.Height)), 1)

	var dst [4]Point
	var outW, outH int
	if clockwise {
		outW, outH = w, h
		dst = [4]Point{
			{X: 0, Y: 0},
			{X: float64(w - 1), Y: 0},
			{X: float64(w - 1), Y: float64(h - 1)},
			{X: 0, Y: float64(h - 1)},
		}
	} else {
		outW, outH = h, w
		dst = [4]Point{
			{X: float64(h - 1), Y: 0},
			{X: float64(h - 1), Y: float64(w - 1)},
			{X: 0, Y: float64(w - 1)},
			{X: 0, Y: 0},
		}
	}

	out := warpPerspective(img, src, dst, outW, outH)
	if out == nil {
		// Singular homography; fall back to the axis-aligned cut.
		rect := rb.AxisAligned().toRect(img.Bounds())
		return imaging.Crop(img, rect)
	}
	return out
}

// toRect converts an absolute-coordinate box into an image rectangle clamped
// to the given bounds.
func (b Box) toRect(bounds image.Rectangle) image.Rectangle {
	x0 := int(math.Floor(b.MinX))
	y0 := int(math.Floor(b.MinY))
	x1 := int(math.Ceil(b.MaxX))
	y1 := int(math.Ceil(b.MaxY))
	return image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
}
