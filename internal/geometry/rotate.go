package geometry

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultMinRotationAngle is the guard band, in degrees, below which (and
// within which of 90) rotation compensation is skipped: near-zero skew is not
// worth resampling for and near-90 estimates are direction-ambiguous.
const DefaultMinRotationAngle = 1.0

// rotationWorthwhile reports whether angle falls outside the no-op guard band.
func rotationWorthwhile(angle, minAngle float64) bool {
	if minAngle <= 0 {
		minAngle = DefaultMinRotationAngle
	}
	a := math.Abs(angle)
	return a >= minAngle && a <= 90-minAngle
}

// RotateBoxes converts straight boxes in relative coordinates into rotated
// boxes by rotating their centers around the page center (0.5, 0.5) by angle
// degrees (positive counter-clockwise) and tagging each with the angle.
// Extents are preserved: rotation moves centers, it does not resample.
// Within the guard band the conversion is the identity one (angle 0,
// unchanged centers).
func RotateBoxes(boxes []Box, angle, minAngle float64) []RotatedBox {
	out := make([]RotatedBox, len(boxes))
	if !rotationWorthwhile(angle, minAngle) {
		for i, b := range boxes {
			c := b.Center()
			out[i] = RotatedBox{CenterX: c.X, CenterY: c.Y, Width: b.Width(), Height: b.Height()}
		}
		return out
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	for i, b := range boxes {
		c := rotateAboutPageCenter(b.Center(), sin, cos)
		out[i] = RotatedBox{
			CenterX: c.X,
			CenterY: c.Y,
			Width:   b.Width(),
			Height:  b.Height(),
			Angle:   angle,
		}
	}
	return out
}

// RotateRotatedBoxes rotates the centers of already-rotated boxes around the
// page center and adds angle to each box's own angle. The same guard band as
// RotateBoxes applies; within it the input is returned unchanged.
func RotateRotatedBoxes(boxes []RotatedBox, angle, minAngle float64) []RotatedBox {
	if !rotationWorthwhile(angle, minAngle) {
		return boxes
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	out := make([]RotatedBox, len(boxes))
	for i, rb := range boxes {
		c := rotateAboutPageCenter(Point{X: rb.CenterX, Y: rb.CenterY}, sin, cos)
		out[i] = RotatedBox{
			CenterX: c.X,
			CenterY: c.Y,
			Width:   rb.Width,
			Height:  rb.Height,
			Angle:   normalizeAngle(rb.Angle + angle),
		}
	}
	return out
}

// normalizeAngle maps an angle in degrees into [-90, 90).
func normalizeAngle(a float64) float64 {
	for a >= 90 {
		a -= 180
	}
	for a < -90 {
		a += 180
	}
	return a
}

// rotateAboutPageCenter rotates a relative-coordinate point around (0.5, 0.5).
// Relative coordinates have y growing downward, so a counter-clockwise visual
// rotation by angle a uses the inverse of the usual rotation matrix.
func rotateAboutPageCenter(p Point, sin, cos float64) Point {
	dx, dy := p.X-0.5, p.Y-0.5
	return Point{
		X: 0.5 + cos*dx + sin*dy,
		Y: 0.5 - sin*dx + cos*dy,
	}
}

// RotatePage rotates a page image counter-clockwise by angle degrees about
// its center, filling uncovered pixels with black. Within the guard band the
// input image is returned untouched. When expand is false the canvas keeps
// its size and corners may clip; when true the canvas grows to hold the whole
// rotated page (the variant used for augmentation-style callers).
func RotatePage(img image.Image, angle, minAngle float64, expand bool) image.Image {
	if img == nil || !rotationWorthwhile(angle, minAngle) {
		return img
	}
	if expand {
		return imaging.Rotate(img, angle, color.NRGBA{A: 255})
	}
	rotated := imaging.Rotate(img, angle, color.NRGBA{A: 255})
	b := img.Bounds()
	return imaging.CropCenter(rotated, b.Dx(), b.Dy())
}
