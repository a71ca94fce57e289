package geometry

import (
	"math"
	"sort"
)

// AngleOptions tunes EstimatePageAngle.
type AngleOptions struct {
	// MaxContours is how many of the largest contours vote on the angle.
	MaxContours int
	// StdThreshold is the maximum standard deviation (degrees) of the angle
	// votes before the distribution is judged unreliable.
	StdThreshold float64
}

// DefaultAngleOptions returns the tuning used by the page predictor.
func DefaultAngleOptions() AngleOptions {
	return AngleOptions{MaxContours: 20, StdThreshold: 3.0}
}

// EstimatePageAngle estimates the skew angle of a page from a binarized
// segmentation bitmap, in degrees in [-90, 90), positive counter-clockwise. The largest contours are fitted with
// minimum-area rectangles and their angles averaged; a high-variance angle
// distribution (mixed orientations, degenerate pages) yields 0. The summed
// rectangle widths versus heights disambiguate the rotation direction, since
// the fitted angle is only known modulo 90 degrees.
func EstimatePageAngle(bitmap Bitmap, opts AngleOptions) float64 {
	if opts.MaxContours <= 0 {
		opts.MaxContours = 20
	}
	if opts.StdThreshold <= 0 {
		opts.StdThreshold = 3.0
	}

	contours := ExtractContours(bitmap)
	if len(contours) == 0 {
		return 0
	}
	sort.Slice(contours, func(i, j int) bool {
		return PolygonArea(contours[i]) > PolygonArea(contours[j])
	})
	if len(contours) > opts.MaxContours {
		contours = contours[:opts.MaxContours]
	}

	angles := make([]float64, 0, len(contours))
	var sumW, sumH float64
	for _, ct := range contours {
		rect := MinAreaRect(ct)
		angles = append(angles, rect.Angle)
		sumW += rect.Width
		sumH += rect.Height
	}

	if stddev(angles) > opts.StdThreshold {
		// Mixed 0/90-degree votes or a multi-oriented document.
		return 0
	}
	angle := -mean(angles)
	if sumW < sumH {
		// Taller-than-wide rectangles: the skew is on the other side of the
		// 90-degree ambiguity, shift into the opposite quadrant.
		angle = 90 + angle
	}
	// Straight pages and clockwise skews land in (90, 180] after the shift.
	return normalizeAngle(angle)
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

func stddev(v []float64) float64 {
	if len(v) < 2 {
		return 0
	}
	m := mean(v)
	var s float64
	for _, x := range v {
		s += (x - m) * (x - m)
	}
	return math.Sqrt(s / float64(len(v)))
}
