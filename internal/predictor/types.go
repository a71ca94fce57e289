// Package predictor composes the detection and recognition stages into a
// page-level OCR result: boxes from the detection post-processor, crops cut
// by the geometry package, words decoded by the recognition post-processor.
package predictor

import (
	"github.com/MeKo-Tech/pageread/internal/geometry"
)

// Word is one recognized text region on a page. Box always carries relative
// coordinates; Rotated is present when the predictor works with oriented
// boxes (rotated mode or orientation compensation).
type Word struct {
	Text           string               `json:"text"`
	Confidence     float64              `json:"confidence"`
	DetectionScore float64              `json:"detection_score"`
	Box            geometry.Box         `json:"box"`
	Rotated        *geometry.RotatedBox `json:"rotated,omitempty"`
}

// Page is the OCR result for one input image. Width and Height are the
// original pixel dimensions for downstream relative-to-absolute conversion.
// Angle is the estimated page skew in degrees when orientation estimation is
// enabled, 0 otherwise.
type Page struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Angle  float64 `json:"angle,omitempty"`
	Words  []Word  `json:"words"`
}
