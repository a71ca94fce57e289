// Package detection turns per-pixel text probability maps into scored text
// region boxes: binarization, connected components, contour tracing, polygon
// unclipping and min-area rectangle fitting, DB post-processing style.
package detection

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/pageread/internal/geometry"
	"github.com/MeKo-Tech/pageread/internal/mempool"
)

// ErrHeatmapShape reports a probability map whose data length does not match
// its declared dimensions.
var ErrHeatmapShape = errors.New("detection: heatmap data length must equal width*height")

// Heatmap is a per-pixel text probability map produced by a detection model.
// Data is row-major, Data[y*Width+x], with values in [0, 1].
type Heatmap struct {
	Data   []float32
	Width  int
	Height int
}

// Validate checks the shape contract.
func (m Heatmap) Validate() error {
	if m.Width <= 0 || m.Height <= 0 || len(m.Data) != m.Width*m.Height {
		return fmt.Errorf("%w: %dx%d with %d values", ErrHeatmapShape, m.Width, m.Height, len(m.Data))
	}
	return nil
}

// Binarize thresholds the map into a caller-owned bitmap, for callers
// outside the post-processing hot path (page angle estimation).
func (m Heatmap) Binarize(threshold float64) geometry.Bitmap {
	b := geometry.NewBitmap(m.Width, m.Height)
	th := float32(threshold)
	for i, v := range m.Data {
		if v >= th {
			b.Data[i] = 1
		}
	}
	return b
}

// binarize thresholds the map into a pooled bitmap. The caller must release
// it via releaseBitmap.
func (m Heatmap) binarize(threshold float64) geometry.Bitmap {
	buf := mempool.GetByte(m.Width * m.Height)
	th := float32(threshold)
	for i, v := range m.Data {
		if v >= th {
			buf[i] = 1
		}
	}
	return geometry.Bitmap{Data: buf, Width: m.Width, Height: m.Height}
}

func releaseBitmap(b geometry.Bitmap) {
	mempool.PutByte(b.Data)
}
