package detection

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/pageread/internal/geometry"
)

// Contours whose area/perimeter ratio falls below this cannot drive the
// unclip heuristic without dividing by (almost) zero.
const minAreaPerimeterRatio = 1e-6

// Region is one detected text region. Box is always populated with relative
// coordinates in [0, 1]; Rotated is populated instead of being nil when the
// post-processor runs with AssumeStraightPages disabled. Polygon keeps the
// traced contour, scaled to the same relative coordinates.
type Region struct {
	Polygon    []geometry.Point
	Box        geometry.Box
	Rotated    *geometry.RotatedBox
	Confidence float64
}

// PostProcessor converts probability maps into scored region boxes. It is
// immutable after construction and safe for concurrent use.
type PostProcessor struct {
	cfg Config
}

// NewPostProcessor validates the configuration and builds a post-processor.
func NewPostProcessor(cfg Config) (*PostProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ConfidenceMethod == "" {
		cfg.ConfidenceMethod = ConfidenceMean
	}
	slog.Debug("detection post-processor ready",
		"bin_threshold", cfg.BinThreshold,
		"box_threshold", cfg.BoxThreshold,
		"unclip_ratio", cfg.UnclipRatio,
		"straight_pages", cfg.AssumeStraightPages)
	return &PostProcessor{cfg: cfg}, nil
}

// Config returns the configuration the post-processor was built with.
func (p *PostProcessor) Config() Config { return p.cfg }

// Apply post-processes one probability map per page and returns the detected
// regions per page, index-aligned with the input. Pages without text yield an
// empty (non-nil) region slice, never an error.
func (p *PostProcessor) Apply(maps []Heatmap) ([][]Region, error) {
	out := make([][]Region, len(maps))
	for i, m := range maps {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("map %d: %w", i, err)
		}
		out[i] = p.processMap(m)
	}
	return out, nil
}

// ApplyOne post-processes a single probability map.
func (p *PostProcessor) ApplyOne(m Heatmap) ([]Region, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return p.processMap(m), nil
}

func (p *PostProcessor) processMap(m Heatmap) []Region {
	bitmap := m.binarize(p.cfg.BinThreshold)
	defer releaseBitmap(bitmap)

	comps, labels := geometry.LabelComponents(bitmap)
	regions := make([]Region, 0, len(comps))
	for _, comp := range comps {
		contour := geometry.TraceBoundary(labels, m.Width, m.Height, comp)
		if len(contour) < p.cfg.MinContourPoints {
			continue
		}
		area := geometry.PolygonArea(contour)
		perimeter := geometry.PolygonPerimeter(contour)
		if area <= 0 || perimeter <= 0 || area/perimeter < minAreaPerimeterRatio {
			continue
		}
		conf := p.scoreComponent(m, labels, comp)
		if conf < p.cfg.BoxThreshold {
			continue
		}
		region := p.polygonToBox(contour, area, perimeter, m.Width, m.Height)
		region.Polygon = geometry.ScalePoints(contour, 1/float64(m.Width), 1/float64(m.Height))
		region.Confidence = conf
		regions = append(regions, region)
	}
	return regions
}

// polygonToBox reduces a traced contour to its output box. The contour is
// dilated by UnclipRatio*area/perimeter to undo training-time shrinkage; a
// degenerate dilation (thin concave contours whose offset would split into
// disjoint polygons) falls back to the bounding box of the raw contour.
func (p *PostProcessor) polygonToBox(contour []geometry.Point, area, perimeter float64, w, h int) Region {
	delta := p.cfg.UnclipRatio * area / perimeter
	res := geometry.OffsetPolygon(contour, delta)

	if p.cfg.AssumeStraightPages {
		pts := contour
		if res.Kind == geometry.OffsetExpanded {
			pts = res.Polygon
		}
		return Region{Box: normalizeBox(geometry.BoundingBox(pts), w, h)}
	}

	if res.Kind != geometry.OffsetExpanded {
		// Degenerate dilation: emit the raw bounding rectangle, unrotated.
		bb := geometry.BoundingBox(contour)
		c := bb.Center()
		rel := normalizeRotated(geometry.RotatedBox{
			CenterX: c.X,
			CenterY: c.Y,
			Width:   bb.Width(),
			Height:  bb.Height(),
		}, w, h)
		return Region{Box: normalizeBox(bb, w, h), Rotated: &rel}
	}

	rect := geometry.MinAreaRect(res.Polygon)
	rel := normalizeRotated(rect, w, h)
	return Region{
		Box:     normalizeBox(rect.AxisAligned(), w, h),
		Rotated: &rel,
	}
}

// normalizeBox converts a pixel-center box into relative coordinates. The
// +1 on the max edge converts center coordinates to pixel extents so a
// one-pixel-wide region still has positive width.
func normalizeBox(b geometry.Box, w, h int) geometry.Box {
	fw, fh := float64(w), float64(h)
	return geometry.Box{
		MinX: clamp01(b.MinX / fw),
		MinY: clamp01(b.MinY / fh),
		MaxX: clamp01((b.MaxX + 1) / fw),
		MaxY: clamp01((b.MaxY + 1) / fh),
	}
}

func normalizeRotated(r geometry.RotatedBox, w, h int) geometry.RotatedBox {
	fw, fh := float64(w), float64(h)
	return geometry.RotatedBox{
		CenterX: clamp01(r.CenterX / fw),
		CenterY: clamp01(r.CenterY / fh),
		Width:   math.Min((r.Width+1)/fw, 1),
		Height:  math.Min((r.Height+1)/fh, 1),
		Angle:   r.Angle,
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// scoreComponent aggregates the probability map over a component's pixels.
func (p *PostProcessor) scoreComponent(m Heatmap, labels []int32, comp geometry.Component) float64 {
	label := int32(comp.Label)
	var sum, sumSq, maxV float64
	count := 0
	for y := comp.MinY; y <= comp.MaxY; y++ {
		row := y * m.Width
		for x := comp.MinX; x <= comp.MaxX; x++ {
			if labels[row+x] != label {
				continue
			}
			v := float64(m.Data[row+x])
			sum += v
			sumSq += v * v
			maxV = math.Max(maxV, v)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)

	var conf float64
	switch p.cfg.ConfidenceMethod {
	case ConfidenceMax:
		conf = maxV
	case ConfidenceMeanVar:
		// Penalize noisy regions: variance normalized by the Bernoulli bound
		// mean*(1-mean) discounts the mean by up to half.
		variance := math.Max(sumSq/float64(count)-mean*mean, 0)
		denom := mean * (1 - mean)
		normVar := 0.0
		if denom > 1e-6 {
			normVar = math.Min(variance/denom, 1)
		}
		conf = mean * (1 - 0.5*normVar)
	default:
		conf = mean
	}

	if g := p.cfg.CalibrationGamma; g > 0 && g != 1 {
		conf = math.Pow(clamp01(conf), g)
	}
	return clamp01(conf)
}
