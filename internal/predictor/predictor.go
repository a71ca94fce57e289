package predictor

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/pageread/internal/detection"
	"github.com/MeKo-Tech/pageread/internal/geometry"
	"github.com/MeKo-Tech/pageread/internal/recognition"
)

var (
	// ErrNoDetectionModel reports a build without a detection model.
	ErrNoDetectionModel = errors.New("predictor: no detection model configured")
	// ErrNoRecognitionModel reports a build without a recognition model.
	ErrNoRecognitionModel = errors.New("predictor: no recognition model configured")
)

// Config holds the predictor settings alongside the component configs.
type Config struct {
	Detection detection.Config
	Clean     recognition.CleanOptions
	// Vocabulary is the ordered character set; empty selects the built-in
	// Latin set. VocabularyPath, when set, wins over Vocabulary.
	Vocabulary     string
	VocabularyPath string
	// EstimateOrientation straightens skewed pages before recognition and
	// reports word geometry rotated back into the original page frame.
	EstimateOrientation bool
	// MinRotationAngle is the skew guard band in degrees; estimated angles
	// inside it leave the page untouched.
	MinRotationAngle float64
	// SortReadingOrder sorts each page's words top-to-bottom, left-to-right
	// with line grouping.
	SortReadingOrder bool
}

// DefaultConfig returns predictor defaults with component defaults applied.
func DefaultConfig() Config {
	return Config{
		Detection:        detection.DefaultConfig(),
		Clean:            recognition.DefaultCleanOptions(),
		MinRotationAngle: geometry.DefaultMinRotationAngle,
		SortReadingOrder: true,
	}
}

// Builder constructs a Predictor with fluent configuration.
type Builder struct {
	cfg      Config
	detModel DetectionModel
	recModel RecognitionModel
	err      error
}

// NewBuilder creates a predictor builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole predictor configuration. Later With* calls
// still apply on top.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectionModel sets the detection network.
func (b *Builder) WithDetectionModel(m DetectionModel) *Builder {
	b.detModel = m
	return b
}

// WithRecognitionModel sets the recognition network.
func (b *Builder) WithRecognitionModel(m RecognitionModel) *Builder {
	b.recModel = m
	return b
}

// WithDetectionArch resolves a registered detection architecture by name.
func (b *Builder) WithDetectionArch(name string) *Builder {
	m, err := NewDetectionModel(name)
	if err != nil {
		b.err = err
		return b
	}
	b.detModel = m
	return b
}

// WithRecognitionArch resolves a registered recognition architecture by name.
func (b *Builder) WithRecognitionArch(name string) *Builder {
	m, err := NewRecognitionModel(name)
	if err != nil {
		b.err = err
		return b
	}
	b.recModel = m
	return b
}

// WithDetectionConfig overrides the detection post-processing config.
func (b *Builder) WithDetectionConfig(cfg detection.Config) *Builder {
	b.cfg.Detection = cfg
	return b
}

// WithAssumeStraightPages toggles straight versus rotated box output.
func (b *Builder) WithAssumeStraightPages(straight bool) *Builder {
	b.cfg.Detection.AssumeStraightPages = straight
	return b
}

// WithVocabulary sets the recognition character set.
func (b *Builder) WithVocabulary(chars string) *Builder {
	if chars != "" {
		b.cfg.Vocabulary = chars
	}
	return b
}

// WithVocabularyPath loads the recognition character set from a yaml file.
func (b *Builder) WithVocabularyPath(path string) *Builder {
	if path != "" {
		b.cfg.VocabularyPath = path
	}
	return b
}

// WithCleanOptions overrides post-decode text cleanup.
func (b *Builder) WithCleanOptions(opts recognition.CleanOptions) *Builder {
	b.cfg.Clean = opts
	return b
}

// WithEstimateOrientation toggles page skew compensation.
func (b *Builder) WithEstimateOrientation(enabled bool) *Builder {
	b.cfg.EstimateOrientation = enabled
	return b
}

// WithSortReadingOrder toggles reading-order sorting of page words.
func (b *Builder) WithSortReadingOrder(enabled bool) *Builder {
	b.cfg.SortReadingOrder = enabled
	return b
}

// Build validates the configuration and assembles the predictor.
func (b *Builder) Build() (*Predictor, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.detModel == nil {
		return nil, ErrNoDetectionModel
	}
	if b.recModel == nil {
		return nil, ErrNoRecognitionModel
	}

	det, err := detection.NewPostProcessor(b.cfg.Detection)
	if err != nil {
		return nil, err
	}

	vocab := recognition.Latin()
	switch {
	case b.cfg.VocabularyPath != "":
		if vocab, err = recognition.LoadVocabulary(b.cfg.VocabularyPath); err != nil {
			return nil, err
		}
	case b.cfg.Vocabulary != "":
		if vocab, err = recognition.NewVocabulary(b.cfg.Vocabulary); err != nil {
			return nil, err
		}
	}
	rec, err := recognition.NewPostProcessor(vocab, b.cfg.Clean)
	if err != nil {
		return nil, err
	}

	slog.Debug("predictor ready",
		"straight_pages", b.cfg.Detection.AssumeStraightPages,
		"estimate_orientation", b.cfg.EstimateOrientation,
		"vocabulary_size", vocab.Len())
	return &Predictor{
		cfg:      b.cfg,
		detModel: b.detModel,
		recModel: b.recModel,
		det:      det,
		rec:      rec,
	}, nil
}

// Predictor runs detection post-processing, crop extraction and recognition
// decoding over batches of page images.
type Predictor struct {
	cfg      Config
	detModel DetectionModel
	recModel RecognitionModel
	det      *detection.PostProcessor
	rec      *recognition.PostProcessor
}

// pagePlan carries the per-page detection outcome until word assembly.
type pagePlan struct {
	regions []detection.Region
	angle   float64
}

// cropRef ties one crop in the recognition batch back to its page and the
// region slot within that page.
type cropRef struct {
	page int
	slot int
}

// Predict runs the full pipeline over a batch of pages. Crops from all pages
// are recognized in one batch and re-split afterwards; pages where detection
// finds nothing yield zero words and skip recognition entirely.
func (p *Predictor) Predict(pages []image.Image) ([]Page, error) {
	out := make([]Page, len(pages))
	plans := make([]pagePlan, len(pages))
	var crops []image.Image
	var refs []cropRef

	for i, page := range pages {
		if page == nil {
			return nil, fmt.Errorf("predictor: page %d is nil", i)
		}
		b := page.Bounds()
		out[i] = Page{Width: b.Dx(), Height: b.Dy(), Words: []Word{}}

		plan, pageCrops, err := p.detectPage(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		plans[i] = plan
		out[i].Angle = plan.angle
		for slot, crop := range pageCrops {
			crops = append(crops, crop)
			refs = append(refs, cropRef{page: i, slot: slot})
		}
	}

	if len(crops) == 0 {
		return out, nil
	}

	logits, err := p.recModel.Predict(crops)
	if err != nil {
		return nil, fmt.Errorf("predictor: recognition: %w", err)
	}
	words, err := p.rec.Decode(logits)
	if err != nil {
		return nil, err
	}
	if len(words) != len(crops) {
		return nil, fmt.Errorf("predictor: recognition returned %d words for %d crops",
			len(words), len(crops))
	}

	for i, w := range words {
		ref := refs[i]
		region := plans[ref.page].regions[ref.slot]
		out[ref.page].Words = append(out[ref.page].Words,
			assembleWord(w, region, plans[ref.page].angle, p.cfg.MinRotationAngle))
	}
	if p.cfg.SortReadingOrder {
		for i := range out {
			sortReadingOrder(out[i].Words)
		}
	}
	return out, nil
}

// detectPage runs detection and crop extraction for one page, straightening
// it first when orientation estimation finds significant skew.
func (p *Predictor) detectPage(page image.Image) (pagePlan, []image.Image, error) {
	heatmap, err := p.detModel.Predict(page)
	if err != nil {
		return pagePlan{}, nil, fmt.Errorf("detection: %w", err)
	}

	angle := 0.0
	if p.cfg.EstimateOrientation {
		bitmap := heatmap.Binarize(p.cfg.Detection.BinThreshold)
		angle = geometry.EstimatePageAngle(bitmap, geometry.DefaultAngleOptions())
		if p.significantSkew(angle) {
			// Re-run detection on the straightened page so boxes and crops
			// line up with upright text.
			page = geometry.RotatePage(page, -angle, p.cfg.MinRotationAngle, false)
			if heatmap, err = p.detModel.Predict(page); err != nil {
				return pagePlan{}, nil, fmt.Errorf("detection (straightened): %w", err)
			}
		} else {
			angle = 0
		}
	}

	regions, err := p.det.ApplyOne(heatmap)
	if err != nil {
		return pagePlan{}, nil, err
	}

	crops, err := p.extractCrops(page, regions)
	if err != nil {
		return pagePlan{}, nil, err
	}
	return pagePlan{regions: regions, angle: angle}, crops, nil
}

func (p *Predictor) extractCrops(page image.Image, regions []detection.Region) ([]image.Image, error) {
	if p.cfg.Detection.AssumeStraightPages {
		boxes := make([]geometry.Box, len(regions))
		for i, r := range regions {
			boxes[i] = r.Box
		}
		return geometry.ExtractCrops(page, boxes)
	}
	rboxes := make([]geometry.RotatedBox, len(regions))
	for i, r := range regions {
		rboxes[i] = *r.Rotated
	}
	return geometry.ExtractRotatedCrops(page, rboxes)
}

func (p *Predictor) significantSkew(angle float64) bool {
	minAngle := p.cfg.MinRotationAngle
	if minAngle <= 0 {
		minAngle = geometry.DefaultMinRotationAngle
	}
	a := math.Abs(angle)
	return a >= minAngle && a <= 90-minAngle
}

// assembleWord pairs a decoded word with its region geometry. When the page
// was straightened first, the geometry is rotated back into the original
// page frame.
func assembleWord(w recognition.Word, region detection.Region, angle, minAngle float64) Word {
	word := Word{
		Text:           w.Text,
		Confidence:     w.Confidence,
		DetectionScore: region.Confidence,
		Box:            region.Box,
		Rotated:        region.Rotated,
	}
	if angle == 0 {
		return word
	}
	if region.Rotated != nil {
		back := geometry.RotateRotatedBoxes([]geometry.RotatedBox{*region.Rotated}, angle, minAngle)
		word.Rotated = &back[0]
	} else {
		back := geometry.RotateBoxes([]geometry.Box{region.Box}, angle, minAngle)
		word.Rotated = &back[0]
	}
	word.Box = clampBox(word.Rotated.AxisAligned())
	return word
}

func clampBox(b geometry.Box) geometry.Box {
	clamp := func(v float64) float64 { return math.Min(math.Max(v, 0), 1) }
	return geometry.Box{
		MinX: clamp(b.MinX),
		MinY: clamp(b.MinY),
		MaxX: clamp(b.MaxX),
		MaxY: clamp(b.MaxY),
	}
}
