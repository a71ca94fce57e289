package detection

import (
	"errors"
	"fmt"
)

// Confidence aggregation methods for region scoring.
const (
	ConfidenceMean    = "mean"
	ConfidenceMax     = "max"
	ConfidenceMeanVar = "mean_var"
)

// Config controls the detection post-processor. All fields are fixed for the
// lifetime of a PostProcessor.
type Config struct {
	// BinThreshold binarizes the probability map before contour extraction.
	BinThreshold float64 `mapstructure:"bin_threshold" yaml:"bin_threshold"`
	// BoxThreshold rejects regions whose aggregate probability is lower.
	BoxThreshold float64 `mapstructure:"box_threshold" yaml:"box_threshold"`
	// UnclipRatio dilates detected polygons by ratio*area/perimeter to undo
	// the shrinkage baked into how detection targets are trained.
	UnclipRatio float64 `mapstructure:"unclip_ratio" yaml:"unclip_ratio"`
	// AssumeStraightPages selects axis-aligned output boxes; when false the
	// post-processor emits min-area rotated boxes.
	AssumeStraightPages bool `mapstructure:"assume_straight_pages" yaml:"assume_straight_pages"`
	// MinContourPoints drops contours with fewer boundary points.
	MinContourPoints int `mapstructure:"min_contour_points" yaml:"min_contour_points"`
	// ConfidenceMethod is one of "mean", "max" or "mean_var".
	ConfidenceMethod string `mapstructure:"confidence_method" yaml:"confidence_method"`
	// CalibrationGamma applies power-law calibration to confidences when set
	// to a positive value other than 1.
	CalibrationGamma float64 `mapstructure:"calibration_gamma" yaml:"calibration_gamma"`
}

// DefaultConfig returns the post-processing defaults used by the predictor.
func DefaultConfig() Config {
	return Config{
		BinThreshold:        0.3,
		BoxThreshold:        0.5,
		UnclipRatio:         1.5,
		AssumeStraightPages: true,
		MinContourPoints:    4,
		ConfidenceMethod:    ConfidenceMean,
	}
}

var errInvalidConfig = errors.New("detection: invalid config")

// Validate checks threshold ranges and enum values.
func (c Config) Validate() error {
	if c.BinThreshold < 0 || c.BinThreshold > 1 {
		return fmt.Errorf("%w: bin_threshold %v outside [0, 1]", errInvalidConfig, c.BinThreshold)
	}
	if c.BoxThreshold < 0 || c.BoxThreshold > 1 {
		return fmt.Errorf("%w: box_threshold %v outside [0, 1]", errInvalidConfig, c.BoxThreshold)
	}
	if c.UnclipRatio <= 0 {
		return fmt.Errorf("%w: unclip_ratio %v must be positive", errInvalidConfig, c.UnclipRatio)
	}
	if c.MinContourPoints < 1 {
		return fmt.Errorf("%w: min_contour_points %d must be at least 1", errInvalidConfig, c.MinContourPoints)
	}
	switch c.ConfidenceMethod {
	case "", ConfidenceMean, ConfidenceMax, ConfidenceMeanVar:
	default:
		return fmt.Errorf("%w: unknown confidence_method %q", errInvalidConfig, c.ConfidenceMethod)
	}
	if c.CalibrationGamma < 0 {
		return fmt.Errorf("%w: calibration_gamma %v must not be negative", errInvalidConfig, c.CalibrationGamma)
	}
	return nil
}
