package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/pageread/internal/detection"
	"github.com/MeKo-Tech/pageread/internal/predictor"
	"github.com/MeKo-Tech/pageread/internal/recognition"
)

// Config holds the complete pageread configuration. It can be loaded from a
// configuration file, environment variables, or assembled in code, and maps
// onto the predictor and its component configs.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	// Detection post-processing settings
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection" json:"detection"`

	// Recognition decoding settings
	Recognition RecognitionConfig `mapstructure:"recognition" yaml:"recognition" json:"recognition"`

	// Page-level predictor settings
	Predictor PredictorConfig `mapstructure:"predictor" yaml:"predictor" json:"predictor"`
}

// DetectionConfig contains text detection post-processing settings.
type DetectionConfig struct {
	BinThreshold        float64 `mapstructure:"bin_threshold" yaml:"bin_threshold" json:"bin_threshold"`
	BoxThreshold        float64 `mapstructure:"box_threshold" yaml:"box_threshold" json:"box_threshold"`
	UnclipRatio         float64 `mapstructure:"unclip_ratio" yaml:"unclip_ratio" json:"unclip_ratio"`
	AssumeStraightPages bool    `mapstructure:"assume_straight_pages" yaml:"assume_straight_pages" json:"assume_straight_pages"`
	MinContourPoints    int     `mapstructure:"min_contour_points" yaml:"min_contour_points" json:"min_contour_points"`
	ConfidenceMethod    string  `mapstructure:"confidence_method" yaml:"confidence_method" json:"confidence_method"`
	CalibrationGamma    float64 `mapstructure:"calibration_gamma" yaml:"calibration_gamma" json:"calibration_gamma"`
}

// RecognitionConfig contains text recognition decoding settings.
type RecognitionConfig struct {
	Vocabulary         string `mapstructure:"vocabulary" yaml:"vocabulary" json:"vocabulary"`
	VocabularyPath     string `mapstructure:"vocabulary_path" yaml:"vocabulary_path" json:"vocabulary_path"`
	NormalizeForm      string `mapstructure:"normalize_form" yaml:"normalize_form" json:"normalize_form"`
	CollapseWhitespace bool   `mapstructure:"collapse_whitespace" yaml:"collapse_whitespace" json:"collapse_whitespace"`
	Trim               bool   `mapstructure:"trim" yaml:"trim" json:"trim"`
	RemoveControlChars bool   `mapstructure:"remove_control_chars" yaml:"remove_control_chars" json:"remove_control_chars"`
	RemoveZeroWidth    bool   `mapstructure:"remove_zero_width" yaml:"remove_zero_width" json:"remove_zero_width"`
}

// PredictorConfig contains page-level pipeline settings.
type PredictorConfig struct {
	EstimateOrientation bool    `mapstructure:"estimate_orientation" yaml:"estimate_orientation" json:"estimate_orientation"`
	MinRotationAngle    float64 `mapstructure:"min_rotation_angle" yaml:"min_rotation_angle" json:"min_rotation_angle"`
	SortReadingOrder    bool    `mapstructure:"sort_reading_order" yaml:"sort_reading_order" json:"sort_reading_order"`
}

// DefaultConfig returns the configuration with all component defaults applied.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Detection:   defaultDetectionConfig(),
		Recognition: defaultRecognitionConfig(),
		Predictor:   defaultPredictorConfig(),
	}
}

func defaultDetectionConfig() DetectionConfig {
	cfg := detection.DefaultConfig()
	return DetectionConfig{
		BinThreshold:        cfg.BinThreshold,
		BoxThreshold:        cfg.BoxThreshold,
		UnclipRatio:         cfg.UnclipRatio,
		AssumeStraightPages: cfg.AssumeStraightPages,
		MinContourPoints:    cfg.MinContourPoints,
		ConfidenceMethod:    cfg.ConfidenceMethod,
		CalibrationGamma:    cfg.CalibrationGamma,
	}
}

func defaultRecognitionConfig() RecognitionConfig {
	clean := recognition.DefaultCleanOptions()
	return RecognitionConfig{
		NormalizeForm:      clean.NormalizeForm,
		CollapseWhitespace: clean.CollapseWhitespace,
		Trim:               clean.Trim,
		RemoveControlChars: clean.RemoveControlChars,
		RemoveZeroWidth:    clean.RemoveZeroWidth,
	}
}

func defaultPredictorConfig() PredictorConfig {
	cfg := predictor.DefaultConfig()
	return PredictorConfig{
		EstimateOrientation: cfg.EstimateOrientation,
		MinRotationAngle:    cfg.MinRotationAngle,
		SortReadingOrder:    cfg.SortReadingOrder,
	}
}

// Validate checks the configuration and returns the first error found.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if err := c.toDetectionConfig().Validate(); err != nil {
		return err
	}

	validForms := []string{"", "none", "NFC", "NFKC", "NFD", "NFKD"}
	if !contains(validForms, c.Recognition.NormalizeForm) {
		return fmt.Errorf("invalid normalize form: %s (must be one of: none, NFC, NFKC, NFD, NFKD)",
			c.Recognition.NormalizeForm)
	}
	if c.Recognition.Vocabulary != "" {
		if _, err := recognition.NewVocabulary(c.Recognition.Vocabulary); err != nil {
			return err
		}
	}

	if c.Predictor.MinRotationAngle < 0 || c.Predictor.MinRotationAngle > 45 {
		return fmt.Errorf("invalid min rotation angle: %v (must be between 0 and 45)",
			c.Predictor.MinRotationAngle)
	}

	return nil
}

// ToPredictorConfig converts the config to the internal predictor format.
func (c *Config) ToPredictorConfig() predictor.Config {
	return predictor.Config{
		Detection:           c.toDetectionConfig(),
		Clean:               c.toCleanOptions(),
		Vocabulary:          c.Recognition.Vocabulary,
		VocabularyPath:      c.Recognition.VocabularyPath,
		EstimateOrientation: c.Predictor.EstimateOrientation,
		MinRotationAngle:    c.Predictor.MinRotationAngle,
		SortReadingOrder:    c.Predictor.SortReadingOrder,
	}
}

func (c *Config) toDetectionConfig() detection.Config {
	return detection.Config{
		BinThreshold:        c.Detection.BinThreshold,
		BoxThreshold:        c.Detection.BoxThreshold,
		UnclipRatio:         c.Detection.UnclipRatio,
		AssumeStraightPages: c.Detection.AssumeStraightPages,
		MinContourPoints:    c.Detection.MinContourPoints,
		ConfidenceMethod:    c.Detection.ConfidenceMethod,
		CalibrationGamma:    c.Detection.CalibrationGamma,
	}
}

func (c *Config) toCleanOptions() recognition.CleanOptions {
	return recognition.CleanOptions{
		NormalizeForm:      c.Recognition.NormalizeForm,
		CollapseWhitespace: c.Recognition.CollapseWhitespace,
		Trim:               c.Recognition.Trim,
		RemoveControlChars: c.Recognition.RemoveControlChars,
		RemoveZeroWidth:    c.Recognition.RemoveZeroWidth,
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
