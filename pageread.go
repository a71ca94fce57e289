// Package pageread turns raw OCR network outputs into structured pages: it
// post-processes detection probability maps into text boxes, decodes
// recognition logits into words, and composes both into a page-reading
// predictor. The neural networks themselves are pluggable; see
// DetectionModel and RecognitionModel.
package pageread

import (
	"github.com/MeKo-Tech/pageread/internal/config"
	"github.com/MeKo-Tech/pageread/internal/predictor"
)

// Result and composition types, re-exported from the predictor package.
type (
	Builder          = predictor.Builder
	Predictor        = predictor.Predictor
	Page             = predictor.Page
	Word             = predictor.Word
	DetectionModel   = predictor.DetectionModel
	RecognitionModel = predictor.RecognitionModel
	Config           = config.Config
)

// NewBuilder starts a predictor builder with default configuration.
func NewBuilder() *Builder {
	return predictor.NewBuilder()
}

// NewBuilderFromConfig starts a predictor builder preconfigured from a loaded
// configuration. Models still have to be supplied before Build.
func NewBuilderFromConfig(cfg Config) *Builder {
	return predictor.NewBuilder().WithConfig(cfg.ToPredictorConfig())
}

// RegisterDetectionModel makes a detection architecture available by name.
func RegisterDetectionModel(name string, factory func() (DetectionModel, error)) {
	predictor.RegisterDetectionModel(name, factory)
}

// RegisterRecognitionModel makes a recognition architecture available by name.
func RegisterRecognitionModel(name string, factory func() (RecognitionModel, error)) {
	predictor.RegisterRecognitionModel(name, factory)
}

// LoadConfig loads pageread.yaml from the search paths plus PAGEREAD_*
// environment overrides, falling back to defaults.
func LoadConfig() (*Config, error) {
	return config.NewLoader().Load()
}

// LoadConfigFile loads configuration from a specific file.
func LoadConfigFile(path string) (*Config, error) {
	return config.NewLoader().LoadWithFile(path)
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() Config {
	return config.DefaultConfig()
}
