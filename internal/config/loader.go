package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "pageread"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PAGEREAD"
)

// Loader handles loading configuration from files and environment variables.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader backed by its own viper
// instance, so concurrent loaders and tests do not share state.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from the search paths and environment variables,
// falling back to defaults. A missing configuration file is not an error.
func (l *Loader) Load() (*Config, error) {
	config, err := l.LoadWithoutValidation()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadWithoutValidation loads configuration like Load but skips validation.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found, continue with defaults and env vars.
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	config, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadWithFileWithoutValidation loads a specific file but skips validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	l.v.SetConfigFile(configFile)

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// Get retrieves a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString retrieves a string configuration value by key.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a configuration value, overriding file and environment sources.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the configuration file in use, if any.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// addConfigPaths registers the configuration file search paths in priority
// order: working directory, then the user config directory, then home.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if configDir, err := os.UserConfigDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(configDir, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
}

// setupEnvironmentVariables configures the PAGEREAD_ environment overrides,
// e.g. PAGEREAD_DETECTION_BIN_THRESHOLD for detection.bin_threshold.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options. Every key
// needs a default so environment-only overrides survive Unmarshal.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)

	l.v.SetDefault("detection.bin_threshold", defaults.Detection.BinThreshold)
	l.v.SetDefault("detection.box_threshold", defaults.Detection.BoxThreshold)
	l.v.SetDefault("detection.unclip_ratio", defaults.Detection.UnclipRatio)
	l.v.SetDefault("detection.assume_straight_pages", defaults.Detection.AssumeStraightPages)
	l.v.SetDefault("detection.min_contour_points", defaults.Detection.MinContourPoints)
	l.v.SetDefault("detection.confidence_method", defaults.Detection.ConfidenceMethod)
	l.v.SetDefault("detection.calibration_gamma", defaults.Detection.CalibrationGamma)

	l.v.SetDefault("recognition.vocabulary", defaults.Recognition.Vocabulary)
	l.v.SetDefault("recognition.vocabulary_path", defaults.Recognition.VocabularyPath)
	l.v.SetDefault("recognition.normalize_form", defaults.Recognition.NormalizeForm)
	l.v.SetDefault("recognition.collapse_whitespace", defaults.Recognition.CollapseWhitespace)
	l.v.SetDefault("recognition.trim", defaults.Recognition.Trim)
	l.v.SetDefault("recognition.remove_control_chars", defaults.Recognition.RemoveControlChars)
	l.v.SetDefault("recognition.remove_zero_width", defaults.Recognition.RemoveZeroWidth)

	l.v.SetDefault("predictor.estimate_orientation", defaults.Predictor.EstimateOrientation)
	l.v.SetDefault("predictor.min_rotation_angle", defaults.Predictor.MinRotationAngle)
	l.v.SetDefault("predictor.sort_reading_order", defaults.Predictor.SortReadingOrder)
}
