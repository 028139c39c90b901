package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-clave/algorithms/spectral"
	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
	"github.com/RyanBlaney/sonido-clave/logging"
	"github.com/RyanBlaney/sonido-clave/transcode"
)

// Config is the full application configuration. Durations in a config file
// are Go duration strings ("10s") or numbers of seconds.
type Config struct {
	Detector tonal.KeyDetectionParams `json:"detector"`
	Analyser spectral.AnalyserConfig  `json:"analyser"`
	Decoder  transcode.DecoderConfig  `json:"decoder"`
	Display  DisplayConfig            `json:"display"`
	Server   ServerConfig             `json:"server"`
	LogLevel string                   `json:"log_level"`
}

// DisplayConfig decides which results are worth showing to a user.
// None of it affects detection.
type DisplayConfig struct {
	MinConfidence  int    `json:"min_confidence"`  // Show a key only above this percentage
	ChordSeparator string `json:"chord_separator"` // Joins suggested chords in text output
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `json:"addr"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	MaxBodyBytes    int64         `json:"max_body_bytes"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DefaultDisplayConfig returns the policy of the live detector view
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MinConfidence:  30,
		ChordSeparator: " • ",
	}
}

// DefaultServerConfig returns sensible defaults for the HTTP API
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Default returns the complete default configuration
func Default() *Config {
	return &Config{
		Detector: tonal.DefaultKeyDetectionParams(),
		Analyser: spectral.DefaultAnalyserConfig(),
		Decoder:  *transcode.DefaultDecoderConfig(),
		Display:  DefaultDisplayConfig(),
		Server:   DefaultServerConfig(),
		LogLevel: "info",
	}
}

// LoadFile reads a JSON config file on top of the defaults. An empty path
// returns the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	logging.Debug("Loaded configuration", logging.Fields{
		"component": "config",
		"path":      path,
	})

	return cfg, nil
}

// Validate checks every section and joins the failures
func (c *Config) Validate() error {
	var errs []error

	if err := c.Detector.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("detector: %w", err))
	}
	if err := c.Analyser.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analyser: %w", err))
	}
	if err := c.Decoder.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("decoder: %w", err))
	}
	if c.Display.MinConfidence < 0 || c.Display.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("display: min confidence must be in [0, 100]: %d", c.Display.MinConfidence))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server: max body bytes must be positive: %d", c.Server.MaxBodyBytes))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Displayable reports whether result clears the display policy
func (d DisplayConfig) Displayable(result tonal.AnalysisResult) bool {
	return result.HasKey() && result.Confidence > d.MinConfidence
}
