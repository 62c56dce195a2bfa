package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/mvaldenegro/auv-perception/internal/detection"
	"github.com/mvaldenegro/auv-perception/internal/imaging"
	"github.com/mvaldenegro/auv-perception/internal/logging"
)

// Config holds runtime configuration for proposal search and evaluation.
type Config struct {
	LogLevel  string          `json:"log_level"`
	Search    SearchConfig    `json:"search"`
	Evaluator EvaluatorConfig `json:"evaluator"`

	// Thresholds are the score thresholds of a multi-threshold search.
	Thresholds []float64 `json:"thresholds"`

	// RecallIoU is the IoU a proposal needs to count as a detection.
	RecallIoU float64 `json:"recall_iou"`
}

// SearchConfig mirrors detection.SearchOptions.
type SearchConfig struct {
	MinWindowSize int       `json:"min_window_size"`
	MaxWindowSize int       `json:"max_window_size"`
	ScaleFactor   float64   `json:"scale_factor"`
	AspectRatios  []float64 `json:"aspect_ratios"`
	Stride        int       `json:"stride"`
	NMS           bool      `json:"nms"`
	NMSThreshold  float64   `json:"nms_threshold"`
	Workers       int       `json:"workers"`
}

// EvaluatorConfig selects and parameterizes the window evaluator.
type EvaluatorConfig struct {
	Mode      string   `json:"mode"`
	Threshold float64  `json:"threshold"`
	Seed      int64    `json:"seed"`
	InputSize int      `json:"input_size"`
	Templates []string `json:"templates"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Search: SearchConfig{
			MinWindowSize: 96,
			MaxWindowSize: 96,
			ScaleFactor:   1.5,
			AspectRatios:  []float64{1.0},
			Stride:        8,
			NMSThreshold:  0.5,
			Workers:       1,
		},
		Evaluator: EvaluatorConfig{
			Mode:      detection.ModeRandom,
			Threshold: 0.5,
			InputSize: 96,
		},
		Thresholds: []float64{0.5},
		RecallIoU:  0.5,
	}
}

// Load reads the configuration at path over the defaults. A missing file
// returns Default. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from SONAR_LOG_LEVEL and SONAR_WORKERS.
func ApplyEnv(cfg *Config) error {
	if level := os.Getenv("SONAR_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if workers := os.Getenv("SONAR_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return &detection.ConfigurationError{Field: "SONAR_WORKERS", Value: workers, Reason: "not an integer"}
		}
		cfg.Search.Workers = n
	}
	return nil
}

// Validate reports the first invalid setting as a
// *detection.ConfigurationError.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &detection.ConfigurationError{Field: "log level", Value: c.LogLevel, Reason: "must be debug, info, warn or error"}
	}
	if err := c.SearchOptions(nil).Validate(); err != nil {
		return err
	}
	if c.Search.Workers < 0 {
		return &detection.ConfigurationError{Field: "workers", Value: c.Search.Workers, Reason: "must not be negative"}
	}

	switch c.Evaluator.Mode {
	case detection.ModeRandom, detection.ModeTemplateCC, detection.ModeTemplateSQD:
	default:
		return &detection.ConfigurationError{Field: "evaluator mode", Value: c.Evaluator.Mode, Reason: "unknown evaluator"}
	}
	if c.Evaluator.InputSize < 0 {
		return &detection.ConfigurationError{Field: "input size", Value: c.Evaluator.InputSize, Reason: "must not be negative"}
	}
	if c.Evaluator.Mode != detection.ModeRandom && len(c.Evaluator.Templates) == 0 {
		return &detection.ConfigurationError{Field: "templates", Value: c.Evaluator.Templates, Reason: "template modes need at least one template"}
	}

	if c.RecallIoU < 0 || c.RecallIoU > 1 {
		return &detection.ConfigurationError{Field: "recall iou", Value: c.RecallIoU, Reason: "must be within [0, 1]"}
	}
	return nil
}

// SearchOptions converts the search section. logger may be nil.
func (c *Config) SearchOptions(logger *slog.Logger) detection.SearchOptions {
	return detection.SearchOptions{
		MinWindowSize: c.Search.MinWindowSize,
		MaxWindowSize: c.Search.MaxWindowSize,
		ScaleFactor:   c.Search.ScaleFactor,
		AspectRatios:  append([]float64(nil), c.Search.AspectRatios...),
		Stride:        c.Search.Stride,
		NMS:           c.Search.NMS,
		NMSThreshold:  c.Search.NMSThreshold,
		Workers:       c.Search.Workers,
		Logger:        logger,
	}
}

// NewEvaluator builds the configured evaluator, loading template images from
// disk for the template modes.
func (c *Config) NewEvaluator() (detection.Evaluator, error) {
	templates := make([]*image.Gray, 0, len(c.Evaluator.Templates))
	for _, path := range c.Evaluator.Templates {
		img, err := imaging.LoadGray(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		templates = append(templates, img)
	}

	return detection.NewEvaluator(c.Evaluator.Mode, detection.EvaluatorOptions{
		Threshold: c.Evaluator.Threshold,
		Seed:      c.Evaluator.Seed,
		InputSize: image.Pt(c.Evaluator.InputSize, c.Evaluator.InputSize),
		Templates: templates,
	})
}
