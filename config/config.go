// Package config loads the YAML configuration of pdfburn.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/georgepadayatti/pdfburn/integrity"
	"github.com/georgepadayatti/pdfburn/pdf/fonts"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
	ErrInvalidValue       = errors.New("invalid value")
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfigurationError
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Defaults
const (
	DefaultLineHeight     = 24
	DefaultMaxImagePixels = 16 * 1024 * 1024
)

// HashConfig selects the fingerprint algorithm.
type HashConfig struct {
	// Algorithm is sha256, sha3-256 or blake2b-256.
	Algorithm string `yaml:"algorithm" json:"algorithm,omitempty"`
}

// SetDefaults sets default values for hash configuration.
func (c *HashConfig) SetDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = string(integrity.DefaultAlgorithm)
	}
}

// Validate validates the hash configuration.
func (c *HashConfig) Validate() error {
	if _, err := integrity.ParseAlgorithm(c.Algorithm); err != nil {
		return &ConfigError{Field: "hash.algorithm", Message: err.Error(), Err: ErrInvalidValue}
	}
	return nil
}

// RenderConfig controls how field values are drawn.
type RenderConfig struct {
	// RegularFont draws text and date fields.
	RegularFont string `yaml:"regular_font" json:"regular_font,omitempty"`

	// BoldFont draws the radio mark.
	BoldFont string `yaml:"bold_font" json:"bold_font,omitempty"`

	// LineHeight is the distance between wrapped lines, in points.
	LineHeight float64 `yaml:"line_height" json:"line_height,omitempty"`

	// DateLayout is a Go time layout for ISO dates. Empty draws dates as
	// given.
	DateLayout string `yaml:"date_layout" json:"date_layout,omitempty"`

	// MaxImagePixels is the largest image embedded without downscaling.
	// Zero disables downscaling.
	MaxImagePixels *int `yaml:"max_image_pixels" json:"max_image_pixels,omitempty"`

	// CompressStreams applies FlateDecode to appended content.
	CompressStreams *bool `yaml:"compress_streams" json:"compress_streams,omitempty"`
}

// SetDefaults sets default values for render configuration.
func (c *RenderConfig) SetDefaults() {
	if c.RegularFont == "" {
		c.RegularFont = string(fonts.Helvetica)
	}
	if c.BoldFont == "" {
		c.BoldFont = string(fonts.HelveticaBold)
	}
	if c.LineHeight == 0 {
		c.LineHeight = DefaultLineHeight
	}
	if c.MaxImagePixels == nil {
		n := DefaultMaxImagePixels
		c.MaxImagePixels = &n
	}
	if c.CompressStreams == nil {
		compress := true
		c.CompressStreams = &compress
	}
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	if !fonts.IsStandardFont(c.RegularFont) {
		return &ConfigError{Field: "render.regular_font", Message: fmt.Sprintf("unsupported font %q", c.RegularFont), Err: ErrInvalidValue}
	}
	if !fonts.IsStandardFont(c.BoldFont) {
		return &ConfigError{Field: "render.bold_font", Message: fmt.Sprintf("unsupported font %q", c.BoldFont), Err: ErrInvalidValue}
	}
	if c.LineHeight <= 0 {
		return &ConfigError{Field: "render.line_height", Message: "must be positive", Err: ErrInvalidValue}
	}
	if c.MaxImagePixels != nil && *c.MaxImagePixels < 0 {
		return &ConfigError{Field: "render.max_image_pixels", Message: "must not be negative", Err: ErrInvalidValue}
	}
	return nil
}

// Compress reports whether appended streams are compressed.
func (c *RenderConfig) Compress() bool {
	return c.CompressStreams == nil || *c.CompressStreams
}

// ImagePixelLimit returns the downscaling threshold, zero when disabled.
func (c *RenderConfig) ImagePixelLimit() int {
	if c.MaxImagePixels == nil {
		return DefaultMaxImagePixels
	}
	return *c.MaxImagePixels
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level,omitempty"`

	// Format is the log format (text, json).
	Format string `yaml:"format" json:"format,omitempty"`

	// Output is the log output (stdout, stderr, or file path).
	Output string `yaml:"output" json:"output,omitempty"`
}

// SetDefaults sets default values for logging configuration.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// SlogLevel returns the configured level.
func (c *LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Level), Err: ErrInvalidValue}
	}
	return level, nil
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "text", "json":
		return nil
	}
	return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Format), Err: ErrInvalidValue}
}

// NewLogger builds a slog.Logger writing to w.
func (c *LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

// Config contains the complete application configuration.
type Config struct {
	Hash    *HashConfig    `yaml:"hash" json:"hash,omitempty"`
	Render  *RenderConfig  `yaml:"render" json:"render,omitempty"`
	Logging *LoggingConfig `yaml:"logging" json:"logging,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills every missing section and value.
func (c *Config) SetDefaults() {
	if c.Hash == nil {
		c.Hash = &HashConfig{}
	}
	if c.Render == nil {
		c.Render = &RenderConfig{}
	}
	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Hash.SetDefaults()
	c.Render.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Hash.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// LoadConfig loads a configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses, defaults and validates configuration from YAML data.
// Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Message: "failed to parse config", Err: err}
	}
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
