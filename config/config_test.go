package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/georgepadayatti/pdfburn/integrity"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("hash.algorithm", "bad")
	if err.Error() != "config error in 'hash.algorithm': bad" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrConfigurationError) {
		t.Error("ConfigError without a cause should unwrap to ErrConfigurationError")
	}

	err = &ConfigError{Message: "oops", Err: ErrInvalidValue}
	if err.Error() != "config error: oops" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidValue) {
		t.Error("Expected ErrInvalidValue")
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Hash.Algorithm != string(integrity.SHA256) {
		t.Errorf("Algorithm = %q", c.Hash.Algorithm)
	}
	if c.Render.RegularFont != "Helvetica" || c.Render.BoldFont != "Helvetica-Bold" {
		t.Errorf("Fonts = %q, %q", c.Render.RegularFont, c.Render.BoldFont)
	}
	if c.Render.LineHeight != 24 {
		t.Errorf("LineHeight = %v", c.Render.LineHeight)
	}
	if !c.Render.Compress() || c.Render.ImagePixelLimit() != DefaultMaxImagePixels {
		t.Errorf("Compress = %v, limit = %d", c.Render.Compress(), c.Render.ImagePixelLimit())
	}
	if c.Logging.Level != "info" || c.Logging.Format != "json" || c.Logging.Output != "stderr" {
		t.Errorf("Logging = %+v", c.Logging)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default config is invalid: %v", err)
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
hash:
  algorithm: blake2b-256
render:
  regular_font: Times-Roman
  line_height: 18
  date_layout: "02 Jan 2006"
  max_image_pixels: 0
  compress_streams: false
logging:
  level: debug
  format: text
`)
	c, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if c.Hash.Algorithm != "blake2b-256" {
		t.Errorf("Algorithm = %q", c.Hash.Algorithm)
	}
	if c.Render.RegularFont != "Times-Roman" || c.Render.BoldFont != "Helvetica-Bold" {
		t.Errorf("Fonts = %q, %q", c.Render.RegularFont, c.Render.BoldFont)
	}
	if c.Render.LineHeight != 18 || c.Render.DateLayout != "02 Jan 2006" {
		t.Errorf("Render = %+v", c.Render)
	}
	if c.Render.Compress() {
		t.Error("compress_streams: false was ignored")
	}
	if c.Render.ImagePixelLimit() != 0 {
		t.Errorf("ImagePixelLimit = %d, want 0", c.Render.ImagePixelLimit())
	}
	if level, _ := c.Logging.SlogLevel(); level != slog.LevelDebug {
		t.Errorf("Level = %v", level)
	}
}

func TestParseConfigEmpty(t *testing.T) {
	c, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil): %v", err)
	}
	if c.Render == nil || c.Render.LineHeight != DefaultLineHeight {
		t.Errorf("Defaults not applied: %+v", c.Render)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"unknown algorithm", "hash:\n  algorithm: md5\n", "hash.algorithm"},
		{"unknown font", "render:\n  regular_font: Comic Sans\n", "render.regular_font"},
		{"bold font", "render:\n  bold_font: Arial\n", "render.bold_font"},
		{"line height", "render:\n  line_height: -1\n", "render.line_height"},
		{"pixels", "render:\n  max_image_pixels: -5\n", "render.max_image_pixels"},
		{"level", "logging:\n  level: loud\n", "logging.level"},
		{"format", "logging:\n  format: xml\n", "logging.format"},
		{"unknown key", "hash:\n  algo: sha256\n", ""},
		{"syntax", "hash: [", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfburn.yaml")
	if err := os.WriteFile(path, []byte("hash:\n  algorithm: sha3-256\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Hash.Algorithm != "sha3-256" {
		t.Errorf("Algorithm = %q", c.Hash.Algorithm)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logging := &LoggingConfig{Level: "warn", Format: "json"}
	logger, err := logging.NewLogger(&buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "field", "a")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info record passed a warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"field":"a"`) {
		t.Errorf("Unexpected JSON output: %s", out)
	}

	buf.Reset()
	logging.Format = "text"
	logger, _ = logging.NewLogger(&buf)
	logger.Error("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("Unexpected text output: %s", buf.String())
	}
}
