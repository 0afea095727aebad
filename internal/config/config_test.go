package config

import (
	"testing"
	"time"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 120*time.Second, cfg.Query.Timeout)
	assert.Equal(t, int64(5*1024*1024), cfg.Image.MaxBytes)
	assert.Equal(t, model.DifficultyJEEMain, cfg.Query.Difficulty)
	assert.Equal(t, ocr.DefaultOptions(), cfg.OCROptions())
}

func TestLoad(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	v := viper.New()
	SetDefaults(v)
	v.Set("api.url", "http://localhost:8000/")
	v.Set("query.timeout", "45s")
	v.Set("query.difficulty", "advanced")
	v.Set("ocr.psm", 6)
	v.Set("tui.theme", "catppuccin-mocha")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, 45*time.Second, cfg.Query.Timeout)
	assert.Equal(t, model.DifficultyJEEAdvanced, cfg.Query.Difficulty)
	assert.Equal(t, 6, cfg.OCROptions().PageSegMode)
	assert.Equal(t, "eng", cfg.OCROptions().Language)
	assert.Equal(t, "catppuccin-mocha", cfg.TUI.Theme)
	assert.Equal(t, "tesseract", cfg.Recognizer().Engine)
}

func TestLoad_EnvironmentFallbacks(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	v := viper.New()
	v.Set("ocr.engine", "Gemini")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.OCR.Engine)
	assert.Equal(t, "from-env", cfg.Recognizer().GeminiAPIKey)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)

	v.Set("gemini.api_key", "from-config")
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.Gemini.APIKey)
}

func TestLoad_InvalidDifficulty(t *testing.T) {
	v := viper.New()
	v.Set("query.difficulty", "olympiad")

	_, err := Load(v)
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad url", mutate: func(c *Config) { c.API.URL = "ftp://x" }, wantErr: common.ErrInvalidConfig},
		{name: "zero query timeout", mutate: func(c *Config) { c.Query.Timeout = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "zero image limit", mutate: func(c *Config) { c.Image.MaxBytes = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "psm out of range", mutate: func(c *Config) { c.OCR.PSM = 14 }, wantErr: common.ErrInvalidConfig},
		{name: "unknown engine", mutate: func(c *Config) { c.OCR.Engine = "easyocr" }, wantErr: common.ErrInvalidConfig},
		{name: "gemini without key", mutate: func(c *Config) { c.OCR.Engine = "gemini" }, wantErr: common.ErrMissingConfig},
		{name: "gemini with key", mutate: func(c *Config) {
			c.OCR.Engine = "gemini"
			c.Gemini.APIKey = "k"
		}},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: common.ErrInvalidConfig},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("SHOTS", "/tmp/shots")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/home/tester/Pictures", ExpandPath("~/Pictures"))
	assert.Equal(t, "/tmp/shots/a.png", ExpandPath("$SHOTS/a.png"))
	assert.Equal(t, "relative/path", ExpandPath("relative/path"))
}

func TestDefaultLogFile(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	assert.Equal(t, "/var/state/mathq/mathq.log", DefaultLogFile())

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.local/state/mathq/mathq.log", DefaultLogFile())
}
