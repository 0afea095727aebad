package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
	"github.com/spf13/viper"
)

// APIConfig locates the backend.
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// QueryConfig controls question submission.
type QueryConfig struct {
	Difficulty model.Difficulty
	Timeout    time.Duration
}

// ImageConfig limits accepted images.
type ImageConfig struct {
	MaxBytes int64
}

// OCRConfig selects and tunes the recognition engine.
type OCRConfig struct {
	Engine        string
	Language      string
	Whitelist     string
	TesseractPath string
	PSM           int
}

// GeminiConfig configures the Gemini recognition engine.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// TUIConfig configures the interactive session.
type TUIConfig struct {
	Theme    string
	WatchDir string
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	ServiceName string
	Endpoint    string
	Enabled     bool
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Config is the complete application configuration.
type Config struct {
	Logging   LoggingConfig
	API       APIConfig
	OCR       OCRConfig
	Gemini    GeminiConfig
	TUI       TUIConfig
	Telemetry TelemetryConfig
	Query     QueryConfig
	Image     ImageConfig
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			URL:     "https://math-focused-assistant.onrender.com",
			Timeout: 30 * time.Second,
		},
		Query: QueryConfig{
			Timeout:    120 * time.Second,
			Difficulty: model.DifficultyJEEMain,
		},
		Image: ImageConfig{
			MaxBytes: 5 * 1024 * 1024,
		},
		OCR: OCRConfig{
			Engine:    "tesseract",
			Language:  "eng",
			PSM:       ocr.PSMAuto,
			Whitelist: ocr.DefaultWhitelist,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		TUI: TUIConfig{
			Theme: "default",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "mathq",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   DefaultLogFile(),
		},
	}
}

// SetDefaults registers Default() with v so unset keys resolve to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("query.timeout", d.Query.Timeout)
	v.SetDefault("query.difficulty", string(d.Query.Difficulty))
	v.SetDefault("image.max_bytes", d.Image.MaxBytes)
	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.psm", d.OCR.PSM)
	v.SetDefault("ocr.whitelist", d.OCR.Whitelist)
	v.SetDefault("ocr.tesseract_path", d.OCR.TesseractPath)
	v.SetDefault("gemini.model", d.Gemini.Model)
	v.SetDefault("tui.theme", d.TUI.Theme)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

// Load builds a Config from v. It follows this precedence:
// 1. Viper configuration (flags, config file or MATHQ_ env vars)
// 2. Direct environment variables (GEMINI_API_KEY, OTEL_EXPORTER_OTLP_ENDPOINT)
// 3. Default values
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if s := v.GetString("api.url"); s != "" {
		cfg.API.URL = strings.TrimRight(s, "/")
	}
	if d := v.GetDuration("api.timeout"); d != 0 {
		cfg.API.Timeout = d
	}
	if d := v.GetDuration("query.timeout"); d != 0 {
		cfg.Query.Timeout = d
	}
	if s := v.GetString("query.difficulty"); s != "" {
		difficulty, err := model.ParseDifficulty(s)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		cfg.Query.Difficulty = difficulty
	}
	if n := v.GetInt64("image.max_bytes"); n != 0 {
		cfg.Image.MaxBytes = n
	}
	if s := v.GetString("ocr.engine"); s != "" {
		cfg.OCR.Engine = strings.ToLower(s)
	}
	if s := v.GetString("ocr.language"); s != "" {
		cfg.OCR.Language = s
	}
	if v.IsSet("ocr.psm") {
		cfg.OCR.PSM = v.GetInt("ocr.psm")
	}
	if v.IsSet("ocr.whitelist") {
		cfg.OCR.Whitelist = v.GetString("ocr.whitelist")
	}
	if s := v.GetString("ocr.tesseract_path"); s != "" {
		cfg.OCR.TesseractPath = ExpandPath(s)
	}
	if s := v.GetString("gemini.api_key"); s != "" {
		cfg.Gemini.APIKey = s
	}
	if s := v.GetString("gemini.model"); s != "" {
		cfg.Gemini.Model = s
	}
	if s := v.GetString("tui.theme"); s != "" {
		cfg.TUI.Theme = s
	}
	if s := v.GetString("tui.watch_dir"); s != "" {
		cfg.TUI.WatchDir = ExpandPath(s)
	}
	cfg.Telemetry.Enabled = v.GetBool("telemetry.enabled")
	if s := v.GetString("telemetry.service_name"); s != "" {
		cfg.Telemetry.ServiceName = s
	}
	if s := v.GetString("telemetry.endpoint"); s != "" {
		cfg.Telemetry.Endpoint = s
	}
	if s := v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
	if s := v.GetString("logging.format"); s != "" {
		cfg.Logging.Format = s
	}
	if s := v.GetString("logging.file"); s != "" {
		cfg.Logging.File = ExpandPath(s)
	}

	// Override with direct environment variables if not set
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the session cannot use.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.API.URL, "http://") && !strings.HasPrefix(c.API.URL, "https://") {
		return fmt.Errorf("%w: api.url must be an http(s) URL, got %q", common.ErrInvalidConfig, c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Query.Timeout <= 0 {
		return fmt.Errorf("%w: query.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Image.MaxBytes <= 0 {
		return fmt.Errorf("%w: image.max_bytes must be positive", common.ErrInvalidConfig)
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		return fmt.Errorf("%w: ocr.psm must be between 0 and 13, got %d", common.ErrInvalidConfig, c.OCR.PSM)
	}

	switch c.OCR.Engine {
	case "tesseract":
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%w: gemini.api_key (or GEMINI_API_KEY) is required for the gemini OCR engine", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported ocr.engine %q", common.ErrInvalidConfig, c.OCR.Engine)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format: %s", common.ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}

// Recognizer returns the engine selection for ocr.NewRecognizer.
func (c Config) Recognizer() ocr.Config {
	return ocr.Config{
		Engine:        c.OCR.Engine,
		TesseractPath: c.OCR.TesseractPath,
		GeminiAPIKey:  c.Gemini.APIKey,
		GeminiModel:   c.Gemini.Model,
	}
}

// OCROptions returns the per-run recognition options.
func (c Config) OCROptions() ocr.Options {
	return ocr.Options{
		Language:      c.OCR.Language,
		CharWhitelist: c.OCR.Whitelist,
		PageSegMode:   c.OCR.PSM,
	}
}
