package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/mathq/internal/model"
)

// StatusRecognizing is the engine phase whose progress is shown to the user.
const StatusRecognizing = "recognizing text"

// DefaultWhitelist restricts recognition to characters that occur in
// typed math questions.
const DefaultWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz()+-=*/^²³√∫∂∑∏πθαβγδεζηλμνξρσταφχψω.,?! "

// PSMAuto is tesseract's fully automatic page segmentation.
const PSMAuto = 3

// Progress is one engine progress report. Progress is in [0,1].
type Progress struct {
	Status   string
	Progress float64
}

// Percent converts the fraction into a rounded percentage.
func (p Progress) Percent() int {
	return int(p.Progress*100 + 0.5)
}

// ProgressFunc receives progress reports while an engine runs.
type ProgressFunc func(Progress)

// Options configures a recognition run.
type Options struct {
	Language      string
	CharWhitelist string
	PageSegMode   int
}

// DefaultOptions returns the options used for math questions.
func DefaultOptions() Options {
	return Options{
		Language:      "eng",
		PageSegMode:   PSMAuto,
		CharWhitelist: DefaultWhitelist,
	}
}

// Recognizer converts an image into raw text.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img model.Image, opts Options, progress ProgressFunc) (string, error)
}

// Config selects and configures an engine.
type Config struct {
	Engine        string
	TesseractPath string
	GeminiAPIKey  string
	GeminiModel   string
}

// NewRecognizer creates the engine named by cfg.Engine.
func NewRecognizer(cfg Config) (Recognizer, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "tesseract":
		return NewTesseract(cfg.TesseractPath), nil
	case "gemini":
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported OCR engine: %s", cfg.Engine)
	}
}
