package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Gemini transcribes images with a Gemini vision model.
type Gemini struct {
	apiKey string
	model  string
}

// NewGemini creates a Gemini engine.
func NewGemini(apiKey, model string) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{apiKey: apiKey, model: model}, nil
}

// Name returns the engine name.
func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) instruction(opts Options) string {
	var b strings.Builder
	b.WriteString("You transcribe photographed or screenshotted math questions. ")
	b.WriteString("Return ONLY the question text exactly as written, as plain text on as few lines as possible. ")
	b.WriteString("Do not solve it, do not add commentary, do not use markdown or LaTeX.")
	if opts.CharWhitelist != "" {
		b.WriteString(" Prefer these characters: ")
		b.WriteString(opts.CharWhitelist)
	}
	if opts.Language != "" && opts.Language != "eng" {
		_, _ = fmt.Fprintf(&b, " The text language is %q.", opts.Language)
	}
	return b.String()
}

// Recognize sends the image to Gemini. Progress is reported at the start
// of the request and on completion.
func (g *Gemini) Recognize(ctx context.Context, img model.Image, opts Options, progress ProgressFunc) (string, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	progress(Progress{Status: "connecting", Progress: 0})

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}
	defer func() { _ = cl.Close() }()

	m := cl.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(g.instruction(opts))},
	}

	mime := img.MIMEType
	if mime == "" {
		mime = http.DetectContentType(img.Data)
	}

	parts := []genai.Part{
		genai.Text("Transcribe the question in this image."),
		genai.Blob{MIMEType: mime, Data: img.Data},
	}

	progress(Progress{Status: StatusRecognizing, Progress: 0})

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, genErr := m.GenerateContent(ctx, parts...)
		if genErr != nil {
			lastErr = genErr
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}

		progress(Progress{Status: StatusRecognizing, Progress: 1})
		return stripCodeFences(firstText(resp)), nil
	}

	return "", fmt.Errorf("gemini: %w", lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

// stripCodeFences removes a markdown fence the model sometimes adds anyway.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func ptrFloat32(v float32) *float32 { return &v }
