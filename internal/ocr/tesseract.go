package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Veraticus/mathq/internal/model"
)

// Tesseract runs the tesseract CLI as a subprocess, feeding the image on
// stdin and reading text from stdout.
type Tesseract struct {
	path string
}

// NewTesseract creates an engine for the tesseract binary at path
// (looked up on PATH when empty).
func NewTesseract(path string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	return &Tesseract{path: path}
}

// Name returns the engine name.
func (t *Tesseract) Name() string { return "tesseract" }

// args builds the command line for opts.
func (t *Tesseract) args(opts Options) []string {
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	psm := opts.PageSegMode
	if psm == 0 {
		psm = PSMAuto
	}

	args := []string{"stdin", "stdout", "-l", lang, "--psm", strconv.Itoa(psm)}
	if opts.CharWhitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+opts.CharWhitelist)
	}
	return args
}

// Recognize runs tesseract. The CLI has no incremental progress, so the
// recognizing phase is reported at 0 and 1 around the run.
func (t *Tesseract) Recognize(ctx context.Context, img model.Image, opts Options, progress ProgressFunc) (string, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	progress(Progress{Status: "initializing tesseract", Progress: 0})

	cmd := exec.CommandContext(ctx, t.path, t.args(opts)...) // #nosec G204 -- binary path comes from config
	cmd.Stdin = bytes.NewReader(img.Data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	progress(Progress{Status: StatusRecognizing, Progress: 0})

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Debug("tesseract failed", "stderr", strings.TrimSpace(stderr.String()))
		return "", fmt.Errorf("tesseract: %w", err)
	}

	progress(Progress{Status: StatusRecognizing, Progress: 1})

	return stdout.String(), nil
}
