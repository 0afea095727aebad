package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/config"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
	tea "github.com/charmbracelet/bubbletea"
)

// ClipboardItem is one entry of a paste.
type ClipboardItem struct {
	MIMEType string
	Name     string
	Data     []byte
}

// AcceptImage validates img and starts preview rendering and recognition
// as two independent commands. An oversized image leaves the draft alone
// apart from the banner.
func (s *Session) AcceptImage(img model.Image) (tea.Cmd, error) {
	if !strings.Contains(img.MIMEType, "image") {
		err := fmt.Errorf("%w: %s", common.ErrNotAnImage, img.MIMEType)
		s.setBanner(err)
		return nil, err
	}
	if img.Size() > s.maxImageBytes {
		s.setBanner(common.ErrImageTooLarge)
		return nil, common.ErrImageTooLarge
	}

	s.stopRecognition()
	s.generation++
	gen := s.generation

	accepted := img
	s.draft.SourceImage = &accepted
	s.preview = nil
	s.banner = nil
	s.job = model.RecognitionJob{Status: model.JobRunning, Generation: gen}

	slog.Info("image accepted",
		"name", img.Name,
		"mime_type", img.MIMEType,
		"bytes", img.Size(),
		"generation", gen,
		"engine", s.recognizer.Name())

	task := ocr.Start(s.ctx, s.recognizer, img, s.ocrOptions)
	s.task = task

	return tea.Batch(renderPreview(gen, img), waitRecognition(gen, task)), nil
}

// AcceptFile reads an image file off the loop and then accepts it.
func (s *Session) AcceptFile(path string) tea.Cmd {
	maxBytes := s.maxImageBytes
	return func() tea.Msg {
		img, err := ReadImage(path, maxBytes)
		return imageLoadedMsg{path: path, image: img, err: err}
	}
}

// Paste routes the first image item into AcceptImage. It reports false
// when no item is an image so the caller can fall back to a text paste.
func (s *Session) Paste(items []ClipboardItem) (tea.Cmd, bool) {
	for _, item := range items {
		if !strings.Contains(item.MIMEType, "image") {
			continue
		}
		name := item.Name
		if name == "" {
			name = "pasted-image"
		}
		cmd, _ := s.AcceptImage(model.Image{Name: name, MIMEType: item.MIMEType, Data: item.Data})
		return cmd, true
	}
	return nil, false
}

// RemoveImage cancels recognition and clears the image, preview and text.
func (s *Session) RemoveImage() {
	s.stopRecognition()
	s.generation++
	s.draft.SourceImage = nil
	s.preview = nil
	s.setText("")
	s.job = model.RecognitionJob{Status: model.JobIdle, Generation: s.generation}
}

// ReadImage loads an image file, checking its size before reading it.
func ReadImage(path string, maxBytes int64) (model.Image, error) {
	path = config.ExpandPath(path)

	info, err := os.Stat(path)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return model.Image{}, fmt.Errorf("%w: %s is a directory", common.ErrNotAnImage, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return model.Image{}, common.ErrImageTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Image{}, fmt.Errorf("failed to read image: %w", err)
	}

	return model.Image{
		Name:     filepath.Base(path),
		MIMEType: DetectMIMEType(path, data),
		Data:     data,
	}, nil
}

// DetectMIMEType prefers the file extension and falls back to sniffing.
func DetectMIMEType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return http.DetectContentType(data)
}

func (s *Session) handleImageLoaded(msg imageLoadedMsg) tea.Cmd {
	if msg.err != nil {
		slog.Warn("failed to load image", "path", msg.path, "error", msg.err)
		s.setBanner(msg.err)
		return nil
	}
	cmd, _ := s.AcceptImage(msg.image)
	return cmd
}

func (s *Session) handlePreview(msg previewReadyMsg) {
	if msg.generation != s.generation || s.draft.SourceImage == nil {
		return
	}
	if msg.err != nil {
		slog.Debug("image dimensions unavailable", "error", msg.err)
	}
	p := msg.preview
	s.preview = &p
}

func (s *Session) handleRecognitionProgress(msg recognitionProgressMsg) tea.Cmd {
	if msg.generation != s.generation || !s.job.Active() {
		return nil
	}
	if msg.progress.Status == ocr.StatusRecognizing {
		s.job.ProgressPercent = msg.progress.Percent()
	}
	return waitRecognition(msg.generation, msg.task)
}

func (s *Session) handleRecognitionDone(msg recognitionDoneMsg) {
	if msg.generation != s.generation || !s.job.Active() {
		return
	}
	s.task = nil
	s.job.RawText = msg.text
	s.job.ProgressPercent = 0

	if msg.err != nil {
		slog.Error("recognition failed", "generation", msg.generation, "error", msg.err)
		s.job.Status = model.JobFailed
		s.job.Err = fmt.Errorf("%w: %w", common.ErrRecognitionFailed, msg.err)
		s.setText("")
		s.setBanner(s.job.Err)
		return
	}

	text := ocr.Normalize(msg.text)
	slog.Debug("recognized text", "raw", msg.text, "normalized", text)

	if text == "" {
		s.job.Status = model.JobFailed
		s.job.Err = common.ErrNoTextDetected
		s.setText("")
		s.setBanner(common.ErrNoTextDetected)
		return
	}

	s.job.Status = model.JobDone
	s.setText(text)
}

func (s *Session) handleRecognitionClosed(msg recognitionClosedMsg) {
	if msg.generation != s.generation || !s.job.Active() {
		return
	}
	s.task = nil
	s.job.Status = model.JobIdle
	s.job.ProgressPercent = 0
}

func (s *Session) stopRecognition() {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}

func waitRecognition(gen uint64, task *ocr.Task) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-task.Events()
		if !ok {
			return recognitionClosedMsg{generation: gen}
		}
		if ev.Final {
			return recognitionDoneMsg{generation: gen, text: ev.Text, err: ev.Err}
		}
		return recognitionProgressMsg{generation: gen, task: task, progress: ev.Progress}
	}
}

func renderPreview(gen uint64, img model.Image) tea.Cmd {
	return func() tea.Msg {
		p := Preview{
			Name:    img.Name,
			Bytes:   img.Size(),
			DataURL: "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
		}

		cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			if errors.Is(err, image.ErrFormat) {
				err = fmt.Errorf("unsupported preview format %s: %w", img.MIMEType, err)
			}
			return previewReadyMsg{generation: gen, preview: p, err: err}
		}
		p.Width, p.Height, p.Format = cfg.Width, cfg.Height, format
		return previewReadyMsg{generation: gen, preview: p}
	}
}
