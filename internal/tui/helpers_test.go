package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
	"github.com/Veraticus/mathq/internal/session"
	"github.com/Veraticus/mathq/internal/tui/themes"
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

// Commands slower than this (cursor blink, flag timers) are dropped.
const cmdTimeout = 400 * time.Millisecond

// pngHeader is a 1x1 PNG.
var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

type stubBackend struct {
	queryErrs   []error
	loginErr    error
	queries     []model.QueryRequest
	submissions []model.FeedbackSubmission
	logins      int
	mu          sync.Mutex
}

func (b *stubBackend) Query(_ context.Context, req model.QueryRequest) (*model.AnswerPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries = append(b.queries, req)
	if len(b.queryErrs) > 0 {
		err := b.queryErrs[0]
		b.queryErrs = b.queryErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &model.AnswerPayload{
		Answer:         "x = 2",
		Source:         model.SourceKnowledgeBase,
		Confidence:     model.ConfidenceHigh,
		ReasoningSteps: []string{"Subtract 3", "Divide by 2"},
	}, nil
}

func (b *stubBackend) Login(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logins++
	return b.loginErr
}

func (b *stubBackend) SubmitFeedback(_ context.Context, sub model.FeedbackSubmission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, sub)
	return nil
}

func (b *stubBackend) Queries() []model.QueryRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.QueryRequest(nil), b.queries...)
}

func (b *stubBackend) Submissions() []model.FeedbackSubmission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.FeedbackSubmission(nil), b.submissions...)
}

type stubRecognizer struct {
	block chan struct{}
	text  string
}

func (r *stubRecognizer) Name() string { return "stub" }

func (r *stubRecognizer) Recognize(ctx context.Context, _ model.Image, _ ocr.Options, progress ocr.ProgressFunc) (string, error) {
	progress(ocr.Progress{Status: ocr.StatusRecognizing, Progress: 0.5})
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.text, nil
}

type stubClipboard struct {
	items []session.ClipboardItem
}

func (c stubClipboard) ReadItems(context.Context) ([]session.ClipboardItem, error) {
	return c.items, nil
}

type harness struct {
	backend    *stubBackend
	recognizer *stubRecognizer
	session    *session.Session
	model      Model
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		backend:    &stubBackend{},
		recognizer: &stubRecognizer{text: "2x + 3 = 7"},
	}
	s, err := session.New(session.Config{
		Context:      context.Background(),
		Backend:      h.backend,
		Recognizer:   h.recognizer,
		QueryTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	h.session = s

	cfg := defaultConfig()
	cfg.Theme = themes.Default
	cfg.Session = s
	cfg.Clipboard = stubClipboard{}
	cfg.Width = 100
	cfg.Height = 40
	for _, opt := range opts {
		opt(&cfg)
	}
	h.model = newModel(cfg)
	return h
}

// send applies msg and runs every resulting command to completion.
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	h.drive(t, cmd)
	return cmd
}

func (h *harness) drive(t *testing.T, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "commands did not settle")

		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		msg, ok := runCmd(c)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case cursor.BlinkMsg, tea.QuitMsg:
			continue
		}

		next, nc := h.model.Update(msg)
		h.model = next.(Model)
		queue = append(queue, nc)
	}
}

func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, msg != nil
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

func (h *harness) typeText(t *testing.T, s string) {
	t.Helper()
	h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func ctrl(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}
