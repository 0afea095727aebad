package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

// pngHeader is a 1x1 PNG; enough for image.DecodeConfig.
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

func testImage() model.Image {
	return model.Image{Name: "question.png", MIMEType: "image/png", Data: pngHeader}
}

type fakeBackend struct {
	queryFn     func(ctx context.Context, req model.QueryRequest) (*model.AnswerPayload, error)
	loginErr    error
	feedbackErr error
	queries     []model.QueryRequest
	submissions []model.FeedbackSubmission
	logins      int
	mu          sync.Mutex
}

func (f *fakeBackend) Query(ctx context.Context, req model.QueryRequest) (*model.AnswerPayload, error) {
	f.mu.Lock()
	f.queries = append(f.queries, req)
	fn := f.queryFn
	f.mu.Unlock()
	if fn == nil {
		return &model.AnswerPayload{Answer: "42", Source: model.SourceKnowledgeBase, Confidence: model.ConfidenceHigh}, nil
	}
	return fn(ctx, req)
}

func (f *fakeBackend) Login(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	return f.loginErr
}

func (f *fakeBackend) SubmitFeedback(_ context.Context, sub model.FeedbackSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, sub)
	return f.feedbackErr
}

func (f *fakeBackend) Submissions() []model.FeedbackSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.FeedbackSubmission(nil), f.submissions...)
}

// fakeRecognizer reports the given progress steps and then returns text.
type fakeRecognizer struct {
	err   error
	block chan struct{}
	text  string
	steps []ocr.Progress
	calls int
	mu    sync.Mutex
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(ctx context.Context, _ model.Image, _ ocr.Options, progress ocr.ProgressFunc) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	for _, p := range f.steps {
		progress(p)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeRecognizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeHistory struct {
	outcomes []model.QueryOutcome
	mu       sync.Mutex
}

func (f *fakeHistory) SaveOutcome(_ context.Context, outcome model.QueryOutcome, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	return int64(len(f.outcomes)), nil
}

func (f *fakeHistory) Outcomes() []model.QueryOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.QueryOutcome(nil), f.outcomes...)
}

type fixture struct {
	session    *Session
	backend    *fakeBackend
	recognizer *fakeRecognizer
	history    *fakeHistory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend:    &fakeBackend{},
		recognizer: &fakeRecognizer{text: "What is 2+2?"},
		history:    &fakeHistory{},
	}
	s, err := New(Config{
		Backend:      f.backend,
		Recognizer:   f.recognizer,
		History:      f.history,
		QueryTimeout: time.Second,
		Now: func() time.Time {
			return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		},
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	f.session = s
	return f
}

// exec runs cmd and flattens batches into the produced messages.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, exec(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump runs cmd and feeds every resulting message back into the session
// until nothing is left.
func (f *fixture) pump(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var seen []tea.Msg
	queue := exec(cmd)
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 1000, "message loop did not settle")
		msg := queue[0]
		queue = queue[1:]
		seen = append(seen, msg)
		queue = append(queue, exec(f.session.Update(msg))...)
	}
	return seen
}
