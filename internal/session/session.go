// Package session holds the interactive question/answer state machine.
//
// A Session is owned by a single goroutine, normally the bubbletea Update
// loop. Every blocking operation is returned as a tea.Cmd whose message
// must be fed back through Update. Recognition results carry the image
// generation they belong to and query, feedback and report results carry
// sequence numbers, so anything that completes after it has been
// superseded is dropped.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
	tea "github.com/charmbracelet/bubbletea"
)

// Defaults applied by New when Config leaves a field zero.
const (
	DefaultMaxImageBytes int64 = 5 * 1024 * 1024
	DefaultQueryTimeout        = 120 * time.Second
)

const (
	feedbackFlagDuration = 3 * time.Second
	reportResetDelay     = 2 * time.Second
	loginBannerDelay     = 500 * time.Millisecond
	historySaveTimeout   = 5 * time.Second
)

// SampleQuestions are offered when the draft is empty.
var SampleQuestions = []string{
	"Evaluate the integral of x² ln(x) from 0 to 1",
	"Solve x³ - 3x + 2 = 0",
	"Find the derivative of x^x",
	"Probability of getting exactly 2 red balls",
	"What is the Maclaurin series for sin(x)?",
}

// Backend is the part of the API client the session drives.
type Backend interface {
	Query(ctx context.Context, req model.QueryRequest) (*model.AnswerPayload, error)
	Login(ctx context.Context) error
	SubmitFeedback(ctx context.Context, sub model.FeedbackSubmission) error
}

// HistoryRecorder persists terminal query outcomes.
type HistoryRecorder interface {
	SaveOutcome(ctx context.Context, outcome model.QueryOutcome, at time.Time) (int64, error)
}

// Config wires a Session to its collaborators.
type Config struct {
	Context    context.Context
	Backend    Backend
	Recognizer ocr.Recognizer
	// History is optional.
	History       HistoryRecorder
	Now           func() time.Time
	OCROptions    ocr.Options
	Difficulty    model.Difficulty
	MaxImageBytes int64
	QueryTimeout  time.Duration
}

// QueryState is the lifecycle of the current question.
type QueryState int

// Query states.
const (
	QueryIdle QueryState = iota
	QuerySubmitting
	QueryAnswered
	QueryAuthChallenge
	QueryErrored
)

func (q QueryState) String() string {
	switch q {
	case QuerySubmitting:
		return "submitting"
	case QueryAnswered:
		return "answered"
	case QueryAuthChallenge:
		return "auth_challenge"
	case QueryErrored:
		return "errored"
	default:
		return "idle"
	}
}

// Preview is the displayable form of the accepted image.
type Preview struct {
	Name    string
	DataURL string
	Format  string
	Bytes   int64
	Width   int
	Height  int
}

// FeedbackState is the rating UI state of the current answer.
type FeedbackState struct {
	Comment    string
	Correction string
	FormOpen   bool
	Submitted  bool
}

// ReportState is the problem report modal.
type ReportState struct {
	Draft     model.ProblemReport
	Open      bool
	Sending   bool
	Submitted bool
}

// AuthGate is the login modal shown after a 401.
type AuthGate struct {
	Error     string
	Open      bool
	LoggingIn bool
}

// Session is the owned state of one interactive session.
type Session struct {
	ctx        context.Context
	cancel     context.CancelFunc
	backend    Backend
	recognizer ocr.Recognizer
	history    HistoryRecorder
	now        func() time.Time

	ocrOptions    ocr.Options
	maxImageBytes int64
	queryTimeout  time.Duration

	draft      model.QuestionDraft
	textRev    uint64
	preview    *Preview
	job        model.RecognitionJob
	task       *ocr.Task
	generation uint64

	query       QueryState
	querySeq    uint64
	cancelQuery context.CancelFunc
	lastOutcome *model.QueryOutcome
	answer      *model.AnswerPayload
	answerReq   model.QueryRequest
	answerSeq   uint64

	banner    error
	bannerSeq uint64
	auth      AuthGate

	feedback    FeedbackState
	feedbackSeq uint64

	report    ReportState
	reportSeq uint64
}

// New creates a Session.
func New(cfg Config) (*Session, error) {
	if cfg.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	if cfg.Recognizer == nil {
		return nil, errors.New("session: recognizer is required")
	}

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		ctx:           ctx,
		cancel:        cancel,
		backend:       cfg.Backend,
		recognizer:    cfg.Recognizer,
		history:       cfg.History,
		now:           cfg.Now,
		ocrOptions:    cfg.OCROptions,
		maxImageBytes: cfg.MaxImageBytes,
		queryTimeout:  cfg.QueryTimeout,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.ocrOptions.Language == "" {
		s.ocrOptions = ocr.DefaultOptions()
	}
	if s.maxImageBytes <= 0 {
		s.maxImageBytes = DefaultMaxImageBytes
	}
	if s.queryTimeout <= 0 {
		s.queryTimeout = DefaultQueryTimeout
	}

	s.draft.Difficulty = cfg.Difficulty
	if s.draft.Difficulty == "" {
		s.draft.Difficulty = model.DifficultyJEEMain
	}
	s.report.Draft.Type = model.ProblemBug

	return s, nil
}

// Close cancels any in-flight recognition or query.
func (s *Session) Close() {
	s.stopRecognition()
	if s.cancelQuery != nil {
		s.cancelQuery()
	}
	s.cancel()
}

// Update applies the result of a previously returned command. Messages
// that do not belong to the session return nil.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case imageLoadedMsg:
		return s.handleImageLoaded(msg)
	case previewReadyMsg:
		s.handlePreview(msg)
	case recognitionProgressMsg:
		return s.handleRecognitionProgress(msg)
	case recognitionDoneMsg:
		s.handleRecognitionDone(msg)
	case recognitionClosedMsg:
		s.handleRecognitionClosed(msg)
	case queryResultMsg:
		return s.handleQueryResult(msg)
	case loginResultMsg:
		return s.handleLoginResult(msg)
	case bannerClearMsg:
		if msg.seq == s.bannerSeq {
			s.banner = nil
		}
	case feedbackResultMsg:
		return s.handleFeedbackResult(msg)
	case feedbackClearMsg:
		if msg.seq == s.feedbackSeq {
			s.feedback.Submitted = false
		}
	case reportResultMsg:
		return s.handleReportResult(msg)
	case reportResetMsg:
		if msg.seq == s.reportSeq {
			s.report = ReportState{Draft: model.ProblemReport{Type: model.ProblemBug}}
		}
	case historySavedMsg:
		s.handleHistorySaved(msg)
	}
	return nil
}

// Draft returns a copy of the current question draft.
func (s *Session) Draft() model.QuestionDraft {
	return s.draft
}

// TextRevision increments whenever the session itself rewrites the draft
// text, so an editor mirroring the text knows when to reload it.
func (s *Session) TextRevision() uint64 {
	return s.textRev
}

// SetText records text typed by the user.
func (s *Session) SetText(text string) {
	s.draft.Text = text
}

// UseSample replaces the draft text with one of SampleQuestions.
func (s *Session) UseSample(i int) bool {
	if i < 0 || i >= len(SampleQuestions) || s.query == QuerySubmitting {
		return false
	}
	s.setText(SampleQuestions[i])
	return true
}

// SetDifficulty changes the difficulty sent with the next query.
func (s *Session) SetDifficulty(d model.Difficulty) {
	s.draft.Difficulty = d
}

// ToggleDifficulty switches between the two difficulty levels.
func (s *Session) ToggleDifficulty() model.Difficulty {
	s.draft.Difficulty = s.draft.Difficulty.Toggle()
	return s.draft.Difficulty
}

// Preview returns the rendered preview of the accepted image, if ready.
func (s *Session) Preview() *Preview {
	return s.preview
}

// Recognition returns the current recognition job.
func (s *Session) Recognition() model.RecognitionJob {
	return s.job
}

// QueryState returns the state of the current question.
func (s *Session) QueryState() QueryState {
	return s.query
}

// Answer returns the answer being displayed, or nil.
func (s *Session) Answer() *model.AnswerPayload {
	return s.answer
}

// AnsweredRequest is the request that produced Answer.
func (s *Session) AnsweredRequest() model.QueryRequest {
	return s.answerReq
}

// LastOutcome is the most recent terminal query outcome.
func (s *Session) LastOutcome() *model.QueryOutcome {
	return s.lastOutcome
}

// Banner returns the error shown in the dismissible banner.
func (s *Session) Banner() error {
	return s.banner
}

// BannerText is the user-facing banner message.
func (s *Session) BannerText() string {
	return common.UserMessage(s.banner)
}

// DismissBanner hides the banner and, after a failed query, makes the
// session idle again.
func (s *Session) DismissBanner() {
	s.banner = nil
	s.bannerSeq++
	if s.query == QueryErrored {
		s.query = QueryIdle
	}
}

// Auth returns the login gate state.
func (s *Session) Auth() AuthGate {
	return s.auth
}

// Feedback returns the rating state of the current answer.
func (s *Session) Feedback() FeedbackState {
	return s.feedback
}

// Report returns the problem report modal state.
func (s *Session) Report() ReportState {
	return s.report
}

// CanSubmit reports whether a question could be submitted right now.
func (s *Session) CanSubmit() bool {
	return s.query != QuerySubmitting && !s.job.Active() && s.draft.HasText()
}

func (s *Session) setText(text string) {
	s.draft.Text = text
	s.textRev++
}

func (s *Session) setBanner(err error) {
	s.banner = err
	s.bannerSeq++
}
