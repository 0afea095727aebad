package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Submit sends the draft. The returned command resolves to exactly one
// outcome: an answer, an auth challenge, a transport error or a timeout.
func (s *Session) Submit() (tea.Cmd, error) {
	if s.query == QuerySubmitting {
		return nil, common.ErrSubmitInFlight
	}
	if !s.draft.HasText() {
		s.setBanner(common.ErrEmptyQuestion)
		return nil, common.ErrEmptyQuestion
	}

	req := model.QueryRequest{
		Question:   s.draft.Text,
		Difficulty: s.draft.Difficulty,
	}

	s.querySeq++
	seq := s.querySeq
	ctx, cancel := context.WithTimeout(s.ctx, s.queryTimeout)
	s.cancelQuery = cancel
	s.query = QuerySubmitting
	s.banner = nil
	s.answer = nil

	slog.Info("submitting question",
		"seq", seq,
		"difficulty", req.Difficulty,
		"length", len(req.Question),
		"timeout", s.queryTimeout)

	backend := s.backend
	return func() tea.Msg {
		defer cancel()
		answer, err := backend.Query(ctx, req)
		return queryResultMsg{seq: seq, outcome: Classify(ctx, req, answer, err)}
	}, nil
}

// Cancel aborts the in-flight query. The pending command still produces
// its single outcome, classified as a cancelled transport error.
func (s *Session) Cancel() bool {
	if s.query != QuerySubmitting || s.cancelQuery == nil {
		return false
	}
	slog.Info("cancelling question", "seq", s.querySeq)
	s.cancelQuery()
	return true
}

// Classify turns the result of one backend call into its outcome. ctx is
// the context the call ran under.
func Classify(ctx context.Context, req model.QueryRequest, answer *model.AnswerPayload, err error) model.QueryOutcome {
	out := model.QueryOutcome{Request: req}

	switch {
	case err == nil && answer != nil:
		out.Kind = model.OutcomeAnswer
		out.Answer = answer
	case err == nil:
		out.Kind = model.OutcomeTransportError
		out.Err = common.NewTransportError(0, errors.New("empty response"))
	case errors.Is(err, common.ErrAuthRequired):
		out.Kind = model.OutcomeAuthRequired
		out.Err = err
	case hasStatus(err):
		out.Kind = model.OutcomeTransportError
		out.Err = err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		out.Kind = model.OutcomeTimeout
		out.Err = common.ErrTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		out.Kind = model.OutcomeTransportError
		out.Err = common.NewTransportError(0, common.ErrCancelled)
	default:
		out.Kind = model.OutcomeTransportError
		var transportErr *common.TransportError
		if errors.As(err, &transportErr) {
			out.Err = err
		} else {
			out.Err = common.NewTransportError(0, err)
		}
	}

	return out
}

// hasStatus reports whether the backend answered with an HTTP status.
func hasStatus(err error) bool {
	var transportErr *common.TransportError
	return errors.As(err, &transportErr) && transportErr.Status != 0
}

// Login runs the login stub for the open auth gate.
func (s *Session) Login() tea.Cmd {
	if s.auth.LoggingIn {
		return nil
	}
	s.auth.LoggingIn = true
	s.auth.Error = ""

	ctx := s.ctx
	backend := s.backend
	return func() tea.Msg {
		return loginResultMsg{err: backend.Login(ctx)}
	}
}

// CloseAuthGate dismisses the login modal without logging in.
func (s *Session) CloseAuthGate() {
	s.auth = AuthGate{}
	if s.query == QueryAuthChallenge {
		s.query = QueryIdle
	}
}

func (s *Session) handleQueryResult(msg queryResultMsg) tea.Cmd {
	if msg.seq != s.querySeq || s.query != QuerySubmitting {
		slog.Debug("dropping stale query result", "seq", msg.seq, "current", s.querySeq)
		return nil
	}
	s.cancelQuery = nil

	outcome := msg.outcome
	s.lastOutcome = &outcome

	switch outcome.Kind {
	case model.OutcomeAnswer:
		s.answer = outcome.Answer
		s.answerReq = outcome.Request
		s.resetFeedback()
		s.query = QueryAnswered
		slog.Info("answer received",
			"seq", msg.seq,
			"source", outcome.Answer.Source,
			"confidence", outcome.Answer.Confidence)
	case model.OutcomeAuthRequired:
		s.query = QueryAuthChallenge
		s.auth = AuthGate{Open: true}
		slog.Info("login required", "seq", msg.seq)
	default:
		s.query = QueryErrored
		s.setBanner(outcome.Err)
		slog.Error("query failed", "seq", msg.seq, "kind", outcome.Kind, "error", outcome.Err)
	}

	return s.recordHistory(outcome)
}

func (s *Session) handleLoginResult(msg loginResultMsg) tea.Cmd {
	s.auth.LoggingIn = false
	if msg.err != nil {
		slog.Warn("login failed", "error", msg.err)
		s.auth.Error = "Login failed. Please try again."
		return nil
	}

	s.auth = AuthGate{}
	if s.query == QueryAuthChallenge {
		s.query = QueryIdle
	}

	seq := s.bannerSeq
	return tea.Tick(loginBannerDelay, func(time.Time) tea.Msg {
		return bannerClearMsg{seq: seq}
	})
}

func (s *Session) recordHistory(outcome model.QueryOutcome) tea.Cmd {
	if s.history == nil {
		return nil
	}
	history := s.history
	at := s.now()
	parent := s.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, historySaveTimeout)
		defer cancel()
		id, err := history.SaveOutcome(ctx, outcome, at)
		return historySavedMsg{id: id, err: err}
	}
}

func (s *Session) handleHistorySaved(msg historySavedMsg) {
	if msg.err != nil {
		slog.Warn("failed to record history", "error", msg.err)
		return
	}
	slog.Debug("recorded history", "id", msg.id)
}
