package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Rate sends a rating snapshot of the current answer. A thumbs-down also
// opens the detail form.
func (s *Session) Rate(rating model.Rating) (tea.Cmd, error) {
	if s.answer == nil {
		return nil, common.ErrNoAnswer
	}
	if rating == model.RatingThumbsDown {
		s.feedback.FormOpen = true
	}
	return s.sendFeedback(model.FeedbackRecord{
		Question: s.answerReq.Question,
		Rating:   rating,
		Answer:   *s.answer,
	}), nil
}

// SetFeedbackComment updates the detail form comment.
func (s *Session) SetFeedbackComment(comment string) {
	s.feedback.Comment = comment
}

// SetFeedbackCorrection updates the detail form correction.
func (s *Session) SetFeedbackCorrection(correction string) {
	s.feedback.Correction = correction
}

// SubmitDetails sends a second thumbs-down carrying the form contents and
// closes the form.
func (s *Session) SubmitDetails() (tea.Cmd, error) {
	if s.answer == nil {
		return nil, common.ErrNoAnswer
	}
	s.feedback.FormOpen = false
	return s.sendFeedback(model.FeedbackRecord{
		Question:   s.answerReq.Question,
		Rating:     model.RatingThumbsDown,
		Comment:    s.feedback.Comment,
		Correction: s.feedback.Correction,
		Answer:     *s.answer,
	}), nil
}

// CloseFeedbackForm hides the detail form without sending.
func (s *Session) CloseFeedbackForm() {
	s.feedback.FormOpen = false
}

// OpenReport shows the problem report modal.
func (s *Session) OpenReport() {
	s.report.Open = true
}

// CloseReport hides the problem report modal, keeping its draft.
func (s *Session) CloseReport() {
	s.report.Open = false
}

// SetReportDraft replaces the report being edited.
func (s *Session) SetReportDraft(report model.ProblemReport) {
	s.report.Draft = report
}

// SubmitProblemReport validates and sends a problem report.
func (s *Session) SubmitProblemReport(report model.ProblemReport) (tea.Cmd, error) {
	if strings.TrimSpace(report.Description) == "" {
		return nil, common.ErrEmptyDescription
	}
	if report.Type == "" {
		report.Type = model.ProblemBug
	}

	s.report.Draft = report
	s.report.Sending = true
	s.reportSeq++
	seq := s.reportSeq

	sub := report.Submission(s.now())
	backend := s.backend
	ctx := s.ctx
	return func() tea.Msg {
		return reportResultMsg{seq: seq, err: backend.SubmitFeedback(ctx, sub)}
	}, nil
}

func (s *Session) sendFeedback(record model.FeedbackRecord) tea.Cmd {
	sub := record.Submission(s.now())
	answerSeq := s.answerSeq
	backend := s.backend
	ctx := s.ctx
	return func() tea.Msg {
		return feedbackResultMsg{
			rating:    record.Rating,
			answerSeq: answerSeq,
			err:       backend.SubmitFeedback(ctx, sub),
		}
	}
}

func (s *Session) handleFeedbackResult(msg feedbackResultMsg) tea.Cmd {
	if msg.err != nil {
		slog.Warn("failed to submit feedback", "rating", msg.rating, "error", msg.err)
		return nil
	}
	slog.Info("feedback submitted", "rating", msg.rating)

	// The flag belongs to the answer that was rated.
	if msg.answerSeq != s.answerSeq {
		return nil
	}
	s.feedback.Submitted = true
	s.feedbackSeq++
	seq := s.feedbackSeq
	return tea.Tick(feedbackFlagDuration, func(time.Time) tea.Msg {
		return feedbackClearMsg{seq: seq}
	})
}

func (s *Session) handleReportResult(msg reportResultMsg) tea.Cmd {
	if msg.seq != s.reportSeq {
		return nil
	}
	s.report.Sending = false
	if msg.err != nil {
		slog.Warn("failed to submit problem report", "type", s.report.Draft.Type, "error", msg.err)
		return nil
	}

	slog.Info("problem report submitted", "type", s.report.Draft.Type)
	s.report.Submitted = true
	seq := msg.seq
	return tea.Tick(reportResetDelay, func(time.Time) tea.Msg {
		return reportResetMsg{seq: seq}
	})
}

// resetFeedback clears all rating state for a newly published answer and
// invalidates pending flag timers.
func (s *Session) resetFeedback() {
	s.feedback = FeedbackState{}
	s.feedbackSeq++
	s.answerSeq++
}
