package session

import (
	"errors"
	"testing"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answered(t *testing.T, f *fixture, question string) {
	t.Helper()
	f.session.SetText(question)
	cmd, err := f.session.Submit()
	require.NoError(t, err)
	f.pump(t, cmd)
	require.Equal(t, QueryAnswered, f.session.QueryState())
}

func TestRate_WithoutAnswer(t *testing.T) {
	f := newFixture(t)

	cmd, err := f.session.Rate(model.RatingThumbsUp)
	require.ErrorIs(t, err, common.ErrNoAnswer)
	assert.Nil(t, cmd)
	assert.Empty(t, f.backend.Submissions())
	assert.False(t, f.session.Feedback().FormOpen)
}

func TestRate_ThumbsUpSnapshotsAnsweredQuestion(t *testing.T) {
	f := newFixture(t)
	answered(t, f, "integrate x")
	f.session.SetText("edited after the answer")

	cmd, err := f.session.Rate(model.RatingThumbsUp)
	require.NoError(t, err)
	msgs := exec(cmd)
	require.Len(t, msgs, 1)

	subs := f.backend.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "integrate x", subs[0].Question)
	assert.Equal(t, "42", subs[0].Answer)
	assert.Equal(t, model.RatingThumbsUp, subs[0].Rating)
	assert.Nil(t, subs[0].Comment)
	assert.Nil(t, subs[0].Correction)
	assert.Equal(t, "knowledge_base", subs[0].Metadata.Source)
	assert.Equal(t, "high", subs[0].Metadata.Confidence)
	assert.Equal(t, "2025-01-02T03:04:05Z", subs[0].Metadata.Timestamp)
	assert.False(t, f.session.Feedback().FormOpen)

	tick := f.session.Update(msgs[0])
	assert.NotNil(t, tick)
	assert.True(t, f.session.Feedback().Submitted)
}

func TestRate_TwoThumbsDownSendTwoRecords(t *testing.T) {
	f := newFixture(t)
	answered(t, f, "q")

	for range 2 {
		cmd, err := f.session.Rate(model.RatingThumbsDown)
		require.NoError(t, err)
		exec(cmd)
	}

	subs := f.backend.Submissions()
	require.Len(t, subs, 2)
	for _, sub := range subs {
		assert.Equal(t, model.RatingThumbsDown, sub.Rating)
	}
	assert.True(t, f.session.Feedback().FormOpen)
}

func TestSubmitDetails(t *testing.T) {
	f := newFixture(t)
	answered(t, f, "q")

	cmd, err := f.session.Rate(model.RatingThumbsDown)
	require.NoError(t, err)
	exec(cmd)
	require.True(t, f.session.Feedback().FormOpen)

	f.session.SetFeedbackComment("wrong sign")
	f.session.SetFeedbackCorrection("-42")
	cmd, err = f.session.SubmitDetails()
	require.NoError(t, err)
	exec(cmd)

	assert.False(t, f.session.Feedback().FormOpen)
	subs := f.backend.Submissions()
	require.Len(t, subs, 2)
	assert.Nil(t, subs[0].Comment)
	require.NotNil(t, subs[1].Comment)
	require.NotNil(t, subs[1].Correction)
	assert.Equal(t, "wrong sign", *subs[1].Comment)
	assert.Equal(t, "-42", *subs[1].Correction)
	assert.Equal(t, model.RatingThumbsDown, subs[1].Rating)
}

func TestFeedbackFlag_OlderTimerDoesNotClearNewerFlag(t *testing.T) {
	f := newFixture(t)
	answered(t, f, "q")

	first, err := f.session.Rate(model.RatingThumbsUp)
	require.NoError(t, err)
	f.session.Update(exec(first)[0])
	firstSeq := f.session.feedbackSeq

	second, err := f.session.Rate(model.RatingThumbsUp)
	require.NoError(t, err)
	f.session.Update(exec(second)[0])
	require.True(t, f.session.Feedback().Submitted)

	f.session.Update(feedbackClearMsg{seq: firstSeq})
	assert.True(t, f.session.Feedback().Submitted)

	f.session.Update(feedbackClearMsg{seq: f.session.feedbackSeq})
	assert.False(t, f.session.Feedback().Submitted)
}

func TestFeedbackFailureIsSilent(t *testing.T) {
	f := newFixture(t)
	answered(t, f, "q")
	f.backend.feedbackErr = errors.New("offline")

	cmd, err := f.session.Rate(model.RatingThumbsUp)
	require.NoError(t, err)
	msgs := exec(cmd)
	require.Len(t, msgs, 1)

	assert.Nil(t, f.session.Update(msgs[0]))
	assert.False(t, f.session.Feedback().Submitted)
	assert.NoError(t, f.session.Banner())
	assert.Equal(t, QueryAnswered, f.session.QueryState())
}

func TestNewAnswerResetsFeedback(t *testing.T) {
	f := newFixture(t)
	answered(t, f, "first")

	cmd, err := f.session.Rate(model.RatingThumbsDown)
	require.NoError(t, err)
	late := exec(cmd)
	f.session.SetFeedbackComment("draft comment")

	answered(t, f, "second")
	assert.Equal(t, FeedbackState{}, f.session.Feedback())

	// A success for the previous answer does not mark the new one.
	assert.Nil(t, f.session.Update(late[0]))
	assert.False(t, f.session.Feedback().Submitted)
}

func TestSubmitProblemReport(t *testing.T) {
	f := newFixture(t)
	f.session.OpenReport()

	cmd, err := f.session.SubmitProblemReport(model.ProblemReport{Type: model.ProblemOCR, Description: "  "})
	require.ErrorIs(t, err, common.ErrEmptyDescription)
	assert.Nil(t, cmd)
	assert.Empty(t, f.backend.Submissions())

	cmd, err = f.session.SubmitProblemReport(model.ProblemReport{
		Type:        model.ProblemOCR,
		Description: "x² read as ®",
		Email:       "me@example.com",
	})
	require.NoError(t, err)
	assert.True(t, f.session.Report().Sending)

	msgs := exec(cmd)
	require.Len(t, msgs, 1)
	subs := f.backend.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "[USER PROBLEM REPORT - OCR]", subs[0].Question)
	assert.Equal(t, "problem_report", subs[0].FeedbackType)
	assert.Equal(t, "user_problem_report", subs[0].Metadata.Source)
	assert.Equal(t, model.RatingThumbsDown, subs[0].Rating)

	tick := f.session.Update(msgs[0])
	require.NotNil(t, tick)
	assert.True(t, f.session.Report().Submitted)
	assert.False(t, f.session.Report().Sending)
	assert.True(t, f.session.Report().Open)

	f.session.Update(reportResetMsg{seq: f.session.reportSeq})
	report := f.session.Report()
	assert.False(t, report.Open)
	assert.False(t, report.Submitted)
	assert.Equal(t, model.ProblemReport{Type: model.ProblemBug}, report.Draft)
}

func TestSubmitProblemReport_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.backend.feedbackErr = errors.New("offline")
	f.session.OpenReport()

	report := model.ProblemReport{Description: "crash on paste"}
	cmd, err := f.session.SubmitProblemReport(report)
	require.NoError(t, err)

	msgs := exec(cmd)
	require.Len(t, msgs, 1)
	assert.Nil(t, f.session.Update(msgs[0]))

	state := f.session.Report()
	assert.True(t, state.Open)
	assert.False(t, state.Submitted)
	assert.Equal(t, model.ProblemBug, state.Draft.Type)
	assert.Equal(t, "crash on paste", state.Draft.Description)
}
