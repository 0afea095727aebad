package model

import (
	"fmt"
	"strings"
	"time"
)

// Rating is a thumbs up or down on an answer.
type Rating string

// Ratings.
const (
	RatingThumbsUp   Rating = "thumbs_up"
	RatingThumbsDown Rating = "thumbs_down"
)

// ProblemType classifies a user problem report.
type ProblemType string

// Problem report types.
const (
	ProblemBug         ProblemType = "bug"
	ProblemFeature     ProblemType = "feature"
	ProblemImprovement ProblemType = "improvement"
	ProblemOCR         ProblemType = "ocr"
	ProblemWrongAnswer ProblemType = "wrong_answer"
	ProblemOther       ProblemType = "other"
)

// ProblemTypes lists report types in menu order.
var ProblemTypes = []ProblemType{
	ProblemBug, ProblemFeature, ProblemImprovement, ProblemOCR, ProblemWrongAnswer, ProblemOther,
}

// ParseProblemType validates a report type name.
func ParseProblemType(s string) (ProblemType, error) {
	for _, t := range ProblemTypes {
		if string(t) == strings.ToLower(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown problem type %q", s)
}

// FeedbackRecord is one rating submission. Answer is a copy of the payload
// being rated, taken when the record is created.
type FeedbackRecord struct {
	Question   string
	Comment    string
	Correction string
	Rating     Rating
	Answer     AnswerPayload
}

// ProblemReport is a free-form report independent of any answer.
type ProblemReport struct {
	Type        ProblemType
	Description string
	Email       string
}

// FeedbackMetadata is the metadata object of a feedback submission.
type FeedbackMetadata struct {
	UserEmail   *string `json:"user_email,omitempty"`
	Source      string  `json:"source"`
	Confidence  string  `json:"confidence,omitempty"`
	ProblemType string  `json:"problem_type,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

// FeedbackSubmission is the body of POST /feedback/submit.
type FeedbackSubmission struct {
	Correction   *string          `json:"correction"`
	Comment      *string          `json:"comment"`
	Question     string           `json:"question"`
	Answer       string           `json:"answer"`
	Rating       Rating           `json:"rating"`
	FeedbackType string           `json:"feedback_type,omitempty"`
	Metadata     FeedbackMetadata `json:"metadata"`
}

// Submission builds the wire body for a rating. Empty comment and correction
// are sent as null.
func (r FeedbackRecord) Submission(now time.Time) FeedbackSubmission {
	return FeedbackSubmission{
		Question:   r.Question,
		Answer:     r.Answer.Answer,
		Rating:     r.Rating,
		Correction: nullable(r.Correction),
		Comment:    nullable(r.Comment),
		Metadata: FeedbackMetadata{
			Source:     string(r.Answer.Source),
			Confidence: string(r.Answer.Confidence),
			Timestamp:  now.UTC().Format(time.RFC3339Nano),
		},
	}
}

// Submission builds the problem-report variant of the feedback body.
func (p ProblemReport) Submission(now time.Time) FeedbackSubmission {
	email := p.Email
	shownEmail := email
	if shownEmail == "" {
		shownEmail = "Not provided"
	}
	empty := ""
	comment := fmt.Sprintf("Type: %s\nEmail: %s\n\nDescription: %s", p.Type, shownEmail, p.Description)

	return FeedbackSubmission{
		Question:     fmt.Sprintf("[USER PROBLEM REPORT - %s]", strings.ToUpper(string(p.Type))),
		Answer:       p.Description,
		Rating:       RatingThumbsDown,
		FeedbackType: "problem_report",
		Comment:      &comment,
		Correction:   &empty,
		Metadata: FeedbackMetadata{
			Source:      "user_problem_report",
			ProblemType: string(p.Type),
			UserEmail:   &email,
			Timestamp:   now.UTC().Format(time.RFC3339Nano),
		},
	}
}

// FeedbackStats is the body of GET /feedback/stats.
type FeedbackStats struct {
	TotalFeedback   int     `json:"total_feedback"`
	Positive        int     `json:"positive"`
	Negative        int     `json:"negative"`
	WithCorrections int     `json:"with_corrections"`
	PositiveRate    float64 `json:"positive_rate"`
	NegativeRate    float64 `json:"negative_rate"`
	CorrectionRate  float64 `json:"correction_rate"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
