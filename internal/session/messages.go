package session

import (
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/ocr"
)

// Ingestion messages. generation ties each one to the image it was
// started for.
type imageLoadedMsg struct {
	err   error
	path  string
	image model.Image
}

type previewReadyMsg struct {
	err        error
	preview    Preview
	generation uint64
}

type recognitionProgressMsg struct {
	task       *ocr.Task
	progress   ocr.Progress
	generation uint64
}

type recognitionDoneMsg struct {
	err        error
	text       string
	generation uint64
}

type recognitionClosedMsg struct {
	generation uint64
}

// Query messages.
type queryResultMsg struct {
	outcome model.QueryOutcome
	seq     uint64
}

type loginResultMsg struct {
	err error
}

type bannerClearMsg struct {
	seq uint64
}

type historySavedMsg struct {
	err error
	id  int64
}

// Feedback messages. answerSeq identifies the answer a rating was for.
type feedbackResultMsg struct {
	err       error
	rating    model.Rating
	answerSeq uint64
}

type feedbackClearMsg struct {
	seq uint64
}

type reportResultMsg struct {
	err error
	seq uint64
}

type reportResetMsg struct {
	seq uint64
}
