package model

import (
	"fmt"
	"strings"
)

// Difficulty is the exam level a question is asked at.
type Difficulty string

// Difficulty constants.
const (
	DifficultyJEEMain     Difficulty = "JEE_Main"
	DifficultyJEEAdvanced Difficulty = "JEE_Advanced"
)

// ParseDifficulty accepts the wire value or a loose spelling ("main", "advanced").
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")) {
	case "", "jee_main", "main":
		return DifficultyJEEMain, nil
	case "jee_advanced", "advanced":
		return DifficultyJEEAdvanced, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Label is the human-readable difficulty name.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyJEEAdvanced:
		return "JEE Advanced"
	default:
		return "JEE Main"
	}
}

// Toggle returns the other difficulty.
func (d Difficulty) Toggle() Difficulty {
	if d == DifficultyJEEAdvanced {
		return DifficultyJEEMain
	}
	return DifficultyJEEAdvanced
}

// Image is a captured image awaiting or undergoing recognition.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size is the byte length of the image data.
func (i Image) Size() int64 {
	return int64(len(i.Data))
}

// QuestionDraft is the in-progress question owned by the session.
type QuestionDraft struct {
	SourceImage *Image
	Text        string
	Difficulty  Difficulty
}

// HasText reports whether the draft has non-blank text.
func (d QuestionDraft) HasText() bool {
	return strings.TrimSpace(d.Text) != ""
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question   string     `json:"question"`
	Difficulty Difficulty `json:"difficulty"`
}
