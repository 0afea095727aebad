package model

import "time"

// JobStatus is the lifecycle state of a recognition job.
type JobStatus string

// Recognition job states.
const (
	JobIdle    JobStatus = "idle"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// RecognitionJob tracks the single active OCR run. Generation identifies
// which accepted image the job belongs to.
type RecognitionJob struct {
	Err             error
	RawText         string
	Status          JobStatus
	Generation      uint64
	ProgressPercent int
}

// Active reports whether the job is still running.
func (j RecognitionJob) Active() bool {
	return j.Status == JobRunning
}

// HistoryEntry is one recorded query outcome of the current session.
type HistoryEntry struct {
	CreatedAt        time.Time
	Question         string
	Difficulty       Difficulty
	Kind             OutcomeKind
	Source           Source
	Confidence       Confidence
	Answer           string
	Error            string
	MatchedProblemID string
	ConfidenceScore  float64
	ID               int64
}
