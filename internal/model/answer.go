package model

import (
	"encoding/json"
	"fmt"
)

// Confidence is the backend's retrieval confidence level.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// ConfidenceFromScore maps a similarity score onto a level using the
// backend's retrieval thresholds.
func ConfidenceFromScore(score float64) Confidence {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.70:
		return ConfidenceMedium
	case score >= 0.50:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// UnmarshalJSON accepts either a level name or a bare score.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Confidence(s)
		return nil
	}

	var score float64
	if err := json.Unmarshal(data, &score); err == nil {
		*c = ConfidenceFromScore(score)
		return nil
	}

	if string(data) == "null" {
		*c = ""
		return nil
	}

	return fmt.Errorf("invalid confidence: %s", string(data))
}

// Source identifies which backend path produced an answer.
type Source string

// Answer sources. Any other value is treated as an external source.
const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceGeminiWithDB  Source = "gemini_with_db"
	SourceGeminiRAG     Source = "gemini_rag"
	SourcePerplexityWeb Source = "perplexity_web"
	SourceNotFound      Source = "not_found"
)

// MatchRecord is one knowledge-base hit returned alongside an answer.
type MatchRecord struct {
	ProblemID  string  `json:"problem_id"`
	Question   string  `json:"question"`
	Topic      string  `json:"topic"`
	Difficulty string  `json:"difficulty"`
	Score      float64 `json:"score"`
}

// AnswerPayload is the body of a successful POST /query.
type AnswerPayload struct {
	ExternalSources  map[string]string `json:"external_sources,omitempty"`
	Answer           string            `json:"answer"`
	Confidence       Confidence        `json:"confidence"`
	Source           Source            `json:"source"`
	MatchedProblemID string            `json:"matched_problem_id,omitempty"`
	Note             string            `json:"note,omitempty"`
	Suggestion       string            `json:"suggestion,omitempty"`
	Topic            string            `json:"topic,omitempty"`
	Difficulty       string            `json:"difficulty,omitempty"`
	ReasoningSteps   []string          `json:"reasoning_steps,omitempty"`
	KBMatches        []MatchRecord     `json:"kb_results,omitempty"`
	ConfidenceScore  float64           `json:"confidence_score"`
}

// OutcomeKind tags a QueryOutcome.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeAnswer         OutcomeKind = "answer"
	OutcomeAuthRequired   OutcomeKind = "auth_required"
	OutcomeTransportError OutcomeKind = "transport_error"
	OutcomeTimeout        OutcomeKind = "timeout"
)

// QueryOutcome is the terminal classification of one submitted question.
// Answer is set only for OutcomeAnswer; Err for the failure kinds.
type QueryOutcome struct {
	Err     error
	Answer  *AnswerPayload
	Request QueryRequest
	Kind    OutcomeKind
}
