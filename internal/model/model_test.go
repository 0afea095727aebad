package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceFromScore(t *testing.T) {
	tests := []struct {
		expected Confidence
		score    float64
	}{
		{score: 0.93, expected: ConfidenceHigh},
		{score: 0.85, expected: ConfidenceHigh},
		{score: 0.84, expected: ConfidenceMedium},
		{score: 0.70, expected: ConfidenceMedium},
		{score: 0.55, expected: ConfidenceLow},
		{score: 0.49, expected: ConfidenceNone},
		{score: 0, expected: ConfidenceNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ConfidenceFromScore(tt.score), "score %v", tt.score)
	}
}

func TestConfidence_UnmarshalJSON(t *testing.T) {
	var payload AnswerPayload
	require.NoError(t, json.Unmarshal([]byte(`{"answer":"4","confidence":"medium"}`), &payload))
	assert.Equal(t, ConfidenceMedium, payload.Confidence)

	require.NoError(t, json.Unmarshal([]byte(`{"answer":"4","confidence":0.91}`), &payload))
	assert.Equal(t, ConfidenceHigh, payload.Confidence)

	require.NoError(t, json.Unmarshal([]byte(`{"answer":"4","confidence":null}`), &payload))
	assert.Empty(t, payload.Confidence)

	assert.Error(t, json.Unmarshal([]byte(`{"confidence":[1]}`), &payload))
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input    string
		expected Difficulty
		wantErr  bool
	}{
		{input: "JEE_Main", expected: DifficultyJEEMain},
		{input: "main", expected: DifficultyJEEMain},
		{input: "", expected: DifficultyJEEMain},
		{input: "JEE Advanced", expected: DifficultyJEEAdvanced},
		{input: "ADVANCED", expected: DifficultyJEEAdvanced},
		{input: "olympiad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDifficulty(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDifficulty_Toggle(t *testing.T) {
	assert.Equal(t, DifficultyJEEAdvanced, DifficultyJEEMain.Toggle())
	assert.Equal(t, DifficultyJEEMain, DifficultyJEEAdvanced.Toggle())
	assert.Equal(t, "JEE Advanced", DifficultyJEEAdvanced.Label())
}

func TestFeedbackRecord_Submission(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 30, 0, 0, time.FixedZone("IST", 19800))
	record := FeedbackRecord{
		Question: "2+2",
		Rating:   RatingThumbsUp,
		Answer:   AnswerPayload{Answer: "4", Source: SourceKnowledgeBase, Confidence: ConfidenceHigh},
	}

	sub := record.Submission(now)
	assert.Equal(t, "2+2", sub.Question)
	assert.Equal(t, "4", sub.Answer)
	assert.Nil(t, sub.Comment)
	assert.Nil(t, sub.Correction)
	assert.Equal(t, "knowledge_base", sub.Metadata.Source)
	assert.Equal(t, "high", sub.Metadata.Confidence)
	assert.Equal(t, "2025-03-01T05:00:00Z", sub.Metadata.Timestamp)

	record.Comment = "wrong sign"
	sub = record.Submission(now)
	require.NotNil(t, sub.Comment)
	assert.Equal(t, "wrong sign", *sub.Comment)

	data, err := json.Marshal(record.Submission(now))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"correction":null`)
}

func TestProblemReport_Submission(t *testing.T) {
	report := ProblemReport{Type: ProblemWrongAnswer, Description: "limit is 1 not 0"}
	sub := report.Submission(time.Now())

	assert.Equal(t, "[USER PROBLEM REPORT - WRONG_ANSWER]", sub.Question)
	assert.Equal(t, "limit is 1 not 0", sub.Answer)
	assert.Equal(t, RatingThumbsDown, sub.Rating)
	assert.Equal(t, "problem_report", sub.FeedbackType)
	assert.Equal(t, "user_problem_report", sub.Metadata.Source)
	assert.Equal(t, "wrong_answer", sub.Metadata.ProblemType)
	require.NotNil(t, sub.Comment)
	assert.Contains(t, *sub.Comment, "Email: Not provided")
	require.NotNil(t, sub.Correction)
	assert.Empty(t, *sub.Correction)
}

func TestParseProblemType(t *testing.T) {
	got, err := ParseProblemType(" OCR ")
	require.NoError(t, err)
	assert.Equal(t, ProblemOCR, got)

	_, err = ParseProblemType("rant")
	assert.Error(t, err)
}
