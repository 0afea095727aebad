package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/mathq/internal/model"
)

// SaveOutcome appends a terminal query outcome and returns its row id.
func (s *SQLiteStorage) SaveOutcome(ctx context.Context, outcome model.QueryOutcome, at time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateOutcome(outcome); err != nil {
		return 0, err
	}

	var (
		source, confidence, answer, matched, errText sql.NullString
		score                                        float64
	)
	if a := outcome.Answer; a != nil {
		source = nullString(string(a.Source))
		confidence = nullString(string(a.Confidence))
		answer = nullString(a.Answer)
		matched = nullString(a.MatchedProblemID)
		score = a.ConfidenceScore
	}
	if outcome.Err != nil {
		errText = nullString(outcome.Err.Error())
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history (
			created_at, question, difficulty, outcome,
			source, confidence, answer, error,
			confidence_score, matched_problem_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.UTC(),
		outcome.Request.Question,
		string(outcome.Request.Difficulty),
		string(outcome.Kind),
		source, confidence, answer, errText,
		score, matched,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save outcome: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history id: %w", err)
	}
	return id, nil
}

// RecentQuestions returns up to limit entries, newest first.
func (s *SQLiteStorage) RecentQuestions(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, question, difficulty, outcome,
			source, confidence, answer, error,
			confidence_score, matched_problem_id
		FROM query_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			entry                                        model.HistoryEntry
			difficulty, kind                             string
			source, confidence, answer, errText, matched sql.NullString
			score                                        sql.NullFloat64
		)
		if err := rows.Scan(
			&entry.ID, &entry.CreatedAt, &entry.Question, &difficulty, &kind,
			&source, &confidence, &answer, &errText,
			&score, &matched,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}

		entry.Difficulty = model.Difficulty(difficulty)
		entry.Kind = model.OutcomeKind(kind)
		entry.Source = model.Source(source.String)
		entry.Confidence = model.Confidence(confidence.String)
		entry.Answer = answer.String
		entry.Error = errText.String
		entry.MatchedProblemID = matched.String
		entry.ConfidenceScore = score.Float64
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}

// OutcomeCounts tallies recorded outcomes by kind.
func (s *SQLiteStorage) OutcomeCounts(ctx context.Context) (map[model.OutcomeKind]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM query_history GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.OutcomeKind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[model.OutcomeKind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcome counts: %w", err)
	}

	return counts, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
