package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/blog-autopilot/internal/types"
)

// SaveScore stores the score of one improver iteration; iteration 0 is the baseline
func (db *DB) SaveScore(ctx context.Context, runID uuid.UUID, iteration int, report types.ScoreReport) error {
	var dims []byte
	if len(report.DimensionScores) > 0 {
		var err error
		dims, err = json.Marshal(report.DimensionScores)
		if err != nil {
			return fmt.Errorf("failed to marshal dimension scores: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_scores (run_id, iteration, global_score, dimension_scores, report_text)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, iteration) DO UPDATE
		 SET global_score = $3, dimension_scores = $4, report_text = $5, created_at = NOW()`,
		runID, iteration, report.GlobalScore, dims, report.ReportText,
	)
	if err != nil {
		return fmt.Errorf("failed to save score for iteration %d: %w", iteration, err)
	}
	return nil
}

// ListScores returns the score history of a run in iteration order
func (db *DB) ListScores(ctx context.Context, runID uuid.UUID) ([]Score, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, iteration, global_score, dimension_scores, COALESCE(report_text, ''), created_at
		 FROM run_scores WHERE run_id = $1 ORDER BY iteration ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var s Score
		var dims []byte
		if err := rows.Scan(&s.ID, &s.RunID, &s.Iteration, &s.GlobalScore, &dims, &s.ReportText, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		if len(dims) > 0 {
			_ = json.Unmarshal(dims, &s.DimensionScores)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}
