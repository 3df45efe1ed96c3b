package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordStep upserts the status of a pipeline step. Terminal statuses set the
// completion time and duration.
func (db *DB) RecordStep(ctx context.Context, runID uuid.UUID, step, status, message string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO run_steps (run_id, step, status, message)
		 VALUES ($1, $2, $3, NULLIF($4, ''))
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = $3,
		     message = COALESCE(NULLIF($4, ''), run_steps.message),
		     completed_at = CASE WHEN $5 THEN NOW() ELSE NULL END,
		     duration_ms = CASE WHEN $5
		         THEN (EXTRACT(EPOCH FROM (NOW() - run_steps.started_at)) * 1000)::INTEGER
		         ELSE NULL END`,
		runID, step, status, message, IsTerminal(status),
	)
	if err != nil {
		return fmt.Errorf("failed to record step %s: %w", step, err)
	}
	return nil
}

// ListRunSteps retrieves all steps for a run in start order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, status, message, started_at, completed_at, duration_ms
		 FROM run_steps WHERE run_id = $1 ORDER BY started_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		var s RunStep
		if err := rows.Scan(&s.ID, &s.RunID, &s.Step, &s.Status, &s.Message, &s.StartedAt, &s.CompletedAt, &s.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	return steps, nil
}
