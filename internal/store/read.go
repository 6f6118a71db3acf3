package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sancho5oh/alphalock/internal/pipeline"
)

// RunSummary is the ledger view of one run, without step detail.
type RunSummary struct {
	RunToken        string    `json:"run_token"`
	CreatedAt       time.Time `json:"created_at"`
	DocumentPath    string    `json:"document_path"`
	DocumentVersion string    `json:"document_version,omitempty"`
	Verdict         string    `json:"verdict"`
	FailedStep      string    `json:"failed_step,omitempty"`
	PrecisionDigits int       `json:"precision_digits"`
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_token, created_at, document_path, document_version, verdict, failed_step, precision_digits
		FROM runs
		ORDER BY created_at DESC, run_token DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		sum, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []RunSummary{}
	}
	return runs, nil
}

// GetRun returns the full record for a run token, or sql.ErrNoRows if the
// token is unknown.
func (s *Store) GetRun(ctx context.Context, runToken string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_token, created_at, document_path, document_version, verdict, failed_step, precision_digits
		FROM runs
		WHERE run_token = ?
	`, runToken)

	var rec RunRecord
	var createdAt string
	if err := row.Scan(
		&rec.RunToken,
		&createdAt,
		&rec.DocumentPath,
		&rec.DocumentVersion,
		&rec.Verdict,
		&rec.FailedStep,
		&rec.PrecisionDigits,
	); err != nil {
		return nil, fmt.Errorf("query run %s: %w", runToken, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run timestamp: %w", err)
	}
	rec.CreatedAt = ts

	steps, err := s.readRunSteps(ctx, runToken)
	if err != nil {
		return nil, err
	}
	rec.Steps = steps
	return &rec, nil
}

func (s *Store) readRunSteps(ctx context.Context, runToken string) ([]pipeline.StepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, computed, reference, diff, tolerance
		FROM run_steps
		WHERE run_token = ?
		ORDER BY position ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query run steps: %w", err)
	}
	defer rows.Close()

	var steps []pipeline.StepResult
	for rows.Next() {
		var step pipeline.StepResult
		var status string
		if err := rows.Scan(&step.Name, &status, &step.Computed, &step.Reference, &step.Diff, &step.Tolerance); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		step.Status = pipeline.Status(status)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run steps: %w", err)
	}

	if steps == nil {
		steps = []pipeline.StepResult{}
	}
	return steps, nil
}

func scanRunSummary(rows *sql.Rows) (RunSummary, error) {
	var sum RunSummary
	var createdAt string
	if err := rows.Scan(
		&sum.RunToken,
		&createdAt,
		&sum.DocumentPath,
		&sum.DocumentVersion,
		&sum.Verdict,
		&sum.FailedStep,
		&sum.PrecisionDigits,
	); err != nil {
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return RunSummary{}, fmt.Errorf("parse run timestamp: %w", err)
	}
	sum.CreatedAt = ts
	return sum, nil
}
