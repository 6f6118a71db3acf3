package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sancho5oh/alphalock/internal/pipeline"
)

// RunRecord is one ledger entry: the run identity plus its verdict and
// ordered step outcomes.
type RunRecord struct {
	RunToken        string
	CreatedAt       time.Time
	DocumentPath    string
	DocumentVersion string
	Verdict         string // "PASS" or "FAIL"
	FailedStep      string
	PrecisionDigits int
	Steps           []pipeline.StepResult
}

// NewRunRecord builds a ledger entry from a pipeline verdict.
func NewRunRecord(v *pipeline.Verdict, documentPath string, at time.Time) RunRecord {
	verdict := "FAIL"
	if v.Passed {
		verdict = "PASS"
	}
	return RunRecord{
		RunToken:        v.RunToken,
		CreatedAt:       at,
		DocumentPath:    documentPath,
		DocumentVersion: v.DocumentVersion,
		Verdict:         verdict,
		FailedStep:      v.FailedStep,
		PrecisionDigits: v.PrecisionDigits,
		Steps:           v.Steps,
	}
}

// RecordRun inserts a completed run and its step outcomes in one
// transaction. Uses ON CONFLICT DO NOTHING for idempotency: run tokens
// are unique per run, so a duplicate write is a replayed record, not new
// information.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_token, created_at, document_path, document_version, verdict, failed_step, precision_digits)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_token) DO NOTHING
	`,
		rec.RunToken,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.DocumentPath,
		rec.DocumentVersion,
		rec.Verdict,
		rec.FailedStep,
		rec.PrecisionDigits,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	for i, step := range rec.Steps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_steps
			(run_token, position, name, status, computed, reference, diff, tolerance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_token, position) DO NOTHING
		`,
			rec.RunToken,
			i,
			step.Name,
			string(step.Status),
			step.Computed,
			step.Reference,
			step.Diff,
			step.Tolerance,
		)
		if err != nil {
			return fmt.Errorf("record run step %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
