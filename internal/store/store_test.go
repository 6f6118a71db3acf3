package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sancho5oh/alphalock/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testVerdict(token string, passed bool) *pipeline.Verdict {
	v := &pipeline.Verdict{
		RunToken:        token,
		DocumentVersion: "1.2.0",
		PrecisionDigits: 80,
		Passed:          passed,
		Steps: []pipeline.StepResult{
			{Name: pipeline.StepAlphaPred, Status: pipeline.StatusPassed, Computed: "0.00729707", Reference: "0.00729707", Diff: "0", Tolerance: pipeline.TolAlpha},
			{Name: pipeline.StepAlphaErr, Status: pipeline.StatusPassed, Computed: "2.8E-7", Reference: "2.8E-7", Diff: "0", Tolerance: pipeline.TolAlpha},
		},
	}
	if !passed {
		v.FailedStep = pipeline.StepAlphaErr
		v.Steps[1].Status = pipeline.StatusFailed
	}
	return v
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestRecordAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := NewRunRecord(testVerdict("run-aaa", true), "examples/locks.json", at)
	require.NoError(t, s.RecordRun(ctx, rec))

	got, err := s.GetRun(ctx, "run-aaa")
	require.NoError(t, err)
	assert.Equal(t, "run-aaa", got.RunToken)
	assert.Equal(t, "examples/locks.json", got.DocumentPath)
	assert.Equal(t, "1.2.0", got.DocumentVersion)
	assert.Equal(t, "PASS", got.Verdict)
	assert.Empty(t, got.FailedStep)
	assert.Equal(t, 80, got.PrecisionDigits)
	assert.True(t, got.CreatedAt.Equal(at))

	require.Len(t, got.Steps, 2)
	assert.Equal(t, pipeline.StepAlphaPred, got.Steps[0].Name)
	assert.Equal(t, pipeline.StatusPassed, got.Steps[0].Status)
	assert.Equal(t, "0.00729707", got.Steps[0].Computed)
	assert.Equal(t, pipeline.TolAlpha, got.Steps[0].Tolerance)
}

func TestRecordRunFailedVerdict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := NewRunRecord(testVerdict("run-bbb", false), "locks.json", time.Now())
	require.NoError(t, s.RecordRun(ctx, rec))

	got, err := s.GetRun(ctx, "run-bbb")
	require.NoError(t, err)
	assert.Equal(t, "FAIL", got.Verdict)
	assert.Equal(t, pipeline.StepAlphaErr, got.FailedStep)
	assert.Equal(t, pipeline.StatusFailed, got.Steps[1].Status)
}

func TestRecordRunIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := NewRunRecord(testVerdict("run-ccc", true), "locks.json", time.Now())
	require.NoError(t, s.RecordRun(ctx, rec))
	require.NoError(t, s.RecordRun(ctx, rec))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, token := range []string{"run-1", "run-2", "run-3"} {
		rec := NewRunRecord(testVerdict(token, true), "locks.json", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.RecordRun(ctx, rec))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-3", runs[0].RunToken)
	assert.Equal(t, "run-2", runs[1].RunToken)
	assert.Equal(t, "run-1", runs[2].RunToken)
}

func TestListRunsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i, token := range []string{"run-1", "run-2", "run-3"} {
		rec := NewRunRecord(testVerdict(token, true), "locks.json", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.RecordRun(ctx, rec))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].RunToken)
}

func TestListRunsEmptyLedger(t *testing.T) {
	s := openTestStore(t)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestGetRunUnknownToken(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
