package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sancho5oh/alphalock/internal/locks"
	"github.com/sancho5oh/alphalock/internal/pipeline"
	"github.com/sancho5oh/alphalock/internal/precision"
	"github.com/sancho5oh/alphalock/internal/report"
	"github.com/sancho5oh/alphalock/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Digits   int
	Database string

	// TokenGenerator allows overriding the run token generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TokenGenerator pipeline.RunTokenGenerator
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <locks-file>",
		Short: "Rederive and verify every locked quantity",
		Long: `Rederive the full quantity chain from the locked parameter document and
verify each value against its recorded reference, failing fast at the
first tolerance breach.

Exit code 0 means the verdict is PASS; 1 means FAIL; 2 means a fatal
precondition (document missing, parameter path absent, degenerate
inputs).

Example:
  alphalock verify ./locks.json
  alphalock verify ./locks.json --db ./runs.db --digits 80 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Digits, "digits", precision.DefaultDigits, "significant decimal digits for arbitrary-precision arithmetic")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to run-ledger SQLite database (optional)")

	return cmd
}

func runVerify(opts *VerifyOptions, locksPath string, cmd *cobra.Command) error {
	logger := newLogger(opts.Verbose)

	// Load and schema-check the document before touching any arithmetic.
	data, format, err := locks.ReadFile(locksPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load locks document", err)
	}
	if violations := locks.ValidateBytes(locksPath, data, format); len(violations) > 0 {
		for _, v := range violations {
			logger.Error("schema violation", "field", v.Field, "message", v.Message)
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("locks document violates schema (%d problem(s))", len(violations)))
	}
	doc, err := locks.Parse(data, format)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse locks document", err)
	}
	logger.Info("locks document loaded", "path", locksPath, "version", doc.Metadata().Version)

	pc, err := precision.New(opts.Digits)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid precision", err)
	}

	runnerOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if opts.TokenGenerator != nil {
		runnerOpts = append(runnerOpts, pipeline.WithTokenGenerator(opts.TokenGenerator))
	}
	runner := pipeline.New(pc, runnerOpts...)

	verdict, err := runner.Run(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification aborted", err)
	}

	if opts.Format == "json" {
		if err := report.WriteJSON(cmd.OutOrStdout(), verdict); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
	} else {
		if err := report.WriteText(cmd.OutOrStdout(), verdict); err != nil {
			return WrapExitError(ExitCommandError, "failed to write report", err)
		}
	}

	if opts.Database != "" {
		if err := recordRun(cmd.Context(), opts.Database, verdict, locksPath, logger); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	if !verdict.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("verification failed at step %s", verdict.FailedStep))
	}
	return nil
}

// recordRun appends the verdict to the run ledger.
func recordRun(ctx context.Context, dbPath string, verdict *pipeline.Verdict, locksPath string, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	rec := store.NewRunRecord(verdict, locksPath, time.Now())
	if err := st.RecordRun(ctx, rec); err != nil {
		return err
	}
	logger.Info("run recorded", "db", dbPath, "run", verdict.RunToken)
	return nil
}

// newLogger configures slog on stderr, honoring --verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
