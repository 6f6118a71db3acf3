package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sancho5oh/alphalock/internal/locks"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Errors []locks.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <locks-file>",
		Short: "Schema-check a locks document without running the pipeline",
		Long: `Validate a locked-parameter document against the locks schema: required
categories present, every entry recorded as a decimal string, a metadata
version tag. No derivation is performed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateLocks(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateLocks(opts *RootOptions, locksPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, format, err := locks.ReadFile(locksPath)
	if err != nil {
		_ = formatter.Error(string(locks.ErrCodeDocumentMissing), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load locks document", err)
	}

	violations := locks.ValidateBytes(locksPath, data, format)
	if len(violations) > 0 {
		if opts.Format == "json" {
			_ = formatter.Error(string(locks.ErrCodeSchemaViolation), "locks document violates schema", ValidationResult{Valid: false, Errors: violations})
		} else {
			for _, v := range violations {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v.Error())
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d schema violation(s)", len(violations)))
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", locksPath)
	return nil
}
