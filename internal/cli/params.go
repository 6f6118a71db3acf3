package cli

import (
	"github.com/spf13/cobra"

	"github.com/sancho5oh/alphalock/internal/locks"
	"github.com/sancho5oh/alphalock/internal/report"
)

// NewParamsCommand creates the params command.
func NewParamsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params <locks-file>",
		Short: "Print the locked parameter set",
		Long: `Print every locked parameter with its recorded value, units and
provenance note, without running any verification step.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParams(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runParams(opts *RootOptions, locksPath string, cmd *cobra.Command) error {
	doc, err := locks.Load(locksPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load locks document", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(paramsJSON(doc))
	}
	return report.WriteParams(cmd.OutOrStdout(), doc)
}

// paramsJSON flattens the document into a JSON-friendly shape.
func paramsJSON(doc *locks.Document) map[string]any {
	out := map[string]any{
		"version": doc.Metadata().Version,
	}
	categories := map[string]map[string]locks.Entry{}
	for _, name := range doc.Categories() {
		cat, _ := doc.Category(name)
		categories[name] = cat
	}
	out["categories"] = categories
	return out
}
