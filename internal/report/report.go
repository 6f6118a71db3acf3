// Package report renders the ordered step results of a verification run.
//
// Two renderings exist: a human-readable text report for the console and a
// JSON report consumed by external tooling (the figure renderer reads the
// JSON form). Neither rendering influences the verdict; the report is a
// faithful transcription of what the pipeline observed.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sancho5oh/alphalock/internal/locks"
	"github.com/sancho5oh/alphalock/internal/pipeline"
)

const rule = "----------------------------------------------------------------------"
const doubleRule = "======================================================================"

// WriteText renders the verdict as a sectioned text report, one block per
// step in execution order, closed by the aggregate verdict.
func WriteText(w io.Writer, v *pipeline.Verdict) error {
	fmt.Fprintln(w, doubleRule)
	fmt.Fprintln(w, "VERIFICATION: alpha = 1/137 GEOMETRIC FIXED POINT")
	fmt.Fprintln(w, doubleRule)
	fmt.Fprintf(w, "run:       %s\n", v.RunToken)
	if v.DocumentVersion != "" {
		fmt.Fprintf(w, "document:  version %s\n", v.DocumentVersion)
	}
	fmt.Fprintf(w, "precision: %d digits\n", v.PrecisionDigits)
	fmt.Fprintln(w)

	for i, s := range v.Steps {
		tag := string(s.Status)
		if s.Advisory {
			tag += " (advisory)"
		}
		fmt.Fprintf(w, "%2d. %-20s %s\n", i+1, s.Name, tag)
		if s.Status == pipeline.StatusSkipped {
			continue
		}
		if s.Computed != "" {
			fmt.Fprintf(w, "      computed  = %s\n", s.Computed)
		}
		if s.Reference != "" {
			fmt.Fprintf(w, "      reference = %s\n", s.Reference)
		}
		if s.Diff != "" {
			if s.Tolerance != "" {
				fmt.Fprintf(w, "      diff      = %s (tol %s)\n", s.Diff, s.Tolerance)
			} else {
				fmt.Fprintf(w, "      diff      = %s\n", s.Diff)
			}
		}
		for _, k := range sortedKeys(s.Detail) {
			fmt.Fprintf(w, "      %-9s = %s\n", k, s.Detail[k])
		}
	}

	if len(v.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range v.Warnings {
			fmt.Fprintf(w, "WARNING: %s\n", warn)
		}
	}

	fmt.Fprintln(w, rule)
	if v.Passed {
		fmt.Fprintln(w, "VERDICT: PASS")
	} else {
		fmt.Fprintf(w, "VERDICT: FAIL (at step %s)\n", v.FailedStep)
	}
	return nil
}

// WriteJSON renders the verdict as indented JSON.
func WriteJSON(w io.Writer, v *pipeline.Verdict) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteParams echoes the locked parameter set without running the
// pipeline: every category in sorted order, every entry with its recorded
// value string and units.
func WriteParams(w io.Writer, doc *locks.Document) error {
	meta := doc.Metadata()
	fmt.Fprintln(w, "LOCKED PARAMETERS")
	if meta.Version != "" {
		fmt.Fprintf(w, "document version: %s\n", meta.Version)
	}
	for _, name := range doc.Categories() {
		cat, _ := doc.Category(name)
		fmt.Fprintf(w, "\n[%s]\n", name)
		for _, key := range sortedCategoryKeys(cat) {
			entry := cat[key]
			line := fmt.Sprintf("  %-24s = %s", key, entry.Value)
			if entry.Units != "" {
				line += " " + entry.Units
			}
			fmt.Fprintln(w, line)
			if entry.Note != "" {
				fmt.Fprintf(w, "  %-24s   (%s)\n", "", strings.TrimSpace(entry.Note))
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCategoryKeys(c locks.Category) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
