package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/spboyer/splitlab/internal/discovery"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/validation"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [experiment.yaml...]",
		Short: "Check experiment specs for schema and semantic problems",
		Long: `Check experiment specs for schema and semantic problems.

Performs the following checks per file:
  1. Schema validation - the YAML matches the experiment schema
  2. Semantic validation - variants, traffic split, and stopping rules are usable

With no arguments, discovers experiment.yaml files under the current
directory. With multiple files, prints a summary table after the
per-file detail.`,
		Args:          cobra.ArbitraryArgs,
		RunE:          runCheck,
		SilenceErrors: true,
	}
	cmd.Flags().String("format", "text", "Output format: text | json")
	return cmd
}

// --- JSON output structs ---

type checkJSONReport struct {
	Timestamp   string           `json:"timestamp"`
	Experiments []specJSONReport `json:"experiments"`
}

type specJSONReport struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Valid        bool     `json:"valid"`
	SchemaErrors []string `json:"schemaErrors,omitempty"`
	SpecErrors   []string `json:"specErrors,omitempty"`
	Variants     []string `json:"variants,omitempty"`
}

type specReport struct {
	name       string
	path       string
	variants   []string
	schemaErrs []string
	specErrs   []string
}

func (r *specReport) valid() bool {
	return len(r.schemaErrs) == 0 && len(r.specErrs) == 0
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: expected text or json", format)
	}

	paths := args
	if len(paths) == 0 {
		experiments, err := discovery.Discover(".")
		if err != nil {
			return fmt.Errorf("discovering experiments: %w", err)
		}
		if len(experiments) == 0 {
			return fmt.Errorf("no %s files found under the current directory", discovery.SpecFileName)
		}
		paths = discovery.SpecPaths(experiments)
	}

	w := cmd.OutOrStdout()
	var reports []*specReport
	hadFailure := false

	for i, path := range paths {
		report, err := checkSpec(path)
		if err != nil {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		reports = append(reports, report)
		if !report.valid() {
			hadFailure = true
		}

		if format == "text" {
			if i > 0 {
				fmt.Fprintln(w) //nolint:errcheck
			}
			displaySpecReport(w, report)
		}
	}

	if format == "text" && len(reports) > 1 {
		printCheckSummaryTable(w, reports)
	}
	if format == "json" {
		if err := outputCheckJSON(cmd, reports); err != nil {
			return err
		}
	}

	if hadFailure {
		return fmt.Errorf("%d of %d spec(s) failed validation", countInvalid(reports), len(reports))
	}
	return nil
}

func checkSpec(path string) (*specReport, error) {
	report := &specReport{path: path}

	schemaErrs, err := validation.ValidateExperimentFile(path)
	if err != nil {
		return nil, err
	}
	report.schemaErrs = schemaErrs

	// Semantic validation only makes sense once the shape is right.
	if len(schemaErrs) == 0 {
		spec, err := models.LoadExperimentSpec(path)
		if err != nil {
			report.specErrs = append(report.specErrs, err.Error())
			return report, nil
		}
		report.name = spec.Name
		report.variants = spec.Variants
		if err := spec.Validate(); err != nil {
			report.specErrs = append(report.specErrs, err.Error())
		}
	}

	return report, nil
}

//nolint:errcheck // display function, write errors to stdout are not actionable
func displaySpecReport(w writer, report *specReport) {
	name := report.name
	if name == "" {
		name = report.path
	}
	fmt.Fprintf(w, "🔍 %s\n", name)

	if len(report.schemaErrs) > 0 {
		fmt.Fprintf(w, "   ❌  schema: %d error(s)\n", len(report.schemaErrs))
		for _, e := range report.schemaErrs {
			fmt.Fprintf(w, "       - %s\n", e)
		}
	} else {
		fmt.Fprintf(w, "   ✅  schema valid\n")
	}

	if len(report.specErrs) > 0 {
		for _, e := range report.specErrs {
			fmt.Fprintf(w, "   ❌  %s\n", e)
		}
	} else if len(report.schemaErrs) == 0 {
		fmt.Fprintf(w, "   ✅  %d variant(s): %s\n", len(report.variants), strings.Join(report.variants, ", "))
	}
}

type writer = interface{ Write([]byte) (int, error) }

//nolint:errcheck
func printCheckSummaryTable(w writer, reports []*specReport) {
	const maxNameWidth = 25
	const minNameWidth = 10

	// Compute dynamic column width from the longest experiment name.
	nameWidth := len("Experiment")
	for _, r := range reports {
		n := r.name
		if n == "" {
			n = r.path
		}
		if runeLen := utf8.RuneCountInString(n); runeLen > nameWidth {
			nameWidth = runeLen
		}
	}
	if nameWidth > maxNameWidth {
		nameWidth = maxNameWidth
	}
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}

	const colSchema = 8
	const colSpec = 8
	totalWidth := nameWidth + colSchema + colSpec + 14

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("═", totalWidth))
	fmt.Fprintf(w, " CHECK SUMMARY\n")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("═", totalWidth))

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		padRight("Experiment", nameWidth),
		padRight("Schema", colSchema),
		padRight("Spec", colSpec),
		"Variants")
	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth))

	for _, r := range reports {
		name := r.name
		if name == "" {
			name = r.path
		}
		name = truncateName(name, nameWidth)

		schemaStatus := "✅"
		if len(r.schemaErrs) > 0 {
			schemaStatus = "❌"
		}
		specStatus := "✅"
		if len(r.specErrs) > 0 {
			specStatus = "❌"
		} else if len(r.schemaErrs) > 0 {
			specStatus = "—"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			padRight(name, nameWidth),
			padRight(schemaStatus, colSchema),
			padRight(specStatus, colSpec),
			strings.Join(r.variants, ", "))
	}
	fmt.Fprintf(w, "\n")
}

// truncateName shortens a name to maxLen runes, replacing the last rune with "…" if needed.
func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func countInvalid(reports []*specReport) int {
	n := 0
	for _, r := range reports {
		if !r.valid() {
			n++
		}
	}
	return n
}

// outputCheckJSON marshals reports as JSON to the command's stdout.
func outputCheckJSON(cmd *cobra.Command, reports []*specReport) error {
	jsonReport := checkJSONReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Experiments: make([]specJSONReport, 0, len(reports)),
	}
	for _, r := range reports {
		jsonReport.Experiments = append(jsonReport.Experiments, specJSONReport{
			Name:         r.name,
			Path:         r.path,
			Valid:        r.valid(),
			SchemaErrors: r.schemaErrs,
			SpecErrors:   r.specErrs,
			Variants:     r.variants,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), buf.String())
	return err
}
