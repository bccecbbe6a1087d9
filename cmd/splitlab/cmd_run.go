package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spboyer/splitlab/internal/cache"
	"github.com/spboyer/splitlab/internal/config"
	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/projectconfig"
	"github.com/spboyer/splitlab/internal/reporting"
	"github.com/spboyer/splitlab/internal/session"
	"github.com/spboyer/splitlab/internal/simulate"
	"github.com/spboyer/splitlab/internal/spinner"
	"github.com/spboyer/splitlab/internal/validation"
)

var (
	eventsPath  string
	outputPath  string
	logDir      string
	verbose     bool
	parallel    bool
	workers     int
	interpret   bool
	format      string
	enableCache bool
	runCacheDir string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <experiment.yaml>",
		Short: "Replay a recorded event stream through an experiment",
		Long: `Replay a recorded event stream through an experiment.

The spec file defines the variants, traffic split, stopping rules, and
content bundles. Events are loaded from a CSV stream (defaults to
events.csv next to the spec) and replayed on the recorded timeline until
a stopping rule fires or the stream is exhausted.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&eventsPath, "events", "", "Recorded event CSV (default: events.csv next to the spec)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for the result")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-subject progress")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for the NDJSON experiment log")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Replay subjects concurrently (sacrifices timeline fidelity)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "Print a plain-language interpretation of the result")
	cmd.Flags().StringVar(&format, "format", "default", "Output format: default, github-comment")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Reuse a cached result when the spec and event stream are unchanged")
	cmd.Flags().StringVar(&runCacheDir, "cache-dir", projectconfig.DefaultCacheDir, "Cache directory for storing results")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	// Project-level config supplies defaults for any flag the caller left
	// untouched. Explicit flags always win.
	if pc, err := projectconfig.Load(filepath.Dir(specPath)); err == nil {
		flags := cmd.Flags()
		if !flags.Changed("verbose") && pc.Defaults.Verbose != nil {
			verbose = *pc.Defaults.Verbose
		}
		if !flags.Changed("parallel") && pc.Defaults.Parallel != nil {
			parallel = *pc.Defaults.Parallel
		}
		if !flags.Changed("workers") && pc.Defaults.Workers > 0 {
			workers = pc.Defaults.Workers
		}
		if !flags.Changed("cache") && pc.Cache.Enabled != nil {
			enableCache = *pc.Cache.Enabled
		}
		if !flags.Changed("cache-dir") && pc.Cache.Dir != "" {
			runCacheDir = pc.Cache.Dir
		}
	}

	// Schema validation before loading keeps error messages pointed.
	schemaErrs, err := validation.ValidateExperimentFile(specPath)
	if err != nil {
		return fmt.Errorf("failed to validate spec: %w", err)
	}
	if len(schemaErrs) > 0 {
		return fmt.Errorf("spec %s has %d schema error(s):\n  %s",
			specPath, len(schemaErrs), strings.Join(schemaErrs, "\n  "))
	}

	spec, err := models.LoadExperimentSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	events := eventsPath
	if events == "" {
		events = filepath.Join(filepath.Dir(specPath), "events.csv")
	}

	opts := []config.RunOption{
		config.WithEventsPath(events),
		config.WithVerbose(verbose),
	}
	if logDir != "" {
		opts = append(opts, config.WithLogPath(session.DefaultLogPath(logDir, spec.Name)))
	}
	if parallel {
		opts = append(opts, config.WithConcurrent(true))
	}
	if workers > 0 {
		opts = append(opts, config.WithWorkers(workers))
	}
	cfg := config.NewRunConfig(spec, opts...)

	var resultCache *cache.Cache
	var cacheKey string
	if enableCache {
		absCacheDir, err := filepath.Abs(runCacheDir)
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		resultCache = cache.New(absCacheDir)
		cacheKey, err = cache.Key(spec, events, parallel, cfg.Workers())
		if err != nil {
			return fmt.Errorf("computing cache key: %w", err)
		}
		if cached, ok := resultCache.Get(cacheKey); ok {
			fmt.Printf("Result for %s loaded from cache\n\n", spec.Name)
			return emitResult(cached)
		}
	}

	runner := simulate.NewRunner(cfg)
	if verbose {
		runner.OnProgress(verboseProgressListener)
	}

	fmt.Printf("Running experiment: %s\n", spec.Name)
	fmt.Printf("Variants: %s\n", strings.Join(spec.Variants, ", "))
	fmt.Printf("Events: %s\n", events)
	if parallel {
		fmt.Printf("Parallel: %d workers\n", cfg.Workers())
	}
	fmt.Println()

	var stopSpinner func()
	if !verbose {
		stopSpinner = spinner.Start(cmd.ErrOrStderr(), "Replaying events...")
	}
	result, err := runner.Run(context.Background())
	if stopSpinner != nil {
		stopSpinner()
	}
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	if resultCache != nil {
		if err := resultCache.Put(cacheKey, &result); err != nil {
			slog.Debug("failed to cache result", "error", err)
		}
	}

	return emitResult(&result)
}

// emitResult prints the result in the selected format, optionally
// saves it, and maps an inconclusive ending to a typed error.
func emitResult(result *models.ExperimentResult) error {
	switch format {
	case "github-comment":
		fmt.Print(FormatGitHubComment(result))
	case "default":
		printSummary(result)

		if interpret {
			fmt.Println()
			fmt.Print(reporting.FormatSummaryReport(result))
		}
	default:
		return fmt.Errorf("unknown output format: %s (supported: default, github-comment)", format)
	}

	if outputPath != "" {
		if err := reporting.WriteResultJSON(outputPath, result); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Printf("\nResult saved to: %s\n", outputPath)
	}

	// Surface an inconclusive ending as an error so CI can gate on it.
	if result.Winner == "" {
		return &InconclusiveError{
			Message: fmt.Sprintf("experiment ended without a winner (%s)", result.RecommendedAction),
		}
	}

	return nil
}

func verboseProgressListener(event simulate.ProgressEvent) {
	switch event.EventType {
	case simulate.EventReplayStart:
		fmt.Printf("Replaying %d subject(s)...\n\n", event.TotalSubjects)
	case simulate.EventSubjectEntered:
		fmt.Printf("[%d/%d] %s → %s\n", event.SubjectNum, event.TotalSubjects, event.SubjectID, event.Variant)
	case simulate.EventSubjectConverted:
		fmt.Printf("[%d/%d] %s converted (%s)\n", event.SubjectNum, event.TotalSubjects, event.SubjectID, event.Variant)
	case simulate.EventReplayStopped:
		fmt.Printf("\nStopping rule fired: %v\n", event.Details["reason"])
	case simulate.EventReplayComplete:
		fmt.Printf("\nReplay completed: %v\n\n", event.Details["reason"])
	}
}

func printSummary(result *models.ExperimentResult) {
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println(" EXPERIMENT RESULT")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()

	fmt.Printf("Experiment:     %s\n", result.Name)
	fmt.Printf("Total Samples:  %d\n", result.TotalSampleSize)
	fmt.Printf("Confidence:     %.1f%%\n", result.Confidence)
	if result.Winner != "" {
		fmt.Printf("Winner:         %s\n", result.Winner)
	} else {
		fmt.Printf("Winner:         (none)\n")
	}
	fmt.Printf("Reason:         %s\n", result.Reason)
	fmt.Printf("Duration:       %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Action:         %s\n", result.RecommendedAction)
	fmt.Println()

	// Per-variant breakdown
	fmt.Println("-" + strings.Repeat("-", 50))
	fmt.Println(" PER-VARIANT BREAKDOWN")
	fmt.Println("-" + strings.Repeat("-", 50))
	for _, name := range sortedVariantNames(result.Variants) {
		m := result.Variants[name]
		icon := " "
		if name == result.Winner {
			icon = "★"
		}
		fmt.Printf("  %s %s\n", icon, name)
		fmt.Printf("      impressions=%d  conversions=%d  rate=%.1f%%  engagement=%.1f\n",
			m.Impressions, m.Conversions, m.ConversionRate, m.PsychologicalScore)
		if m.AvgTimeToConversion > 0 {
			fmt.Printf("      avg_time_to_conversion=%v\n", m.AvgTimeToConversion.Round(time.Millisecond))
		}
	}
	fmt.Println()
}

func sortedVariantNames(variants map[string]models.VariantMetrics) []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
