package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/splitlab/internal/generate"
	"github.com/spboyer/splitlab/internal/models"
)

var (
	genSubjects int
	genSeed     int64
	genRates    []string
	genOutput   string
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <experiment.yaml>",
		Short: "Generate a synthetic event stream for an experiment",
		Long: `Generate a synthetic event stream for an experiment.

Subjects are bucketed with the same checksum assignment the engine uses,
so the --rate flags control the conversion rate of the variant each
subject will land in on replay. Useful for demos and for checking how
many subjects a stopping rule needs before real traffic is recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: generateCommandE,
	}

	cmd.Flags().IntVarP(&genSubjects, "subjects", "n", 200, "Number of subjects to generate")
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed for a reproducible stream")
	cmd.Flags().StringArrayVar(&genRates, "rate", nil, "Per-variant conversion rate as variant=0.25 (can be repeated)")
	cmd.Flags().StringVarP(&genOutput, "output", "o", "", "Output CSV path (default: events.csv next to the spec)")

	return cmd
}

func generateCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	spec, err := models.LoadExperimentSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	rates, err := parseRateFlags(genRates)
	if err != nil {
		return err
	}

	records, err := generate.Stream(spec, generate.Options{
		Subjects: genSubjects,
		Seed:     genSeed,
		Rates:    rates,
	})
	if err != nil {
		return err
	}

	output := genOutput
	if output == "" {
		output = filepath.Join(filepath.Dir(specPath), "events.csv")
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close() //nolint:errcheck

	if err := generate.WriteCSV(f, records); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Printf("Generated %d event(s) for %d subject(s)\n", len(records), genSubjects)
	fmt.Printf("Rates: %s\n", strings.Join(generate.SortedRates(spec, rates), ", "))
	fmt.Printf("Stream written to: %s\n", output)
	fmt.Printf("\nReplay it with: splitlab run %s --events %s\n", specPath, output)
	return nil
}

// parseRateFlags converts repeated variant=rate flags into a rate map.
func parseRateFlags(flags []string) (map[string]float64, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	rates := make(map[string]float64, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --rate %q: expected variant=0.25", f)
		}
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --rate %q: %w", f, err)
		}
		rates[name] = rate
	}
	return rates, nil
}
