package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spboyer/splitlab/internal/scaffold"
	"github.com/spboyer/splitlab/internal/wizard"
)

func newNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <experiment-name>",
		Short: "Create a new experiment with a sample event stream",
		Long: `Create a new experiment directory with a spec file and a sample
recorded event stream.

Creates {name}/experiment.yaml and {name}/events.csv so the experiment
runs as written:

  splitlab new hero-copy
  splitlab run hero-copy/experiment.yaml

When running in a terminal (TTY), launches an interactive wizard for the
experiment definition. In non-interactive environments (CI, pipes), uses
project defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: newCommandE,
	}

	return cmd
}

func newCommandE(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := scaffold.ValidateName(name); err != nil {
		return err
	}

	// Check TTY from the command's input stream, not os.Stdin directly.
	inReader := cmd.InOrStdin()
	isTTY := false
	if f, ok := inReader.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	var specYAML string
	if isTTY {
		draft, err := wizard.RunExperimentWizard(cmd.InOrStdin(), cmd.OutOrStdout(), name)
		if err != nil {
			return err
		}
		specYAML = wizard.GenerateExperimentYAML(draft)
	} else {
		minSample, maxDuration, split := scaffold.ReadProjectDefaults()
		specYAML = scaffold.ExperimentYAML(name, []string{"control", "treatment"}, split, minSample, maxDuration, true, true)
	}

	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory %s already exists", name)
	}
	if err := os.MkdirAll(name, 0o755); err != nil {
		return fmt.Errorf("creating experiment directory: %w", err)
	}

	specPath := filepath.Join(name, "experiment.yaml")
	if err := os.WriteFile(specPath, []byte(specYAML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", specPath, err)
	}

	eventsPath := filepath.Join(name, "events.csv")
	if err := os.WriteFile(eventsPath, []byte(scaffold.SampleEventsCSV()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", eventsPath, err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created experiment %s:\n", name)       //nolint:errcheck
	fmt.Fprintf(w, "  %s\n", specPath)                     //nolint:errcheck
	fmt.Fprintf(w, "  %s\n\n", eventsPath)                 //nolint:errcheck
	fmt.Fprintf(w, "Run it with: splitlab run %s\n", specPath) //nolint:errcheck

	return nil
}
