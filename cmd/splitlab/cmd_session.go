package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spboyer/splitlab/internal/projectconfig"
	"github.com/spboyer/splitlab/internal/session"
)

func newSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "View and manage experiment logs",
		Long: `View and manage experiment event logs.

Experiment logs are NDJSON files written during replays when --log-dir is
enabled or the spec configures a jsonl sink. They record the full
lifecycle: assignments, engagements, conversions, and completion.`,
	}

	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionViewCommand())

	return cmd
}

func newSessionListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded experiment logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without --dir, prefer the project's configured log
			// directory when it exists.
			if !cmd.Flags().Changed("dir") {
				if pc, err := projectconfig.Load("."); err == nil && pc.Paths.Logs != "" {
					if info, err := os.Stat(pc.Paths.Logs); err == nil && info.IsDir() {
						dir = pc.Paths.Logs
					}
				}
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			files, err := session.ListLogs(absDir)
			if err != nil {
				return fmt.Errorf("listing logs: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(w, "No experiment logs found.") //nolint:errcheck
				return nil
			}

			fmt.Fprintf(w, "%-40s %-8s %s\n", "File", "Events", "Modified")                      //nolint:errcheck
			fmt.Fprintln(w, "─────────────────────────────────────────────────────────────────") //nolint:errcheck
			for _, f := range files {
				fmt.Fprintf(w, "%-40s %-8d %s\n", f.Name, f.NumEvents, f.ModTime.Format("2006-01-02 15:04:05")) //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to search for experiment logs")

	return cmd
}

func newSessionViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <log-file>",
		Short: "View an experiment timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := session.ReadEvents(args[0])
			if err != nil {
				return fmt.Errorf("reading log: %w", err)
			}

			session.RenderTimeline(os.Stdout, events)
			return nil
		},
	}

	return cmd
}
