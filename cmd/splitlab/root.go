package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splitlab",
		Short: "Splitlab - CLI tool for running A/B experiments",
		Long: `Splitlab is a command-line tool for landing-page A/B experimentation.

It assigns subjects to variants deterministically, scores engagement,
replays recorded event streams, and evaluates statistical significance
to pick a winning variant.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			// slog.SetLogLoggerLevel needs go1.22+; this build targets go1.21.
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newNewCommand())
	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSessionCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
