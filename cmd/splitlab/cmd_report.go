package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spboyer/splitlab/internal/reporting"
)

func newReportCommand() *cobra.Command {
	var reportFormat string
	var reportOutput string

	cmd := &cobra.Command{
		Use:   "report <result.json>",
		Short: "Render a saved experiment result",
		Long: `Render a saved experiment result as text, Markdown, or HTML.

The input is a result JSON file written by 'splitlab run --output'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := reporting.LoadResultJSON(args[0])
			if err != nil {
				return fmt.Errorf("loading result: %w", err)
			}

			var rendered []byte
			switch reportFormat {
			case "text":
				rendered = []byte(reporting.FormatSummaryReport(result))
			case "markdown":
				rendered = []byte(reporting.FormatMarkdownReport(result))
			case "html":
				html, err := reporting.RenderHTMLReport(result)
				if err != nil {
					return fmt.Errorf("rendering HTML: %w", err)
				}
				rendered = html
			default:
				return fmt.Errorf("unknown report format: %s (supported: text, markdown, html)", reportFormat)
			}

			if reportOutput != "" {
				if err := os.WriteFile(reportOutput, rendered, 0o644); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", reportOutput) //nolint:errcheck
				return nil
			}

			_, err = cmd.OutOrStdout().Write(rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&reportFormat, "format", "text", "Report format: text | markdown | html")
	cmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}
