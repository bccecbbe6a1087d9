package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spboyer/splitlab/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// FormatMarkdownReport renders the result as a markdown document.
func FormatMarkdownReport(result *models.ExperimentResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Experiment Report: %s\n\n", result.Name)
	fmt.Fprintf(&b, "_%s_\n\n", InterpretReason(result.Reason))

	b.WriteString("| | |\n|---|---|\n")
	winner := result.Winner
	if winner == "" {
		winner = "none"
	}
	fmt.Fprintf(&b, "| Winner | %s |\n", winner)
	fmt.Fprintf(&b, "| Confidence | %.1f%% (%s) |\n", result.Confidence, InterpretConfidence(result.Confidence))
	fmt.Fprintf(&b, "| Sample size | %d |\n", result.TotalSampleSize)
	fmt.Fprintf(&b, "| Duration | %v |\n", result.Duration)
	fmt.Fprintf(&b, "| Completed | %s |\n", result.CompletedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "| Recommended action | %s |\n\n", result.RecommendedAction)

	if len(result.Variants) > 0 {
		b.WriteString("## Variants\n\n")
		b.WriteString("| Variant | Impressions | Engagements | Conversions | Engagement rate | Conversion rate | Score |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, name := range sortedVariants(result.Variants) {
			m := result.Variants[name]
			label := name
			if name == result.Winner {
				label = "**" + name + "**"
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %.1f%% | %.1f%% | %.1f |\n",
				label, m.Impressions, m.Engagements, m.Conversions,
				m.EngagementRate, m.ConversionRate, m.PsychologicalScore)
		}
		b.WriteString("\n")
	}

	return b.String()
}

const htmlHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: 6px 13px; text-align: left; }
th { background: #f6f8fa; }
h1 { border-bottom: 1px solid #d8dee4; padding-bottom: .3em; }
</style>
</head>
<body>
`

const htmlFooter = "</body>\n</html>\n"

// RenderHTMLReport renders the result as a standalone HTML page.
func RenderHTMLReport(result *models.ExperimentResult) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(FormatMarkdownReport(result)), &body); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, htmlHeader, result.Name)
	out.Write(body.Bytes())
	out.WriteString(htmlFooter)
	return out.Bytes(), nil
}
