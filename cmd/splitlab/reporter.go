package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spboyer/splitlab/internal/models"
	"github.com/spboyer/splitlab/internal/reporting"
)

// formatDuration formats a duration in a consistent, human-readable way.
// This ensures stable output regardless of Go version changes.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Second).String()
}

// FormatGitHubComment formats an ExperimentResult as a markdown comment for GitHub PRs
func FormatGitHubComment(result *models.ExperimentResult) string {
	var b strings.Builder

	// Header with overall status
	b.WriteString("## 🧪 Splitlab Experiment Results\n\n")

	// Overall status badge
	statusIcon := "✅ Decided"
	if result.Winner == "" {
		statusIcon = "⚠️ Inconclusive"
	}

	b.WriteString(fmt.Sprintf("**Status:** %s | **Confidence:** %.1f%% | **Duration:** %s\n\n",
		statusIcon, result.Confidence, formatDuration(result.Duration)))

	// Summary stats
	b.WriteString(fmt.Sprintf("- **Experiment:** %s\n", result.Name))
	b.WriteString(fmt.Sprintf("- **Samples:** %d\n", result.TotalSampleSize))
	b.WriteString(fmt.Sprintf("- **Stopped:** %s\n", reporting.InterpretReason(result.Reason)))
	b.WriteString(fmt.Sprintf("- **Recommended action:** %s\n\n", result.RecommendedAction))

	// Per-variant breakdown table
	b.WriteString("### Variant Results\n\n")
	b.WriteString("| Variant | Impressions | Conversions | Rate | Engagement |\n")
	b.WriteString("|---------|-------------|-------------|------|------------|\n")

	names := make([]string, 0, len(result.Variants))
	for name := range result.Variants {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := result.Variants[name]
		label := name
		if name == result.Winner {
			label = "**" + name + "** 🏆"
		}
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% | %.1f |\n",
			label, m.Impressions, m.Conversions, m.ConversionRate, m.PsychologicalScore))
	}

	b.WriteString("\n")

	// Segment breakdown for the winner, when tracked
	if result.Winner != "" {
		if m, ok := result.Variants[result.Winner]; ok && len(m.SegmentPerformance) > 0 {
			b.WriteString("### Winner Segment Performance\n\n")
			segments := make([]string, 0, len(m.SegmentPerformance))
			for seg := range m.SegmentPerformance {
				segments = append(segments, string(seg))
			}
			sort.Strings(segments)
			for _, seg := range segments {
				b.WriteString(fmt.Sprintf("- **%s**: %.1f%% conversion\n",
					seg, m.SegmentPerformance[models.Segment(seg)]))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
