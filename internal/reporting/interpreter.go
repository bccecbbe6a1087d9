package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spboyer/splitlab/internal/metrics"
	"github.com/spboyer/splitlab/internal/models"
)

// InterpretConfidence returns a plain-language label for a confidence
// percentage.
func InterpretConfidence(confidence float64) string {
	switch {
	case confidence > 99:
		return "Decisive (>99%)"
	case confidence > 95:
		return "Significant (>95%)"
	case confidence >= 80:
		return "Suggestive (80-95%) — not yet conclusive"
	default:
		return "Inconclusive (<80%)"
	}
}

// InterpretReason explains why the experiment stopped.
func InterpretReason(reason models.CompletionReason) string {
	switch reason {
	case models.CompletionSignificance:
		return "The experiment found a statistically significant winner."
	case models.CompletionMaxDuration:
		return "The experiment ran out of time before reaching significance."
	case models.CompletionSampleCap:
		return "The sample cap was reached without a significant difference — the variants likely perform similarly."
	case models.CompletionAborted:
		return "The experiment was aborted before completion."
	default:
		return string(reason)
	}
}

// InterpretLift describes the relative conversion difference between the
// winner and the runner-up.
func InterpretLift(winnerRate, otherRate float64) string {
	if otherRate == 0 {
		if winnerRate == 0 {
			return "No conversions recorded for either variant."
		}
		return "Only the winning variant converted at all."
	}
	lift := (winnerRate - otherRate) / otherRate * 100
	return fmt.Sprintf("%.1f%% relative lift over the runner-up", lift)
}

// FormatSummaryReport produces a full plain-language report from a final
// experiment result.
func FormatSummaryReport(result *models.ExperimentResult) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")

	b.WriteString(fmt.Sprintf("Experiment:  %s\n", result.Name))
	b.WriteString(fmt.Sprintf("Stopped:     %s\n", InterpretReason(result.Reason)))
	b.WriteString(fmt.Sprintf("Confidence:  %.1f%% — %s\n", result.Confidence, InterpretConfidence(result.Confidence)))
	if result.Winner != "" {
		b.WriteString(fmt.Sprintf("Winner:      %s\n", result.Winner))
	} else {
		b.WriteString("Winner:      none\n")
	}
	b.WriteString(fmt.Sprintf("Samples:     %d subjects over %v\n", result.TotalSampleSize, result.Duration))
	if len(result.Variants) > 1 {
		rates := make([]float64, 0, len(result.Variants))
		for _, m := range result.Variants {
			rates = append(rates, m.ConversionRate)
		}
		b.WriteString(fmt.Sprintf("Spread:      %.1f%% mean conversion, %.1f pt std dev across variants\n",
			metrics.Mean(rates), metrics.StdDev(rates)))
	}
	b.WriteString(fmt.Sprintf("Next step:   %s\n", result.RecommendedAction))

	if len(result.Variants) > 0 {
		b.WriteString("\nPer-Variant Interpretation:\n")
		for _, name := range sortedVariants(result.Variants) {
			m := result.Variants[name]
			icon := " "
			if name == result.Winner {
				icon = "★"
			}
			b.WriteString(fmt.Sprintf("  %s %s: %d impressions, %.1f%% engagement, %.1f%% conversion\n",
				icon, name, m.Impressions, m.EngagementRate, m.ConversionRate))
			if m.AvgTimeToConversion > 0 {
				b.WriteString(fmt.Sprintf("    Avg time to conversion: %v\n", m.AvgTimeToConversion))
			}
			if len(m.SegmentPerformance) > 0 {
				b.WriteString(fmt.Sprintf("    Segment conversion: %s\n", formatSegments(m.SegmentPerformance)))
			}
		}
	}

	return b.String()
}

func sortedVariants(variants map[string]models.VariantMetrics) []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatSegments(perf map[models.Segment]float64) string {
	segments := make([]string, 0, len(perf))
	for seg := range perf {
		segments = append(segments, string(seg))
	}
	sort.Strings(segments)

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", seg, perf[models.Segment(seg)]))
	}
	return strings.Join(parts, ", ")
}
