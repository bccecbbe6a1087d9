package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spboyer/splitlab/internal/models"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1m30s", formatDuration(90*time.Second))
}

func TestFormatGitHubComment_Decided(t *testing.T) {
	result := &models.ExperimentResult{
		Name:            "hero-copy",
		Winner:          "control",
		Confidence:      98.6,
		TotalSampleSize: 300,
		Reason:          models.CompletionSignificance,
		Duration:        90 * time.Second,
		Variants: map[string]models.VariantMetrics{
			"control": {
				Impressions: 150, Conversions: 60, ConversionRate: 40, PsychologicalScore: 55,
				SegmentPerformance: map[models.Segment]float64{models.SegmentAnalytical: 44},
			},
			"treatment": {Impressions: 150, Conversions: 40, ConversionRate: 26.7, PsychologicalScore: 48},
		},
		RecommendedAction: "implement control",
	}

	comment := FormatGitHubComment(result)

	assert.Contains(t, comment, "## 🧪 Splitlab Experiment Results")
	assert.Contains(t, comment, "✅ Decided")
	assert.Contains(t, comment, "**Confidence:** 98.6%")
	assert.Contains(t, comment, "| **control** 🏆 | 150 | 60 | 40.0% | 55.0 |")
	assert.Contains(t, comment, "| treatment | 150 | 40 | 26.7% | 48.0 |")
	assert.Contains(t, comment, "implement control")
	assert.Contains(t, comment, "Winner Segment Performance")
	assert.Contains(t, comment, "**analytical**: 44.0% conversion")
}

func TestFormatGitHubComment_Inconclusive(t *testing.T) {
	result := &models.ExperimentResult{
		Name:              "hero-copy",
		TotalSampleSize:   30,
		Reason:            models.CompletionAborted,
		Variants:          map[string]models.VariantMetrics{"control": {}, "treatment": {}},
		RecommendedAction: "continue testing, need 20 more samples",
	}

	comment := FormatGitHubComment(result)

	assert.Contains(t, comment, "⚠️ Inconclusive")
	assert.NotContains(t, comment, "🏆")
	assert.NotContains(t, comment, "Winner Segment Performance")
}
