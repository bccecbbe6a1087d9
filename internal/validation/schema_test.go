package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validExperimentYAML = `name: hero-copy
description: Landing page hero copy test
variants:
  - control
  - treatment
traffic_split: 0.5
min_sample_size: 100
max_duration_seconds: 604800
scoring: true
segment_tracking: true
content:
  treatment:
    hero: "Ship faster with splitlab"
    cta: "Start free trial"
sinks:
  - type: jsonl
    config:
      path: logs/hero-copy.jsonl
`

const invalidExperimentYAML = `name: hero-copy
variants:
  - control
traffic_split: 1.5
min_sample_size: 0
max_duration_seconds: 604800
sinks:
  - type: kafka
`

func TestValidateExperimentBytes_Valid(t *testing.T) {
	errs := ValidateExperimentBytes([]byte(validExperimentYAML))
	require.Empty(t, errs, "valid experiment should have no errors")
}

func TestValidateExperimentBytes_Invalid(t *testing.T) {
	errs := ValidateExperimentBytes([]byte(invalidExperimentYAML))
	require.NotEmpty(t, errs, "invalid experiment should have errors")

	joined := joinErrs(errs)
	require.Contains(t, joined, "/variants")
	require.Contains(t, joined, "/traffic_split")
	require.Contains(t, joined, "/min_sample_size")
}

func TestValidateExperimentBytes_MissingRequired(t *testing.T) {
	errs := ValidateExperimentBytes([]byte(`description: no name or variants`))
	require.NotEmpty(t, errs)
}

func TestValidateExperimentBytes_UnknownField(t *testing.T) {
	yaml := validExperimentYAML + "unknown_field: true\n"
	errs := ValidateExperimentBytes([]byte(yaml))
	require.NotEmpty(t, errs, "unknown top-level fields should be rejected")
}

func TestValidateExperimentBytes_MalformedYAML(t *testing.T) {
	errs := ValidateExperimentBytes([]byte("name: [unclosed"))
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "YAML parse error")
}

func TestValidateExperimentFile_Valid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validExperimentYAML), 0644))

	errs, err := ValidateExperimentFile(path)
	require.NoError(t, err)
	require.Empty(t, errs, "valid experiment file should have no errors")
}

func TestValidateExperimentFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(invalidExperimentYAML), 0644))

	errs, err := ValidateExperimentFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, errs, "invalid experiment should return errors")
}

func TestValidateExperimentFile_NotFound(t *testing.T) {
	_, err := ValidateExperimentFile("/nonexistent/experiment.yaml")
	require.Error(t, err)
}

func joinErrs(errs []string) string {
	result := ""
	for _, e := range errs {
		result += e + "\n"
	}
	return result
}
