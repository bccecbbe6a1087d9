// Package schemas embeds the JSON Schema documents used to validate
// experiment definition files.
package schemas

import _ "embed"

// ExperimentSchemaJSON is the JSON Schema for experiment YAML files.
//
//go:embed experiment.schema.json
var ExperimentSchemaJSON string
