package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/splitlab/internal/models"
)

// WriteResultJSON writes the final result to path as indented JSON. Parent
// directories are created automatically.
func WriteResultJSON(path string, result *models.ExperimentResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// LoadResultJSON reads a result previously written by WriteResultJSON.
func LoadResultJSON(path string) (*models.ExperimentResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}

	var result models.ExperimentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &result, nil
}
