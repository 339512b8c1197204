// pkg/baseline/baseline.go

// Package baseline persists accepted test summaries for regression
// comparison. Regression runs only ever read a baseline; promotion is
// the explicit action implemented here, never a side effect of a run.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/models"
)

// Load reads a previously promoted baseline summary.
func Load(path string) (models.Summary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Summary{}, apperrors.NewBaselineLoadError(path, err)
	}

	var s models.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return models.Summary{}, apperrors.NewBaselineLoadError(path, err)
	}
	if s.Total == 0 {
		return models.Summary{}, apperrors.NewBaselineLoadError(path, fmt.Errorf("baseline has no cases"))
	}
	return s, nil
}

// Save promotes a summary to the baseline at path. An existing baseline
// is never overwritten unless force is set.
func Save(s models.Summary, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("baseline %s already exists; pass force to replace it", path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
