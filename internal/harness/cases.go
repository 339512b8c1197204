// internal/harness/cases.go
package harness

import (
	"encoding/json"
	"fmt"
	"os"

	"dealbot/internal/catalog"
	"dealbot/internal/models"
)

// LoadCases reads a fixed test batch from a JSON file holding an array
// of cases. Fixed batches pin down known regressions that random
// generation would only revisit by chance.
func LoadCases(path string) ([]models.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}

	var cases []models.TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse case file %s: %w", path, err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("case file %s holds no cases", path)
	}

	for i := range cases {
		tc := &cases[i]
		if tc.Question == "" {
			return nil, fmt.Errorf("case %d in %s has no question", i+1, path)
		}
		if tc.ExpectedValue == "" {
			return nil, fmt.Errorf("case %d in %s has no expected value", i+1, path)
		}
		if tc.Category != "" && !catalog.Has(tc.Category) {
			return nil, fmt.Errorf("case %d in %s names unknown category %q", i+1, path, tc.Category)
		}
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("case-%04d", i+1)
		}
	}
	return cases, nil
}
