// internal/harness/summary.go
package harness

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dealbot/internal/models"

	"github.com/google/uuid"
)

// Summarize aggregates results into the machine-readable summary. The
// computation treats results as a multiset: it depends only on what is
// in the slice, never on arrival order.
func Summarize(results []models.TestResult, backendName string, seed int64, partial bool) models.Summary {
	s := models.Summary{
		Version:     "1.0",
		RunID:       uuid.NewString(),
		Backend:     backendName,
		GeneratedAt: time.Now().UTC(),
		Seed:        seed,
		Total:       len(results),
		Categories:  make(map[string]models.CategoryStats),
		Partial:     partial,
	}

	byCategory := make(map[string][]models.TestResult)
	var allLatencies []float64
	for _, r := range results {
		byCategory[r.Case.Category] = append(byCategory[r.Case.Category], r)
		allLatencies = append(allLatencies, float64(r.Latency.Microseconds())/1000.0)

		switch r.Verdict {
		case models.VerdictCorrect:
			s.Correct++
		case models.VerdictIncorrect:
			s.Incorrect++
		case models.VerdictError:
			s.Errors++
		}
	}

	if scored := s.Correct + s.Incorrect; scored > 0 {
		s.Accuracy = float64(s.Correct) / float64(scored)
	}
	s.MeanMs = mean(allLatencies)
	s.P95Ms = percentile(allLatencies, 95)

	for cat, rs := range byCategory {
		s.Categories[cat] = categoryStats(cat, rs)
	}
	return s
}

func categoryStats(category string, results []models.TestResult) models.CategoryStats {
	cs := models.CategoryStats{Category: category, Total: len(results)}
	var latencies []float64
	for _, r := range results {
		latencies = append(latencies, float64(r.Latency.Microseconds())/1000.0)
		switch r.Verdict {
		case models.VerdictCorrect:
			cs.Correct++
		case models.VerdictIncorrect:
			cs.Incorrect++
		case models.VerdictError:
			cs.Errors++
		}
	}
	if scored := cs.Correct + cs.Incorrect; scored > 0 {
		cs.Accuracy = float64(cs.Correct) / float64(scored)
	}
	cs.MeanMs = mean(latencies)
	cs.P50Ms = percentile(latencies, 50)
	cs.P95Ms = percentile(latencies, 95)
	cs.P99Ms = percentile(latencies, 99)
	return cs
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile uses the nearest-rank method on a sorted copy.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p/100.0*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Save writes summary.json plus a timestamped human-readable markdown
// report into folder, returning both paths.
func Save(s models.Summary, results []models.TestResult, folder string) (string, string, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", "", err
	}

	jsonPath := filepath.Join(folder, "summary.json")
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", err
	}

	mdPath := filepath.Join(folder, fmt.Sprintf("summary_%s.md", s.GeneratedAt.Format("20060102_150405")))
	if err := os.WriteFile(mdPath, []byte(renderMarkdown(s, results)), 0o644); err != nil {
		return "", "", err
	}
	return jsonPath, mdPath, nil
}

func renderMarkdown(s models.Summary, results []models.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Test Summary: %s\n\n", s.Backend)
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Seed: %d\n\n", s.Seed)
	fmt.Fprintf(&b, "Total: %d\n", s.Total)
	fmt.Fprintf(&b, "Passed: %d\n", s.Correct)
	fmt.Fprintf(&b, "Failed: %d\n", s.Incorrect)
	fmt.Fprintf(&b, "Errors: %d\n", s.Errors)
	fmt.Fprintf(&b, "Pass rate: %.1f%%\n", s.Accuracy*100)
	fmt.Fprintf(&b, "Mean latency: %.1f ms\n", s.MeanMs)
	fmt.Fprintf(&b, "P95 latency: %.1f ms\n", s.P95Ms)
	if s.Partial {
		b.WriteString("\n**Partial run**: cancelled before all cases were dispatched.\n")
	}

	b.WriteString("\n## Per-category\n\n")
	b.WriteString("| Category | Total | Correct | Incorrect | Errors | Accuracy | P95 ms |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	cats := make([]string, 0, len(s.Categories))
	for c := range s.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		cs := s.Categories[c]
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %.1f%% | %.1f |\n",
			c, cs.Total, cs.Correct, cs.Incorrect, cs.Errors, cs.Accuracy*100, cs.P95Ms)
	}

	var failures []models.TestResult
	for _, r := range results {
		if r.Verdict != models.VerdictCorrect {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, r := range failures {
			fmt.Fprintf(&b, "- `%s` [%s] %q: expected %q, got status=%s value=%q",
				r.Case.ID, r.Case.Category, r.Case.Question, r.Case.ExpectedValue, r.Actual.Status, r.Actual.Value)
			if r.Error != "" {
				fmt.Fprintf(&b, " (error: %s)", r.Error)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
