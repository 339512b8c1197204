// internal/comparator/regression.go
package comparator

import (
	"fmt"
	"sort"
	"strings"

	"dealbot/internal/models"
)

// Thresholds tunes what counts as a regression.
type Thresholds struct {
	AccuracyTolerance float64
	LatencyFactor     float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{AccuracyTolerance: 0.01, LatencyFactor: 1.5}
}

// FindingKind distinguishes accuracy drops from latency blowups.
type FindingKind string

const (
	FindingAccuracy FindingKind = "accuracy"
	FindingLatency  FindingKind = "latency"
)

// Finding is one flagged regression. Baseline and Fresh carry the
// compared values: accuracy ratios or p95 milliseconds.
type Finding struct {
	Category string      `json:"category"`
	Kind     FindingKind `json:"kind"`
	Baseline float64     `json:"baseline"`
	Fresh    float64     `json:"fresh"`
}

func (f Finding) String() string {
	switch f.Kind {
	case FindingLatency:
		return fmt.Sprintf("%s: p95 latency %.1fms vs baseline %.1fms", f.Category, f.Fresh, f.Baseline)
	default:
		return fmt.Sprintf("%s: accuracy %.3f vs baseline %.3f", f.Category, f.Fresh, f.Baseline)
	}
}

// RegressionReport is informational: it never blocks anything and never
// touches the baseline. Promoting a new baseline is a separate,
// explicit action.
type RegressionReport struct {
	FreshBackend    string    `json:"freshBackend"`
	BaselineBackend string    `json:"baselineBackend"`
	Findings        []Finding `json:"findings"`
}

func (r RegressionReport) Regressed() bool {
	return len(r.Findings) > 0
}

// Compare diffs a fresh summary against a stored baseline. A category
// regresses on accuracy when fresh < baseline - tolerance, and on
// latency when fresh p95 > baseline p95 * factor. Categories absent
// from the baseline are new and never flagged.
func Compare(fresh, baseline models.Summary, th Thresholds) RegressionReport {
	report := RegressionReport{
		FreshBackend:    fresh.Backend,
		BaselineBackend: baseline.Backend,
	}

	cats := make([]string, 0, len(baseline.Categories))
	for c := range baseline.Categories {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for _, c := range cats {
		base := baseline.Categories[c]
		cur, ok := fresh.Categories[c]
		if !ok {
			continue
		}
		if cur.Accuracy < base.Accuracy-th.AccuracyTolerance {
			report.Findings = append(report.Findings, Finding{
				Category: c,
				Kind:     FindingAccuracy,
				Baseline: base.Accuracy,
				Fresh:    cur.Accuracy,
			})
		}
		if base.P95Ms > 0 && cur.P95Ms > base.P95Ms*th.LatencyFactor {
			report.Findings = append(report.Findings, Finding{
				Category: c,
				Kind:     FindingLatency,
				Baseline: base.P95Ms,
				Fresh:    cur.P95Ms,
			})
		}
	}

	if fresh.Accuracy < baseline.Accuracy-th.AccuracyTolerance {
		report.Findings = append(report.Findings, Finding{
			Category: "overall",
			Kind:     FindingAccuracy,
			Baseline: baseline.Accuracy,
			Fresh:    fresh.Accuracy,
		})
	}
	if baseline.P95Ms > 0 && fresh.P95Ms > baseline.P95Ms*th.LatencyFactor {
		report.Findings = append(report.Findings, Finding{
			Category: "overall",
			Kind:     FindingLatency,
			Baseline: baseline.P95Ms,
			Fresh:    fresh.P95Ms,
		})
	}
	return report
}

// RenderRegressionReport formats the report for humans.
func RenderRegressionReport(r RegressionReport) string {
	var b strings.Builder
	b.WriteString("# Regression Report\n\n")
	if !r.Regressed() {
		b.WriteString("No regressions against baseline.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d regression(s) against baseline:\n\n", len(r.Findings))
	for _, f := range r.Findings {
		fmt.Fprintf(&b, "- %s\n", f.String())
	}
	return b.String()
}
