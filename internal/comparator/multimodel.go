// internal/comparator/multimodel.go
package comparator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dealbot/internal/backend"
	"dealbot/internal/common/logger"
	"dealbot/internal/harness"
	"dealbot/internal/models"
)

// BackendRun is one backend's pass over the shared case pool.
type BackendRun struct {
	Backend string
	Summary models.Summary
	Results []models.TestResult
}

// RunBackends drives the identical case pool through every backend.
// Sequential mode avoids resource contention between heavyweight local
// models; concurrent mode suits independent network endpoints.
func RunBackends(ctx context.Context, backends []backend.Answerer, cases []models.TestCase, opts harness.Options, concurrent bool, seed int64, log logger.Logger) []BackendRun {
	runs := make([]BackendRun, len(backends))

	runOne := func(i int, b backend.Answerer) {
		h := harness.New(b, opts, log)
		results, complete := h.Run(ctx, cases)
		runs[i] = BackendRun{
			Backend: b.Name(),
			Summary: harness.Summarize(results, b.Name(), seed, !complete),
			Results: results,
		}
	}

	if concurrent {
		var wg sync.WaitGroup
		for i, b := range backends {
			wg.Add(1)
			go func(i int, b backend.Answerer) {
				defer wg.Done()
				runOne(i, b)
			}(i, b)
		}
		wg.Wait()
	} else {
		for i, b := range backends {
			runOne(i, b)
		}
	}
	return runs
}

// DisagreementRate computes the fraction of shared cases where two
// backends produced a different status or value. Cases present in only
// one run are ignored.
func DisagreementRate(a, b []models.TestResult) float64 {
	byID := make(map[string]models.AnswerResult, len(a))
	for _, r := range a {
		byID[r.Case.ID] = r.Actual
	}

	shared, disagreements := 0, 0
	for _, r := range b {
		other, ok := byID[r.Case.ID]
		if !ok {
			continue
		}
		shared++
		if other.Status != r.Actual.Status || other.Value != r.Actual.Value {
			disagreements++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(disagreements) / float64(shared)
}

// RenderComparison builds the ranked comparison table: accuracy,
// latency, and disagreement with the designated reference backend.
func RenderComparison(runs []BackendRun, reference string) string {
	var ref *BackendRun
	for i := range runs {
		if runs[i].Backend == reference {
			ref = &runs[i]
			break
		}
	}

	ranked := make([]BackendRun, len(runs))
	copy(ranked, runs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Summary.Accuracy != ranked[j].Summary.Accuracy {
			return ranked[i].Summary.Accuracy > ranked[j].Summary.Accuracy
		}
		return ranked[i].Summary.P95Ms < ranked[j].Summary.P95Ms
	})

	var b strings.Builder
	b.WriteString("# Model Comparison\n\n")
	b.WriteString("| Backend | Total | Correct | Accuracy | P95 ms | Disagreement |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, run := range ranked {
		disagreement := "-"
		if ref != nil && run.Backend != ref.Backend {
			disagreement = fmt.Sprintf("%.2f", DisagreementRate(ref.Results, run.Results))
		} else if ref != nil {
			disagreement = "reference"
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %.1f%% | %.1f | %s |\n",
			run.Backend, run.Summary.Total, run.Summary.Correct,
			run.Summary.Accuracy*100, run.Summary.P95Ms, disagreement)
	}
	return b.String()
}
