// internal/comparator/comparator_test.go
package comparator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dealbot/internal/backend"
	"dealbot/internal/common/logger"
	"dealbot/internal/harness"
	"dealbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryWith(backendName string, accuracy, p95 float64, categories map[string]models.CategoryStats) models.Summary {
	return models.Summary{
		Backend:    backendName,
		Accuracy:   accuracy,
		P95Ms:      p95,
		Categories: categories,
	}
}

func TestCompareFlagsAccuracyRegression(t *testing.T) {
	baseline := summaryWith("local", 0.99, 10, map[string]models.CategoryStats{
		"dealer_net_price": {Category: "dealer_net_price", Accuracy: 0.99, P95Ms: 10},
	})
	fresh := summaryWith("local", 0.97, 10, map[string]models.CategoryStats{
		"dealer_net_price": {Category: "dealer_net_price", Accuracy: 0.97, P95Ms: 10},
	})

	report := Compare(fresh, baseline, Thresholds{AccuracyTolerance: 0.01, LatencyFactor: 1.5})
	require.True(t, report.Regressed())

	var categoryFlagged bool
	for _, f := range report.Findings {
		if f.Category == "dealer_net_price" {
			categoryFlagged = true
			assert.Equal(t, FindingAccuracy, f.Kind)
			assert.Equal(t, 0.99, f.Baseline)
			assert.Equal(t, 0.97, f.Fresh)
		}
	}
	assert.True(t, categoryFlagged)
}

func TestCompareWithinToleranceIsClean(t *testing.T) {
	baseline := summaryWith("local", 0.99, 10, map[string]models.CategoryStats{
		"customer": {Category: "customer", Accuracy: 0.99, P95Ms: 10},
	})
	fresh := summaryWith("local", 0.985, 11, map[string]models.CategoryStats{
		"customer": {Category: "customer", Accuracy: 0.985, P95Ms: 11},
	})

	report := Compare(fresh, baseline, Thresholds{AccuracyTolerance: 0.01, LatencyFactor: 1.5})
	assert.False(t, report.Regressed())
}

func TestCompareFlagsLatencyRegression(t *testing.T) {
	baseline := summaryWith("local", 0.99, 10, map[string]models.CategoryStats{
		"end_date": {Category: "end_date", Accuracy: 0.99, P95Ms: 10},
	})
	fresh := summaryWith("local", 0.99, 20, map[string]models.CategoryStats{
		"end_date": {Category: "end_date", Accuracy: 0.99, P95Ms: 20},
	})

	report := Compare(fresh, baseline, Thresholds{AccuracyTolerance: 0.01, LatencyFactor: 1.5})
	require.True(t, report.Regressed())
	for _, f := range report.Findings {
		assert.Equal(t, FindingLatency, f.Kind)
	}
}

func TestCompareIgnoresNewCategories(t *testing.T) {
	baseline := summaryWith("local", 0.9, 10, map[string]models.CategoryStats{})
	fresh := summaryWith("local", 0.9, 10, map[string]models.CategoryStats{
		"deal_id": {Category: "deal_id", Accuracy: 0.2, P95Ms: 500},
	})

	report := Compare(fresh, baseline, DefaultThresholds())
	assert.False(t, report.Regressed())
}

func TestDisagreementRate(t *testing.T) {
	mk := func(id string, status models.AnswerStatus, value string) models.TestResult {
		return models.TestResult{
			Case:   models.TestCase{ID: id},
			Actual: models.AnswerResult{Status: status, Value: value},
		}
	}

	var a, b []models.TestResult
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		a = append(a, mk(id, models.StatusAnswered, "same"))
		if i < 3 {
			b = append(b, mk(id, models.StatusAnswered, "different"))
		} else {
			b = append(b, mk(id, models.StatusAnswered, "same"))
		}
	}

	// 2 backends disagreeing on 3 of 10 shared questions.
	assert.InDelta(t, 0.3, DisagreementRate(a, b), 1e-9)
	assert.Zero(t, DisagreementRate(a, nil))
}

// scriptedBackend answers from a fixed table.
type scriptedBackend struct {
	name    string
	answers map[string]string
}

func (s *scriptedBackend) Name() string { return s.name }

func (s *scriptedBackend) Answer(_ context.Context, q models.Question) (models.AnswerResult, error) {
	if v, ok := s.answers[q.RawText]; ok {
		return models.AnswerResult{Status: models.StatusAnswered, Value: v}, nil
	}
	return models.AnswerResult{Status: models.StatusNoMatch, Explanation: "no"}, nil
}

func TestRunBackendsSharedPool(t *testing.T) {
	cases := []models.TestCase{
		{ID: "case-0001", Question: "q1", ExpectedValue: "v1", Category: "customer"},
		{ID: "case-0002", Question: "q2", ExpectedValue: "v2", Category: "customer"},
	}

	good := &scriptedBackend{name: "good", answers: map[string]string{"q1": "v1", "q2": "v2"}}
	bad := &scriptedBackend{name: "bad", answers: map[string]string{"q1": "v1", "q2": "wrong"}}

	for _, concurrent := range []bool{false, true} {
		runs := RunBackends(context.Background(), []backend.Answerer{good, bad}, cases,
			harness.Options{Concurrency: 2, CaseTimeout: time.Second}, concurrent, 1, logger.NewTestLogger(t))

		require.Len(t, runs, 2)
		assert.Equal(t, "good", runs[0].Backend)
		assert.Equal(t, 1.0, runs[0].Summary.Accuracy)
		assert.InDelta(t, 0.5, runs[1].Summary.Accuracy, 1e-9)
		assert.InDelta(t, 0.5, DisagreementRate(runs[0].Results, runs[1].Results), 1e-9)
	}
}

func TestRunBackendsSummariesPersistPerModel(t *testing.T) {
	cases := []models.TestCase{
		{ID: "case-0001", Question: "q1", ExpectedValue: "v1", Category: "customer"},
	}
	good := &scriptedBackend{name: "good", answers: map[string]string{"q1": "v1"}}
	bad := &scriptedBackend{name: "bad", answers: map[string]string{}}

	runs := RunBackends(context.Background(), []backend.Answerer{good, bad}, cases,
		harness.Options{Concurrency: 1, CaseTimeout: time.Second}, false, 1, logger.NewTestLogger(t))

	// Each run's summary saves into its own subfolder, the layout the
	// comparison tool emits alongside the ranked report.
	dir := t.TempDir()
	for _, run := range runs {
		jsonPath, mdPath, err := harness.Save(run.Summary, run.Results, filepath.Join(dir, run.Backend))
		require.NoError(t, err)
		assert.FileExists(t, jsonPath)
		assert.FileExists(t, mdPath)
		assert.Equal(t, filepath.Join(dir, run.Backend, "summary.json"), jsonPath)
	}
}

func TestRenderComparisonRanksByAccuracy(t *testing.T) {
	runs := []BackendRun{
		{Backend: "weak", Summary: models.Summary{Total: 10, Correct: 5, Accuracy: 0.5}},
		{Backend: "strong", Summary: models.Summary{Total: 10, Correct: 9, Accuracy: 0.9}},
	}

	out := RenderComparison(runs, "strong")
	strongIdx := strings.Index(out, "| strong |")
	weakIdx := strings.Index(out, "| weak |")
	require.GreaterOrEqual(t, strongIdx, 0)
	require.GreaterOrEqual(t, weakIdx, 0)
	assert.Less(t, strongIdx, weakIdx)
	assert.Contains(t, out, "reference")
}

func TestStartServerFailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 'false' exits immediately; health polling must give up within the
	// start timeout and report a startup error.
	_, err := StartServer(ctx, "dead", []string{"false"}, "http://127.0.0.1:1", 2*time.Second, logger.NewTestLogger(t))
	assert.Error(t, err)
}
