// internal/harness/harness_test.go
package harness

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"dealbot/internal/backend"
	"dealbot/internal/brain"
	"dealbot/internal/common/config"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"
	"dealbot/internal/models"
	"dealbot/internal/resolver"
	"dealbot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *store.Store {
	return store.New([]store.Record{
		{ID: "10000001", Values: map[string]string{
			"deal_id":          "10000001",
			"customer":         "ACME Corp",
			"part_number":      "X9Y8Z7",
			"remaining_qty":    "25",
			"dealer_net_price": "1234.5",
			"product_family":   "Controllers",
			"end_date":         "2026-03-31",
		}},
		{ID: "10000002", Values: map[string]string{
			"deal_id":          "10000002",
			"customer":         "Globex Industries",
			"part_number":      "B4C5D6",
			"remaining_qty":    "40",
			"dealer_net_price": "2500",
			"product_family":   "Sensors",
			"end_date":         "2026-06-30",
		}},
	})
}

func localBackend(t *testing.T, s *store.Store) backend.Answerer {
	t.Helper()
	b, err := brain.Load(
		config.BrainConfig{SeedEnabled: true},
		config.ResolverConfig{AcceptThreshold: 0.55, FuzzyScale: 0.6, FuzzyMinLen: 4},
		logger.NewTestLogger(t),
	)
	require.NoError(t, err)
	return backend.NewLocal(resolver.New(b, s))
}

func TestGeneratorDeterministic(t *testing.T) {
	s := testSnapshot()

	a, err := NewGenerator(s, 42).Generate(20, "")
	require.NoError(t, err)
	b, err := NewGenerator(s, 42).Generate(20, "")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewGenerator(s, 7).Generate(20, "")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGeneratorCategoryFilter(t *testing.T) {
	cases, err := NewGenerator(testSnapshot(), 1).Generate(10, "dealer_net_price")
	require.NoError(t, err)
	require.Len(t, cases, 10)
	for _, tc := range cases {
		assert.Equal(t, "dealer_net_price", tc.Category)
		assert.NotEmpty(t, tc.ExpectedValue)
	}
}

func TestGeneratorUnknownCategory(t *testing.T) {
	_, err := NewGenerator(testSnapshot(), 1).Generate(5, "margin")
	assert.Error(t, err)
}

func TestGeneratorSkipsUnknownValues(t *testing.T) {
	s := store.New([]store.Record{{ID: "10000001", Values: map[string]string{
		"deal_id":       "10000001",
		"customer":      "ACME Corp",
		"part_number":   "X9Y8Z7",
		"remaining_qty": "unknown",
	}}})

	_, err := NewGenerator(s, 1).Generate(5, "remaining_qty")
	assert.Error(t, err)
}

func TestGeneratorEmitsOCRCarrierCases(t *testing.T) {
	cases, err := NewGenerator(testSnapshot(), 42).Generate(80, "")
	require.NoError(t, err)

	var carriers int
	for _, tc := range cases {
		if tc.OCRText == "" {
			continue
		}
		carriers++
		// The question alone names no record; the reference rides in
		// the OCR text.
		assert.NotContains(t, tc.Question, tc.OCRText)
	}
	assert.Greater(t, carriers, 0)
	assert.Less(t, carriers, len(cases))
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"question": "net price for ACME Corp", "expectedValue": "$1,234.50", "category": "dealer_net_price"},
		{"id": "fixed-ocr", "question": "What's the net price here?", "ocrText": "X9Y8Z7", "expectedValue": "$1,234.50"}
	]`), 0o644))

	cases, err := LoadCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "case-0001", cases[0].ID)
	assert.Equal(t, "fixed-ocr", cases[1].ID)
	assert.Equal(t, "X9Y8Z7", cases[1].OCRText)
}

func TestLoadCasesRejectsBadBatches(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"empty array", `[]`},
		{"missing question", `[{"expectedValue": "25"}]`},
		{"missing expected value", `[{"question": "qty?"}]`},
		{"unknown category", `[{"question": "q", "expectedValue": "v", "category": "margin"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cases.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadCases(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadCases(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestRunAgainstLocalBackend(t *testing.T) {
	s := testSnapshot()
	cases, err := NewGenerator(s, 42).Generate(40, "")
	require.NoError(t, err)

	h := New(localBackend(t, s), Options{Concurrency: 4}, logger.NewTestLogger(t))
	results, complete := h.Run(context.Background(), cases)

	assert.True(t, complete)
	require.Len(t, results, len(cases))

	summary := Summarize(results, "local", 42, !complete)
	// Generated questions must resolve correctly through the whole stack.
	assert.Equal(t, 1.0, summary.Accuracy, "incorrect cases: %+v", incorrectOf(results))
	assert.Zero(t, summary.Errors)
}

func incorrectOf(results []models.TestResult) []models.TestResult {
	var out []models.TestResult
	for _, r := range results {
		if r.Verdict != models.VerdictCorrect {
			out = append(out, r)
		}
	}
	return out
}

// erroringBackend fails a fixed number of times per question before
// answering, always with a transport error.
type erroringBackend struct {
	failures  int32
	permanent bool
}

func (e *erroringBackend) Name() string { return "erroring" }

func (e *erroringBackend) Answer(_ context.Context, q models.Question) (models.AnswerResult, error) {
	if e.permanent || atomic.AddInt32(&e.failures, -1) >= 0 {
		return models.AnswerResult{}, apperrors.NewTransportError("test", assert.AnError)
	}
	return models.AnswerResult{Status: models.StatusAnswered, Value: "ok"}, nil
}

func TestRunMarksTransportFailuresAsErrors(t *testing.T) {
	h := New(&erroringBackend{permanent: true}, Options{
		Concurrency: 1,
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
	}, logger.NewTestLogger(t))

	cases := []models.TestCase{
		{ID: "case-0001", Question: "q", ExpectedValue: "ok", Category: "customer"},
	}
	results, complete := h.Run(context.Background(), cases)
	assert.True(t, complete)
	require.Len(t, results, 1)
	assert.Equal(t, models.VerdictError, results[0].Verdict)
	assert.NotEmpty(t, results[0].Error)
}

func TestRunRetriesTransportErrors(t *testing.T) {
	h := New(&erroringBackend{failures: 1}, Options{
		Concurrency: 1,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
	}, logger.NewTestLogger(t))

	cases := []models.TestCase{
		{ID: "case-0001", Question: "q", ExpectedValue: "ok", Category: "customer"},
	}
	results, _ := h.Run(context.Background(), cases)
	require.Len(t, results, 1)
	assert.Equal(t, models.VerdictCorrect, results[0].Verdict)
}

// slowBackend blocks long enough for cancellation to land mid-run.
type slowBackend struct {
	delay time.Duration
}

func (s *slowBackend) Name() string { return "slow" }

func (s *slowBackend) Answer(ctx context.Context, q models.Question) (models.AnswerResult, error) {
	select {
	case <-ctx.Done():
		return models.AnswerResult{}, apperrors.NewTransportError("slow", ctx.Err())
	case <-time.After(s.delay):
		return models.AnswerResult{Status: models.StatusAnswered, Value: "ok"}, nil
	}
}

func TestRunCancellationKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New(&slowBackend{delay: 50 * time.Millisecond}, Options{Concurrency: 1}, logger.NewTestLogger(t))

	cases := make([]models.TestCase, 20)
	for i := range cases {
		cases[i] = models.TestCase{ID: "case-" + string(rune('a'+i)), Question: "q", ExpectedValue: "ok", Category: "customer"}
	}

	go func() {
		time.Sleep(120 * time.Millisecond)
		cancel()
	}()

	results, complete := h.Run(ctx, cases)
	assert.False(t, complete)
	assert.NotEmpty(t, results)
	assert.Less(t, len(results), len(cases))
}

func TestSummarize(t *testing.T) {
	results := []models.TestResult{
		{Case: models.TestCase{ID: "a", Category: "customer"}, Verdict: models.VerdictCorrect, Latency: 10 * time.Millisecond},
		{Case: models.TestCase{ID: "b", Category: "customer"}, Verdict: models.VerdictIncorrect, Latency: 20 * time.Millisecond},
		{Case: models.TestCase{ID: "c", Category: "end_date"}, Verdict: models.VerdictCorrect, Latency: 30 * time.Millisecond},
		{Case: models.TestCase{ID: "d", Category: "end_date"}, Verdict: models.VerdictError, Latency: 40 * time.Millisecond},
	}

	s := Summarize(results, "local", 42, false)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Correct)
	assert.Equal(t, 1, s.Incorrect)
	assert.Equal(t, 1, s.Errors)
	// Errors stay out of the accuracy denominator.
	assert.InDelta(t, 2.0/3.0, s.Accuracy, 1e-9)

	cust := s.Categories["customer"]
	assert.Equal(t, 2, cust.Total)
	assert.InDelta(t, 0.5, cust.Accuracy, 1e-9)
}

func TestSummarizeOrderIndependent(t *testing.T) {
	results := []models.TestResult{
		{Case: models.TestCase{ID: "a", Category: "customer"}, Verdict: models.VerdictCorrect, Latency: 10 * time.Millisecond},
		{Case: models.TestCase{ID: "b", Category: "end_date"}, Verdict: models.VerdictIncorrect, Latency: 20 * time.Millisecond},
		{Case: models.TestCase{ID: "c", Category: "customer"}, Verdict: models.VerdictCorrect, Latency: 30 * time.Millisecond},
	}
	reversed := []models.TestResult{results[2], results[1], results[0]}

	a := Summarize(results, "local", 1, false)
	b := Summarize(reversed, "local", 1, false)
	a.GeneratedAt = b.GeneratedAt
	a.RunID = b.RunID
	assert.Equal(t, a, b)
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	assert.Equal(t, 50.0, percentile(values, 50))
	assert.Equal(t, 100.0, percentile(values, 95))
	assert.Equal(t, 10.0, percentile(values, 1))
	assert.Equal(t, 0.0, percentile(nil, 95))
}

func TestSaveWritesReports(t *testing.T) {
	dir := t.TempDir()
	results := []models.TestResult{
		{Case: models.TestCase{ID: "a", Category: "customer", Question: "who?", ExpectedValue: "ACME Corp"},
			Actual:  models.AnswerResult{Status: models.StatusNoMatch},
			Verdict: models.VerdictIncorrect, Latency: 5 * time.Millisecond},
	}
	s := Summarize(results, "local", 9, false)

	jsonPath, mdPath, err := Save(s, results, dir)
	require.NoError(t, err)
	assert.FileExists(t, jsonPath)
	assert.FileExists(t, mdPath)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "Total: 1")
	assert.Contains(t, string(md), "Pass rate: 0.0%")
	assert.Contains(t, string(md), "## Failures")
}
