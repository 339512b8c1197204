// internal/harness/harness.go
package harness

import (
	"context"
	"sort"
	"sync"
	"time"

	"dealbot/internal/backend"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"
	"dealbot/internal/common/metrics"
	"dealbot/internal/models"
)

// Harness drives a set of test cases through an answer backend with a
// bounded worker pool. Cancellation stops dispatching new cases but
// lets in-flight ones finish, so a partial run still aggregates cleanly.
type Harness struct {
	backend     backend.Answerer
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
	caseTimeout time.Duration
	log         logger.Logger
}

type Options struct {
	Concurrency int
	MaxRetries  int
	RetryDelay  time.Duration
	CaseTimeout time.Duration
}

func New(b backend.Answerer, opts Options, log logger.Logger) *Harness {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.CaseTimeout <= 0 {
		opts.CaseTimeout = 30 * time.Second
	}
	return &Harness{
		backend:     b,
		concurrency: opts.Concurrency,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
		caseTimeout: opts.CaseTimeout,
		log:         log,
	}
}

// Run executes the cases and returns one result per dispatched case,
// ordered by case ID. When ctx is cancelled mid-run the returned slice
// covers only the dispatched cases; the second return reports whether
// the run completed fully.
func (h *Harness) Run(ctx context.Context, cases []models.TestCase) ([]models.TestResult, bool) {
	jobs := make(chan models.TestCase)
	results := make(chan models.TestResult, len(cases))

	var wg sync.WaitGroup
	for i := 0; i < h.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tc := range jobs {
				results <- h.runCase(ctx, tc)
			}
		}()
	}

	dispatched := 0
	complete := true
dispatch:
	for _, tc := range cases {
		select {
		case <-ctx.Done():
			complete = false
			break dispatch
		case jobs <- tc:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]models.TestResult, 0, dispatched)
	for r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Case.ID < out[j].Case.ID })

	if !complete {
		h.log.Warn("Run cancelled before all cases dispatched", map[string]interface{}{
			"dispatched": dispatched,
			"total":      len(cases),
		})
	}
	return out, complete
}

// runCase executes one case, retrying transport failures with backoff.
// A case that still fails after its retry budget is an error result,
// never a batch abort.
func (h *Harness) runCase(ctx context.Context, tc models.TestCase) models.TestResult {
	metrics.HarnessCasesActive.Inc()
	defer metrics.HarnessCasesActive.Dec()

	q := models.Question{RawText: tc.Question, OCRText: tc.OCRText}

	var actual models.AnswerResult
	var err error
	start := time.Now()
retries:
	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, h.caseTimeout)
		actual, err = h.backend.Answer(callCtx, q)
		cancel()

		if err == nil || attempt >= h.retryBudget(err) {
			break
		}
		select {
		case <-ctx.Done():
			break retries
		case <-time.After(h.retryDelay * time.Duration(1<<attempt)):
		}
	}
	latency := time.Since(start)

	result := models.TestResult{Case: tc, Actual: actual, Latency: latency}
	switch {
	case err != nil:
		result.Verdict = models.VerdictError
		result.Error = err.Error()
	case actual.Status == models.StatusAnswered && actual.Value == tc.ExpectedValue:
		result.Verdict = models.VerdictCorrect
	default:
		result.Verdict = models.VerdictIncorrect
	}

	metrics.HarnessCasesTotal.WithLabelValues(tc.Category, string(result.Verdict)).Inc()
	return result
}

// retryBudget caps attempts by the error's retry policy, bounded by the
// harness-level maximum.
func (h *Harness) retryBudget(err error) int {
	budget := apperrors.GetRetryCount(apperrors.CodeOf(err))
	if budget > h.maxRetries {
		budget = h.maxRetries
	}
	return budget
}
