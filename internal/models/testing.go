// internal/models/testing.go
package models

import "time"

// TestVerdict is the scored outcome of one harness case. Errors are
// counted separately from incorrect answers so transport flakiness
// cannot masquerade as an accuracy regression.
type TestVerdict string

const (
	VerdictCorrect   TestVerdict = "correct"
	VerdictIncorrect TestVerdict = "incorrect"
	VerdictError     TestVerdict = "error"
)

// TestCase is one generated or fixed harness question with its expected
// answer. Category is the canonical field the case exercises.
type TestCase struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	OCRText       string `json:"ocrText,omitempty"`
	ExpectedField string `json:"expectedField"`
	ExpectedValue string `json:"expectedValue"`
	Category      string `json:"category"`
}

// TestResult pairs a case with what the backend actually produced.
type TestResult struct {
	Case    TestCase      `json:"case"`
	Actual  AnswerResult  `json:"actual"`
	Verdict TestVerdict   `json:"verdict"`
	Latency time.Duration `json:"latencyNs"`
	Error   string        `json:"error,omitempty"`
}

// CategoryStats aggregates results for one category. Accuracy is
// correct/(correct+incorrect); errored cases stay out of the denominator.
type CategoryStats struct {
	Category  string  `json:"category"`
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Errors    int     `json:"errors"`
	Accuracy  float64 `json:"accuracy"`
	MeanMs    float64 `json:"meanMs"`
	P50Ms     float64 `json:"p50Ms"`
	P95Ms     float64 `json:"p95Ms"`
	P99Ms     float64 `json:"p99Ms"`
}

// Summary is the machine-readable aggregate of one harness run. The
// regression comparator consumes it; the baseline file stores one.
type Summary struct {
	Version     string                   `json:"version"`
	RunID       string                   `json:"runId"`
	Backend     string                   `json:"backend"`
	GeneratedAt time.Time                `json:"generatedAt"`
	Seed        int64                    `json:"seed"`
	Total       int                      `json:"total"`
	Correct     int                      `json:"correct"`
	Incorrect   int                      `json:"incorrect"`
	Errors      int                      `json:"errors"`
	Accuracy    float64                  `json:"accuracy"`
	MeanMs      float64                  `json:"meanMs"`
	P95Ms       float64                  `json:"p95Ms"`
	Categories  map[string]CategoryStats `json:"categories"`
	Partial     bool                     `json:"partial,omitempty"`
}
