// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealbot_questions_total",
			Help: "Total number of questions answered, by result status",
		},
		[]string{"status"},
	)

	QuestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dealbot_question_duration_seconds",
			Help: "Duration of question resolution in seconds",
		},
		[]string{"status"},
	)

	AnswerCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealbot_answer_cache_total",
			Help: "Answer cache lookups, by outcome (hit/miss)",
		},
		[]string{"outcome"},
	)

	HarnessCasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealbot_harness_cases_total",
			Help: "Harness test cases executed, by verdict",
		},
		[]string{"category", "verdict"},
	)

	HarnessCasesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dealbot_harness_cases_active",
			Help: "Number of harness cases currently in flight",
		},
	)
)
