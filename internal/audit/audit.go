// internal/audit/audit.go

// Package audit records every answered question in Elasticsearch so
// resolution quality can be inspected after the fact. Auditing sits off
// the answer path: a sink failure is logged, never surfaced to the
// caller.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"dealbot/internal/common/database"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/logger"
	"dealbot/internal/models"

	"github.com/google/uuid"
)

// Interaction is one audited question/answer pair.
type Interaction struct {
	ID          string              `json:"id"`
	Question    string              `json:"question"`
	OCRText     string              `json:"ocrText,omitempty"`
	Status      models.AnswerStatus `json:"status"`
	Value       string              `json:"value,omitempty"`
	RecordID    string              `json:"recordId,omitempty"`
	FieldID     string              `json:"fieldId,omitempty"`
	Explanation string              `json:"explanation"`
	Backend     string              `json:"backend"`
	LatencyMs   float64             `json:"latencyMs"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Sink indexes interactions. The no-op implementation backs disabled
// configurations so call sites never branch.
type Sink interface {
	Record(ctx context.Context, in Interaction)
}

type elasticSink struct {
	es    *database.ElasticsearchClient
	index string
	log   logger.Logger
}

// NewElasticSink builds a sink writing to the configured index.
func NewElasticSink(es *database.ElasticsearchClient, index string, log logger.Logger) Sink {
	return &elasticSink{es: es, index: index, log: log}
}

func (s *elasticSink) Record(ctx context.Context, in Interaction) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(in)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode audit interaction", nil)
		return
	}

	if err := s.es.Index(ctx, s.index, bytes.NewReader(body)); err != nil {
		auditErr := apperrors.NewAuditIndexError(err)
		s.log.WithError(auditErr).Warn("Failed to index audit interaction", map[string]interface{}{
			"index": s.index,
			"id":    in.ID,
		})
	}
}

type noopSink struct{}

func (noopSink) Record(context.Context, Interaction) {}

// NewNoopSink returns a sink that drops everything, for configurations
// with auditing disabled and for tests.
func NewNoopSink() Sink {
	return noopSink{}
}
