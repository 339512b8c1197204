// internal/backend/backend.go
package backend

import (
	"context"

	"dealbot/internal/models"
)

// Answerer is the single capability all answer backends implement. The
// harness and comparators depend only on this, never on which backend
// is behind it.
type Answerer interface {
	Name() string
	Answer(ctx context.Context, q models.Question) (models.AnswerResult, error)
}
