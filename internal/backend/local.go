// internal/backend/local.go
package backend

import (
	"context"

	"dealbot/internal/models"
	"dealbot/internal/resolver"
)

// Local answers in-process through the resolver. It never returns an
// error: resolution failures are statuses, not transport faults.
type Local struct {
	resolver *resolver.Resolver
}

func NewLocal(r *resolver.Resolver) *Local {
	return &Local{resolver: r}
}

func (l *Local) Name() string {
	return "local"
}

func (l *Local) Answer(_ context.Context, q models.Question) (models.AnswerResult, error) {
	return l.resolver.Answer(q), nil
}
