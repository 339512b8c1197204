// internal/backend/remote.go
package backend

import (
	"context"
	"fmt"
	"time"

	"dealbot/internal/common/config"
	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/httpclient"
	"dealbot/internal/models"
)

// Remote answers through a running answer server's /ask endpoint. The
// harness uses it to test an externally-hosted instance.
type Remote struct {
	name   string
	url    string
	client *httpclient.Client
}

type askRequest struct {
	Question string `json:"question"`
	OCRText  string `json:"ocrText,omitempty"`
}

func NewRemote(name string, cfg config.RemoteConfig) *Remote {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		name:   name,
		url:    cfg.URL,
		client: httpclient.NewClient(timeout, cfg.MaxRetries, 500*time.Millisecond),
	}
}

func (r *Remote) Name() string {
	return r.name
}

func (r *Remote) Answer(ctx context.Context, q models.Question) (models.AnswerResult, error) {
	var result models.AnswerResult
	err := r.client.PostJSON(ctx, r.url+"/ask", askRequest{Question: q.RawText, OCRText: q.OCRText}, &result)
	if err != nil {
		return models.AnswerResult{}, apperrors.NewTransportError(r.url, err)
	}
	if result.Status == "" {
		return models.AnswerResult{}, apperrors.NewTransportError(r.url, fmt.Errorf("response missing status"))
	}
	return result, nil
}
