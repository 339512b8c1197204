// internal/alerts/alerts.go

// Package alerts notifies operators when a regression run flags
// findings. Delivery failures are reported to the caller but alerting
// never blocks or mutates anything in the comparison itself.
package alerts

import (
	"context"
	"fmt"

	"dealbot/internal/common/aws"
	"dealbot/internal/common/config"
	"dealbot/internal/common/logger"
	"dealbot/internal/comparator"
)

// Notifier delivers a regression report to the configured channels.
type Notifier struct {
	cfg config.AlertsConfig
	ses *aws.SESClient
	sns *aws.SNSClient
	log logger.Logger
}

func NewNotifier(ctx context.Context, cfg config.AlertsConfig, log logger.Logger) (*Notifier, error) {
	n := &Notifier{cfg: cfg, log: log}

	if cfg.FromEmail != "" && cfg.ToEmail != "" {
		sesClient, err := aws.NewSESClient(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		n.ses = sesClient
	}
	if cfg.SNSTopic != "" {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		n.sns = snsClient
	}
	return n, nil
}

// NotifyRegression sends the report over every configured channel and
// returns the first delivery error, if any.
func (n *Notifier) NotifyRegression(ctx context.Context, report comparator.RegressionReport) error {
	if !report.Regressed() {
		return nil
	}

	subject := fmt.Sprintf("Deal answer engine: %d regression(s) against baseline", len(report.Findings))
	body := comparator.RenderRegressionReport(report)

	var firstErr error
	if n.ses != nil {
		if err := n.ses.SendReport(ctx, n.cfg.FromEmail, n.cfg.ToEmail, subject, body); err != nil {
			firstErr = err
			n.log.WithError(err).Error("Regression email failed", nil)
		}
	}
	if n.sns != nil {
		if err := n.sns.PublishReport(ctx, n.cfg.SNSTopic, subject, body); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			n.log.WithError(err).Error("Regression SNS publish failed", nil)
		}
	}
	return firstErr
}
