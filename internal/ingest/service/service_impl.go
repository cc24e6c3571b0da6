package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/ingest/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/metrics"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	reconciledomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Provider providerdomain.Client
	Engine   reconciledomain.Engine
	Metrics  *metrics.Metrics
}

type Service struct {
	log      *zap.Logger
	provider providerdomain.Client
	engine   reconciledomain.Engine
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("ingest.service"),
		provider: p.Provider,
		engine:   p.Engine,
		metrics:  p.Metrics,
	}
}

// IngestEvent verifies, parses, and applies one webhook delivery. Signature
// failures are the only caller-visible rejection; everything else the provider
// should not redeliver is absorbed into a skipped or ignored outcome.
func (s *Service) IngestEvent(ctx context.Context, payload []byte, sigHeader string) (domain.Outcome, error) {
	event, err := s.provider.VerifyAndParseEvent(payload, sigHeader)
	if err != nil {
		if errors.Is(err, providerdomain.ErrInvalidSignature) {
			s.metrics.WebhookEvents.WithLabelValues("rejected").Inc()
			return "", err
		}
		if errors.Is(err, providerdomain.ErrMapping) {
			s.log.Warn("unusable event payload, skipping", zap.Error(err))
			s.metrics.WebhookEvents.WithLabelValues(string(domain.OutcomeSkipped)).Inc()
			return domain.OutcomeSkipped, nil
		}
		s.metrics.WebhookEvents.WithLabelValues("error").Inc()
		return "", fmt.Errorf("parse event: %w", err)
	}

	switch event.Category {
	case providerdomain.CategoryIgnored:
		s.metrics.WebhookEvents.WithLabelValues(string(domain.OutcomeIgnored)).Inc()
		return domain.OutcomeIgnored, nil
	case providerdomain.CategorySubscription:
		err = s.engine.UpsertSubscription(ctx, *event.Subscription, reconciledomain.OriginWebhook, event.Type)
	case providerdomain.CategoryInvoice:
		err = s.engine.UpsertInvoice(ctx, *event.Invoice, reconciledomain.OriginWebhook, event.Type)
	default:
		s.metrics.WebhookEvents.WithLabelValues(string(domain.OutcomeIgnored)).Inc()
		return domain.OutcomeIgnored, nil
	}

	if err != nil {
		if errors.Is(err, reconciledomain.ErrUnresolvedTenant) {
			s.log.Warn("event for unresolvable tenant, skipping",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.Type),
				zap.Error(err),
			)
			s.metrics.WebhookEvents.WithLabelValues(string(domain.OutcomeSkipped)).Inc()
			return domain.OutcomeSkipped, nil
		}
		s.metrics.WebhookEvents.WithLabelValues("error").Inc()
		return "", fmt.Errorf("apply event %s: %w", event.ID, err)
	}

	s.metrics.WebhookEvents.WithLabelValues(string(domain.OutcomeApplied)).Inc()
	s.log.Info("event applied",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)
	return domain.OutcomeApplied, nil
}
