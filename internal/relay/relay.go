// Package relay orchestrates the gateway's single request flow:
// question in, upstream call out, normalized result back.
package relay

import (
	"context"
	"log/slog"

	"github.com/wildebeast/forecast-gateway/internal/domain"
	"github.com/wildebeast/forecast-gateway/internal/observability"
)

// Relay wires the upstream forecaster to the normalizer and the optional
// audit stream. It holds no per-request state.
type Relay struct {
	upstream  domain.Forecaster
	publisher domain.AuditPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Relay. Pass a nil publisher to disable the audit stream.
func New(upstream domain.Forecaster, publisher domain.AuditPublisher, logger *slog.Logger, metrics *observability.Metrics) *Relay {
	return &Relay{
		upstream:  upstream,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Forecast answers a question via the upstream service. Upstream failures
// propagate already-classified; an audit publish failure never fails the
// request.
func (r *Relay) Forecast(ctx context.Context, question string) (domain.ForecastResult, error) {
	payload, err := r.upstream.Forecast(ctx, question)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	result := domain.NormalizeForecast(payload)
	r.publishAudit(ctx, question, result)
	return result, nil
}

func (r *Relay) publishAudit(ctx context.Context, question string, result domain.ForecastResult) {
	if r.publisher == nil {
		return
	}
	rec := domain.NewAuditRecord(question, result)
	if err := r.publisher.Publish(ctx, rec); err != nil {
		r.metrics.AuditErrors.Inc()
		r.logger.Warn("audit publish failed", "error", err, "id", rec.ID)
		return
	}
	r.metrics.AuditPublished.Inc()
}
