// Package telemetry provides domain counters for the monitoring pipeline.
// Recording is purely observational and never affects control flow.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "spread_monitor"

// Metric names.
const (
	metricFetchAttempts = "spread_monitor_fetch_attempts_total"
	metricNormalization = "spread_monitor_normalization_total"
	metricEvaluations   = "spread_monitor_spread_evaluations_total"
	metricOpportunities = "spread_monitor_spread_opportunities_total"
	metricAlertsSent    = "spread_monitor_alerts_sent_total"
)

// Recorder receives counters for pipeline observations.
type Recorder interface {
	// FetchAttempt records one provider fetch by exchange, operation
	// ("ticker" or "order_book") and status ("success" or "error").
	FetchAttempt(ctx context.Context, exchange, operation, status string)

	// Normalization records one raw payload normalization by stage and status.
	Normalization(ctx context.Context, stage, status string)

	// SpreadEvaluation records one calculator outcome by status
	// (skip_product, skip_levels, skip_volume_price, skip_no_profit, positive).
	SpreadEvaluation(ctx context.Context, status string)

	// SpreadOpportunity records one emitted opportunity by directed pair.
	SpreadOpportunity(ctx context.Context, buyExchange, sellExchange string)

	// AlertSent records one delivery attempt outcome per channel.
	AlertSent(ctx context.Context, channel, status string)
}

// OTelRecorder implements Recorder on the global OTel meter provider.
type OTelRecorder struct {
	fetchAttempts metric.Int64Counter
	normalization metric.Int64Counter
	evaluations   metric.Int64Counter
	opportunities metric.Int64Counter
	alertsSent    metric.Int64Counter
}

// NewOTelRecorder creates a Recorder backed by the global meter provider.
func NewOTelRecorder() (*OTelRecorder, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	fetchAttempts, err := meter.Int64Counter(metricFetchAttempts,
		metric.WithDescription("Exchange API fetch attempts by outcome"))
	if err != nil {
		return nil, err
	}

	normalization, err := meter.Int64Counter(metricNormalization,
		metric.WithDescription("Payloads normalized by stage"))
	if err != nil {
		return nil, err
	}

	evaluations, err := meter.Int64Counter(metricEvaluations,
		metric.WithDescription("Spread evaluations grouped by status"))
	if err != nil {
		return nil, err
	}

	opportunities, err := meter.Int64Counter(metricOpportunities,
		metric.WithDescription("Positive spread opportunities by pair"))
	if err != nil {
		return nil, err
	}

	alertsSent, err := meter.Int64Counter(metricAlertsSent,
		metric.WithDescription("Alerts pushed to notification channels"))
	if err != nil {
		return nil, err
	}

	return &OTelRecorder{
		fetchAttempts: fetchAttempts,
		normalization: normalization,
		evaluations:   evaluations,
		opportunities: opportunities,
		alertsSent:    alertsSent,
	}, nil
}

func (r *OTelRecorder) FetchAttempt(ctx context.Context, exchange, operation, status string) {
	r.fetchAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("exchange", exchange),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func (r *OTelRecorder) Normalization(ctx context.Context, stage, status string) {
	r.normalization.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

func (r *OTelRecorder) SpreadEvaluation(ctx context.Context, status string) {
	r.evaluations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (r *OTelRecorder) SpreadOpportunity(ctx context.Context, buyExchange, sellExchange string) {
	r.opportunities.Add(ctx, 1, metric.WithAttributes(
		attribute.String("buy_exchange", buyExchange),
		attribute.String("sell_exchange", sellExchange),
	))
}

func (r *OTelRecorder) AlertSent(ctx context.Context, channel, status string) {
	r.alertsSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("status", status),
	))
}

// Noop is a Recorder that discards every observation. Useful in tests and
// when telemetry is disabled.
type Noop struct{}

func (Noop) FetchAttempt(context.Context, string, string, string) {}
func (Noop) Normalization(context.Context, string, string)        {}
func (Noop) SpreadEvaluation(context.Context, string)             {}
func (Noop) SpreadOpportunity(context.Context, string, string)    {}
func (Noop) AlertSent(context.Context, string, string)            {}
