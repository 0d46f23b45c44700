package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const interactionMeterName = "discordbot/interactions"

// InteractionMetrics counts handled interactions and their handling time by kind and outcome.
type InteractionMetrics struct {
	handled  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewInteractionMetrics builds the instruments on meter, or on the global provider when meter is nil.
// Instrument errors leave a no-op recorder in place.
func NewInteractionMetrics(meter metric.Meter) *InteractionMetrics {
	if meter == nil {
		meter = otel.Meter(interactionMeterName)
	}
	m := &InteractionMetrics{}
	if counter, err := meter.Int64Counter("discordbot.interactions",
		metric.WithDescription("Interactions whose deferred reply was produced"),
		metric.WithUnit("{interaction}"),
	); err == nil {
		m.handled = counter
	}
	if histogram, err := meter.Float64Histogram("discordbot.interaction.duration",
		metric.WithDescription("Time spent producing the deferred reply"),
		metric.WithUnit("s"),
	); err == nil {
		m.duration = histogram
	}
	return m
}

// Record adds one interaction with the given outcome.
func (m *InteractionMetrics) Record(ctx context.Context, kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	attrs := metric.WithAttributes(
		attribute.String("discord.interaction.kind", kind),
		attribute.String("outcome", outcome),
	)
	if m.handled != nil {
		m.handled.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
