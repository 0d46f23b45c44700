package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInteractionMetricsCountByKindAndOutcome(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics := NewInteractionMetrics(provider.Meter("test"))

	ctx := context.Background()
	metrics.Record(ctx, "/boards", "ok", 20*time.Millisecond)
	metrics.Record(ctx, "/boards", "ok", 30*time.Millisecond)
	metrics.Record(ctx, "task_form", "invalid", time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	counts := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "discordbot.interactions" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				kind, _ := dp.Attributes.Value(attribute.Key("discord.interaction.kind"))
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[kind.AsString()+"|"+outcome.AsString()] = dp.Value
			}
		}
	}
	if counts["/boards|ok"] != 2 || counts["task_form|invalid"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestNilInteractionMetricsIsNoop(t *testing.T) {
	var metrics *InteractionMetrics
	metrics.Record(context.Background(), "/ping", "ok", time.Millisecond)
}
