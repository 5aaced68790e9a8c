package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Telemetry holds the pipeline's OpenTelemetry instruments. A nil
// *Telemetry is valid and records nothing, which keeps tests quiet.
type Telemetry struct {
	runsTotal         metric.Int64Counter
	runDuration       metric.Float64Histogram
	insightsGenerated metric.Int64Counter
}

// NewTelemetry creates the pipeline instruments on the given meter.
func NewTelemetry(meter metric.Meter) (*Telemetry, error) {
	runsTotal, err := meter.Int64Counter("pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("pipeline_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	insightsGenerated, err := meter.Int64Counter("pipeline_insights_generated_total",
		metric.WithDescription("Total number of insights generated"))
	if err != nil {
		return nil, fmt.Errorf("failed to create insights counter: %w", err)
	}

	return &Telemetry{
		runsTotal:         runsTotal,
		runDuration:       runDuration,
		insightsGenerated: insightsGenerated,
	}, nil
}

func (t *Telemetry) recordRun(ctx context.Context, summary *RunSummary, duration time.Duration) {
	if t == nil || summary == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", string(summary.Status)))
	t.runsTotal.Add(ctx, 1, attrs)
	t.runDuration.Record(ctx, duration.Seconds(), attrs)
}

func (t *Telemetry) recordInsights(ctx context.Context, count int) {
	if t == nil || count == 0 {
		return
	}
	t.insightsGenerated.Add(ctx, int64(count))
}
