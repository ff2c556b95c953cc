package pipeline

import (
	"context"
	"testing"

	"github.com/loqalabs/loqa-dictate/internal/llm"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestPipelineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	corrector := correctorFunc(func(context.Context, string, rolling.Snapshot) (string, error) {
		return "", llm.ErrMalformedResponse
	})
	h := newHarness(t, Settings{Mode: ModeStandard, Corrector: corrector}, func(c *Config) {
		c.Meter = provider.Meter("test")
	})
	h.dictate(seconds(1))
	h.dictate(seconds(1))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	var sawState, sawStage bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				if m.Name == "dictation.state" {
					sawState = len(data.DataPoints) == len(allStates)
				}
			case metricdata.Histogram[float64]:
				if m.Name == "dictation.stage.duration" {
					sawStage = len(data.DataPoints) > 0
				}
			}
		}
	}
	if sums["dictation.fallbacks"] != 2 {
		t.Fatalf("expected 2 fallbacks, got %d", sums["dictation.fallbacks"])
	}
	if sums["dictation.utterances"] != 2 {
		t.Fatalf("expected 2 utterances, got %d", sums["dictation.utterances"])
	}
	if !sawState || !sawStage {
		t.Fatalf("expected state gauge and stage histogram (state=%v stage=%v)", sawState, sawStage)
	}
}
