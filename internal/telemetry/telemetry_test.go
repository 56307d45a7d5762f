package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/san-kum/gompertz/internal/growth"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMeterRecordsFits(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := NewMeter(provider.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	res := &growth.FitResult{Model: "newton-rate", Iterations: 4, Converged: true, Stats: growth.Stats{RSquared: 0.9}}
	m.RecordFit(ctx, "A", res.Model, res, 20*time.Millisecond, nil)
	m.RecordFit(ctx, "B", "implicit", nil, time.Millisecond, errors.New("diverged"))

	got := collect(t, reader)
	fits, ok := got["gompertz_fits_total"].Data.(metricdata.Sum[int64])
	if !ok || len(fits.DataPoints) != 1 || fits.DataPoints[0].Value != 1 {
		t.Errorf("fits counter = %+v", got["gompertz_fits_total"].Data)
	}
	failures, ok := got["gompertz_fit_failures_total"].Data.(metricdata.Sum[int64])
	if !ok || len(failures.DataPoints) != 1 || failures.DataPoints[0].Value != 1 {
		t.Errorf("failures counter = %+v", got["gompertz_fit_failures_total"].Data)
	}
	durations, ok := got["gompertz_fit_duration_seconds"].Data.(metricdata.Histogram[float64])
	if !ok || len(durations.DataPoints) != 2 {
		t.Errorf("duration histogram = %+v", got["gompertz_fit_duration_seconds"].Data)
	}
	if _, ok := got["gompertz_fit_iterations"]; !ok {
		t.Error("iterations histogram missing")
	}
	if err := m.Close(ctx); err != nil {
		t.Errorf("close without a provider: %v", err)
	}
}

func TestNewExporterDisabled(t *testing.T) {
	if _, err := NewExporter(context.Background(), Config{}); err == nil {
		t.Error("expected an error when the exporter is disabled")
	}
}

func TestNoOp(t *testing.T) {
	var r Recorder = NoOp{}
	r.RecordFit(context.Background(), "A", "explicit", nil, 0, nil)
	if err := r.Close(context.Background()); err != nil {
		t.Error(err)
	}
}
