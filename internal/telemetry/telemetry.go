package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/gompertz/internal/growth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "gompertz"
	serviceVersion = "0.1.0"
)

// Config selects the OTLP collector fit metrics are pushed to.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// Recorder receives one observation per completed or failed fit.
type Recorder interface {
	RecordFit(ctx context.Context, specimen string, model string, res *growth.FitResult, elapsed time.Duration, err error)
	Close(ctx context.Context) error
}

// NoOp discards every observation.
type NoOp struct{}

func (NoOp) RecordFit(context.Context, string, string, *growth.FitResult, time.Duration, error) {}
func (NoOp) Close(context.Context) error                                                        { return nil }

// Meter records fit metrics on OpenTelemetry instruments.
type Meter struct {
	provider   *sdkmetric.MeterProvider
	fits       metric.Int64Counter
	failures   metric.Int64Counter
	iterations metric.Int64Histogram
	duration   metric.Float64Histogram
	rSquared   metric.Float64Histogram
}

// NewMeter creates the instruments on m.
func NewMeter(m metric.Meter) (*Meter, error) {
	fits, err := m.Int64Counter(
		"gompertz_fits_total",
		metric.WithDescription("Completed parameter fits"),
		metric.WithUnit("{fit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fits counter: %w", err)
	}

	failures, err := m.Int64Counter(
		"gompertz_fit_failures_total",
		metric.WithDescription("Fits that returned an error"),
		metric.WithUnit("{fit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	iterations, err := m.Int64Histogram(
		"gompertz_fit_iterations",
		metric.WithDescription("Newton iterations per fit"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating iterations histogram: %w", err)
	}

	duration, err := m.Float64Histogram(
		"gompertz_fit_duration_seconds",
		metric.WithDescription("Wall time per fit"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	rSquared, err := m.Float64Histogram(
		"gompertz_fit_r_squared",
		metric.WithDescription("Coefficient of determination per fit"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating r-squared histogram: %w", err)
	}

	return &Meter{fits: fits, failures: failures, iterations: iterations, duration: duration, rSquared: rSquared}, nil
}

// NewExporter pushes fit metrics to an OTLP gRPC collector and installs the
// provider globally.
func NewExporter(ctx context.Context, cfg Config) (*Meter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure())
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	m, err := NewMeter(provider.Meter(serviceName))
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	m.provider = provider
	return m, nil
}

func (m *Meter) RecordFit(ctx context.Context, specimen, model string, res *growth.FitResult, elapsed time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("specimen", specimen),
		attribute.String("model", model),
	)
	m.duration.Record(ctx, elapsed.Seconds(), opt)
	if err != nil || res == nil {
		m.failures.Add(ctx, 1, opt)
		return
	}
	m.fits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("specimen", specimen),
		attribute.String("model", model),
		attribute.Bool("converged", res.Converged),
	))
	if res.Iterations > 0 {
		m.iterations.Record(ctx, int64(res.Iterations), opt)
	}
	m.rSquared.Record(ctx, res.Stats.RSquared, opt)
}

// Close flushes pending metrics when m owns its provider.
func (m *Meter) Close(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
