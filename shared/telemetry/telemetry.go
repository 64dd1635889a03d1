package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	metricSDK "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	traceSDK "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config holds telemetry configuration for a service
type Config struct {
	ServiceName    string
	ServiceVersion string
	// OTLPEndpoint is optional, spans are only exported when it is set
	OTLPEndpoint string
}

type Telemetry struct {
	tracer trace.Tracer
	meter  metric.Meter
	config Config
}

// NewTelemetry creates a telemetry instance on top of the global providers
func NewTelemetry(config Config) *Telemetry {
	return &Telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}
}

// InitTelemetry installs the global tracer and meter providers. Metrics are
// always exposed through the Prometheus exporter; OTLP export is enabled
// when an endpoint is configured.
func InitTelemetry(ctx context.Context, config Config) (*Telemetry, func(), error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build resource")
	}

	traceProvider, traceShutdown, err := setupTracing(ctx, res, config.OTLPEndpoint)
	if err != nil {
		return nil, nil, err
	}

	meterProvider, metricShutdown, err := setupMetrics(ctx, res, config.OTLPEndpoint)
	if err != nil {
		traceShutdown()
		return nil, nil, err
	}

	otel.SetTracerProvider(traceProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	shutdown := func() {
		traceShutdown()
		metricShutdown()
	}

	return NewTelemetry(config), shutdown, nil
}

func setupTracing(ctx context.Context, res *resource.Resource, otlpEndpoint string) (trace.TracerProvider, func(), error) {
	opts := []traceSDK.TracerProviderOption{
		traceSDK.WithResource(res),
		traceSDK.WithSampler(traceSDK.AlwaysSample()),
	}

	if otlpEndpoint != "" {
		traceExporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(otlpEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create trace exporter")
		}
		opts = append(opts, traceSDK.WithBatcher(traceExporter))
	}

	traceProvider := traceSDK.NewTracerProvider(opts...)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = traceProvider.Shutdown(ctx)
	}

	return traceProvider, shutdown, nil
}

func setupMetrics(ctx context.Context, res *resource.Resource, otlpEndpoint string) (metric.MeterProvider, func(), error) {
	prometheusExporter, err := prometheus.New()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create prometheus exporter")
	}

	opts := []metricSDK.Option{
		metricSDK.WithResource(res),
		metricSDK.WithReader(prometheusExporter),
	}

	if otlpEndpoint != "" {
		otlpExporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(otlpEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create metric exporter")
		}
		opts = append(opts, metricSDK.WithReader(metricSDK.NewPeriodicReader(otlpExporter,
			metricSDK.WithInterval(30*time.Second),
		)))
	}

	meterProvider := metricSDK.NewMeterProvider(opts...)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = meterProvider.Shutdown(ctx)
	}

	return meterProvider, shutdown, nil
}

// MetricsHandler serves the Prometheus scrape endpoint
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func (t *Telemetry) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

func (t *Telemetry) GetMeter() metric.Meter {
	return t.meter
}

func (t *Telemetry) GetServiceName() string {
	return t.config.ServiceName
}

type contextKey string

const telemetryKey contextKey = "telemetry"

// WithTelemetry injects telemetry into context
func WithTelemetry(ctx context.Context, tel *Telemetry) context.Context {
	return context.WithValue(ctx, telemetryKey, tel)
}

// FromContext extracts telemetry from context
func FromContext(ctx context.Context) *Telemetry {
	if tel, ok := ctx.Value(telemetryKey).(*Telemetry); ok {
		return tel
	}
	return nil
}

// StartSpan starts a span with the telemetry found in ctx, falling back to
// the global tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tel := FromContext(ctx); tel != nil {
		return tel.StartSpan(ctx, name, opts...)
	}
	return otel.Tracer("order-saga").Start(ctx, name, opts...)
}

func GetMeter(ctx context.Context) metric.Meter {
	if tel := FromContext(ctx); tel != nil {
		return tel.GetMeter()
	}
	return otel.Meter("order-saga")
}

func GetServiceName(ctx context.Context) string {
	if tel := FromContext(ctx); tel != nil {
		return tel.GetServiceName()
	}
	return "unknown"
}

// RecordCounter records a counter metric
func RecordCounter(ctx context.Context, name, description string, value int64, attrs ...attribute.KeyValue) {
	counter, err := GetMeter(ctx).Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return
	}

	attrs = append(attrs, attribute.String("service", GetServiceName(ctx)))
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// RecordHistogram records a histogram metric
func RecordHistogram(ctx context.Context, name, description string, value float64, attrs ...attribute.KeyValue) {
	histogram, err := GetMeter(ctx).Float64Histogram(name, metric.WithDescription(description))
	if err != nil {
		return
	}

	attrs = append(attrs, attribute.String("service", GetServiceName(ctx)))
	histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}
