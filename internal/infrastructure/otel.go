package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "marketpulse"
	ServiceVersion = "1.0.0"
	MeterName      = "marketpulse"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  false,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes OpenTelemetry for the loading pipeline
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "initializing telemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		// The repo starts no server; the handler is for embedding
		// processes that want to scrape the registry.
		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// GatherHandler returns the Prometheus scrape handler, or nil when metrics
// are disabled.
func (p *OTelProviders) GatherHandler() http.Handler {
	return p.PrometheusHTTP
}

// PipelineMetrics holds the instruments for the loading and metrics pipeline.
// All record helpers tolerate a nil receiver so telemetry-disabled runs and
// tests work without a provider.
type PipelineMetrics struct {
	LoadsTotal         metric.Int64Counter
	CacheHits          metric.Int64Counter
	CacheMisses        metric.Int64Counter
	ParseFailures      metric.Int64Counter
	RowsNormalized     metric.Int64Counter
	ConversionsTotal   metric.Int64Counter
	MetricComputations metric.Int64Counter
	MetricErrors       metric.Int64Counter
	LoadDuration       metric.Float64Histogram
	MetricDuration     metric.Float64Histogram
}

// CreatePipelineMetrics creates the pipeline instruments on the given meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	loadsTotal, err := meter.Int64Counter(
		"puf_loads_total",
		metric.WithDescription("Total number of file loads requested"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"puf_cache_hits_total",
		metric.WithDescription("Total number of table cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"puf_cache_misses_total",
		metric.WithDescription("Total number of table cache misses"),
	)
	if err != nil {
		return nil, err
	}

	parseFailures, err := meter.Int64Counter(
		"puf_parse_failures_total",
		metric.WithDescription("Total number of cells that failed numeric coercion"),
	)
	if err != nil {
		return nil, err
	}

	rowsNormalized, err := meter.Int64Counter(
		"puf_rows_normalized_total",
		metric.WithDescription("Total number of rows normalized into canonical tables"),
	)
	if err != nil {
		return nil, err
	}

	conversionsTotal, err := meter.Int64Counter(
		"puf_conversions_total",
		metric.WithDescription("Total number of Excel to CSV conversions"),
	)
	if err != nil {
		return nil, err
	}

	metricComputations, err := meter.Int64Counter(
		"metric_computations_total",
		metric.WithDescription("Total number of metric computations"),
	)
	if err != nil {
		return nil, err
	}

	metricErrors, err := meter.Int64Counter(
		"metric_errors_total",
		metric.WithDescription("Total number of undefined metric computations"),
	)
	if err != nil {
		return nil, err
	}

	loadDuration, err := meter.Float64Histogram(
		"puf_load_duration_seconds",
		metric.WithDescription("File load and normalization duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	metricDuration, err := meter.Float64Histogram(
		"metric_duration_seconds",
		metric.WithDescription("Metric computation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		LoadsTotal:         loadsTotal,
		CacheHits:          cacheHits,
		CacheMisses:        cacheMisses,
		ParseFailures:      parseFailures,
		RowsNormalized:     rowsNormalized,
		ConversionsTotal:   conversionsTotal,
		MetricComputations: metricComputations,
		MetricErrors:       metricErrors,
		LoadDuration:       loadDuration,
		MetricDuration:     metricDuration,
	}, nil
}

// RecordLoad records one load request with its outcome and duration.
func (m *PipelineMetrics) RecordLoad(ctx context.Context, category string, duration time.Duration, cacheHit bool, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("category", category),
	}

	m.LoadsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	if cacheHit {
		m.CacheHits.Add(ctx, 1, metric.WithAttributes(attrs...))
		return
	}
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if err != nil {
		statusAttr = attribute.String("status", "failure")
	}
	m.LoadDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, statusAttr)...))
}

// RecordNormalization records the row and parse-failure counts of one
// normalized table.
func (m *PipelineMetrics) RecordNormalization(ctx context.Context, category string, rows, parseFailures int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("category", category))
	m.RowsNormalized.Add(ctx, int64(rows), attrs)
	if parseFailures > 0 {
		m.ParseFailures.Add(ctx, int64(parseFailures), attrs)
	}
}

// RecordConversion records one Excel to CSV conversion.
func (m *PipelineMetrics) RecordConversion(ctx context.Context, success bool) {
	if m == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	m.ConversionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)))
}

// RecordMetric records one metric computation with its outcome and duration.
func (m *PipelineMetrics) RecordMetric(ctx context.Context, name string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("metric", name),
	}

	m.MetricComputations.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.MetricErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.MetricDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromSpan extracts the active span's trace ID from context for
// logging correlation, or "" when no span is recording.
func TraceIDFromSpan(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
