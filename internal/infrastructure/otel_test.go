package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOTelConfig(t *testing.T) {
	cfg := DefaultOTelConfig()

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableTracing)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
}

func TestInitializeOTelMetricsOnly(t *testing.T) {
	logger := slog.Default()

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "marketpulse-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  false,
	}, logger)
	require.NoError(t, err)
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.GatherHandler())
	assert.Nil(t, providers.TracerProvider)
}

func TestInitializeOTelUnsupportedExporter(t *testing.T) {
	logger := slog.Default()

	_, err := InitializeOTel(&OTelConfig{
		ServiceName:    "marketpulse-test",
		ServiceVersion: "test",
		MetricExporter: "statsd",
		EnableMetrics:  true,
	}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestCreatePipelineMetrics(t *testing.T) {
	logger := slog.Default()

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "marketpulse-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
	}, logger)
	require.NoError(t, err)
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	// Recording must not panic.
	ctx := context.Background()
	metrics.RecordLoad(ctx, "state-level", 10*time.Millisecond, false, nil)
	metrics.RecordLoad(ctx, "state-level", 0, true, nil)
	metrics.RecordLoad(ctx, "county-level", time.Millisecond, false, errors.New("boom"))
	metrics.RecordNormalization(ctx, "state-level", 51, 2)
	metrics.RecordConversion(ctx, true)
	metrics.RecordConversion(ctx, false)
	metrics.RecordMetric(ctx, "total_enrollment", time.Microsecond, nil)
	metrics.RecordMetric(ctx, "market_penetration", time.Microsecond, errors.New("zero denominator"))
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var metrics *PipelineMetrics

	ctx := context.Background()
	// A nil bundle is the telemetry-disabled mode; every helper must be a no-op.
	metrics.RecordLoad(ctx, "state-level", time.Second, false, nil)
	metrics.RecordNormalization(ctx, "state-level", 10, 0)
	metrics.RecordConversion(ctx, true)
	metrics.RecordMetric(ctx, "anything", time.Second, nil)
}

func TestTraceIDFromSpanWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromSpan(context.Background()))
}
