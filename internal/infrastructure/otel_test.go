package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/michel-emel/imce-project/internal/config"
)

func newTestProviders(t *testing.T) *OTelProviders {
	t.Helper()
	cfg := OTelConfigFrom(config.Default().Telemetry)
	cfg.Registry = promclient.NewRegistry()

	providers, err := InitializeOTel(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(ctx)
	})
	return providers
}

func TestOTelInitialization(t *testing.T) {
	providers := newTestProviders(t)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestOTelConfigFrom(t *testing.T) {
	tel := config.Default().Telemetry
	cfg := OTelConfigFrom(tel)
	assert.Equal(t, "imce-dashboard", cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)

	tel.StdoutTraces = true
	assert.Equal(t, "stdout", OTelConfigFrom(tel).TraceExporter)
}

func TestUnsupportedExporters(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := OTelConfigFrom(config.Default().Telemetry)
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, logger)
	assert.Error(t, err)

	cfg = OTelConfigFrom(config.Default().Telemetry)
	cfg.Registry = promclient.NewRegistry()
	cfg.MetricExporter = "statsd"
	_, err = InitializeOTel(cfg, logger)
	assert.Error(t, err)
}

func TestTraceCorrelation(t *testing.T) {
	newTestProviders(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "build-page")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestDashboardMetrics(t *testing.T) {
	providers := newTestProviders(t)

	metrics, err := CreateDashboardMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordPageBuild(ctx, "paps", 15*time.Millisecond, nil)
	metrics.RecordPageBuild(ctx, "grc", time.Millisecond, errors.New("boom"))
	metrics.RecordCache(ctx, "paps", true)
	metrics.RecordCache(ctx, "paps", false)
	metrics.RecordDatasetLoad(ctx, "paps", 42, nil)
	metrics.RecordDatasetLoad(ctx, "grc", 0, errors.New("missing"))
	metrics.RecordChartRender(ctx, "paps", "by-district")
	metrics.RecordExport(ctx, "paps", "xlsx")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "dashboard_page_builds_total")
	assert.Contains(t, body, "dashboard_cache_hits_total")
	assert.Contains(t, body, "dataset_rows_loaded_total")
	assert.Contains(t, body, "exports_total")
}

func TestNilDashboardMetricsIsSafe(t *testing.T) {
	var metrics *DashboardMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordPageBuild(ctx, "paps", time.Second, nil)
		metrics.RecordCache(ctx, "paps", true)
		metrics.RecordDatasetLoad(ctx, "paps", 1, nil)
		metrics.RecordChartRender(ctx, "paps", "x")
		metrics.RecordExport(ctx, "paps", "csv")
	})
}

func TestSystemMetricsCollect(t *testing.T) {
	providers := newTestProviders(t)

	sm, err := NewSystemMetrics(providers.Meter, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	stats := sm.Collect(context.Background())
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.CPUCount)
	assert.GreaterOrEqual(t, stats.Uptime, time.Minute)
}

func TestStartSpanAndRecordError(t *testing.T) {
	newTestProviders(t)

	ctx, span := StartSpan(context.Background(), "load")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() {
		RecordError(ctx, errors.New("bad row"))
		RecordError(ctx, nil)
	})
}
