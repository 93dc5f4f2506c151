package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/michel-emel/imce-project/internal/config"
)

// MeterName is the instrumentation scope for every tracer and meter in the app
const MeterName = "imce"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout" or "none"
	MetricExporter string // "prometheus" or "none"
	SampleRatio    float64

	// Registry receives the Prometheus collector; a private registry keeps
	// tests independent of the process-wide default one.
	Registry *promclient.Registry
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

// OTelConfigFrom maps the telemetry section of the app config.
// Traces are only exported when stdout tracing is switched on; a no-op
// tracer is still installed so spans and trace ids keep working.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	exporter := "none"
	if cfg.StdoutTraces {
		exporter = "stdout"
	}

	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    env,
		TraceExporter:  exporter,
		MetricExporter: "prometheus",
		SampleRatio:    cfg.SamplingRatio,
	}
}

// InitializeOTel sets up tracing and metrics and installs them globally
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFrom(config.Default().Telemetry)
	}

	ctx := context.Background()
	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func initializeTracing(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none", "":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func initializeMetrics(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var mp *sdkmetric.MeterProvider

	switch cfg.MetricExporter {
	case "prometheus":
		var exporterOpts []prometheus.Option
		if cfg.Registry != nil {
			exporterOpts = append(exporterOpts, prometheus.WithRegisterer(cfg.Registry))
			providers.PrometheusHTTP = promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})
		} else {
			providers.PrometheusHTTP = promhttp.Handler()
		}

		exporter, err := prometheus.New(exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
	case "none", "":
		mp = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)
	return nil
}

// DashboardMetrics holds the application instruments
type DashboardMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	PageBuildsTotal   metric.Int64Counter
	PageBuildDuration metric.Float64Histogram
	CacheHits         metric.Int64Counter
	CacheMisses       metric.Int64Counter
	DatasetRowsLoaded metric.Int64Counter
	DatasetLoadErrors metric.Int64Counter
	ChartRenders      metric.Int64Counter
	ExportsTotal      metric.Int64Counter
}

// CreateDashboardMetrics registers every instrument on meter
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var (
		m   DashboardMetrics
		err error
	)

	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		return h
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = histogram("http_request_duration_seconds", "HTTP request duration in seconds")
	if err == nil {
		m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
			metric.WithDescription("Number of active HTTP requests"))
	}

	m.PageBuildsTotal = counter("dashboard_page_builds_total", "Page models computed from the datasets")
	m.PageBuildDuration = histogram("dashboard_page_build_duration_seconds", "Time spent computing a page model")
	m.CacheHits = counter("dashboard_cache_hits_total", "Page model cache hits")
	m.CacheMisses = counter("dashboard_cache_misses_total", "Page model cache misses")
	m.DatasetRowsLoaded = counter("dataset_rows_loaded_total", "Rows read from survey CSV files")
	m.DatasetLoadErrors = counter("dataset_load_errors_total", "Survey files that failed to load")
	m.ChartRenders = counter("chart_renders_total", "Charts rendered to SVG")
	m.ExportsTotal = counter("exports_total", "Tables exported as CSV or XLSX")

	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordPageBuild records one page computation
func (m *DashboardMetrics) RecordPageBuild(ctx context.Context, slug string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("page", slug), attribute.String("status", status))
	m.PageBuildsTotal.Add(ctx, 1, attrs)
	m.PageBuildDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCache records a page cache lookup
func (m *DashboardMetrics) RecordCache(ctx context.Context, slug string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("page", slug))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
	} else {
		m.CacheMisses.Add(ctx, 1, attrs)
	}
}

// RecordDatasetLoad records the outcome of reading one survey file
func (m *DashboardMetrics) RecordDatasetLoad(ctx context.Context, dataset string, rows int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dataset", dataset))
	if err != nil {
		m.DatasetLoadErrors.Add(ctx, 1, attrs)
		return
	}
	m.DatasetRowsLoaded.Add(ctx, int64(rows), attrs)
}

// RecordChartRender records one SVG chart render
func (m *DashboardMetrics) RecordChartRender(ctx context.Context, slug, chart string) {
	if m == nil {
		return
	}
	m.ChartRenders.Add(ctx, 1, metric.WithAttributes(
		attribute.String("page", slug), attribute.String("chart", chart)))
}

// RecordExport records one table export
func (m *DashboardMetrics) RecordExport(ctx context.Context, slug, format string) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("page", slug), attribute.String("format", format)))
}

// Shutdown flushes and stops the providers
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
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("opentelemetry shutdown: %w", err)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OpenTelemetry trace ID for log correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// StartSpan starts an internal span on the global tracer
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(MeterName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
