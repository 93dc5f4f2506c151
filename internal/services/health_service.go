package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/infrastructure"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	store     *dataset.Store
	system    *infrastructure.SystemMetrics
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service over the loaded datasets.
// system may be nil when telemetry is disabled.
func NewHealthService(version, buildTime string, store *dataset.Store, system *infrastructure.SystemMetrics, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		store:     store,
		system:    system,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck is ready when at least one dataset is loaded. Missing
// datasets are reported but only degrade their own pages.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	for _, st := range hs.store.Statuses() {
		status.Services[string(st.Name)] = datasetHealth(st)
	}
	if hs.store.LoadedCount() == 0 {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "ReadinessCheck: no dataset loaded")
	}
	return status
}

func datasetHealth(st dataset.Status) ServiceHealth {
	if !st.Loaded {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("%s not found", st.File),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d rows", st.Rows),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	rt := map[string]interface{}{
		"uptime":     time.Since(hs.startTime).Seconds(),
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hs.system != nil {
		stats := hs.system.Collect(ctx)
		rt["heap_alloc_mb"] = stats.HeapAllocMB
		rt["gc_count"] = stats.GCCount
	}
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   rt,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
		"datasets":     hs.store.LoadedCount(),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}
