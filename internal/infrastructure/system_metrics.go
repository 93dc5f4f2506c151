package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the Go runtime
type RuntimeStats struct {
	Goroutines    int64         `json:"goroutines"`
	HeapAllocMB   int64         `json:"heap_alloc_mb"`
	SystemMB      int64         `json:"system_mb"`
	GCCount       uint32        `json:"gc_count"`
	LastGCPauseMS int64         `json:"last_gc_pause_ms"`
	CPUCount      int           `json:"cpu_count"`
	Uptime        time.Duration `json:"uptime_ns"`
	Timestamp     time.Time     `json:"timestamp"`
}

// SystemMetrics samples the runtime and mirrors the sample into gauges
type SystemMetrics struct {
	startTime  time.Time
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	uptime     metric.Float64Gauge
}

// NewSystemMetrics creates the runtime gauges on meter
func NewSystemMetrics(meter metric.Meter, startTime time.Time) (*SystemMetrics, error) {
	goroutines, err := meter.Int64Gauge("system_goroutines",
		metric.WithDescription("Number of active goroutines"))
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge("system_memory_usage_bytes",
		metric.WithDescription("Heap memory in use"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64Gauge("system_uptime_seconds",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		startTime:  startTime,
		goroutines: goroutines,
		heapAlloc:  heapAlloc,
		uptime:     uptime,
	}, nil
}

// Collect reads the runtime counters and records them
func (sm *SystemMetrics) Collect(ctx context.Context) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines:    int64(runtime.NumGoroutine()),
		HeapAllocMB:   int64(mem.Alloc) / 1024 / 1024,
		SystemMB:      int64(mem.Sys) / 1024 / 1024,
		GCCount:       mem.NumGC,
		LastGCPauseMS: time.Duration(mem.PauseNs[(mem.NumGC+255)%256]).Milliseconds(),
		CPUCount:      runtime.NumCPU(),
		Uptime:        time.Since(sm.startTime),
		Timestamp:     time.Now(),
	}

	sm.goroutines.Record(ctx, stats.Goroutines)
	sm.heapAlloc.Record(ctx, int64(mem.Alloc))
	sm.uptime.Record(ctx, stats.Uptime.Seconds())

	return stats
}
