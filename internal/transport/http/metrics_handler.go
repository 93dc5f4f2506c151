package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/michel-emel/imce-project/internal/infrastructure"
)

// MetricsHandler exposes the Prometheus scrape endpoint and a JSON runtime
// snapshot
type MetricsHandler struct {
	prometheus http.Handler
	system     *infrastructure.SystemMetrics
}

// NewMetricsHandler creates a metrics handler. Either argument may be nil
// when telemetry is off.
func NewMetricsHandler(prometheus http.Handler, system *infrastructure.SystemMetrics) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, system: system}
}

// Routes sets up the /metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/runtime", h.GetRuntime)
	return r
}

// GetMetrics serves the Prometheus exposition format
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics exporter disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetRuntime returns a runtime snapshot as JSON
func (h *MetricsHandler) GetRuntime(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"status": "disabled"})
		return
	}
	render.JSON(w, r, h.system.Collect(r.Context()))
}
