package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/michel-emel/imce-project/internal/dashboard"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/filter"
	"github.com/michel-emel/imce-project/internal/infrastructure"
)

type ctxKey string

const slugKey ctxKey = "page_slug"

// DashboardHandler serves the page models as JSON with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       infrastructure.WithComponent(logger, "dashboard_handler"),
		errorHandler: errorHandler,
	}
}

// Routes returns the /pages routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetPages)
	r.Route("/{slug}", func(r chi.Router) {
		r.Use(h.PageCtx)
		r.Get("/", h.GetPage)
		r.Get("/filters", h.GetFilters)
	})
	return r
}

// PageCtx rejects unknown page slugs before the page is built
func (h *DashboardHandler) PageCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if _, err := dashboard.Lookup(slug); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), slugKey, slug)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func pageSlug(r *http.Request) string {
	if slug, ok := r.Context().Value(slugKey).(string); ok {
		return slug
	}
	return chi.URLParam(r, "slug")
}

// GetPages handles GET /api/pages
func (h *DashboardHandler) GetPages(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"pages": h.service.Pages(),
	})
}

// GetPage handles GET /api/pages/{slug}
func (h *DashboardHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Page(r.Context(), pageSlug(r), filter.FromQuery(r.URL.Query()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// GetFilters handles GET /api/pages/{slug}/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	slug := pageSlug(r)
	controls, err := h.service.Filters(r.Context(), slug, filter.FromQuery(r.URL.Query()))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if controls == nil {
		controls = []filter.Control{}
	}
	render.JSON(w, r, map[string]interface{}{
		"page":     slug,
		"controls": controls,
	})
}

// GetDatasets handles GET /api/datasets
func (h *DashboardHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.Datasets()
	loaded := 0
	for _, st := range statuses {
		if st.Loaded {
			loaded++
		}
	}
	render.JSON(w, r, map[string]interface{}{
		"datasets": statuses,
		"loaded":   loaded,
		"total":    len(statuses),
	})
}
