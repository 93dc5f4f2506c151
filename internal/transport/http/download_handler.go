package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/michel-emel/imce-project/internal/dashboard"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/exporter"
	"github.com/michel-emel/imce-project/internal/filter"
	"github.com/michel-emel/imce-project/internal/infrastructure"
)

// Download content types
const (
	ContentTypeSVG  = "image/svg+xml"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DownloadHandler serves chart images and table exports. Bodies are
// rendered into memory first so a failure still gets a problem response.
type DownloadHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DownloadHandler {
	return &DownloadHandler{
		service:      service,
		logger:       infrastructure.WithComponent(logger, "download_handler"),
		errorHandler: errorHandler,
	}
}

// ChartRoutes returns the /charts routes
func (h *DownloadHandler) ChartRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}/{chart}.svg", h.GetChart)
	return r
}

// ExportRoutes returns the /export routes
func (h *DownloadHandler) ExportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{slug}.xlsx", h.ExportWorkbook)
	r.Get("/{slug}/{table}.csv", h.ExportTable)
	return r
}

// GetChart handles GET /charts/{slug}/{chart}.svg
func (h *DownloadHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	slug, id := chi.URLParam(r, "slug"), chi.URLParam(r, "chart")

	var buf bytes.Buffer
	if err := h.service.ChartSVG(r.Context(), &buf, slug, id, filter.FromQuery(r.URL.Query())); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", ContentTypeSVG)
	w.Header().Set("Cache-Control", "no-cache")
	h.write(w, r, buf.Bytes())
}

// ExportWorkbook handles GET /export/{slug}.xlsx
func (h *DownloadHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), &buf, slug, filter.FromQuery(r.URL.Query())); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attachment(w, ContentTypeXLSX, exporter.FileName(slug, "", "xlsx"))
	h.write(w, r, buf.Bytes())
	h.logger.InfoContext(r.Context(), "Workbook exported",
		slog.String("page", slug),
		slog.Int("bytes", buf.Len()))
}

// ExportTable handles GET /export/{slug}/{table}.csv
func (h *DownloadHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	slug, table := chi.URLParam(r, "slug"), chi.URLParam(r, "table")

	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf, slug, table, filter.FromQuery(r.URL.Query())); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	attachment(w, ContentTypeCSV, exporter.FileName(slug, table, "csv"))
	h.write(w, r, buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Cache-Control", "no-store")
}

func (h *DownloadHandler) write(w http.ResponseWriter, r *http.Request, body []byte) {
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		infrastructure.WithError(h.logger, err).WarnContext(r.Context(), "Download interrupted",
			slog.String("path", r.URL.Path))
	}
}

// ChartURL is the image URL of a chart under a selection
func ChartURL(slug string, c *dashboard.Chart, sel filter.Selection) string {
	return withQuery(fmt.Sprintf("/charts/%s/%s.svg", slug, c.ID), sel)
}

// ExportURL is the download URL of one table, or of the whole page
// workbook when table is empty
func ExportURL(slug, table string, sel filter.Selection) string {
	if table == "" {
		return withQuery(fmt.Sprintf("/export/%s.xlsx", slug), sel)
	}
	return withQuery(fmt.Sprintf("/export/%s/%s.csv", slug, table), sel)
}

func withQuery(path string, sel filter.Selection) string {
	if q := sel.Canonical(); q != "" {
		return path + "?" + q
	}
	return path
}
