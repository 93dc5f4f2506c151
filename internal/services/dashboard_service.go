package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/michel-emel/imce-project/internal/charts"
	"github.com/michel-emel/imce-project/internal/config"
	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/exporter"
	"github.com/michel-emel/imce-project/internal/filter"
	"github.com/michel-emel/imce-project/internal/infrastructure"
)

// DashboardService computes page models from the loaded datasets and
// serves their charts and table exports
type DashboardService struct {
	store    *dataset.Store
	cache    *cache.Cache
	builds   singleflight.Group
	renderer *charts.Renderer
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	metrics  *infrastructure.DashboardMetrics
	logger   *slog.Logger
}

// NewDashboardService creates the service. A disabled cache recomputes
// every page on request.
func NewDashboardService(store *dataset.Store, cacheCfg config.CacheConfig, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "dashboard_service")

	s := &DashboardService{
		store:    store,
		renderer: charts.NewRenderer(0, 0),
		csv:      exporter.NewCSVWriter(logger),
		xlsx:     exporter.NewXLSXWriter(logger),
		metrics:  metrics,
		logger:   logger,
	}
	if cacheCfg.Enabled {
		s.cache = cache.New(cacheCfg.TTL, cacheCfg.CleanupInterval)
	}

	logger.Info("DashboardService initialized",
		slog.Bool("cache_enabled", cacheCfg.Enabled),
		slog.Duration("cache_ttl", cacheCfg.TTL),
		slog.Int("datasets_loaded", store.LoadedCount()))
	return s
}

// Store returns the datasets behind the pages
func (s *DashboardService) Store() *dataset.Store {
	return s.store
}

// Pages returns the navigation in display order
func (s *DashboardService) Pages() []dashboard.Entry {
	return dashboard.Pages()
}

// Datasets returns the load status of every dataset
func (s *DashboardService) Datasets() []dataset.Status {
	return s.store.Statuses()
}

// Page returns the page model for slug under sel. Results are shared
// between callers and must not be modified.
func (s *DashboardService) Page(ctx context.Context, slug string, sel filter.Selection) (*dashboard.Page, error) {
	entry, err := dashboard.Lookup(slug)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, entry, sel), nil
}

// Resolve returns the page served at path; unknown paths land on the
// executive summary
func (s *DashboardService) Resolve(ctx context.Context, path string, sel filter.Selection) *dashboard.Page {
	return s.build(ctx, dashboard.Resolve(path), sel)
}

// Filters returns the cascading filter controls of a page
func (s *DashboardService) Filters(ctx context.Context, slug string, sel filter.Selection) ([]filter.Control, error) {
	p, err := s.Page(ctx, slug, sel)
	if err != nil {
		return nil, err
	}
	return p.Controls, nil
}

// Chart returns one chart of a page
func (s *DashboardService) Chart(ctx context.Context, slug, id string, sel filter.Selection) (*dashboard.Chart, error) {
	p, err := s.Page(ctx, slug, sel)
	if err != nil {
		return nil, err
	}
	return p.Chart(id)
}

// ChartSVG renders one chart of a page
func (s *DashboardService) ChartSVG(ctx context.Context, w io.Writer, slug, id string, sel filter.Selection) error {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.chart_svg",
		attribute.String("page", slug), attribute.String("chart", id))
	defer span.End()

	if err := s.requireData(slug); err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	c, err := s.Chart(ctx, slug, id, sel)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	if err := s.renderer.Render(w, c); err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "Chart render failed",
			slog.String("page", slug), slog.String("chart", id))
		return err
	}
	s.metrics.RecordChartRender(ctx, slug, id)
	return nil
}

// Table returns one table of a page
func (s *DashboardService) Table(ctx context.Context, slug, id string, sel filter.Selection) (*dashboard.Table, error) {
	p, err := s.Page(ctx, slug, sel)
	if err != nil {
		return nil, err
	}
	return p.Table(id)
}

// ExportCSV writes one table of a page as CSV
func (s *DashboardService) ExportCSV(ctx context.Context, w io.Writer, slug, id string, sel filter.Selection) error {
	if err := s.requireData(slug); err != nil {
		return err
	}
	t, err := s.Table(ctx, slug, id, sel)
	if err != nil {
		return err
	}
	if err := s.csv.WriteTable(w, t); err != nil {
		return err
	}
	s.metrics.RecordExport(ctx, slug, "csv")
	return nil
}

// ExportXLSX writes every table of a page as one workbook
func (s *DashboardService) ExportXLSX(ctx context.Context, w io.Writer, slug string, sel filter.Selection) error {
	if err := s.requireData(slug); err != nil {
		return err
	}
	p, err := s.Page(ctx, slug, sel)
	if err != nil {
		return err
	}
	if len(p.Tables) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTables, slug)
	}
	if err := s.xlsx.Write(w, p.Tables); err != nil {
		return err
	}
	s.metrics.RecordExport(ctx, slug, "xlsx")
	return nil
}

// ExportFile saves every table of a page as an XLSX workbook at path
func (s *DashboardService) ExportFile(ctx context.Context, path, slug string, sel filter.Selection) error {
	if err := s.requireData(slug); err != nil {
		return err
	}
	p, err := s.Page(ctx, slug, sel)
	if err != nil {
		return err
	}
	if len(p.Tables) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTables, slug)
	}
	if err := s.xlsx.WriteFile(path, p.Tables); err != nil {
		return err
	}
	s.metrics.RecordExport(ctx, slug, "xlsx")
	return nil
}

// Invalidate drops every cached page
func (s *DashboardService) Invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// requireData fails with a data-unavailable error when the dataset behind
// a single-dataset page was not loaded
func (s *DashboardService) requireData(slug string) error {
	entry, err := dashboard.Lookup(slug)
	if err != nil {
		return err
	}
	if entry.Dataset == "" {
		return nil
	}
	return s.store.Require(entry.Dataset)
}

func cacheKey(slug string, sel filter.Selection) string {
	return slug + "?" + sel.Canonical()
}

func (s *DashboardService) build(ctx context.Context, entry dashboard.Entry, sel filter.Selection) *dashboard.Page {
	key := cacheKey(entry.Slug, sel)
	if s.cache != nil {
		if p, ok := s.cache.Get(key); ok {
			s.metrics.RecordCache(ctx, entry.Slug, true)
			return p.(*dashboard.Page)
		}
		s.metrics.RecordCache(ctx, entry.Slug, false)
	}

	v, _, _ := s.builds.Do(key, func() (interface{}, error) {
		ctx, span := infrastructure.StartSpan(ctx, "dashboard.build_page",
			attribute.String("page", entry.Slug),
			attribute.String("selection", sel.Canonical()))
		defer span.End()

		start := time.Now()
		p := entry.Build(s.store, sel)
		elapsed := time.Since(start)
		s.metrics.RecordPageBuild(ctx, entry.Slug, elapsed, nil)

		s.logger.DebugContext(ctx, "Page built",
			slog.String("page", entry.Slug),
			slog.String("selection", sel.Canonical()),
			slog.Int("charts", len(p.Charts)),
			slog.Int("tables", len(p.Tables)),
			slog.Duration("duration", elapsed))

		// Pages are stored under the selection the cascade kept, so stale or
		// unknown filter values never get entries of their own.
		if s.cache != nil {
			s.cache.SetDefault(cacheKey(entry.Slug, p.Selection), p)
		}
		return p, nil
	})
	return v.(*dashboard.Page)
}
