package http

import (
	"context"
	"io"

	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Pages() []dashboard.Entry
	Datasets() []dataset.Status
	Page(ctx context.Context, slug string, sel filter.Selection) (*dashboard.Page, error)
	Resolve(ctx context.Context, path string, sel filter.Selection) *dashboard.Page
	Filters(ctx context.Context, slug string, sel filter.Selection) ([]filter.Control, error)
	ChartSVG(ctx context.Context, w io.Writer, slug, id string, sel filter.Selection) error
	ExportCSV(ctx context.Context, w io.Writer, slug, id string, sel filter.Selection) error
	ExportXLSX(ctx context.Context, w io.Writer, slug string, sel filter.Selection) error
}
