package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"net/http"

	"github.com/michel-emel/imce-project/internal/charts"
	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/dataset"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/filter"
	"github.com/michel-emel/imce-project/internal/infrastructure"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler renders the dashboard pages as server-side HTML
type PageHandler struct {
	service      DashboardServiceInterface
	templates    *template.Template
	version      string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler parses the embedded templates
func NewPageHandler(service DashboardServiceInterface, version string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*PageHandler, error) {
	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, apierrors.NewRenderError("parse page templates", err)
	}
	return &PageHandler{
		service:      service,
		templates:    tmpl,
		version:      version,
		logger:       infrastructure.WithComponent(logger, "page_handler"),
		errorHandler: errorHandler,
	}, nil
}

// ServePage handles GET / and every page path. Unknown paths render the
// executive summary.
func (h *PageHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := h.service.Resolve(ctx, r.URL.Path, filter.FromQuery(r.URL.Query()))
	view := h.view(page)

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "layout", view); err != nil {
		h.logger.ErrorContext(ctx, "Page render failed",
			slog.String("page", page.Slug),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.NewRenderError(fmt.Sprintf("render page %s", page.Slug), err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "Page write interrupted", slog.String("error", err.Error()))
	}
}

type navItem struct {
	dashboard.Entry
	Active  bool
	Missing bool
}

type chartView struct {
	*dashboard.Chart
	URL      string
	Insights []dashboard.Insight
	Grid     *heatGrid
}

type heatGrid struct {
	Cols []string
	Rows []heatRow
}

type heatRow struct {
	Label string
	Cells []heatCell
}

type heatCell struct {
	Text  string
	Style template.CSS
}

type tableView struct {
	*dashboard.Table
	ExportURL string
}

type pageView struct {
	Page        *dashboard.Page
	Version     string
	Nav         []navItem
	Datasets    []dataset.Status
	Charts      []chartView
	Insights    []dashboard.Insight
	Tables      []tableView
	WorkbookURL string
}

func (h *PageHandler) view(p *dashboard.Page) pageView {
	statuses := h.service.Datasets()
	loaded := make(map[dataset.Name]bool, len(statuses))
	for _, st := range statuses {
		loaded[st.Name] = st.Loaded
	}

	v := pageView{Page: p, Version: h.version, Datasets: statuses}
	for _, e := range h.service.Pages() {
		v.Nav = append(v.Nav, navItem{
			Entry:   e,
			Active:  e.Slug == p.Slug,
			Missing: e.Dataset != "" && !loaded[e.Dataset],
		})
	}

	placed := make(map[string]bool)
	for _, c := range p.Charts {
		cv := chartView{Chart: c, URL: ChartURL(p.Slug, c, p.Selection)}
		for _, in := range p.Insights {
			if in.Section == c.ID {
				cv.Insights = append(cv.Insights, in)
			}
		}
		placed[c.ID] = true
		if c.Kind == dashboard.KindHeatmap && c.Heatmap != nil && !c.Empty {
			cv.Grid = grid(c.Heatmap)
		}
		v.Charts = append(v.Charts, cv)
	}
	for _, in := range p.Insights {
		if !placed[in.Section] {
			v.Insights = append(v.Insights, in)
		}
	}

	for _, t := range p.Tables {
		v.Tables = append(v.Tables, tableView{Table: t, ExportURL: ExportURL(p.Slug, t.ID, p.Selection)})
	}
	if len(p.Tables) > 0 {
		v.WorkbookURL = ExportURL(p.Slug, "", p.Selection)
	}
	return v
}

func grid(h *dashboard.Heatmap) *heatGrid {
	g := &heatGrid{Cols: h.Cols}
	for i, label := range h.Rows {
		row := heatRow{Label: label}
		for j := range h.Cols {
			fill, text := charts.HeatCell(h.Shade(i, j))
			row.Cells = append(row.Cells, heatCell{
				Text:  h.Label(i, j),
				Style: template.CSS(fmt.Sprintf("background:%s;color:%s", fill, text)),
			})
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

var templateFuncs = template.FuncMap{
	"levelColor": func(l dashboard.Level) template.CSS {
		return template.CSS("color:" + dashboard.LevelColor(l))
	},
	"levelBorder": func(l dashboard.Level) template.CSS {
		return template.CSS("border-left-color:" + dashboard.LevelColor(l))
	},
	"levelPill": func(l dashboard.Level) template.CSS {
		return template.CSS(fmt.Sprintf("background:%s;color:%s", dashboard.LevelBackground(l), dashboard.LevelColor(l)))
	},
	"levelCell": func(l dashboard.Level) template.CSS {
		if l == "" {
			return ""
		}
		return template.CSS(fmt.Sprintf("background:%s;color:%s;font-weight:600", dashboard.LevelBackground(l), dashboard.LevelColor(l)))
	},
	"barFill": func(b dashboard.Bar) template.CSS {
		w := math.Max(0, math.Min(100, b.Value))
		if math.IsNaN(w) {
			w = 0
		}
		return template.CSS(fmt.Sprintf("width:%.1f%%;background:%s", w, dashboard.LevelColor(b.Level)))
	},
	"pct": func(v float64) string {
		if math.IsNaN(v) {
			return "—"
		}
		return fmt.Sprintf("%.0f%%", v)
	},
	"wide": func(c chartView) bool {
		return c.Kind == dashboard.KindHeatmap || c.Kind == dashboard.KindScatter || len(c.Categories) > 8
	},
}
