package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/filter"
)

func sample(kind dashboard.ChartKind) *dashboard.Chart {
	return &dashboard.Chart{
		ID:         "sample-" + string(kind),
		Title:      "Compensation & grievances",
		Kind:       kind,
		Categories: []string{"Gasabo", "Kicukiro", "Rubavu"},
		Series: []dashboard.Series{
			{Name: "Received", Values: []float64{20, 12, 4}},
			{Name: "Resolved %", Values: []float64{50, 75, 100}},
		},
	}
}

func render(t *testing.T, c *dashboard.Chart) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(0, 0).Render(&buf, c))
	return buf.String()
}

func TestRenderKinds(t *testing.T) {
	tests := []struct {
		name  string
		chart *dashboard.Chart
	}{
		{"grouped", sample(dashboard.KindGrouped)},
		{"stacked", sample(dashboard.KindStacked)},
		{"combo", sample(dashboard.KindCombo)},
		{"hbar", sample(dashboard.KindHBar)},
		{"funnel", sample(dashboard.KindFunnel)},
		{"line", sample(dashboard.KindLine)},
		{"bar", func() *dashboard.Chart {
			c := sample(dashboard.KindBar)
			c.Series = c.Series[:1]
			return c
		}()},
		{"bar with target", func() *dashboard.Chart {
			c := sample(dashboard.KindBar)
			c.Series = c.Series[1:]
			c.Unit = "%"
			c.Target = &dashboard.Target{Value: 80, Label: "80% target"}
			return c
		}()},
		{"pie", func() *dashboard.Chart {
			c := sample(dashboard.KindPie)
			c.Series = []dashboard.Series{{Name: "Count", Values: []float64{3, 0, 1}}}
			return c
		}()},
		{"scatter", &dashboard.Chart{
			ID:    "scatter",
			Title: "Resolution vs compensation",
			Kind:  dashboard.KindScatter,
			Unit:  "%",
			Points: []dashboard.Point{
				{Series: "gasabo", X: 50, Y: 80},
				{Series: "huye", X: 100, Y: 20},
			},
		}},
		{"heatmap", &dashboard.Chart{
			ID:    "heat",
			Title: "Instruments",
			Kind:  dashboard.KindHeatmap,
			Heatmap: &dashboard.Heatmap{
				Rows:  []string{"Gasabo", "Kicukiro"},
				Cols:  []string{"ESMF", "LMP"},
				Cells: [][]float64{{1, 1}, {0, 1}},
				Text:  [][]string{{"✓", "✓"}, {"✗", "✓"}},
				Max:   1,
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, tt.chart)
			assert.True(t, strings.HasPrefix(out, "<svg"), "output starts with %.40q", out)
			assert.True(t, strings.HasSuffix(out, "</svg>"))
			assert.Contains(t, out, escape(tt.chart.Title))
		})
	}
}

func TestRenderEscapesText(t *testing.T) {
	c := sample(dashboard.KindHBar)
	c.Categories[0] = "<Gasabo>"
	out := render(t, c)
	assert.NotContains(t, out, "<Gasabo>")
	assert.Contains(t, out, "&lt;Gasabo&gt;")
	assert.Contains(t, out, "Compensation &amp; grievances")
}

func TestRenderPlaceholder(t *testing.T) {
	for _, c := range []*dashboard.Chart{
		{ID: "empty", Title: "Nothing", Kind: dashboard.KindBar, Empty: true},
		{ID: "zeros", Title: "Zeros", Kind: dashboard.KindPie, Categories: []string{"a"}, Series: []dashboard.Series{{Values: []float64{0}}}},
	} {
		out := render(t, c)
		assert.Contains(t, out, "No data for the current selection", c.ID)
	}
}

func TestRenderNilChart(t *testing.T) {
	err := NewRenderer(0, 0).Render(&bytes.Buffer{}, nil)
	require.Error(t, err)
	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeRender, appErr.Type)
}

func TestNewRendererDefaults(t *testing.T) {
	w, h := NewRenderer(-1, 0).Size()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)

	w, h = NewRenderer(300, 200).Size()
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)
}

func TestRenderEveryPageChart(t *testing.T) {
	store := datasettest.Store()
	r := NewRenderer(0, 0)
	for _, def := range dashboard.Pages() {
		p := def.Build(store, filter.Selection{})
		for _, c := range p.Charts {
			out, err := r.Bytes(c)
			require.NoError(t, err, "%s/%s", p.Slug, c.ID)
			assert.True(t, bytes.HasPrefix(out, []byte("<svg")), "%s/%s", p.Slug, c.ID)
		}
	}
}

func TestHeatCell(t *testing.T) {
	fill, text := HeatCell(0)
	assert.Equal(t, dashboard.ColorLightBg, fill)
	assert.Equal(t, dashboard.ColorPrimary, text)

	fill, text = HeatCell(1)
	assert.Equal(t, dashboard.ColorAccent, fill)
	assert.Equal(t, "#FFFFFF", text)
}
