package dashboard

import "github.com/michel-emel/imce-project/internal/analytics"

// ChartKind selects how a chart is drawn
type ChartKind string

const (
	KindBar     ChartKind = "bar"
	KindHBar    ChartKind = "hbar"
	KindPie     ChartKind = "pie"
	KindStacked ChartKind = "stacked"
	KindGrouped ChartKind = "grouped"
	KindLine    ChartKind = "line"
	KindScatter ChartKind = "scatter"
	KindHeatmap ChartKind = "heatmap"
	KindFunnel  ChartKind = "funnel"
	// KindCombo draws the first series as bars and the second as a line
	// on a secondary percentage axis
	KindCombo ChartKind = "combo"
)

// Chart is a renderer-neutral chart description
type Chart struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Kind     ChartKind `json:"kind"`

	Categories []string `json:"categories,omitempty"`
	Series     []Series `json:"series,omitempty"`
	Points     []Point  `json:"points,omitempty"`
	Heatmap    *Heatmap `json:"heatmap,omitempty"`

	// Unit is appended to values, "%" for rates
	Unit   string  `json:"unit,omitempty"`
	Target *Target `json:"target,omitempty"`
	XLabel string  `json:"x_label,omitempty"`
	YLabel string  `json:"y_label,omitempty"`

	Empty bool `json:"empty"`
}

// Series is one named list of values aligned with Categories
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`
	// Colors overrides Color per category
	Colors []string `json:"colors,omitempty"`
}

// Target is a reference line such as "80% target"
type Target struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Point is one scatter marker
type Point struct {
	Series string  `json:"series"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Label  string  `json:"label,omitempty"`
}

// Heatmap is a labelled matrix drawn as a shaded table
type Heatmap struct {
	Rows  []string    `json:"rows"`
	Cols  []string    `json:"cols"`
	Cells [][]float64 `json:"cells"`
	// Text overrides the displayed value of a cell when set
	Text [][]string `json:"text,omitempty"`
	Max  float64    `json:"max"`
}

// Shade returns the cell intensity in 0..1
func (h *Heatmap) Shade(i, j int) float64 {
	if h.Max <= 0 {
		return 0
	}
	return h.Cells[i][j] / h.Max
}

// Label is the displayed text of a cell
func (h *Heatmap) Label(i, j int) string {
	if h.Text != nil && h.Text[i][j] != "" {
		return h.Text[i][j]
	}
	return num(h.Cells[i][j])
}

// HasData reports whether any series, point or cell carries a non-zero value
func (c *Chart) HasData() bool {
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v != 0 {
				return true
			}
		}
	}
	if len(c.Points) > 0 {
		return true
	}
	if c.Heatmap != nil {
		for _, row := range c.Heatmap.Cells {
			for _, v := range row {
				if v != 0 {
					return true
				}
			}
		}
	}
	return false
}

func newChart(id, title string, kind ChartKind, categories []string, series ...Series) *Chart {
	c := &Chart{ID: id, Title: title, Kind: kind, Categories: categories, Series: series}
	c.Empty = !c.HasData()
	return c
}

// emptyChart is the placeholder for a chart whose selection has no rows
func emptyChart(id, title string, kind ChartKind) *Chart {
	return &Chart{ID: id, Title: title, Kind: kind, Empty: true}
}

func (c *Chart) percent() *Chart {
	c.Unit = "%"
	return c
}

func (c *Chart) target(v float64, label string) *Chart {
	c.Target = &Target{Value: v, Label: label}
	return c
}

func (c *Chart) sub(s string) *Chart {
	c.Subtitle = s
	return c
}

func (c *Chart) axes(x, y string) *Chart {
	c.XLabel, c.YLabel = x, y
	return c
}

func colored(name string, values []float64, colors []string) Series {
	return Series{Name: name, Values: values, Colors: colors}
}

func solid(name string, values []float64, color string) Series {
	return Series{Name: name, Values: values, Color: color}
}

// splitTallies turns value counts into chart labels and values
func splitTallies(ts []analytics.Tally) ([]string, []float64) {
	labels := make([]string, len(ts))
	values := make([]float64, len(ts))
	for i, t := range ts {
		labels[i] = t.Label
		values[i] = float64(t.Count)
	}
	return labels, values
}

// pieOf charts the value counts of key over rows
func pieOf[T any](id, title string, rows []T, key func(T) string) *Chart {
	labels, values := splitTallies(analytics.ValueCounts(rows, key))
	return newChart(id, title, KindPie, labels, colored("Count", values, paletteColors(len(labels))))
}
