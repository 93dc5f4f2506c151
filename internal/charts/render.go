package charts

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/michel-emel/imce-project/internal/dashboard"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
)

// Default SVG size
const (
	DefaultWidth  = 720
	DefaultHeight = 400
)

// Renderer draws dashboard charts as SVG
type Renderer struct {
	width, height int
}

// NewRenderer returns a renderer for the given size; non-positive sizes
// fall back to the defaults
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height}
}

// Size returns the SVG width and height
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Render writes c as SVG. Charts without data render a "No data" panel.
func (r *Renderer) Render(w io.Writer, c *dashboard.Chart) error {
	if c == nil {
		return apierrors.NewRenderError("render chart: nil chart", nil)
	}
	c = finite(c)
	var err error
	switch {
	case c.Empty || !c.HasData():
		err = r.placeholder(w, c)
	case c.Kind == dashboard.KindPie:
		err = r.pie(w, c)
	case c.Kind == dashboard.KindBar && len(c.Series) == 1 && c.Target == nil:
		err = r.bar(w, c)
	case c.Kind == dashboard.KindLine && len(c.Categories) > 1:
		err = r.line(w, c)
	case c.Kind == dashboard.KindScatter:
		err = r.scatter(w, c)
	case c.Kind == dashboard.KindHeatmap:
		err = r.heatmap(w, c)
	case c.Kind == dashboard.KindHBar || c.Kind == dashboard.KindFunnel:
		err = r.horizontal(w, c)
	default:
		err = r.vertical(w, c)
	}
	if err != nil {
		return apierrors.NewRenderError(fmt.Sprintf("render chart %s", c.ID), err)
	}
	return nil
}

// Bytes renders c into memory
func (r *Renderer) Bytes(c *dashboard.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// finite returns c with NaN and infinite values replaced by zero
func finite(c *dashboard.Chart) *dashboard.Chart {
	out := *c
	out.Series = make([]dashboard.Series, len(c.Series))
	for i, s := range c.Series {
		values := make([]float64, len(s.Values))
		for j, v := range s.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				values[j] = v
			}
		}
		s.Values = values
		out.Series[i] = s
	}
	return &out
}

func color(hex string) drawing.Color {
	if hex == "" {
		return drawing.ColorFromHex(dashboard.ColorAccent)
	}
	return drawing.ColorFromHex(hex)
}

// seriesColor picks the colour of one bar, falling back to the palette
func seriesColor(s dashboard.Series, index, seriesIndex int) drawing.Color {
	if index >= 0 && index < len(s.Colors) && s.Colors[index] != "" {
		return color(s.Colors[index])
	}
	if s.Color != "" {
		return color(s.Color)
	}
	return color(dashboard.P(seriesIndex + 1))
}

func titleStyle() chart.Style {
	return chart.Style{FontSize: 12, FontColor: color(dashboard.ColorPrimary)}
}

func valueFormatter(unit string) chart.ValueFormatter {
	return func(v interface{}) string {
		f, ok := v.(float64)
		if !ok {
			return fmt.Sprint(v)
		}
		return formatValue(f, unit)
	}
}

func formatValue(v float64, unit string) string {
	if unit == "%" {
		return fmt.Sprintf("%.0f%%", v)
	}
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// axisMax is the top of a value axis with some headroom
func axisMax(peak float64, c *dashboard.Chart) float64 {
	if c.Target != nil {
		peak = math.Max(peak, c.Target.Value)
	}
	if c.Unit == "%" && peak <= 100 {
		return 100
	}
	if peak <= 0 {
		return 1
	}
	return math.Ceil(peak * 1.1)
}

func (r *Renderer) bar(w io.Writer, c *dashboard.Chart) error {
	s := c.Series[0]
	bars := make([]chart.Value, len(c.Categories))
	peak := 0.0
	for i, label := range c.Categories {
		v := s.Values[i]
		peak = math.Max(peak, v)
		fill := seriesColor(s, i, 0)
		bars[i] = chart.Value{
			Label: escape(truncate(label, 18)),
			Value: v,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
	}
	bc := chart.BarChart{
		Title:      escape(c.Title),
		TitleStyle: titleStyle(),
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth(r.width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:           escape(c.YLabel),
			Range:          &chart.ContinuousRange{Min: 0, Max: axisMax(peak, c)},
			ValueFormatter: valueFormatter(c.Unit),
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	return max(8, min(60, (width-120)/n-12))
}

func (r *Renderer) pie(w io.Writer, c *dashboard.Chart) error {
	s := c.Series[0]
	var values []chart.Value
	for i, label := range c.Categories {
		if s.Values[i] <= 0 {
			continue
		}
		fill := seriesColor(s, i, i)
		values = append(values, chart.Value{
			Label: escape(fmt.Sprintf("%s (%s)", truncate(label, 22), formatValue(s.Values[i], c.Unit))),
			Value: s.Values[i],
			Style: chart.Style{FillColor: fill, StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		})
	}
	if len(values) == 0 {
		return r.placeholder(w, c)
	}
	pc := chart.PieChart{
		Title:      escape(c.Title),
		TitleStyle: titleStyle(),
		Width:      r.width,
		Height:     r.height,
		Values:     values,
	}
	return pc.Render(chart.SVG, w)
}

func (r *Renderer) line(w io.Writer, c *dashboard.Chart) error {
	xs := make([]float64, len(c.Categories))
	ticks := make([]chart.Tick, len(c.Categories))
	for i, label := range c.Categories {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: escape(truncate(label, 12))}
	}
	peak := 0.0
	series := make([]chart.Series, len(c.Series))
	for i, s := range c.Series {
		for _, v := range s.Values {
			peak = math.Max(peak, v)
		}
		stroke := seriesColor(s, -1, i)
		series[i] = chart.ContinuousSeries{
			Name:    escape(s.Name),
			XValues: xs,
			YValues: s.Values,
			Style:   chart.Style{StrokeColor: stroke, StrokeWidth: 2, DotColor: stroke, DotWidth: 3},
		}
	}
	ch := chart.Chart{
		Title:      escape(c.Title),
		TitleStyle: titleStyle(),
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: escape(c.XLabel), Ticks: ticks, Range: &chart.ContinuousRange{Min: 0, Max: float64(len(xs) - 1)}},
		YAxis: chart.YAxis{
			Name:           escape(c.YLabel),
			Range:          &chart.ContinuousRange{Min: 0, Max: axisMax(peak, c)},
			ValueFormatter: valueFormatter(c.Unit),
		},
		Series: series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.SVG, w)
}

// pointRange spans values with a margin so a single point still has width
func pointRange(values []float64, percent bool) *chart.ContinuousRange {
	if percent {
		return &chart.ContinuousRange{Min: 0, Max: 105}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	pad := math.Max((hi-lo)*0.1, 1)
	return &chart.ContinuousRange{Min: math.Floor(lo - pad), Max: math.Ceil(hi + pad)}
}

func (r *Renderer) scatter(w io.Writer, c *dashboard.Chart) error {
	groups := make(map[string][]dashboard.Point)
	var names []string
	var xs, ys []float64
	for _, p := range c.Points {
		if _, ok := groups[p.Series]; !ok {
			names = append(names, p.Series)
		}
		groups[p.Series] = append(groups[p.Series], p)
		xs, ys = append(xs, p.X), append(ys, p.Y)
	}
	sort.Strings(names)

	series := make([]chart.Series, 0, len(names))
	for i, name := range names {
		pts := groups[name]
		gx, gy := make([]float64, len(pts)), make([]float64, len(pts))
		for j, p := range pts {
			gx[j], gy[j] = p.X, p.Y
		}
		dot := color(dashboard.P(i + 1))
		series = append(series, chart.ContinuousSeries{
			Name:    escape(name),
			XValues: gx,
			YValues: gy,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotColor: dot, DotWidth: 6},
		})
	}
	percent := c.Unit == "%"
	ch := chart.Chart{
		Title:      escape(c.Title),
		TitleStyle: titleStyle(),
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: escape(c.XLabel), Range: pointRange(xs, percent), ValueFormatter: valueFormatter(c.Unit)},
		YAxis:      chart.YAxis{Name: escape(c.YLabel), Range: pointRange(ys, percent), ValueFormatter: valueFormatter(c.Unit)},
		Series:     series,
	}
	if c.Target != nil {
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    escape(c.Target.Label),
			XValues: []float64{ch.XAxis.Range.GetMin(), ch.XAxis.Range.GetMax()},
			YValues: []float64{c.Target.Value, c.Target.Value},
			Style:   chart.Style{StrokeColor: color(dashboard.ColorDanger), StrokeWidth: 1, StrokeDashArray: []float64{4, 4}},
		})
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}
