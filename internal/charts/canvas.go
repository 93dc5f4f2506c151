package charts

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/michel-emel/imce-project/internal/dashboard"
)

const (
	marginTop    = 56
	marginBottom = 64
	marginLeft   = 56
	marginRight  = 24
	labelWidth   = 150
	tickCount    = 5
)

// canvas draws primitive shapes on a go-chart SVG renderer for chart
// kinds the library has no type for
type canvas struct {
	r             chart.Renderer
	width, height int
}

func newCanvas(width, height int) (*canvas, error) {
	r, err := chart.SVG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)
	return &canvas{r: r, width: width, height: height}, nil
}

func (c *canvas) save(w io.Writer) error {
	var buf bytes.Buffer
	if err := c.r.Save(&buf); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (c *canvas) rect(x0, y0, x1, y1 int, fill drawing.Color) {
	c.r.ResetStyle()
	c.r.SetFillColor(fill)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y0)
	c.r.LineTo(x1, y1)
	c.r.LineTo(x0, y1)
	c.r.Close()
	c.r.Fill()
}

func (c *canvas) line(x0, y0, x1, y1 int, stroke drawing.Color, width float64, dash ...float64) {
	c.r.ResetStyle()
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	if len(dash) > 0 {
		c.r.SetStrokeDashArray(dash)
	}
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y1)
	c.r.Stroke()
}

func (c *canvas) dot(x, y int, radius float64, fill drawing.Color) {
	c.r.ResetStyle()
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(drawing.ColorWhite)
	c.r.SetStrokeWidth(1)
	c.r.Circle(radius, x, y)
}

// text draws s with its left edge at x and baseline at y
func (c *canvas) text(s string, x, y int, size float64, fg drawing.Color) {
	c.r.ResetStyle()
	c.r.SetFontSize(size)
	c.r.SetFontColor(fg)
	c.r.Text(escape(s), x, y)
}

func (c *canvas) measure(s string, size float64) int {
	c.r.ResetStyle()
	c.r.SetFontSize(size)
	return c.r.MeasureText(s).Width()
}

// centered draws s centred on x
func (c *canvas) centered(s string, x, y int, size float64, fg drawing.Color) {
	c.text(s, x-c.measure(s, size)/2, y, size, fg)
}

// rightAligned draws s ending at x
func (c *canvas) rightAligned(s string, x, y int, size float64, fg drawing.Color) {
	c.text(s, x-c.measure(s, size), y, size, fg)
}

func (c *canvas) heading(ch *dashboard.Chart) {
	c.text(ch.Title, 12, 22, 13, color(dashboard.ColorPrimary))
	if ch.Subtitle != "" {
		c.text(ch.Subtitle, 12, 40, 10, color(dashboard.ColorMuted))
	}
}

// legend draws one swatch per series along the bottom edge
func (c *canvas) legend(names []string, colors []drawing.Color) {
	x, y := marginLeft, c.height-12
	for i, name := range names {
		c.rect(x, y-9, x+10, y+1, colors[i])
		c.text(name, x+14, y, 10, color(dashboard.ColorMuted))
		x += c.measure(name, 10) + 32
	}
}

// valueAxis draws horizontal gridlines with labels between top and bottom
func (c *canvas) valueAxis(x0, x1, top, bottom int, peak float64, unit string) {
	grid := color(dashboard.ColorBorder)
	for i := 0; i <= tickCount; i++ {
		v := peak * float64(i) / tickCount
		y := bottom - int(float64(bottom-top)*float64(i)/tickCount)
		c.line(x0, y, x1, y, grid, 1)
		c.rightAligned(formatValue(v, unit), x0-6, y+4, 9, color(dashboard.ColorMuted))
	}
}

func (c *canvas) target(t *dashboard.Target, x0, x1, y int) {
	danger := color(dashboard.ColorDanger)
	c.line(x0, y, x1, y, danger, 1.5, 5, 4)
	if t.Label != "" {
		c.rightAligned(t.Label, x1, y-4, 9, danger)
	}
}

func scale(v, peak float64, span int) int {
	if peak <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v / peak * float64(span)))
}

func (r *Renderer) placeholder(w io.Writer, ch *dashboard.Chart) error {
	c, err := newCanvas(r.width, r.height)
	if err != nil {
		return err
	}
	c.rect(0, 0, r.width, r.height, color(dashboard.ColorLightBg))
	c.heading(ch)
	c.centered("No data for the current selection", r.width/2, r.height/2, 12, color(dashboard.ColorMuted))
	return c.save(w)
}

// vertical draws column charts: grouped, stacked, combo and bars with a
// target line
func (r *Renderer) vertical(w io.Writer, ch *dashboard.Chart) error {
	c, err := newCanvas(r.width, r.height)
	if err != nil {
		return err
	}
	c.heading(ch)

	bars := ch.Series
	var line *dashboard.Series
	right := r.width - marginRight
	if ch.Kind == dashboard.KindCombo && len(ch.Series) > 1 {
		bars, line = ch.Series[:1], &ch.Series[1]
		right -= 24
	}
	stacked := ch.Kind == dashboard.KindStacked
	left, top, bottom := marginLeft, marginTop, r.height-marginBottom

	peak := 0.0
	for i := range ch.Categories {
		sum := 0.0
		for _, s := range bars {
			if stacked {
				sum += s.Values[i]
			} else {
				sum = math.Max(sum, s.Values[i])
			}
		}
		peak = math.Max(peak, sum)
	}
	unit := ch.Unit
	if line != nil {
		unit = ""
	}
	peak = axisMax(peak, &dashboard.Chart{Unit: unit, Target: ch.Target})
	c.valueAxis(left, right, top, bottom, peak, unit)

	n := len(ch.Categories)
	slot := (right - left) / max(n, 1)
	group := len(bars)
	if stacked {
		group = 1
	}
	barW := max(4, min(48, (slot-12)/group))
	for i, label := range ch.Categories {
		x := left + slot*i + (slot-barW*group)/2
		base := bottom
		for k, s := range bars {
			h := scale(s.Values[i], peak, bottom-top)
			fill := seriesColor(s, i, k)
			if stacked {
				c.rect(x, base-h, x+barW, base, fill)
				base -= h
				continue
			}
			bx := x + k*barW
			c.rect(bx, bottom-h, bx+barW-2, bottom, fill)
			if group == 1 {
				c.centered(formatValue(s.Values[i], ch.Unit), bx+barW/2, bottom-h-4, 9, color(dashboard.ColorPrimary))
			}
		}
		c.centered(truncate(label, max(4, slot/7)), left+slot*i+slot/2, bottom+16, 9, color(dashboard.ColorMuted))
	}

	if line != nil {
		stroke := seriesColor(*line, -1, 1)
		px, py := -1, -1
		for i, v := range line.Values {
			x := left + slot*i + slot/2
			y := bottom - scale(v, 100, bottom-top)
			if px >= 0 {
				c.line(px, py, x, y, stroke, 2)
			}
			c.dot(x, y, 4, stroke)
			c.centered(formatValue(v, "%"), x, y-8, 9, stroke)
			px, py = x, y
		}
		for i := 0; i <= tickCount; i++ {
			y := bottom - (bottom-top)*i/tickCount
			c.text(formatValue(float64(100*i/tickCount), "%"), right+4, y+4, 9, stroke)
		}
	}

	if ch.Target != nil {
		scaleMax := peak
		if line != nil {
			scaleMax = 100
		}
		c.target(ch.Target, left, right, bottom-scale(ch.Target.Value, scaleMax, bottom-top))
	}
	if ch.YLabel != "" {
		c.text(ch.YLabel, 12, top-8, 9, color(dashboard.ColorMuted))
	}
	if len(ch.Series) > 1 {
		names := make([]string, len(ch.Series))
		colors := make([]drawing.Color, len(ch.Series))
		for k, s := range ch.Series {
			names[k], colors[k] = s.Name, seriesColor(dashboard.Series{Color: s.Color}, -1, k)
		}
		c.legend(names, colors)
	}
	return c.save(w)
}

// horizontal draws ranked bars with the label on the left; funnels are
// centred on the plot
func (r *Renderer) horizontal(w io.Writer, ch *dashboard.Chart) error {
	c, err := newCanvas(r.width, r.height)
	if err != nil {
		return err
	}
	c.heading(ch)

	left, right := labelWidth, r.width-marginRight-48
	top, bottom := marginTop, r.height-24
	if len(ch.Series) > 1 {
		bottom -= 20
	}
	peak := 0.0
	for _, s := range ch.Series {
		for _, v := range s.Values {
			peak = math.Max(peak, v)
		}
	}
	peak = axisMax(peak, ch)
	funnel := ch.Kind == dashboard.KindFunnel

	n := len(ch.Categories)
	slot := (bottom - top) / max(n, 1)
	barH := max(4, min(28, (slot-6)/len(ch.Series)))
	span := right - left
	for i, label := range ch.Categories {
		y := top + slot*i + (slot-barH*len(ch.Series))/2
		c.rightAligned(truncate(label, 24), left-8, y+barH/2+4, 10, color(dashboard.ColorPrimary))
		for k, s := range ch.Series {
			wd := scale(s.Values[i], peak, span)
			x0 := left
			if funnel {
				x0 = left + (span-wd)/2
			}
			by := y + k*barH
			c.rect(x0, by, x0+wd, by+barH-2, seriesColor(s, i, k))
			c.text(formatValue(s.Values[i], ch.Unit), x0+wd+4, by+barH/2+4, 9, color(dashboard.ColorPrimary))
		}
	}
	if ch.Target != nil && !funnel {
		x := left + scale(ch.Target.Value, peak, span)
		danger := color(dashboard.ColorDanger)
		c.line(x, top, x, bottom, danger, 1.5, 5, 4)
		c.text(ch.Target.Label, x+4, top-4, 9, danger)
	}
	if len(ch.Series) > 1 {
		names := make([]string, len(ch.Series))
		colors := make([]drawing.Color, len(ch.Series))
		for k, s := range ch.Series {
			names[k], colors[k] = s.Name, seriesColor(dashboard.Series{Color: s.Color}, -1, k)
		}
		c.legend(names, colors)
	}
	return c.save(w)
}

// heatmap draws a shaded grid with each cell's label
func (r *Renderer) heatmap(w io.Writer, ch *dashboard.Chart) error {
	c, err := newCanvas(r.width, r.height)
	if err != nil {
		return err
	}
	c.heading(ch)
	h := ch.Heatmap
	if h == nil || len(h.Rows) == 0 || len(h.Cols) == 0 {
		return c.save(w)
	}

	left, top := labelWidth, marginTop+20
	cellW := (r.width - marginRight - left) / len(h.Cols)
	cellH := min(36, (r.height-12-top)/len(h.Rows))
	for j, col := range h.Cols {
		c.centered(truncate(col, max(3, cellW/7)), left+cellW*j+cellW/2, top-6, 9, color(dashboard.ColorMuted))
	}
	for i, row := range h.Rows {
		y := top + cellH*i
		c.rightAligned(truncate(row, 22), left-8, y+cellH/2+4, 10, color(dashboard.ColorPrimary))
		for j := range h.Cols {
			fill, fg := heatColors(h.Shade(i, j))
			x := left + cellW*j
			c.rect(x+1, y+1, x+cellW-1, y+cellH-1, fill)
			c.centered(h.Label(i, j), x+cellW/2, y+cellH/2+4, 10, fg)
		}
	}
	return c.save(w)
}

func heatColors(shade float64) (fill, text drawing.Color) {
	fill = blend(color(dashboard.ColorLightBg), color(dashboard.ColorAccent), shade)
	if shade > 0.55 {
		return fill, drawing.ColorWhite
	}
	return fill, color(dashboard.ColorPrimary)
}

// HeatCell returns the CSS fill and text colours of a heatmap cell, matching
// the SVG rendering
func HeatCell(shade float64) (fill, text string) {
	f, t := heatColors(shade)
	return hex(f), hex(t)
}

func hex(c drawing.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// blend mixes a toward b by t in 0..1
func blend(a, b drawing.Color, t float64) drawing.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func escape(s string) string {
	return html.EscapeString(s)
}

// truncate shortens s to n runes with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
