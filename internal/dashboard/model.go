package dashboard

import (
	"fmt"

	"github.com/michel-emel/imce-project/internal/analytics"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/filter"
)

// Level aliases the analytics colour band for page models
type Level = analytics.Level

var (
	ErrUnknownPage  = apierrors.NewNotFoundError("page")
	ErrUnknownChart = apierrors.NewNotFoundError("chart")
	ErrUnknownTable = apierrors.NewNotFoundError("table")
)

// Page is the render-ready model of one dashboard page
type Page struct {
	Slug      string           `json:"slug"`
	Path      string           `json:"path"`
	Title     string           `json:"title"`
	Subtitle  string           `json:"subtitle,omitempty"`
	Status    *Badge           `json:"status,omitempty"`
	Controls  []filter.Control `json:"controls,omitempty"`
	Selection filter.Selection `json:"selection,omitempty"`

	KPIs       []KPI           `json:"kpis,omitempty"`
	Alerts     []Alert         `json:"alerts,omitempty"`
	Cards      []Card          `json:"cards,omitempty"`
	Charts     []*Chart        `json:"charts,omitempty"`
	Tables     []*Table        `json:"tables,omitempty"`
	Indicators []IndicatorList `json:"indicators,omitempty"`
	Insights   []Insight       `json:"insights,omitempty"`

	// Missing replaces the page body when its dataset is not loaded
	Missing string `json:"missing,omitempty"`
}

// Chart looks up a chart by id
func (p *Page) Chart(id string) (*Chart, error) {
	for _, c := range p.Charts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownChart, p.Slug, id)
}

// Table looks up a table by id
func (p *Page) Table(id string) (*Table, error) {
	for _, t := range p.Tables {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTable, p.Slug, id)
}

// Badge is the page status pill
type Badge struct {
	Label string `json:"label"`
	Level Level  `json:"level"`
}

// KPI is one headline card
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Sub   string `json:"sub,omitempty"`
	Level Level  `json:"level"`
}

// Alert is a highlighted finding
type Alert struct {
	Level Level  `json:"level"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// Insight is an interpretation panel under a chart or analysis
type Insight struct {
	// Section groups the insight with the chart of the same id
	Section string `json:"section,omitempty"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	Level   Level  `json:"level"`
}

// Card summarises one dataset on the executive page
type Card struct {
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Level  Level    `json:"level"`
	Lines  []string `json:"lines,omitempty"`
	Bars   []Bar    `json:"bars,omitempty"`
	Link   string   `json:"link,omitempty"`
}

// Bar is a labelled progress bar
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Level Level   `json:"level"`
}

// IndicatorList is a titled list of graded indicators
type IndicatorList struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Items []Indicator `json:"items"`
}

// Indicator is one graded line such as "Not Compensated 12 (8%)"
type Indicator struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Note  string `json:"note,omitempty"`
	Level Level  `json:"level"`
}

// Table is a scored or listed table; every table can be exported
type Table struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Columns   []string `json:"columns"`
	Rows      [][]Cell `json:"rows"`
	EmptyText string   `json:"empty_text,omitempty"`
}

// Cell is one table cell with an optional colour band
type Cell struct {
	Text  string `json:"text"`
	Level Level  `json:"level,omitempty"`
}

// Texts returns the plain text of every row, for export
func (t *Table) Texts() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		line := make([]string, len(r))
		for j, c := range r {
			line[j] = c.Text
		}
		out[i] = line
	}
	return out
}

func (t *Table) add(cells ...Cell) {
	t.Rows = append(t.Rows, cells)
}

func text(s string) Cell {
	return Cell{Text: s}
}

func scored(v float64) Cell {
	return Cell{Text: pct(v), Level: analytics.ScoreLevel(v)}
}

func leveled(s string, l Level) Cell {
	return Cell{Text: s, Level: l}
}
