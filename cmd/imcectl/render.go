package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/dataset"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(dashboard.ColorPrimary))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(dashboard.ColorMuted))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(dashboard.ColorBorder))
)

func levelStyle(l dashboard.Level) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(dashboard.LevelColor(l)))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderSummary(p *dashboard.Page) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(p.Title))
	if p.Status != nil {
		b.WriteString("  " + levelStyle(p.Status.Level).Render(p.Status.Label))
	}
	b.WriteString("\n\n")

	kpis := newTable("Indicator", "Value", "Detail")
	for _, k := range p.KPIs {
		kpis.Row(k.Label, levelStyle(k.Level).Render(k.Value), k.Sub)
	}
	b.WriteString(kpis.String() + "\n")

	for _, a := range p.Alerts {
		b.WriteString(levelStyle(a.Level).Render("• "+a.Text) + "\n")
	}

	if len(p.Cards) > 0 {
		b.WriteString("\n" + titleStyle.Render("Datasets") + "\n")
		for _, c := range p.Cards {
			fmt.Fprintf(&b, "\n%s  %s\n", titleStyle.Render(c.Title), levelStyle(c.Level).Render(c.Status))
			for _, line := range c.Lines {
				b.WriteString(mutedStyle.Render("  "+line) + "\n")
			}
			for _, bar := range c.Bars {
				fmt.Fprintf(&b, "  %-32s %s\n", bar.Label, levelStyle(bar.Level).Render(fmt.Sprintf("%5.1f%%", bar.Value)))
			}
		}
	}
	return b.String()
}

func renderDatasets(statuses []dataset.Status) string {
	t := newTable("Dataset", "File", "Status", "Rows")
	loaded := 0
	for _, st := range statuses {
		status, level := "missing", analytics.LevelDanger
		if st.Loaded {
			status, level = "loaded", analytics.LevelSuccess
			loaded++
		}
		t.Row(st.Label, st.File, levelStyle(level).Render(status), strconv.Itoa(st.Rows))
	}
	return t.String() + "\n" + mutedStyle.Render(fmt.Sprintf("%d of %d datasets loaded", loaded, len(statuses))) + "\n"
}
