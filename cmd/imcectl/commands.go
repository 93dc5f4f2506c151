package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/michel-emel/imce-project/internal/dashboard"
	"github.com/michel-emel/imce-project/internal/exporter"
)

func (c *cli) summaryCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the executive summary KPIs and dataset cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := c.service.Page(cmd.Context(), dashboard.ExecutiveSlug, nil)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summaryOf(page))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), renderSummary(page))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

// summary is the JSON shape of the summary command
type summary struct {
	Title      string                    `json:"title"`
	Status     *dashboard.Badge          `json:"status,omitempty"`
	KPIs       []dashboard.KPI           `json:"kpis"`
	Cards      []dashboard.Card          `json:"cards"`
	Indicators []dashboard.IndicatorList `json:"indicators,omitempty"`
	Alerts     []dashboard.Alert         `json:"alerts,omitempty"`
}

func summaryOf(p *dashboard.Page) summary {
	return summary{
		Title:      p.Title,
		Status:     p.Status,
		KPIs:       p.KPIs,
		Cards:      p.Cards,
		Indicators: p.Indicators,
		Alerts:     p.Alerts,
	}
}

func (c *cli) datasetsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets with their load status and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses := c.service.Datasets()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), statuses)
			}
			_, err := io.WriteString(cmd.OutOrStdout(), renderDatasets(statuses))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func (c *cli) pageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page <slug>",
		Short: "Print a page model as JSON",
		Long: `Builds one dashboard page under the given filters and prints its model
(KPIs, charts, tables, insights) as JSON. Slugs: executive, paps, workers,
contractors, grc, district, checklist, crossanalysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := c.selection()
			if err != nil {
				return err
			}
			page, err := c.service.Page(cmd.Context(), args[0], sel)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
	c.addFilterFlag(cmd)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <slug>",
		Short: "Export every table of a page to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]
			sel, err := c.selection()
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = exporter.FileName(slug, "", "xlsx")
			}
			if err := c.service.ExportFile(cmd.Context(), path, slug, sel); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default imce-<slug>.xlsx)")
	c.addFilterFlag(cmd)
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
