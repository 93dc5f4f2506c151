// Package exporter writes dashboard tables to CSV and XLSX.
//
// CSVWriter writes a single table with a UTF-8 BOM so Excel opens it with
// the right encoding. XLSXWriter writes every table of a page into one
// workbook, one sheet per table, with a styled and frozen header row,
// fitted column widths and the success/warning/danger bands of scored
// cells carried over as fills.
//
// Example usage:
//
//	xw := exporter.NewXLSXWriter(logger)
//	if err := xw.Write(w, page.Tables); err != nil {
//		return err
//	}
//
//	cw := exporter.NewCSVWriter(logger)
//	err := cw.WriteFile("out/paps.csv", table)
package exporter
