package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dashboard"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
)

const (
	maxSheetName  = 31
	minColWidth   = 10
	maxColWidth   = 60
	headerHeight  = 22
	emptyRowLabel = "(no rows)"
)

var sheetNameReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// XLSXWriter exports dashboard tables as a workbook with one sheet per table
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a workbook writer
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger}
}

// Write builds the workbook for tables and writes it to w
func (xw *XLSXWriter) Write(w io.Writer, tables []*dashboard.Table) error {
	f, err := xw.build(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return apierrors.NewRenderError("export xlsx: write workbook", err)
	}
	return nil
}

// WriteFile saves the workbook for tables to path
func (xw *XLSXWriter) WriteFile(path string, tables []*dashboard.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apierrors.NewStorageError("failed to create directory", err)
	}
	f, err := xw.build(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	xw.logger.Info("Writing XLSX file",
		slog.String("file_path", path),
		slog.Int("sheet_count", len(tables)))
	if err := f.SaveAs(path); err != nil {
		return apierrors.NewStorageError("failed to save workbook", err)
	}
	return nil
}

func (xw *XLSXWriter) build(tables []*dashboard.Table) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, apierrors.NewRenderError("export xlsx: no tables to export", nil)
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: hexRGB(dashboard.ColorCard)},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hexRGB(dashboard.ColorPrimary)}},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, apierrors.NewRenderError("export xlsx: header style", err)
	}
	levels := newLevelStyles(f)

	names := make(map[string]bool)
	for i, t := range tables {
		sheet := SheetName(t, names)
		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err == nil {
			err = xw.fill(f, sheet, t, header, levels)
		}
		if err != nil {
			f.Close()
			return nil, apierrors.NewRenderError(fmt.Sprintf("export xlsx %s", t.ID), err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (xw *XLSXWriter) fill(f *excelize.File, sheet string, t *dashboard.Table, header int, levels levelStyles) error {
	widths := make([]int, len(t.Columns))
	for j, col := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		widths[j] = utf8.RuneCountInString(col)
	}
	if len(t.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return err
		}
		if err := f.SetRowHeight(sheet, 1, headerHeight); err != nil {
			return err
		}
	}

	rows := t.Rows
	if len(rows) == 0 {
		text := t.EmptyText
		if text == "" {
			text = emptyRowLabel
		}
		return f.SetCellValue(sheet, "A2", text)
	}
	for i, row := range rows {
		for j, c := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, c.Text); err != nil {
				return err
			}
			if style, ok := levels[c.Level]; ok {
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return err
				}
			}
			if j < len(widths) {
				widths[j] = max(widths[j], utf8.RuneCountInString(c.Text))
			}
		}
	}

	for j, w := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(max(w+2, minColWidth), maxColWidth))); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// levelStyles maps colour bands to cell fill styles
type levelStyles map[dashboard.Level]int

func newLevelStyles(f *excelize.File) levelStyles {
	out := make(levelStyles)
	for _, l := range []dashboard.Level{analytics.LevelSuccess, analytics.LevelWarning, analytics.LevelDanger} {
		id, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Color: hexRGB(dashboard.LevelColor(l))},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hexRGB(dashboard.LevelBackground(l))}},
		})
		if err == nil {
			out[l] = id
		}
	}
	return out
}

// SheetName derives a unique, Excel-safe sheet name from the table title
func SheetName(t *dashboard.Table, used map[string]bool) string {
	base := t.Title
	if strings.TrimSpace(base) == "" {
		base = t.ID
	}
	base = strings.TrimSpace(sheetNameReplacer.Replace(base))
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Sheet"
	}
	name := clip(base, maxSheetName)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = clip(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// hexRGB strips the leading '#' from a colour token
func hexRGB(c string) string {
	return strings.TrimPrefix(c, "#")
}

// FileName builds the download name for an export
func FileName(slug, table, ext string) string {
	if table == "" {
		return fmt.Sprintf("imce-%s.%s", slug, ext)
	}
	return fmt.Sprintf("imce-%s-%s.%s", slug, table, ext)
}
