package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/michel-emel/imce-project/internal/dashboard"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
)

// utf8BOM lets Excel recognise UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write writes headers and records to w
func (cw *CSVWriter) Write(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable writes one dashboard table with a BOM. An empty table still
// gets its header row.
func (cw *CSVWriter) WriteTable(w io.Writer, t *dashboard.Table) error {
	if t == nil {
		return apierrors.NewRenderError("export csv: nil table", nil)
	}
	cw.logger.Debug("Writing CSV table",
		slog.String("table", t.ID),
		slog.Int("record_count", len(t.Rows)))

	if err := cw.Write(w, WriteOptions{Headers: t.Columns, Records: t.Texts(), BOMPrefix: true}); err != nil {
		return apierrors.NewRenderError(fmt.Sprintf("export csv %s", t.ID), err)
	}
	return nil
}

// WriteFile writes a table to path, creating parent directories
func (cw *CSVWriter) WriteFile(path string, t *dashboard.Table) error {
	cw.logger.Info("Writing CSV file",
		slog.String("file_path", path),
		slog.Int("record_count", len(t.Rows)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apierrors.NewStorageError("failed to create directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return apierrors.NewStorageError("failed to create file", err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := cw.WriteTable(buf, t); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return apierrors.NewStorageError("failed to write file", err)
	}
	return file.Close()
}
