package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// WriteCSV writes header and rows to dir/name and returns the full path
func WriteCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header %s: %v", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows %s: %v", path, err)
	}
	return path
}

// Table is a small builder for CSV fixtures keyed by column name.
// Columns not set on a row are written empty.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// NewTable starts a fixture with the given header
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// Add appends a row
func (tb *Table) Add(row map[string]string) *Table {
	tb.Rows = append(tb.Rows, row)
	return tb
}

// Records flattens the rows in header order
func (tb *Table) Records() [][]string {
	out := make([][]string, 0, len(tb.Rows))
	for _, r := range tb.Rows {
		rec := make([]string, len(tb.Header))
		for i, h := range tb.Header {
			rec[i] = r[h]
		}
		out = append(out, rec)
	}
	return out
}

// Write stores the fixture as dir/name
func (tb *Table) Write(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteCSV(t, dir, name, tb.Header, tb.Records())
}
