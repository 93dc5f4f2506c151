package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\ufeff"

// table is a CSV file indexed by header name
type table struct {
	header  []string
	columns map[string]int
	rows    [][]string
}

// readTable parses a CSV file with a header row.
// os.Open errors are returned unwrapped so callers can test fs.ErrNotExist.
func readTable(path string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseTable(file)
}

func parseTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &table{
		header:  make([]string, len(header)),
		columns: make(map[string]int, len(header)),
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		t.header[i] = h
		if _, dup := t.columns[h]; !dup {
			t.columns[h] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.rows)+2, err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

// all yields every data row in file order
func (t *table) all() iter.Seq[row] {
	return func(yield func(row) bool) {
		for _, fields := range t.rows {
			if !yield(row{t: t, fields: fields}) {
				return
			}
		}
	}
}

// row is one CSV record with by-name access. Cells are NFC-normalised and
// trimmed; a blank cell reads as "" or 0.
type row struct {
	t      *table
	fields []string
}

func (r row) text(col string) string {
	i, ok := r.t.columns[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(r.fields[i]))
}

// number parses a numeric cell; blank or unparseable cells give 0
func (r row) number(col string) float64 {
	v, ok := r.optNumber(col)
	if !ok {
		return 0
	}
	return v
}

// optNumber reports whether the cell held a finite number
func (r row) optNumber(col string) (float64, bool) {
	return parseNumberOK(r.text(col))
}

func (r row) integer(col string) int {
	return int(math.Round(r.number(col)))
}

// flag reads 0/1 indicator columns; Yes/True are accepted as set
func (r row) flag(col string) bool {
	if v, ok := r.optNumber(col); ok {
		return v != 0
	}
	return IsYes(r.text(col))
}

// flags reads the indicator columns of fields in order
func (r row) flags(fields []Field) []bool {
	out := make([]bool, len(fields))
	for i, f := range fields {
		out[i] = r.flag(f.Column)
	}
	return out
}

func (r row) numbers(fields []Field) []float64 {
	out := make([]float64, len(fields))
	for i, f := range fields {
		out[i] = r.number(f.Column)
	}
	return out
}

// values returns every cell keyed by header name
func (r row) values() map[string]string {
	out := make(map[string]string, len(r.t.header))
	for _, h := range r.t.header {
		out[h] = r.text(h)
	}
	return out
}
