package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/michel-emel/imce-project/internal/config"
	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/infrastructure"
)

// Name identifies one of the six survey datasets
type Name string

const (
	NamePAPs        Name = "paps"
	NameWorkers     Name = "workers"
	NameContractors Name = "contractors"
	NameGRC         Name = "grc"
	NameDistrict    Name = "district"
	NameChecklist   Name = "checklist"
)

// Names lists the datasets in display order
var Names = []Name{NamePAPs, NameWorkers, NameContractors, NameGRC, NameDistrict, NameChecklist}

var nameLabels = map[Name]string{
	NamePAPs:        "PAPs",
	NameWorkers:     "Workers",
	NameContractors: "Contractors",
	NameGRC:         "GRC",
	NameDistrict:    "District",
	NameChecklist:   "Checklist",
}

// Label is the human readable dataset name
func (n Name) Label() string {
	if l, ok := nameLabels[n]; ok {
		return l
	}
	return string(n)
}

// ErrDatasetMissing is returned when an operation needs a dataset whose
// file was not found at startup.
var ErrDatasetMissing = errors.New("dataset not loaded")

// Files maps each dataset to its CSV path
type Files map[Name]string

// FilesFromPaths takes the CSV locations resolved by the config package
func FilesFromPaths(p *config.Paths) Files {
	return Files{
		NamePAPs:        p.PAPsCSV,
		NameWorkers:     p.WorkersCSV,
		NameContractors: p.ContractorsCSV,
		NameGRC:         p.GRCCSV,
		NameDistrict:    p.DistrictCSV,
		NameChecklist:   p.ChecklistCSV,
	}
}

// Status describes how a dataset was loaded
type Status struct {
	Name    Name     `json:"name"`
	Label   string   `json:"label"`
	File    string   `json:"file"`
	Loaded  bool     `json:"loaded"`
	Rows    int      `json:"rows"`
	Columns []string `json:"-"`
}

// Store holds the survey tables. It is built once and never mutated.
type Store struct {
	PAPs        []PAP
	Workers     []Worker
	Contractors []Contractor
	GRCs        []GRC
	Districts   []District
	Checklists  []Checklist

	status map[Name]Status
}

// Status returns the load status of a dataset
func (s *Store) Status(n Name) Status {
	if st, ok := s.status[n]; ok {
		return st
	}
	return Status{Name: n, Label: n.Label()}
}

// Statuses returns every dataset status in display order
func (s *Store) Statuses() []Status {
	out := make([]Status, 0, len(Names))
	for _, n := range Names {
		out = append(out, s.Status(n))
	}
	return out
}

// Loaded reports whether the dataset file was found and parsed
func (s *Store) Loaded(n Name) bool {
	return s.Status(n).Loaded
}

// LoadedCount is the number of datasets available
func (s *Store) LoadedCount() int {
	n := 0
	for _, st := range s.status {
		if st.Loaded {
			n++
		}
	}
	return n
}

// HasColumn reports whether the loaded file carried col
func (s *Store) HasColumn(n Name, col string) bool {
	for _, c := range s.Status(n).Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Placeholder is the message shown instead of a page whose file is missing
func (s *Store) Placeholder(n Name) string {
	return s.fileName(n) + " not found."
}

func (s *Store) fileName(n Name) string {
	if file := s.Status(n).File; file != "" {
		return file
	}
	return string(n) + ".csv"
}

// Require returns a data-unavailable error wrapping ErrDatasetMissing when
// the dataset is not loaded
func (s *Store) Require(n Name) error {
	if s.Loaded(n) {
		return nil
	}
	return apierrors.NewDataUnavailableError(s.fileName(n), ErrDatasetMissing).
		WithContext("dataset", string(n))
}

// Checklist returns the audited site, if the checklist file has a row
func (s *Store) Checklist() (Checklist, bool) {
	if len(s.Checklists) == 0 {
		return Checklist{}, false
	}
	return s.Checklists[0], true
}

// LoadAll reads every dataset concurrently. Missing files are logged and
// left empty; a file that fails to parse aborts the load.
func LoadAll(ctx context.Context, files Files, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dataset"))

	store := &Store{status: make(map[Name]Status, len(Names))}
	statuses := make([]Status, len(Names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range Names {
		g.Go(func() error {
			st, err := store.load(gctx, name, files[name], logger)
			metrics.RecordDatasetLoad(gctx, string(name), st.Rows, err)
			statuses[i] = st
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, st := range statuses {
		store.status[st.Name] = st
	}
	return store, nil
}

// load fills the store field of one dataset. Each call writes a distinct
// field, so calls for different datasets may run concurrently.
func (s *Store) load(ctx context.Context, name Name, path string, logger *slog.Logger) (Status, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dataset.load",
		attribute.String("dataset", string(name)),
		attribute.String("path", path))
	defer span.End()

	st := Status{Name: name, Label: name.Label(), File: filepath.Base(path)}
	if path == "" {
		logger.WarnContext(ctx, "dataset path not configured", slog.String("dataset", string(name)))
		return st, nil
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	start := time.Now()
	t, err := readTable(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.WarnContext(ctx, "dataset file not found",
				slog.String("dataset", string(name)),
				slog.String("path", path))
			return st, nil
		}
		perr := apierrors.NewParsingError(fmt.Sprintf("failed to parse %s", st.File), err).
			WithContext("dataset", string(name))
		infrastructure.RecordError(ctx, perr)
		return st, perr
	}

	st = s.attach(name, t, st)
	logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset", string(name)),
		slog.Int("rows", st.Rows),
		slog.Int("columns", len(st.Columns)),
		slog.Duration("duration", time.Since(start)))
	return st, nil
}

// attach parses the rows of t into the matching store field
func (s *Store) attach(name Name, t *table, st Status) Status {
	switch name {
	case NamePAPs:
		s.PAPs = parseRows(t, parsePAP)
	case NameWorkers:
		s.Workers = parseRows(t, parseWorker)
	case NameContractors:
		s.Contractors = parseRows(t, parseContractor)
	case NameGRC:
		s.GRCs = parseRows(t, parseGRC)
	case NameDistrict:
		s.Districts = parseRows(t, parseDistrict)
	case NameChecklist:
		s.Checklists = parseRows(t, parseChecklist)
	}
	st.Loaded = true
	st.Rows = len(t.rows)
	st.Columns = append([]string(nil), t.header...)
	return st
}

func parseRows[T any](t *table, parse func(row) T) []T {
	out := make([]T, 0, len(t.rows))
	for r := range t.all() {
		out = append(out, parse(r))
	}
	return out
}

// FromRecords builds a store from in-memory rows keyed by column name,
// applying the same cleaning as LoadAll. Datasets absent from records are
// reported as not loaded.
func FromRecords(records map[Name][]map[string]string) *Store {
	store := &Store{status: make(map[Name]Status, len(Names))}
	for _, name := range Names {
		st := Status{Name: name, Label: name.Label(), File: defaultFiles[name]}
		rows, ok := records[name]
		if ok {
			st = store.attach(name, tableFromRecords(rows), st)
		}
		store.status[name] = st
	}
	return store
}

var defaultFiles = map[Name]string{
	NamePAPs:        config.PAPsFileName,
	NameWorkers:     config.WorkersFileName,
	NameContractors: config.ContractorsFileName,
	NameGRC:         config.GRCFileName,
	NameDistrict:    config.DistrictFileName,
	NameChecklist:   config.ChecklistFileName,
}

func tableFromRecords(records []map[string]string) *table {
	seen := make(map[string]bool)
	var header []string
	for _, rec := range records {
		for col := range rec {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}
	sort.Strings(header)

	t := &table{header: header, columns: make(map[string]int, len(header))}
	for i, h := range header {
		t.columns[h] = i
	}
	for _, rec := range records {
		fields := make([]string, len(header))
		for i, h := range header {
			fields[i] = rec[h]
		}
		t.rows = append(t.rows, fields)
	}
	return t
}
