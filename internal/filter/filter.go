// Package filter implements the cascading dropdown filters of the dashboard
// pages. A page declares an ordered list of dimensions; the options of each
// dimension are computed from the rows left after applying every dimension
// before it.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/michel-emel/imce-project/internal/config"
)

// All is the sentinel selection meaning "no filter"
const All = config.FilterAll

// Query parameter names of the filter dimensions
const (
	KeyDistrict = "district"
	KeySector   = "sector"
	KeyCell     = "cell"
	KeySite     = "site"
	KeyRole     = "role"
	KeyGender   = "gender"
	KeyCompany  = "company"
)

// Keys lists every filter query parameter
var Keys = []string{KeyDistrict, KeySector, KeyCell, KeySite, KeyRole, KeyGender, KeyCompany}

// Selection maps a dimension key to its selected value
type Selection map[string]string

// FromQuery reads the filter parameters of a query string
func FromQuery(q url.Values) Selection {
	sel := Selection{}
	for _, k := range Keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			sel[k] = v
		}
	}
	return sel
}

// Get returns the selected value of key, All when unset
func (s Selection) Get(key string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return All
}

// Active reports whether key filters rows
func (s Selection) Active(key string) bool {
	return s.Get(key) != All
}

// Query encodes the active selections, omitting All
func (s Selection) Query() url.Values {
	q := url.Values{}
	for k, v := range s {
		if v != "" && v != All {
			q.Set(k, v)
		}
	}
	return q
}

// Canonical is a stable encoding of the active selections
func (s Selection) Canonical() string {
	return s.Query().Encode()
}

// Dimension is one filter dropdown over rows of type T
type Dimension[T any] struct {
	Key      string
	Label    string
	AllLabel string
	Value    func(T) string
}

// Option is one dropdown entry
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Control is the rendered state of one dimension
type Control struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Selected string   `json:"selected"`
	Options  []Option `json:"options"`
}

// Result of applying a cascade
type Result[T any] struct {
	Rows     []T
	Controls []Control
	// Selection is the effective selection after stale values were reset
	Selection Selection
}

// Cascade filters rows dimension by dimension. The options of dimension i
// are the sorted distinct non-empty values among the rows kept by
// dimensions 0..i-1. A selected value that is not among its options is
// reset to All.
func Cascade[T any](rows []T, dims []Dimension[T], sel Selection) Result[T] {
	res := Result[T]{
		Controls:  make([]Control, 0, len(dims)),
		Selection: Selection{},
	}

	current := rows
	for _, d := range dims {
		values := Distinct(current, d.Value)

		selected := sel.Get(d.Key)
		if selected != All && !contains(values, selected) {
			selected = All
		}

		allLabel := d.AllLabel
		if allLabel == "" {
			allLabel = "All"
		}
		options := make([]Option, 0, len(values)+1)
		options = append(options, Option{Value: All, Label: allLabel})
		for _, v := range values {
			options = append(options, Option{Value: v, Label: v})
		}

		res.Controls = append(res.Controls, Control{
			Key:      d.Key,
			Label:    d.Label,
			Selected: selected,
			Options:  options,
		})
		res.Selection[d.Key] = selected

		if selected != All {
			current = Where(current, func(r T) bool { return d.Value(r) == selected })
		}
	}

	res.Rows = current
	return res
}

// Where returns the rows matching keep, preserving order
func Where[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the sorted distinct non-empty values of value over rows
func Distinct[T any](rows []T, value func(T) string) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if v := value(r); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(values []string, v string) bool {
	i := sort.SearchStrings(values, v)
	return i < len(values) && values[i] == v
}
