// Package analytics holds the spreadsheet-style formulas shared by the
// dashboard pages: rates, counts, group-bys, weighted scores and the
// colour levels derived from thresholds.
//
// Percentages are on a 0-100 scale. Every function is total: an empty
// input yields 0 (or NaN for Correlation) instead of an error.
package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Percent returns num/den*100, or 0 when den is 0
func Percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

// Count returns the number of rows matching pred
func Count[T any](rows []T, pred func(T) bool) int {
	n := 0
	for _, r := range rows {
		if pred(r) {
			n++
		}
	}
	return n
}

// Rate is the percentage of rows matching pred
func Rate[T any](rows []T, pred func(T) bool) float64 {
	return Percent(float64(Count(rows, pred)), float64(len(rows)))
}

// Values extracts one numeric column
func Values[T any](rows []T, value func(T) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = value(r)
	}
	return out
}

// Sum adds one numeric column
func Sum[T any](rows []T, value func(T) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	return floats.Sum(Values(rows, value))
}

// Mean averages values, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// MeanOf averages one numeric column
func MeanOf[T any](rows []T, value func(T) float64) float64 {
	return Mean(Values(rows, value))
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// WeightedScore combines values with weights, normalised by the weights
// actually used. NaN values are skipped so a missing component does not
// drag the score down. It returns NaN when nothing can be combined.
func WeightedScore(weights, values []float64) float64 {
	var total, used float64
	for i := 0; i < len(weights) && i < len(values); i++ {
		if math.IsNaN(values[i]) {
			continue
		}
		total += weights[i] * values[i]
		used += weights[i]
	}
	if used == 0 {
		return math.NaN()
	}
	return total / used
}

// Correlation is the Pearson coefficient of x and y. It is NaN with fewer
// than two pairs or when either series is constant.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// Tally is one entry of a value count
type Tally struct {
	Label string
	Count int
}

// ValueCounts counts rows per key, sorted by count descending then label.
// Rows with an empty key are skipped.
func ValueCounts[T any](rows []T, key func(T) string) []Tally {
	counts := make(map[string]int)
	for _, r := range rows {
		if k := key(r); k != "" {
			counts[k]++
		}
	}
	out := make([]Tally, 0, len(counts))
	for k, n := range counts {
		out = append(out, Tally{Label: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Group is the rows sharing one key
type Group[T any] struct {
	Key  string
	Rows []T
}

// GroupBy partitions rows by key in ascending key order. Rows with an
// empty key are dropped.
func GroupBy[T any](rows []T, key func(T) string) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]
	for _, r := range rows {
		k := key(r)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// SortGroupsBySize orders groups by row count descending, then key
func SortGroupsBySize[T any](groups []Group[T]) {
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].Rows) != len(groups[j].Rows) {
			return len(groups[i].Rows) > len(groups[j].Rows)
		}
		return groups[i].Key < groups[j].Key
	})
}

// Bin places v into the interval edges[i]..edges[i+1] and returns its label.
// Intervals are [lo, hi) unless rightClosed, in which case (lo, hi].
func Bin(v float64, edges []float64, labels []string, rightClosed bool) (string, bool) {
	for i := 0; i+1 < len(edges) && i < len(labels); i++ {
		lo, hi := edges[i], edges[i+1]
		in := v >= lo && v < hi
		if rightClosed {
			in = v > lo && v <= hi
		}
		if in {
			return labels[i], true
		}
	}
	return "", false
}
