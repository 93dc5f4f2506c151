package dashboard

import (
	"sort"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
)

// groupRate is the share of rows in one group matching a predicate
type groupRate struct {
	Label string
	Rate  float64
	N     int
}

func ratesBy[T any](rows []T, key func(T) string, pred func(T) bool) []groupRate {
	groups := analytics.GroupBy(rows, key)
	out := make([]groupRate, len(groups))
	for i, g := range groups {
		out[i] = groupRate{Label: g.Key, Rate: analytics.Rate(g.Rows, pred), N: len(g.Rows)}
	}
	return out
}

// meansBy averages value per group
func meansBy[T any](rows []T, key func(T) string, value func(T) float64) []groupRate {
	groups := analytics.GroupBy(rows, key)
	out := make([]groupRate, len(groups))
	for i, g := range groups {
		out[i] = groupRate{Label: g.Key, Rate: analytics.MeanOf(g.Rows, value), N: len(g.Rows)}
	}
	return out
}

func sortRates(rates []groupRate, ascending bool) {
	sort.SliceStable(rates, func(i, j int) bool {
		if ascending {
			return rates[i].Rate < rates[j].Rate
		}
		return rates[i].Rate > rates[j].Rate
	})
}

func splitRates(rates []groupRate) ([]string, []float64) {
	labels := make([]string, len(rates))
	values := make([]float64, len(rates))
	for i, r := range rates {
		labels[i] = r.Label
		values[i] = r.Rate
	}
	return labels, values
}

// rateChart draws one bar per group coloured by grade
func rateChart(id, title string, kind ChartKind, rates []groupRate, grade func(float64) Level) *Chart {
	labels, values := splitRates(rates)
	return newChart(id, title, kind, labels, colored("Rate", values, levelColors(values, grade))).percent()
}

// flagRates is the percentage of rows with each indicator flag set
func flagRates[T any](rows []T, fields []dataset.Field, flags func(T) []bool) []float64 {
	out := make([]float64, len(fields))
	for i := range fields {
		out[i] = analytics.Rate(rows, func(r T) bool {
			f := flags(r)
			return i < len(f) && f[i]
		})
	}
	return out
}

// flagCounts counts rows with each indicator flag set
func flagCounts[T any](rows []T, fields []dataset.Field, flags func(T) []bool) []float64 {
	out := make([]float64, len(fields))
	for i := range fields {
		out[i] = float64(analytics.Count(rows, func(r T) bool {
			f := flags(r)
			return i < len(f) && f[i]
		}))
	}
	return out
}

func isYes(s string) bool { return s == "Yes" }
func isNo(s string) bool  { return s == "No" }

func distinctCount[T any](rows []T, key func(T) string) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if k := key(r); k != "" {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}

// riskIndicator grades "label: n rows (p%)" with the shared risk rule
func riskIndicator(label string, n, total int, warnPct float64, unit string) Indicator {
	p := analytics.Percent(float64(n), float64(total))
	return Indicator{
		Label: label,
		Value: count(n) + " " + unit,
		Note:  pct(p),
		Level: analytics.RiskLevel(n, total, warnPct),
	}
}

// statusBadge grades a page status
func statusBadge(l Level) *Badge {
	switch l {
	case analytics.LevelSuccess:
		return &Badge{Label: "● ON TRACK", Level: l}
	case analytics.LevelWarning:
		return &Badge{Label: "● ATTENTION REQUIRED", Level: l}
	default:
		return &Badge{Label: "● CRITICAL", Level: analytics.LevelDanger}
	}
}

// emptyKPIs fills n KPI cards with a dash
func emptyKPIs(labels ...string) []KPI {
	out := make([]KPI, len(labels))
	for i, l := range labels {
		out[i] = KPI{Label: l, Value: dash, Level: analytics.LevelMuted}
	}
	return out
}

func labelsOf(fields []dataset.Field) []string {
	return dataset.Labels(fields)
}

// crossCounts counts rows per (series, category) pair
func crossCounts[T any](rows []T, category func(T) string, categories []string, series func(T) string, names []string) [][]float64 {
	ci := make(map[string]int, len(categories))
	for i, c := range categories {
		ci[c] = i
	}
	si := make(map[string]int, len(names))
	for i, n := range names {
		si[n] = i
	}
	out := make([][]float64, len(names))
	for i := range out {
		out[i] = make([]float64, len(categories))
	}
	for _, r := range rows {
		c, okc := ci[category(r)]
		s, oks := si[series(r)]
		if okc && oks {
			out[s][c]++
		}
	}
	return out
}

// bySize lists the keys of rows ordered by row count descending
func bySize[T any](rows []T, key func(T) string) []string {
	counts := analytics.ValueCounts(rows, key)
	out := make([]string, len(counts))
	for i, t := range counts {
		out[i] = t.Label
	}
	return out
}

var genderSeries = []struct{ name, color string }{
	{"Male", ColorAccent},
	{"Female", ColorSecondary},
}

func total(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

// sortTallies orders tallies by count descending, keeping input order on ties
func sortTallies(ts []analytics.Tally) {
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Count > ts[j].Count })
}
