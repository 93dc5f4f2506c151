package analytics

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pap struct {
	district    string
	compensated bool
	amount      float64
}

var paps = []pap{
	{"Gasabo", true, 10},
	{"Gasabo", false, 0},
	{"Kicukiro", true, 30},
	{"Huye", true, 20},
	{"", false, 5},
}

func compensated(p pap) bool { return p.compensated }

func TestRates(t *testing.T) {
	assert.Equal(t, 0.0, Percent(3, 0))
	assert.Equal(t, 25.0, Percent(1, 4))

	assert.Equal(t, 3, Count(paps, compensated))
	assert.InDelta(t, 60.0, Rate(paps, compensated), 1e-9)
	assert.Equal(t, 0.0, Rate([]pap{}, compensated))

	amount := func(p pap) float64 { return p.amount }
	assert.Equal(t, 65.0, Sum(paps, amount))
	assert.Equal(t, 13.0, MeanOf(paps, amount))
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Sum([]pap{}, amount))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 100.0, Clamp(140, 0, 100))
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}

func TestWeightedScore(t *testing.T) {
	weights := []float64{0.30, 0.15, 0.15, 0.15, 0.15, 0.10}

	t.Run("all components", func(t *testing.T) {
		got := WeightedScore(weights, []float64{100, 50, 50, 50, 50, 0})
		assert.InDelta(t, 60.0, got, 1e-9)
	})

	t.Run("missing components are renormalised", func(t *testing.T) {
		got := WeightedScore(weights, []float64{100, math.NaN(), math.NaN(), math.NaN(), math.NaN(), 0})
		assert.InDelta(t, 75.0, got, 1e-9)
	})

	t.Run("nothing to combine", func(t *testing.T) {
		assert.True(t, math.IsNaN(WeightedScore(weights, []float64{math.NaN()})))
	})
}

func TestCorrelation(t *testing.T) {
	assert.InDelta(t, 1.0, Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, Correlation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	assert.True(t, math.IsNaN(Correlation([]float64{1}, []float64{1})))
	assert.True(t, math.IsNaN(Correlation([]float64{1, 1, 1}, []float64{1, 2, 3})))
	assert.True(t, math.IsNaN(Correlation([]float64{1, 2}, []float64{1, 2, 3})))
}

func TestValueCounts(t *testing.T) {
	got := ValueCounts(paps, func(p pap) string { return p.district })
	assert.Equal(t, []Tally{{"Gasabo", 2}, {"Huye", 1}, {"Kicukiro", 1}}, got)
}

func TestGroupBy(t *testing.T) {
	groups := GroupBy(paps, func(p pap) string { return p.district })
	require.Len(t, groups, 3)
	assert.Equal(t, "Gasabo", groups[0].Key)
	assert.Len(t, groups[0].Rows, 2)
	assert.Equal(t, "Huye", groups[1].Key)
	assert.Equal(t, "Kicukiro", groups[2].Key)

	groups = append(groups, Group[pap]{Key: "Alpha", Rows: paps[:1]})
	SortGroupsBySize(groups)
	assert.Equal(t, []string{"Gasabo", "Alpha", "Huye", "Kicukiro"},
		[]string{groups[0].Key, groups[1].Key, groups[2].Key, groups[3].Key})
}

func TestBin(t *testing.T) {
	ages := []float64{18, 25, 30, 35, 40, 50, 70}
	labels := []string{"18-24", "25-29", "30-34", "35-39", "40-49", "50+"}

	tests := []struct {
		v    float64
		want string
		ok   bool
	}{
		{18, "18-24", true},
		{24.9, "18-24", true},
		{25, "25-29", true},
		{49, "40-49", true},
		{50, "50+", true},
		{70, "", false},
		{17, "", false},
	}
	for _, tt := range tests {
		got, ok := Bin(tt.v, ages, labels, false)
		assert.Equal(t, tt.want, got, "age %v", tt.v)
		assert.Equal(t, tt.ok, ok, "age %v", tt.v)
	}

	buckets := []float64{-1, 20, 40, 60, 80, 101}
	names := []string{"0-20%", "21-40%", "41-60%", "61-80%", "81-100%"}
	got, _ := Bin(0, buckets, names, true)
	assert.Equal(t, "0-20%", got)
	got, _ = Bin(20, buckets, names, true)
	assert.Equal(t, "0-20%", got)
	got, _ = Bin(60, buckets, names, true)
	assert.Equal(t, "41-60%", got)
	got, _ = Bin(100, buckets, names, true)
	assert.Equal(t, "81-100%", got)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, LevelSuccess, LevelAtLeast(90, 90, 70))
	assert.Equal(t, LevelWarning, LevelAtLeast(75, 90, 70))
	assert.Equal(t, LevelDanger, LevelAtLeast(10, 90, 70))

	assert.Equal(t, LevelSuccess, LevelAtMost(10, 10, 25))
	assert.Equal(t, LevelWarning, LevelAtMost(20, 10, 25))
	assert.Equal(t, LevelDanger, LevelAtMost(26, 10, 25))

	assert.Equal(t, LevelSuccess, ScoreLevel(75))
	assert.Equal(t, LevelWarning, ScoreLevel(50))
	assert.Equal(t, LevelDanger, ScoreLevel(49.9))

	assert.Equal(t, LevelSuccess, RiskLevel(0, 10, 20))
	assert.Equal(t, LevelWarning, RiskLevel(1, 10, 20))
	assert.Equal(t, LevelDanger, RiskLevel(2, 10, 20))
}

func TestRateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("rate stays within 0..100", prop.ForAll(
		func(flags []bool) bool {
			r := Rate(flags, func(b bool) bool { return b })
			return r >= 0 && r <= 100
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("rate equals count over total", prop.ForAll(
		func(flags []bool) bool {
			if len(flags) == 0 {
				return true
			}
			id := func(b bool) bool { return b }
			want := float64(Count(flags, id)) / float64(len(flags)) * 100
			return math.Abs(Rate(flags, id)-want) < 1e-9
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("rates of a predicate and its negation sum to 100", prop.ForAll(
		func(flags []bool) bool {
			if len(flags) == 0 {
				return true
			}
			yes := Rate(flags, func(b bool) bool { return b })
			no := Rate(flags, func(b bool) bool { return !b })
			return math.Abs(yes+no-100) < 1e-9
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("weighted score lies between min and max component", prop.ForAll(
		func(a, b, c float64) bool {
			s := WeightedScore([]float64{0.5, 0.3, 0.2}, []float64{a, b, c})
			lo := math.Min(a, math.Min(b, c))
			hi := math.Max(a, math.Max(b, c))
			return s >= lo-1e-9 && s <= hi+1e-9
		},
		gen.Float64Range(0, 100), gen.Float64Range(0, 100), gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}
