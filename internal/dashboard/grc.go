package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

var grcDimensions = []filter.Dimension[dataset.GRC]{
	{Key: filter.KeyDistrict, Label: "District", AllLabel: "All Districts", Value: func(g dataset.GRC) string { return g.District }},
	{Key: filter.KeySector, Label: "Sector", AllLabel: "All Sectors", Value: func(g dataset.GRC) string { return g.Sector }},
	{Key: filter.KeyCell, Label: "Cell", AllLabel: "All Cells", Value: func(g dataset.GRC) string { return g.Cell }},
}

var facilityBucketEdges = []float64{-1, 20, 40, 60, 80, 101}
var facilityBucketLabels = []string{"0-20%", "21-40%", "41-60%", "61-80%", "81-100%"}

func grcActive(g dataset.GRC) bool { return g.Received > 0 }

// FacilityBucket places a facility score into its 20-point band
func FacilityBucket(score float64) string {
	b, _ := analytics.Bin(score, facilityBucketEdges, facilityBucketLabels, true)
	return b
}

// MeanResolution averages the resolution rate over committees that
// received at least one complaint; 0 when none did
func MeanResolution(rows []dataset.GRC) float64 {
	return analytics.MeanOf(filter.Where(rows, grcActive), func(g dataset.GRC) float64 { return g.ResolutionRate })
}

// BuildGRC computes the grievance redress committee page
func BuildGRC(store *dataset.Store, sel filter.Selection) *Page {
	if p := missing(store, dataset.NameGRC); p != nil {
		return p
	}
	res := filter.Cascade(store.GRCs, grcDimensions, sel)
	rows := res.Rows

	return &Page{
		Subtitle:  "Complaint handling, escalation and facilitation of grievance redress committees",
		Status:    statusBadge(analytics.ScoreLevel(MeanResolution(store.GRCs))),
		Controls:  res.Controls,
		Selection: res.Selection,
		KPIs:      grcKPIs(rows),
		Charts: []*Chart{
			grcFunnel(rows),
			grcResolutionRates(rows),
			grcVolume(rows),
			grcComplaintTypes(rows),
			grcTypesPerGRC(rows),
			grcEscalationRates(rows),
			pieOf("escalated-to", "Escalated To", rows, func(g dataset.GRC) string { return EscalationTarget(g.EscalatedTo) }),
			grcResolutionTime(rows),
			grcResolutionByTime(rows),
			grcFacilities(rows),
			grcResolutionByFacilities(rows),
		},
		Tables: []*Table{grcPendingReasons(rows), grcScoringTable(rows)},
	}
}

func grcKPIs(rows []dataset.GRC) []KPI {
	if len(rows) == 0 {
		return emptyKPIs("GRCs Active", "Complaints Received", "Resolution Rate", "Pending Complaints", "Escalated Complaints", "GRCs with 0 Complaints")
	}
	n := len(rows)
	sum := func(f func(dataset.GRC) float64) float64 { return analytics.Sum(rows, f) }
	received := sum(func(g dataset.GRC) float64 { return g.Received })
	resolved := sum(func(g dataset.GRC) float64 { return g.Resolved })
	pending := sum(func(g dataset.GRC) float64 { return g.Pending })
	escalated := sum(func(g dataset.GRC) float64 { return g.Escalated })
	inactive := n - analytics.Count(rows, grcActive)
	resolution := MeanResolution(rows)

	escLevel := analytics.LevelSuccess
	switch {
	case escalated > received*0.3:
		escLevel = analytics.LevelDanger
	case escalated > 0:
		escLevel = analytics.LevelWarning
	}

	return []KPI{
		{Label: "GRCs Active", Value: count(n), Sub: plural(distinctCount(rows, func(g dataset.GRC) string { return g.District }), "district") + " covered", Level: analytics.LevelInfo},
		{Label: "Complaints Received", Value: num(received), Sub: fmt.Sprintf("Across %d GRC locations", n), Level: analytics.LevelInfo},
		{Label: "Resolution Rate", Value: pct(resolution), Sub: num(resolved) + " complaints resolved", Level: analytics.ScoreLevel(resolution)},
		{Label: "Pending Complaints", Value: num(pending), Sub: "Awaiting resolution", Level: analytics.LevelAtMost(pending, 0, 10)},
		{Label: "Escalated Complaints", Value: num(escalated), Sub: "Sent to higher authority", Level: escLevel},
		{Label: "GRCs with 0 Complaints", Value: count(inactive), Sub: "No complaints received yet", Level: analytics.LevelMuted},
	}
}

func grcFunnel(rows []dataset.GRC) *Chart {
	sum := func(f func(dataset.GRC) float64) float64 { return analytics.Sum(rows, f) }
	values := []float64{
		sum(func(g dataset.GRC) float64 { return g.Received }),
		sum(func(g dataset.GRC) float64 { return g.Resolved }),
		sum(func(g dataset.GRC) float64 { return g.Escalated }),
		sum(func(g dataset.GRC) float64 { return g.Pending }),
	}
	return newChart("complaint-funnel", "Complaint Funnel", KindFunnel,
		[]string{"Received", "Resolved", "Escalated", "Still Pending"},
		colored("Complaints", values, []string{ColorAccent, ColorSuccess, ColorWarning, ColorDanger}))
}

// grcBars is one value per committee, sorted by value
func grcBars(rows []dataset.GRC, value func(dataset.GRC) float64, ascending bool) ([]string, []float64) {
	sorted := append([]dataset.GRC(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return value(sorted[i]) < value(sorted[j])
		}
		return value(sorted[i]) > value(sorted[j])
	})
	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	for i, g := range sorted {
		labels[i] = g.Location
		values[i] = value(g)
	}
	return labels, values
}

func grcResolutionRates(rows []dataset.GRC) *Chart {
	labels, values := grcBars(rows, func(g dataset.GRC) float64 { return g.ResolutionRate }, true)
	return newChart("resolution-rate", "Resolution Rate per GRC", KindHBar, labels,
		colored("Resolution", values, levelColors(values, atLeast(75, 50)))).
		percent().target(75, "75% target").axes("Resolution Rate", "")
}

func grcVolume(rows []dataset.GRC) *Chart {
	sorted := append([]dataset.GRC(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Received > sorted[j].Received })
	labels := make([]string, len(sorted))
	resolved := make([]float64, len(sorted))
	pending := make([]float64, len(sorted))
	escalated := make([]float64, len(sorted))
	for i, g := range sorted {
		labels[i] = g.Location
		resolved[i], pending[i], escalated[i] = g.Resolved, g.Pending, g.Escalated
	}
	return newChart("complaint-volume", "Complaint Volume per GRC", KindStacked, labels,
		solid("Resolved", resolved, ColorSuccess),
		solid("Pending", pending, ColorWarning),
		solid("Escalated", escalated, ColorDanger),
	).axes("", "Number of Complaints")
}

func grcComplaintTypes(rows []dataset.GRC) *Chart {
	counts := flagCounts(rows, dataset.GRCComplaintFields, func(g dataset.GRC) []bool { return g.Complaints })
	ts := make([]analytics.Tally, len(counts))
	for i, f := range dataset.GRCComplaintFields {
		ts[i] = analytics.Tally{Label: f.Label, Count: int(counts[i])}
	}
	sortTallies(ts)
	labels, values := splitTallies(ts)
	return newChart("complaint-types", "Complaint Types", KindHBar, labels,
		colored("GRCs", values, paletteColors(len(labels)))).axes("Number of GRCs reporting this type", "")
}

func grcTypesPerGRC(rows []dataset.GRC) *Chart {
	sorted := append([]dataset.GRC(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Received > sorted[j].Received })
	labels := make([]string, len(sorted))
	for i, g := range sorted {
		labels[i] = g.Location
	}
	series := make([]Series, len(dataset.GRCComplaintFields))
	for k, f := range dataset.GRCComplaintFields {
		values := make([]float64, len(sorted))
		for i, g := range sorted {
			if k < len(g.Complaints) && g.Complaints[k] {
				values[i] = 1
			}
		}
		series[k] = solid(f.Label, values, P(k+1))
	}
	return newChart("types-per-grc", "Complaint Types per GRC", KindStacked, labels, series...).axes("", "Complaint Type Present")
}

func grcEscalationRates(rows []dataset.GRC) *Chart {
	labels, values := grcBars(filter.Where(rows, grcActive), func(g dataset.GRC) float64 { return g.EscalationRate }, true)
	return newChart("escalation-rate", "Escalation Rate per GRC", KindHBar, labels,
		colored("Escalation", values, levelColors(values, escalationLevel))).
		percent().target(30, "30% alert").axes("Escalation Rate", "")
}

func escalationLevel(v float64) Level {
	switch {
	case v >= 50:
		return analytics.LevelDanger
	case v >= 20:
		return analytics.LevelWarning
	default:
		return analytics.LevelSuccess
	}
}

// EscalationTarget buckets the authority a complaint was escalated to; ""
// when nothing was escalated
func EscalationTarget(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "" || v == "nan" || v == "None":
		return ""
	case strings.Contains(v, "CoK") || strings.Contains(v, "Kigali") || strings.Contains(v, "City"):
		return "City of Kigali"
	case strings.Contains(v, "District"):
		return "District Office"
	case strings.Contains(v, "Sector"):
		return "Sector"
	case strings.Contains(v, "Contractor") || strings.Contains(v, "ECOGEL"):
		return "Contractor"
	default:
		return "Other"
	}
}

var resolutionTimeColors = map[string]string{
	"Within 1 day":  ColorSuccess,
	"1 week":        P(2),
	"1 month":       ColorWarning,
	"Variable":      P(3),
	"No complaints": ColorMuted,
}

func grcResolutionTime(rows []dataset.GRC) *Chart {
	c := pieOf("resolution-time", "Declared Resolution Time", rows, func(g dataset.GRC) string { return g.ResolutionCategory })
	if len(c.Series) > 0 {
		c.Series[0].Colors = mappedColors(c.Categories, resolutionTimeColors, ColorMuted)
	}
	return c
}

func grcResolutionByTime(rows []dataset.GRC) *Chart {
	means := meansBy(filter.Where(rows, grcActive), func(g dataset.GRC) string { return g.ResolutionCategory },
		func(g dataset.GRC) float64 { return g.ResolutionRate })
	sortRates(means, false)
	return rateChart("resolution-by-time", "Actual Resolution by Declared Time", KindBar, means, atLeast(75, 50)).
		target(75, "75%").axes("Declared Resolution Time", "Avg. Actual Resolution Rate (%)")
}

func grcFacilities(rows []dataset.GRC) *Chart {
	values := flagRates(rows, dataset.GRCFacilityFields, func(g dataset.GRC) []bool { return g.Facilities })
	rates := make([]groupRate, len(values))
	for i, f := range dataset.GRCFacilityFields {
		rates[i] = groupRate{Label: f.Label, Rate: values[i], N: len(rows)}
	}
	sortRates(rates, false)
	return rateChart("facilities", "GRC Facilities", KindHBar, rates, atLeast(60, 40)).
		target(60, "60% target").axes("% of GRCs with facility", "")
}

func grcResolutionByFacilities(rows []dataset.GRC) *Chart {
	active := filter.Where(rows, grcActive)
	groups := make(map[string][]dataset.GRC)
	for _, g := range active {
		if b := FacilityBucket(g.FacilScore); b != "" {
			groups[b] = append(groups[b], g)
		}
	}
	var rates []groupRate
	for _, label := range facilityBucketLabels {
		if g, ok := groups[label]; ok {
			rates = append(rates, groupRate{
				Label: label,
				Rate:  analytics.MeanOf(g, func(g dataset.GRC) float64 { return g.ResolutionRate }),
				N:     len(g),
			})
		}
	}
	return rateChart("resolution-by-facilities", "Resolution by Facility Coverage", KindBar, rates, atLeast(75, 50)).
		target(75, "75%").axes("Facility Coverage Score", "Avg. Resolution Rate (%)")
}

// PendingCategory buckets the free-text reason complaints are pending
func PendingCategory(reason string) string {
	t := strings.ToLower(reason)
	switch {
	case strings.Contains(t, "new"):
		return "New complaints"
	case strings.Contains(t, "valuation") || strings.Contains(t, "counter"):
		return "Counter valuation dispute"
	case strings.Contains(t, "abroad") || strings.Contains(t, "outside") || strings.Contains(t, "soldier"):
		return "Beneficiary unreachable"
	case strings.Contains(t, "contractor") || strings.Contains(t, "road") || strings.Contains(t, "complet"):
		return "Awaiting project completion"
	case strings.Contains(t, "cok") || strings.Contains(t, "city"):
		return "Pending city-level decision"
	default:
		return "Other"
	}
}

func grcPendingReasons(rows []dataset.GRC) *Table {
	t := &Table{
		ID:        "pending-reasons",
		Title:     "Pending Complaints by Reason",
		Columns:   []string{"Category", "GRC Location", "Pending", "Reason"},
		EmptyText: "No pending complaints in this selection.",
	}
	for _, g := range rows {
		if g.PendingReason == "" {
			continue
		}
		t.add(
			leveled(PendingCategory(g.PendingReason), analytics.LevelWarning),
			text(g.Location),
			text(num(g.Pending)+" pending"),
			text(g.PendingReason),
		)
	}
	return t
}

func grcScoringTable(rows []dataset.GRC) *Table {
	t := &Table{
		ID:        "scoring",
		Title:     "GRC Scoring",
		Columns:   []string{"GRC Location", "District", "Sector", "Complaints", "Resolution (40%)", "Escalation Rate", "Training (20%)", "Facilities (20%)", "Logbook", "Pending", "Global Score"},
		EmptyText: "No data available.",
	}
	sorted := append([]dataset.GRC(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].GlobalScore > sorted[j].GlobalScore })
	for _, g := range sorted {
		escalation := leveled(pct(g.EscalationRate), analytics.LevelSuccess)
		if g.EscalationRate > 30 {
			escalation.Level = analytics.LevelDanger
		}
		logbook := leveled(orDash(g.HasLogbook), analytics.LevelDanger)
		if isYes(g.HasLogbook) {
			logbook.Level = analytics.LevelSuccess
		}
		t.add(
			text(g.Location),
			text(g.District),
			text(g.Sector),
			text(num(g.Received)),
			scored(g.ResolutionRate),
			escalation,
			scored(g.TrainScore),
			scored(g.FacilScore),
			logbook,
			leveled(num(g.Pending), analytics.LevelAtMost(g.Pending, 0, 5)),
			scored(g.GlobalScore),
		)
	}
	return t
}
