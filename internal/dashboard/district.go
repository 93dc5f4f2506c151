package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

var districtDimensions = []filter.Dimension[dataset.District]{
	{Key: filter.KeyDistrict, Label: "District", AllLabel: "All Districts", Value: func(d dataset.District) string { return d.Name }},
	{Key: filter.KeySite, Label: "Site", AllLabel: "All Sites", Value: func(d dataset.District) string { return d.Site }},
}

// districtCritical is the compensation rate under which a district is
// flagged critical
const districtCritical = 30

var compRateGrade = atLeast(75, districtCritical)

// CompensationTiming buckets the free-text compensation timing answer
func CompensationTiming(t string) string {
	t = strings.ToLower(t)
	before := strings.Contains(t, "before")
	during := strings.Contains(t, "during")
	after := strings.Contains(t, "after")
	switch {
	case before && !during && !after:
		return "Before construction"
	case before:
		return "Before & during/after"
	case during:
		return "During construction"
	case after:
		return "After construction"
	default:
		return "Not specified"
	}
}

var timingColors = map[string]string{
	"Before construction":   ColorSuccess,
	"Before & during/after": P(2),
	"During construction":   ColorWarning,
	"After construction":    ColorDanger,
	"Not specified":         ColorMuted,
}

// WeightedCompensation is the household-weighted compensation rate
func WeightedCompensation(rows []dataset.District) float64 {
	households := analytics.Sum(rows, func(d dataset.District) float64 { return d.HouseholdsAffected })
	if households <= 0 {
		return 0
	}
	return analytics.Sum(rows, func(d dataset.District) float64 { return d.CompensationRate * d.HouseholdsAffected }) / households
}

// MissingInstruments lists the labels of the E&S instruments a district lacks
func MissingInstruments(d dataset.District) []string {
	var out []string
	for i, f := range dataset.DistrictInstrumentFields {
		if i >= len(d.Instruments) || !d.Instruments[i] {
			out = append(out, f.Label)
		}
	}
	return out
}

// BuildDistrict computes the district monitoring page
func BuildDistrict(store *dataset.Store, sel filter.Selection) *Page {
	if p := missing(store, dataset.NameDistrict); p != nil {
		return p
	}
	res := filter.Cascade(store.Districts, districtDimensions, sel)
	rows := res.Rows
	households := analytics.Sum(store.Districts, func(d dataset.District) float64 { return d.HouseholdsAffected })

	return &Page{
		Subtitle:  fmt.Sprintf("Compensation, E&S instruments, staffing and GRM set-up per district, %s households affected", num(households)),
		Status:    districtStatus(store.Districts),
		Controls:  res.Controls,
		Selection: res.Selection,
		Alerts:    districtAlerts(rows),
		KPIs:      districtKPIs(rows),
		Charts: []*Chart{
			districtCompRate(rows),
			districtCompTiming(rows),
			districtPending(rows),
			districtImpacts(rows),
			districtDisplacement(rows),
			districtInstrumentHeatmap(rows),
			districtStaff(rows),
			districtGRMCount(rows),
			districtGRMFacilitation(rows),
			districtGRMComposition(rows),
		},
		Tables: []*Table{
			districtPendingReasons(rows),
			districtInstrumentTable(rows),
			districtScoringTable(rows),
		},
	}
}

func districtStatus(all []dataset.District) *Badge {
	critical := analytics.Count(all, func(d dataset.District) bool {
		return d.CompensationKnown && d.CompensationRate < districtCritical
	})
	if critical > 0 {
		return &Badge{Label: fmt.Sprintf("⚠ %d CRITICAL DISTRICT(S)", critical), Level: analytics.LevelDanger}
	}
	if analytics.MeanOf(all, func(d dataset.District) float64 { return d.GlobalScore }) >= 70 {
		return statusBadge(analytics.LevelSuccess)
	}
	return statusBadge(analytics.LevelWarning)
}

func districtAlerts(rows []dataset.District) []Alert {
	var alerts []Alert
	for _, d := range rows {
		if d.CompAnomaly {
			alerts = append(alerts, Alert{
				Level: analytics.LevelDanger,
				Title: "Cross-phase anomaly",
				Text: fmt.Sprintf("%s — %s households pending vs only %s registered: likely a cross-phase backlog. Immediate World Bank escalation required.",
					d.Name, num(d.NotYetCompensated), num(d.HouseholdsAffected)),
			})
		}
	}
	for _, d := range rows {
		if d.CompensationKnown && d.CompensationRate < districtCritical && !d.CompAnomaly {
			alerts = append(alerts, Alert{
				Level: analytics.LevelDanger,
				Title: "Critical compensation",
				Text: fmt.Sprintf("%s (%s) — Compensation rate at %s — %s households still pending. Action required.",
					d.Name, d.Site, pct(d.CompensationRate), num(d.NotYetCompensated)),
			})
		}
	}
	for _, d := range rows {
		miss := MissingInstruments(d)
		if len(miss) < 3 {
			continue
		}
		listed := strings.Join(miss[:min(4, len(miss))], ", ")
		if len(miss) > 4 {
			listed += "..."
		}
		alerts = append(alerts, Alert{
			Level: analytics.LevelWarning,
			Title: "Instrument gap",
			Text:  fmt.Sprintf("%s — %d E&S instruments missing: %s. Compliance gap — corrective action needed.", d.Name, len(miss), listed),
		})
	}
	for _, d := range rows {
		if d.StaffEnv == 0 && d.StaffSocial == 0 {
			alerts = append(alerts, Alert{
				Level: analytics.LevelWarning,
				Title: "No dedicated specialist",
				Text:  fmt.Sprintf("%s — No dedicated Environmental or Social Specialist. Role covered by general staff. Structural fragility.", d.Name),
			})
		}
	}
	return alerts
}

func districtKPIs(rows []dataset.District) []KPI {
	if len(rows) == 0 {
		return emptyKPIs("Districts", "Households Affected", "Compensation Rate", "Pending Households", "Physically Displaced", "GRM Committees")
	}
	sum := func(f func(dataset.District) float64) float64 { return analytics.Sum(rows, f) }
	households := sum(func(d dataset.District) float64 { return d.HouseholdsAffected })
	pending := sum(func(d dataset.District) float64 { return d.NotYetCompensated })
	displaced := sum(dataset.District.PhysicallyDisplaced)
	grms := sum(func(d dataset.District) float64 { return d.GRMCount })
	comp := WeightedCompensation(rows)

	pendingLevel := analytics.LevelSuccess
	switch {
	case pending > 50:
		pendingLevel = analytics.LevelDanger
	case pending > 10:
		pendingLevel = analytics.LevelWarning
	}
	displacedLevel := analytics.LevelSuccess
	switch {
	case displaced > 20:
		displacedLevel = analytics.LevelDanger
	case displaced > 0:
		displacedLevel = analytics.LevelWarning
	}

	return []KPI{
		{Label: "Districts", Value: count(len(rows)), Sub: "Project sites monitored", Level: analytics.LevelInfo},
		{Label: "Households Affected", Value: num(households), Sub: "Total across all sites", Level: analytics.LevelInfo},
		{Label: "Compensation Rate", Value: pct(comp), Sub: "Weighted by households", Level: analytics.LevelAtLeast(comp, 80, 60)},
		{Label: "Pending Households", Value: num(pending), Sub: "Awaiting compensation", Level: pendingLevel},
		{Label: "Physically Displaced", Value: num(displaced), Sub: "Households displaced from homes", Level: displacedLevel},
		{Label: "GRM Committees", Value: num(grms), Sub: "Total GRMs across districts", Level: analytics.LevelInfo},
	}
}

// districtsBy returns rows sorted by value, labelled by district name
func districtsBy(rows []dataset.District, value func(dataset.District) float64, ascending bool) ([]dataset.District, []string, []float64) {
	sorted := append([]dataset.District(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return value(sorted[i]) < value(sorted[j])
		}
		return value(sorted[i]) > value(sorted[j])
	})
	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	for i, d := range sorted {
		labels[i] = d.Name
		values[i] = value(d)
	}
	return sorted, labels, values
}

func districtNames(rows []dataset.District) []string {
	out := make([]string, len(rows))
	for i, d := range rows {
		out[i] = d.Name
	}
	return out
}

func districtCompRate(rows []dataset.District) *Chart {
	_, labels, values := districtsBy(rows, func(d dataset.District) float64 { return d.CompensationRate }, true)
	return newChart("comp-by-district", "Compensation Rate by District", KindHBar, labels,
		colored("Compensation", values, levelColors(values, compRateGrade))).
		percent().target(80, "80% target").axes("Compensation Rate", "")
}

func districtCompTiming(rows []dataset.District) *Chart {
	c := pieOf("comp-timing", "Compensation Timing", rows, func(d dataset.District) string { return CompensationTiming(d.CompensationTiming) })
	if len(c.Series) > 0 {
		c.Series[0].Colors = mappedColors(c.Categories, timingColors, ColorMuted)
	}
	return c
}

func pendingColor(v float64) string {
	switch {
	case v > 50:
		return ColorDanger
	case v > 10:
		return ColorWarning
	default:
		return P(2)
	}
}

func districtPending(rows []dataset.District) *Chart {
	_, labels, values := districtsBy(rows, func(d dataset.District) float64 { return d.NotYetCompensated }, false)
	colors := make([]string, len(values))
	for i, v := range values {
		colors[i] = pendingColor(v)
	}
	return newChart("pending", "Households Pending Compensation", KindBar, labels,
		colored("Pending", values, colors)).axes("", "Households Pending Compensation")
}

func districtImpacts(rows []dataset.District) *Chart {
	series := make([]Series, len(dataset.DistrictImpactFields))
	for k, f := range dataset.DistrictImpactFields {
		values := make([]float64, len(rows))
		for i, d := range rows {
			if k < len(d.Impacts) {
				values[i] = d.Impacts[k]
			}
		}
		series[k] = solid(f.Label, values, P(k+1))
	}
	return newChart("impacts", "Impact Types by District", KindStacked, districtNames(rows), series...).
		axes("", "Number of Units Affected")
}

func districtDisplacement(rows []dataset.District) *Chart {
	sorted, labels, _ := districtsBy(rows, func(d dataset.District) float64 { return d.HouseholdsAffected }, false)
	displaced := make([]float64, len(sorted))
	other := make([]float64, len(sorted))
	for i, d := range sorted {
		displaced[i] = d.PhysicallyDisplaced()
		other[i] = max(0, d.HouseholdsAffected-displaced[i])
	}
	return newChart("displacement", "Physical Displacement", KindStacked, labels,
		solid("Physically Displaced", displaced, ColorDanger),
		solid("Other Impact", other, P(3)),
	).axes("", "Households")
}

func districtInstrumentHeatmap(rows []dataset.District) *Chart {
	if len(rows) == 0 {
		return emptyChart("instruments", "E&S Instruments by District", KindHeatmap)
	}
	h := &Heatmap{Cols: labelsOf(dataset.DistrictInstrumentFields), Max: 1}
	for _, d := range rows {
		cells := make([]float64, len(h.Cols))
		marks := make([]string, len(h.Cols))
		for i := range h.Cols {
			marks[i] = "✗"
			if i < len(d.Instruments) && d.Instruments[i] {
				cells[i], marks[i] = 1, "✓"
			}
		}
		h.Rows = append(h.Rows, d.Name)
		h.Cells = append(h.Cells, cells)
		h.Text = append(h.Text, marks)
	}
	return &Chart{ID: "instruments", Title: "E&S Instruments by District", Kind: KindHeatmap, Heatmap: h}
}

func districtStaff(rows []dataset.District) *Chart {
	pick := func(f func(dataset.District) float64) []float64 { return analytics.Values(rows, f) }
	return newChart("staff", "E&S Staffing", KindGrouped, districtNames(rows),
		solid("Env. Specialist", pick(func(d dataset.District) float64 { return d.StaffEnv }), ColorAccent),
		solid("Social Specialist", pick(func(d dataset.District) float64 { return d.StaffSocial }), ColorSecondary),
		solid("Other E&S Staff", pick(func(d dataset.District) float64 { return d.StaffOther }), P(3)),
	).axes("", "Staff Count (0=None, 1=Present)")
}

func districtGRMCount(rows []dataset.District) *Chart {
	sorted, labels, values := districtsBy(rows, func(d dataset.District) float64 { return d.GRMCount }, false)
	colors := make([]string, len(sorted))
	for i, d := range sorted {
		colors[i] = ColorAccent
		if dataset.IsYes(d.GRMLevelSector) {
			colors[i] = ColorSecondary
		}
	}
	return newChart("grm-count", "GRM Count & Coverage Level", KindBar, labels,
		colored("GRM Count", values, colors)).
		sub("Highlighted bars cover the sector level").axes("", "Number of GRMs")
}

func districtGRMFacilitation(rows []dataset.District) *Chart {
	if len(rows) == 0 {
		return emptyChart("grm-facilitation", "GRM Facilitation Resources", KindHBar)
	}
	values := flagRates(rows, dataset.DistrictGRMFacilFields, func(d dataset.District) []bool { return d.GRMFacilities })
	return newChart("grm-facilitation", "GRM Facilitation Resources", KindHBar, labelsOf(dataset.DistrictGRMFacilFields),
		colored("Districts", values, levelColors(values, atLeast(60, 40)))).
		percent().axes("% of Districts Providing", "")
}

func districtGRMComposition(rows []dataset.District) *Chart {
	series := make([]Series, len(rows))
	for i, d := range rows {
		values := make([]float64, len(dataset.DistrictGRMMemberFields))
		for k := range values {
			if k < len(d.GRMMembers) && d.GRMMembers[k] {
				values[k] = 1
			}
		}
		series[i] = solid(d.Name, values, P(i+1))
	}
	return newChart("grm-composition", "GRM Composition", KindGrouped, labelsOf(dataset.DistrictGRMMemberFields), series...).
		axes("", "Present (1) / Absent (0)")
}

// PendingReason buckets why district households are still uncompensated
func PendingReason(reason string) (string, Level) {
	t := strings.ToLower(reason)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(t, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("abroad", "outside", "soldier", "foreign"):
		return "Beneficiary abroad / unreachable", analytics.LevelWarning
	case has("court", "succession", "legal", "title", "bank"):
		return "Legal dispute / succession / court", analytics.LevelDanger
	case has("document", "require", "fulfill", "complet"):
		return "Documentation incomplete", analytics.LevelWarning
	case has("district", "confirm", "process", "month"):
		return "Awaiting district confirmation", analytics.LevelInfo
	default:
		return "Other administrative reason", analytics.LevelMuted
	}
}

func districtPendingReasons(rows []dataset.District) *Table {
	t := &Table{
		ID:        "pending-reasons",
		Title:     "Why Households Are Still Pending",
		Columns:   []string{"Category", "District / Site", "Pending", "Reason"},
		EmptyText: "No pending households.",
	}
	withReason := filter.Where(rows, func(d dataset.District) bool {
		r := strings.TrimSpace(d.NotCompensatedReason)
		return r != "" && r != "nan"
	})
	sort.SliceStable(withReason, func(i, j int) bool { return withReason[i].NotYetCompensated > withReason[j].NotYetCompensated })
	for _, d := range withReason {
		cat, level := PendingReason(d.NotCompensatedReason)
		reason := d.NotCompensatedReason
		if r := []rune(reason); len(r) > 180 {
			reason = string(r[:180]) + "..."
		}
		t.add(
			leveled(cat, level),
			text(d.Name+" / "+d.Site),
			leveled(num(d.NotYetCompensated)+" HH", analytics.LevelDanger),
			text(reason),
		)
	}
	return t
}

func districtInstrumentTable(rows []dataset.District) *Table {
	t := &Table{
		ID:        "instruments",
		Title:     "E&S Instruments & Permits",
		Columns:   append(append([]string{"District / Site"}, labelsOf(dataset.DistrictInstrumentFields)...), "Score"),
		EmptyText: "No data.",
	}
	for _, d := range rows {
		cells := []Cell{text(d.Name + " / " + d.Site)}
		for i := range dataset.DistrictInstrumentFields {
			cells = append(cells, tick(i < len(d.Instruments) && d.Instruments[i]))
		}
		t.add(append(cells, scored(d.InstScore))...)
	}
	return t
}

func districtScoringTable(rows []dataset.District) *Table {
	t := &Table{
		ID:    "scoring",
		Title: "District Performance Scoring",
		Columns: []string{
			"District / Site", "HH Affected", "Compensation (35%)", "Pending HH", "Instruments (25%)",
			"Env. Staff", "Social Staff", "GRM Count", "GRM Facilitation (20%)", "Global Score",
		},
		EmptyText: "No data.",
	}
	sorted := append([]dataset.District(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].GlobalScore > sorted[j].GlobalScore })
	for _, d := range sorted {
		name := d.Name + " / " + d.Site
		if d.CompAnomaly {
			name += " ⚠"
		}
		global := scored(d.GlobalScore)
		if d.CompAnomaly {
			global.Level = analytics.LevelDanger
		}
		t.add(
			text(name),
			text(num(d.HouseholdsAffected)),
			leveled(pct(d.CompensationRate), compRateGrade(d.CompensationRate)),
			leveled(num(d.NotYetCompensated), analytics.LevelAtMost(d.NotYetCompensated, 5, 30)),
			scored(d.InstScore),
			tick(d.StaffEnv > 0),
			tick(d.StaffSocial > 0),
			text(num(d.GRMCount)),
			scored(d.GRMFacilScore),
			global,
		)
	}
	return t
}
