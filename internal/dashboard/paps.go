package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

var papDimensions = []filter.Dimension[dataset.PAP]{
	{Key: filter.KeyDistrict, Label: "District", AllLabel: "All Districts", Value: func(p dataset.PAP) string { return p.District }},
	{Key: filter.KeySector, Label: "Sector", AllLabel: "All Sectors", Value: func(p dataset.PAP) string { return p.Sector }},
	{Key: filter.KeySite, Label: "Site", AllLabel: "All Sites", Value: func(p dataset.PAP) string { return p.Site }},
}

// heatmap and table labels for the four physical impacts
var papShortImpacts = []string{"Land", "House", "Structure", "Trees/Crops"}

func papCompensated(p dataset.PAP) bool { return isYes(p.CompensationReceived) }
func papSatisfied(p dataset.PAP) bool   { return isYes(p.CompensationSatisfied) }
func papAware(p dataset.PAP) bool       { return isYes(p.GRMAware) }
func papSubmitted(p dataset.PAP) bool   { return isYes(p.GrievanceSubmitted) }

func papImpact(p dataset.PAP, i int) bool {
	return i < len(p.Impacts) && p.Impacts[i]
}

// BuildPAPs computes the project affected persons page
func BuildPAPs(store *dataset.Store, sel filter.Selection) *Page {
	if p := missing(store, dataset.NamePAPs); p != nil {
		return p
	}
	res := filter.Cascade(store.PAPs, papDimensions, sel)
	rows := res.Rows

	page := &Page{
		Subtitle:  "Compensation, information disclosure and grievance redress for people affected by the works",
		Status:    papStatus(store.PAPs),
		Controls:  res.Controls,
		Selection: res.Selection,
	}
	page.KPIs = papKPIs(rows)
	page.Charts = papCharts(store, rows)
	page.Tables = []*Table{papUncompensatedTable(rows)}
	page.Indicators = []IndicatorList{papRiskIndicators(rows)}
	return page
}

func papStatus(all []dataset.PAP) *Badge {
	comp := analytics.Rate(all, papCompensated)
	sat := analytics.Rate(all, papSatisfied)
	switch {
	case comp >= 90 && sat >= 80:
		return statusBadge(analytics.LevelSuccess)
	case comp >= 70:
		return statusBadge(analytics.LevelWarning)
	default:
		return statusBadge(analytics.LevelDanger)
	}
}

func papKPIs(rows []dataset.PAP) []KPI {
	if len(rows) == 0 {
		return emptyKPIs("PAPs Interviewed", "Compensation Rate", "Satisfaction Rate", "GRM Awareness", "Multi-Impact PAPs", "PAPs at Risk")
	}
	n := len(rows)
	comp := analytics.Count(rows, papCompensated)
	sat := analytics.Count(rows, papSatisfied)
	aware := analytics.Count(rows, papAware)
	multi := analytics.Count(rows, func(p dataset.PAP) bool { return p.ImpactCount >= 2 })
	risk := analytics.Count(rows, func(p dataset.PAP) bool { return p.AtRisk })

	compPct := analytics.Percent(float64(comp), float64(n))
	satPct := analytics.Percent(float64(sat), float64(n))
	awarePct := analytics.Percent(float64(aware), float64(n))

	awareLevel := analytics.LevelWarning
	if awarePct >= 80 {
		awareLevel = analytics.LevelSuccess
	}

	return []KPI{
		{Label: "PAPs Interviewed", Value: count(n), Sub: plural(distinctCount(rows, func(p dataset.PAP) string { return p.District }), "district"), Level: analytics.LevelInfo},
		{Label: "Compensation Rate", Value: pct(compPct), Sub: fmt.Sprintf("%d of %d compensated", comp, n), Level: analytics.LevelAtLeast(compPct, 90, 70)},
		{Label: "Satisfaction Rate", Value: pct(satPct), Sub: fmt.Sprintf("%d satisfied", sat), Level: analytics.LevelAtLeast(satPct, 80, 60)},
		{Label: "GRM Awareness", Value: pct(awarePct), Sub: fmt.Sprintf("%d aware of GRM", aware), Level: awareLevel},
		{Label: "Multi-Impact PAPs", Value: count(multi), Sub: fmt.Sprintf("%d PAPs with 2+ impact types", multi), Level: analytics.LevelInfo},
		{Label: "PAPs at Risk", Value: count(risk), Sub: "Uncompensated, dissatisfied or unaware", Level: analytics.LevelAtMost(float64(risk), 0, 5)},
	}
}

// papCharts builds every chart; with no rows each one comes back Empty
func papCharts(store *dataset.Store, rows []dataset.PAP) []*Chart {
	charts := []*Chart{
		papImpactTypes(rows),
		papImpactMultiplicity(rows),
		papImpactHeatmap(rows),
		papCompByDistrict(rows),
		papInfoFunnel(rows),
		pieOf("consultation", "Consultation Frequency", rows, func(p dataset.PAP) string { return p.ConsultationFrequency }),
		pieOf("sea-channel", "SEA/SH Reporting Channel", rows, func(p dataset.PAP) string { return p.SEAChannel }),
		papGRMFunnel(rows),
	}
	if c := papGRMChannels(store, rows); c != nil {
		charts = append(charts, c)
	}
	return append(charts,
		papResolution(rows),
		papNonSubmitters(rows),
		papResponseTime(rows),
		papChannelUsed(rows),
		papSatisfactionBy("sat-by-timing", "Satisfaction by Compensation Timing", KindBar, rows, func(p dataset.PAP) string { return p.CompensationTiming }),
		papSatByImpactCount(rows),
		papSatByDistrict(rows),
		papAssistance(rows),
		papCompTiming(rows),
	)
}

func papImpactTypes(rows []dataset.PAP) *Chart {
	values := flagCounts(rows, dataset.PAPImpactFields, func(p dataset.PAP) []bool { return p.Impacts })
	return newChart("impact-types", "Impact Types", KindHBar, labelsOf(dataset.PAPImpactFields),
		colored("PAPs", values, paletteColors(len(values)))).axes("Number of PAPs", "")
}

func papImpactMultiplicity(rows []dataset.PAP) *Chart {
	groups := analytics.GroupBy(rows, func(p dataset.PAP) string { return strconv.Itoa(p.ImpactCount) })
	labels := make([]string, len(groups))
	counts := make([]float64, len(groups))
	rates := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		counts[i] = float64(len(g.Rows))
		rates[i] = analytics.Rate(g.Rows, papCompensated)
	}
	return newChart("impact-multiplicity", "Impact Multiplicity and Compensation", KindCombo, labels,
		solid("Number of PAPs", counts, ColorAccent),
		colored("Compensation Rate", rates, levelColors(rates, atLeast(80, 60))),
	).axes("Number of Impact Types", "Number of PAPs")
}

func papImpactHeatmap(rows []dataset.PAP) *Chart {
	n := len(papShortImpacts)
	cells := make([][]float64, n)
	var peak float64
	for i := 0; i < n; i++ {
		cells[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v := float64(analytics.Count(rows, func(p dataset.PAP) bool { return papImpact(p, i) && papImpact(p, j) }))
			cells[i][j] = v
			if v > peak {
				peak = v
			}
		}
	}
	c := &Chart{
		ID:      "impact-heatmap",
		Title:   "Impact Co-occurrence",
		Kind:    KindHeatmap,
		Heatmap: &Heatmap{Rows: papShortImpacts, Cols: papShortImpacts, Cells: cells, Max: peak},
	}
	c.Empty = !c.HasData()
	return c
}

func papCompByDistrict(rows []dataset.PAP) *Chart {
	rates := ratesBy(rows, func(p dataset.PAP) string { return p.District }, papCompensated)
	sortRates(rates, true)
	return rateChart("comp-by-district", "Compensation Rate by District", KindHBar, rates, atLeast(90, 70)).
		target(80, "80% target").
		axes("Compensation Rate", "")
}

func papInfoFunnel(rows []dataset.PAP) *Chart {
	steps := []struct {
		label string
		yes   func(dataset.PAP) string
	}{
		{"Informed Before Project", func(p dataset.PAP) string { return p.InformedBeforeProject }},
		{"Clear on Activities", func(p dataset.PAP) string { return p.InfoClearActivities }},
		{"Clear on Impacts", func(p dataset.PAP) string { return p.InfoClearImpacts }},
		{"Clear on Rights", func(p dataset.PAP) string { return p.InfoClearRights }},
		{"Valuation Explained", func(p dataset.PAP) string { return p.ValuationExplained }},
		{"Aware of GRM", func(p dataset.PAP) string { return p.GRMAware }},
	}
	labels := make([]string, len(steps))
	values := make([]float64, len(steps))
	for i, s := range steps {
		labels[i] = s.label
		values[i] = float64(analytics.Count(rows, func(p dataset.PAP) bool { return isYes(s.yes(p)) }))
	}
	colors := []string{ColorAccent, P(2), P(3), P(2), P(3), P(5)}
	return newChart("info-funnel", "Information Disclosure Funnel", KindFunnel, labels, colored("PAPs", values, colors))
}

func papGRMFunnel(rows []dataset.PAP) *Chart {
	values := []float64{
		float64(len(rows)),
		float64(analytics.Count(rows, papAware)),
		float64(analytics.Count(rows, papSubmitted)),
		float64(analytics.Count(rows, func(p dataset.PAP) bool { return p.GrievanceResolved == "Fully resolved" })),
	}
	labels := []string{"PAPs Total", "Aware of GRM", "Submitted Grievance", "Fully Resolved"}
	colors := []string{ColorAccent, P(2), P(3), ColorSuccess}
	return newChart("grm-funnel", "Grievance Mechanism Funnel", KindFunnel, labels, colored("PAPs", values, colors))
}

// papGRMChannels only covers the channel columns present in the file, and
// is omitted when the file carries none of them
func papGRMChannels(store *dataset.Store, rows []dataset.PAP) *Chart {
	var labels []string
	var values []float64
	for i, f := range dataset.PAPGRMChannelFields {
		if !store.HasColumn(dataset.NamePAPs, f.Column) {
			continue
		}
		labels = append(labels, f.Label)
		values = append(values, analytics.Rate(rows, func(p dataset.PAP) bool {
			return i < len(p.GRMChannels) && p.GRMChannels[i]
		}))
	}
	if len(labels) == 0 {
		return nil
	}
	return newChart("grm-channels", "Known Grievance Channels", KindHBar, labels,
		colored("Aware", values, paletteColors(len(values)))).percent().axes("% of PAPs Aware", "")
}

func papSubmitters(rows []dataset.PAP) []dataset.PAP {
	return filter.Where(rows, papSubmitted)
}

func papResolution(rows []dataset.PAP) *Chart {
	return pieOf("grm-resolution", "Grievance Resolution Outcomes", papSubmitters(rows), func(p dataset.PAP) string {
		if p.GrievanceResolved == "" {
			return "No Response"
		}
		return p.GrievanceResolved
	})
}

func papNonSubmitters(rows []dataset.PAP) *Chart {
	ns := filter.Where(rows, func(p dataset.PAP) bool { return isNo(p.GrievanceSubmitted) })
	both := func(sat, aware func(string) bool) float64 {
		return float64(analytics.Count(ns, func(p dataset.PAP) bool {
			return sat(p.CompensationSatisfied) && aware(p.GRMAware)
		}))
	}
	labels := []string{"Satisfied & GRM Aware", "Satisfied but Unaware", "Dissatisfied but Aware", "Dissatisfied & Unaware"}
	values := []float64{both(isYes, isYes), both(isYes, isNo), both(isNo, isYes), both(isNo, isNo)}
	colors := []string{ColorSuccess, ColorWarning, ColorDanger, P(4)}
	return newChart("non-submitters", "Profile of PAPs Who Did Not Submit", KindBar, labels,
		colored("PAPs", values, colors)).axes("", "Number of PAPs")
}

func papResponseTime(rows []dataset.PAP) *Chart {
	c := pieOf("response-time", "Response Time Reasonable", papSubmitters(rows), func(p dataset.PAP) string {
		if p.ResponseTimeReasonable == "" {
			return "N/A"
		}
		return p.ResponseTimeReasonable
	})
	if len(c.Series) > 0 {
		c.Series[0].Colors = mappedColors(c.Categories, map[string]string{
			"Yes": ColorSuccess, "No": ColorDanger, "N/A": ColorMuted,
		}, ColorMuted)
	}
	return c
}

// SimplifyChannel buckets the free-text grievance channel
func SimplifyChannel(ch string) string {
	switch {
	case strings.Contains(ch, "Grievance Redress") || strings.Contains(ch, "GRC"):
		return "GRC"
	case strings.Contains(ch, "Cell"):
		return "Cell Admin"
	case strings.Contains(ch, "District"):
		return "District"
	case strings.Contains(ch, "Sector"):
		return "Sector"
	default:
		return "Other"
	}
}

func papChannelUsed(rows []dataset.PAP) *Chart {
	return pieOf("channel-used", "Channel Used to Submit", papSubmitters(rows), func(p dataset.PAP) string {
		return SimplifyChannel(p.GrievanceChannel)
	})
}

func papSatisfactionBy(id, title string, kind ChartKind, rows []dataset.PAP, key func(dataset.PAP) string) *Chart {
	rates := ratesBy(rows, key, papSatisfied)
	return rateChart(id, title, kind, rates, atLeast(80, 60)).target(80, "80%").axes("", "Satisfaction Rate (%)")
}

func papSatByImpactCount(rows []dataset.PAP) *Chart {
	rates := ratesBy(rows, func(p dataset.PAP) string { return strconv.Itoa(p.ImpactCount) }, papSatisfied)
	labels, values := splitRates(rates)
	return newChart("sat-by-impact-count", "Satisfaction by Number of Impacts", KindBar, labels,
		solid("Satisfaction", values, P(5))).percent().axes("Number of Impact Types", "Satisfaction Rate (%)")
}

func papSatByDistrict(rows []dataset.PAP) *Chart {
	rates := ratesBy(rows, func(p dataset.PAP) string { return p.District }, papSatisfied)
	sortRates(rates, true)
	return rateChart("sat-by-district", "Satisfaction by District", KindHBar, rates, atLeast(80, 60)).
		target(80, "80%").
		axes("Satisfaction Rate", "")
}

func papAssistance(rows []dataset.PAP) *Chart {
	var labels []string
	var values []float64
	counts := analytics.ValueCounts(filter.Where(rows, func(p dataset.PAP) bool { return isYes(p.AdditionalAssistance) }),
		func(p dataset.PAP) string { return p.District })
	for _, t := range counts {
		labels = append(labels, t.Label)
		values = append(values, float64(t.Count))
	}
	if len(labels) == 0 {
		return emptyChart("assistance", "Additional Assistance by District", KindBar)
	}
	return newChart("assistance", "Additional Assistance by District", KindBar, labels,
		solid("PAPs", values, ColorSecondary)).axes("", "PAPs with Additional Assistance")
}

func papCompTiming(rows []dataset.PAP) *Chart {
	c := pieOf("comp-timing", "Compensation Timing", rows, func(p dataset.PAP) string { return p.CompensationTiming })
	if len(c.Series) > 0 {
		c.Series[0].Colors = mappedColors(c.Categories, map[string]string{
			"Before construction":            ColorSuccess,
			"During construction":            ColorWarning,
			"Have not received compensation": ColorDanger,
		}, ColorMuted)
	}
	return c
}

func papUncompensatedTable(rows []dataset.PAP) *Table {
	t := &Table{
		ID:        "non-compensated",
		Title:     "Non-Compensated PAPs",
		Columns:   []string{"Name", "District", "Site", "Impact Types", "Missing Compensation", "Grievance Submitted", "Satisfied"},
		EmptyText: "All PAPs in this selection have received compensation.",
	}
	pill := func(v string) Cell {
		if v == "" {
			v = "No"
		}
		if isYes(v) {
			return leveled(v, analytics.LevelSuccess)
		}
		return leveled(v, analytics.LevelDanger)
	}
	for _, p := range rows {
		if !isNo(p.CompensationReceived) {
			continue
		}
		var impacts []string
		for i, label := range papShortImpacts {
			if papImpact(p, i) {
				impacts = append(impacts, label)
			}
		}
		if len(impacts) == 0 {
			impacts = []string{"Other"}
		}
		t.add(
			text(orDash(p.Name)),
			text(orDash(p.District)),
			text(orDash(p.Site)),
			text(strings.Join(impacts, ", ")),
			text(orDash(p.CompensationMissingDesc)),
			pill(p.GrievanceSubmitted),
			pill(p.CompensationSatisfied),
		)
	}
	return t
}

func papRiskIndicators(rows []dataset.PAP) IndicatorList {
	list := IndicatorList{ID: "risk", Title: "Risk Summary"}
	if len(rows) == 0 {
		return list
	}
	checks := []struct {
		label string
		hit   func(dataset.PAP) bool
	}{
		{"Not Compensated", func(p dataset.PAP) bool { return isNo(p.CompensationReceived) }},
		{"Dissatisfied", func(p dataset.PAP) bool { return isNo(p.CompensationSatisfied) }},
		{"Unaware of GRM", func(p dataset.PAP) bool { return isNo(p.GRMAware) }},
		{"Grievance Unresolved", func(p dataset.PAP) bool { return p.GrievanceResolved == "Not resolved" }},
		{"Consulted Only Once", func(p dataset.PAP) bool { return p.ConsultationFrequency == "Once" }},
		{"SEA Channel Unknown", func(p dataset.PAP) bool { return p.SEAChannel == "Don't know" }},
	}
	for _, c := range checks {
		list.Items = append(list.Items, riskIndicator(c.label, analytics.Count(rows, c.hit), len(rows), 20, "PAPs"))
	}
	return list
}
