package dashboard

import (
	"fmt"
	"sort"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

var contractorDimensions = []filter.Dimension[dataset.Contractor]{
	{Key: filter.KeySite, Label: "Site", AllLabel: "All Sites", Value: func(c dataset.Contractor) string { return c.Site }},
	{Key: filter.KeyCompany, Label: "Company", AllLabel: "All Companies", Value: func(c dataset.Contractor) string { return c.CompanyShort }},
}

func contractorIncident(c dataset.Contractor) bool { return isYes(c.IncidentsOccurred) }
func contractorSite(c dataset.Contractor) string   { return c.Site }

// MissingInstrument reports whether any E&S instrument is absent
func MissingInstrument(c dataset.Contractor) bool {
	for _, ok := range c.Instruments {
		if !ok {
			return true
		}
	}
	return len(c.Instruments) < len(dataset.ContractorInstrumentFields)
}

// BuildContractors computes the contractors page
func BuildContractors(store *dataset.Store, sel filter.Selection) *Page {
	if p := missing(store, dataset.NameContractors); p != nil {
		return p
	}
	res := filter.Cascade(store.Contractors, contractorDimensions, sel)
	rows := res.Rows

	return &Page{
		Subtitle:  "Environmental and social instruments, workforce and site safety of contractors",
		Status:    contractorStatus(store.Contractors),
		Controls:  res.Controls,
		Selection: res.Selection,
		KPIs:      contractorKPIs(rows),
		Charts: []*Chart{
			contractorCoverage("instruments", "E&S Instruments Coverage", rows, dataset.ContractorInstrumentFields,
				func(c dataset.Contractor) []bool { return c.Instruments }),
			contractorSpecialists(rows),
			contractorYesNoPie("es-bidding", "E&S Clauses in Bidding", rows, dataset.Contractor.ESInBidding),
			pieOf("payment-frequency", "Payment Frequency", rows, func(c dataset.Contractor) string { return c.PaymentFrequency }),
			contractorWomenBySite(rows),
			contractorLocalBySite(rows),
			contractorRetention(rows),
			contractorGenderSplit(rows),
			contractorIncidents(rows),
			contractorPPEFrequency(rows),
			contractorCoverage("ppe-types", "PPE Types Provided", rows, dataset.ContractorPPEFields,
				func(c dataset.Contractor) []bool { return c.PPE }),
			contractorTrainingCoverage(rows),
			contractorTrainedVsTotal(rows),
			pieOf("waste-disposal", "Waste Disposal Location", rows, func(c dataset.Contractor) string { return c.WasteDisposalLocation }),
			contractorCompliance(rows),
		},
		Tables:     []*Table{contractorInstrumentMatrix(rows), contractorScoringTable(rows)},
		Indicators: []IndicatorList{contractorFlags(rows)},
	}
}

func contractorStatus(all []dataset.Contractor) *Badge {
	if len(all) == 0 {
		return statusBadge(analytics.LevelDanger)
	}
	women := analytics.MeanOf(all, func(c dataset.Contractor) float64 { return c.WomenPercent })
	share := float64(analytics.Count(all, contractorIncident)) / float64(len(all))
	switch {
	case women >= 30 && share <= 0.5:
		return statusBadge(analytics.LevelSuccess)
	case women >= 20 || share <= 0.7:
		return statusBadge(analytics.LevelWarning)
	default:
		return statusBadge(analytics.LevelDanger)
	}
}

func contractorKPIs(rows []dataset.Contractor) []KPI {
	if len(rows) == 0 {
		return emptyKPIs("Contractors", "Current Workers", "Women in Workforce", "Local Workers", "Sites with Incidents", "E&S in Bidding")
	}
	n := len(rows)
	current := analytics.Sum(rows, func(c dataset.Contractor) float64 { return c.CurrentWorkers })
	mobilised := analytics.Sum(rows, func(c dataset.Contractor) float64 { return c.TotalWorkers })
	women := analytics.MeanOf(rows, func(c dataset.Contractor) float64 { return c.WomenPercent })
	local := analytics.MeanOf(rows, func(c dataset.Contractor) float64 { return c.LocalPercent })
	incidents := analytics.Count(rows, contractorIncident)
	reported := analytics.Sum(rows, func(c dataset.Contractor) float64 { return c.IncidentsCount })
	bidding := analytics.Count(rows, func(c dataset.Contractor) bool { return isYes(c.ESInBidding()) })

	incidentLevel := analytics.LevelSuccess
	switch {
	case float64(incidents) > float64(n)*0.6:
		incidentLevel = analytics.LevelDanger
	case float64(incidents) > float64(n)*0.3:
		incidentLevel = analytics.LevelWarning
	}
	biddingLevel := analytics.LevelDanger
	switch {
	case bidding == n:
		biddingLevel = analytics.LevelSuccess
	case float64(bidding) >= float64(n)*0.7:
		biddingLevel = analytics.LevelWarning
	}

	return []KPI{
		{Label: "Contractors", Value: count(n), Sub: plural(distinctCount(rows, contractorSite), "site") + " covered", Level: analytics.LevelInfo},
		{Label: "Current Workers", Value: num(current), Sub: "Total mobilized: " + num(mobilised), Level: analytics.LevelInfo},
		{Label: "Women in Workforce", Value: pct(women), Sub: "Average across all sites (target: 30%)", Level: analytics.LevelAtLeast(women, 30, 20)},
		{Label: "Local Workers", Value: pct(local), Sub: "Average local recruitment rate", Level: analytics.LevelAtLeast(local, 70, 50)},
		{Label: "Sites with Incidents", Value: count(incidents), Sub: fmt.Sprintf("%s total incidents reported", num(reported)), Level: incidentLevel},
		{Label: "E&S in Bidding", Value: fmt.Sprintf("%d/%d", bidding, n), Sub: "Contractors with E&S clauses in contract", Level: biddingLevel},
	}
}

// contractorCoverage charts the share of sites holding each flag; full
// coverage is the only success
func contractorCoverage(id, title string, rows []dataset.Contractor, fields []dataset.Field, flags func(dataset.Contractor) []bool) *Chart {
	values := flagRates(rows, fields, flags)
	return newChart(id, title, KindHBar, labelsOf(fields),
		colored("Coverage", values, levelColors(values, atLeast(100, 80)))).
		percent().target(100, "100% target").axes("% of Sites", "")
}

func contractorSpecialists(rows []dataset.Contractor) *Chart {
	labels := []string{"Env. Specialist", "Social Specialist", "OHS Specialist"}
	values := make([]float64, len(labels))
	for i := range labels {
		sum := analytics.Sum(rows, func(c dataset.Contractor) float64 {
			if i < len(c.Specialists) {
				return c.Specialists[i]
			}
			return 0
		})
		values[i] = analytics.Percent(sum, float64(len(rows)))
	}
	return newChart("specialists", "E&S Specialists on Site", KindBar, labels,
		colored("Sites", values, levelColors(values, atLeast(100, 80)))).percent().axes("", "% of Sites")
}

func contractorYesNoPie(id, title string, rows []dataset.Contractor, value func(dataset.Contractor) string) *Chart {
	c := pieOf(id, title, rows, value)
	if len(c.Series) > 0 {
		c.Series[0].Colors = mappedColors(c.Categories, map[string]string{"Yes": ColorSuccess}, ColorDanger)
	}
	return c
}

// contractorBars is one value per contractor row, sorted ascending
func contractorBars(rows []dataset.Contractor, value func(dataset.Contractor) float64) ([]string, []float64) {
	sorted := append([]dataset.Contractor(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return value(sorted[i]) < value(sorted[j]) })
	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	for i, c := range sorted {
		labels[i] = c.Site
		values[i] = value(c)
	}
	return labels, values
}

func contractorWomenBySite(rows []dataset.Contractor) *Chart {
	labels, values := contractorBars(rows, func(c dataset.Contractor) float64 { return c.WomenPercent })
	return newChart("women-by-site", "Women in Workforce by Site", KindHBar, labels,
		colored("Women", values, levelColors(values, atLeast(30, 20)))).
		percent().target(30, "30% target").axes("% Women", "")
}

func contractorLocalBySite(rows []dataset.Contractor) *Chart {
	sorted := append([]dataset.Contractor(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LocalPercent < sorted[j].LocalPercent })
	labels := make([]string, len(sorted))
	local := make([]float64, len(sorted))
	nonLocal := make([]float64, len(sorted))
	for i, c := range sorted {
		labels[i] = c.Site
		local[i] = c.TotalLocal
		nonLocal[i] = c.TotalNonLocal
	}
	return newChart("local-by-site", "Local and Non-Local Workers by Site", KindStacked, labels,
		solid("Local", local, ColorSuccess),
		solid("Non-Local", nonLocal, ColorDanger),
	).axes("Number of Workers", "")
}

// Retention is current over mobilised workers, capped at 100
func Retention(c dataset.Contractor) float64 {
	return analytics.Clamp(analytics.Percent(c.CurrentWorkers, c.TotalWorkers), 0, 100)
}

func contractorRetention(rows []dataset.Contractor) *Chart {
	labels, values := contractorBars(rows, Retention)
	return newChart("retention", "Workforce Retention (Current / Mobilised)", KindHBar, labels,
		colored("Retention", values, levelColors(values, atLeast(50, 20)))).
		percent().target(50, "50%").axes("Retention", "")
}

func contractorGenderSplit(rows []dataset.Contractor) *Chart {
	men := analytics.Sum(rows, func(c dataset.Contractor) float64 { return c.CurrentMen })
	women := analytics.Sum(rows, func(c dataset.Contractor) float64 { return c.CurrentWomen })
	return newChart("gender-split", "Current Workforce by Gender", KindPie, []string{"Men", "Women"},
		colored("Workers", []float64{men, women}, []string{ColorAccent, ColorSecondary}))
}

// incidentValue is the plotted incident count: the reported count, or 0.5
// when an incident occurred but its count is unknown
func incidentValue(c dataset.Contractor) float64 {
	switch {
	case !contractorIncident(c):
		return 0
	case !c.IncidentsKnown:
		return 0.5
	default:
		return c.IncidentsCount
	}
}

func contractorIncidents(rows []dataset.Contractor) *Chart {
	sorted := append([]dataset.Contractor(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return incidentValue(sorted[i]) < incidentValue(sorted[j]) })
	labels := make([]string, len(sorted))
	values := make([]float64, len(sorted))
	colors := make([]string, len(sorted))
	for i, c := range sorted {
		labels[i] = c.Site
		values[i] = incidentValue(c)
		colors[i] = ColorSuccess
		if contractorIncident(c) {
			colors[i] = ColorDanger
		}
	}
	return newChart("incidents", "Incidents by Contractor Site", KindHBar, labels,
		colored("Incidents", values, colors)).axes("Number of Incidents", "")
}

func contractorPPEFrequency(rows []dataset.Contractor) *Chart {
	c := pieOf("ppe-frequency", "PPE Renewal Frequency", rows, func(c dataset.Contractor) string { return c.PPEFrequency })
	if len(c.Series) > 0 {
		c.Series[0].Colors = mappedColors(c.Categories, map[string]string{
			"More than twice":  ColorSuccess,
			"Once (a month)":   ColorWarning,
			"Once (a quarter)": ColorDanger,
		}, ColorMuted)
	}
	return c
}

func contractorTrainingCoverage(rows []dataset.Contractor) *Chart {
	labels, values := contractorBars(rows, func(c dataset.Contractor) float64 { return c.TrainingCoverage })
	return newChart("training-coverage", "Training Coverage by Site", KindHBar, labels,
		colored("Trained", values, levelColors(values, atLeast(30, 10)))).
		percent().target(30, "30% target").axes("% Workers Trained", "")
}

func contractorTrainedVsTotal(rows []dataset.Contractor) *Chart {
	sorted := append([]dataset.Contractor(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalWorkers > sorted[j].TotalWorkers })
	labels := make([]string, len(sorted))
	totals := make([]float64, len(sorted))
	trained := make([]float64, len(sorted))
	for i, c := range sorted {
		labels[i] = c.Site
		totals[i] = c.TotalWorkers
		trained[i] = c.TrainedWorkers
	}
	return newChart("trained-vs-total", "Workers Trained vs Mobilised", KindGrouped, labels,
		solid("Total Workers", totals, ColorBorder),
		solid("Workers Trained", trained, ColorSecondary),
	).axes("", "Number of Workers")
}

func contractorCompliance(rows []dataset.Contractor) *Chart {
	values := make([]float64, len(dataset.ContractorComplianceFields))
	for i := range values {
		values[i] = analytics.Rate(rows, func(c dataset.Contractor) bool {
			return i < len(c.Compliance) && isYes(c.Compliance[i])
		})
	}
	return newChart("compliance", "Compliance Items", KindHBar, labelsOf(dataset.ContractorComplianceFields),
		colored("Compliant", values, levelColors(values, atLeast(100, 80)))).
		percent().target(100, "100% target").axes("% of Contractors", "")
}

func contractorInstrumentMatrix(rows []dataset.Contractor) *Table {
	t := &Table{
		ID:        "instrument-matrix",
		Title:     "E&S Instruments by Site",
		Columns:   append([]string{"Site", "Company"}, labelsOf(dataset.ContractorInstrumentFields)...),
		EmptyText: dash,
	}
	for _, c := range rows {
		cells := []Cell{text(truncate(c.Site, 28)), text(orDash(c.CompanyShort))}
		for i := range dataset.ContractorInstrumentFields {
			cells = append(cells, tick(i < len(c.Instruments) && c.Instruments[i]))
		}
		t.add(cells...)
	}
	return t
}

func contractorScoringTable(rows []dataset.Contractor) *Table {
	t := &Table{
		ID:        "scoring",
		Title:     "Contractor Scoring",
		Columns:   []string{"Site", "Company", "Instruments", "Compliance", "Training", "Women", "Local", "Incidents", "Global Score"},
		EmptyText: "No data available.",
	}
	sorted := append([]dataset.Contractor(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].GlobalScore > sorted[j].GlobalScore })
	for _, c := range sorted {
		incidents := leveled("None", analytics.LevelSuccess)
		if contractorIncident(c) {
			incidents = leveled("Incident", analytics.LevelDanger)
			if c.IncidentsKnown {
				incidents.Text = plural(int(c.IncidentsCount), "incident")
			}
		}
		women := Cell{
			Text:  pct(c.WomenPercent),
			Level: analytics.ScoreLevel(c.WomenPercent / 30 * 100),
		}
		t.add(
			text(c.Site),
			text(orDash(c.CompanyShort)),
			scored(c.InstScore),
			scored(c.CompScore),
			scored(c.TrainingCoverage),
			women,
			scored(c.LocalPercent),
			incidents,
			scored(c.GlobalScore),
		)
	}
	return t
}

func contractorFlags(rows []dataset.Contractor) IndicatorList {
	list := IndicatorList{ID: "compliance-flags", Title: "Compliance Flags"}
	if len(rows) == 0 {
		return list
	}
	answer := func(i int) func(dataset.Contractor) bool {
		return func(c dataset.Contractor) bool { return i < len(c.Compliance) && isNo(c.Compliance[i]) }
	}
	checks := []struct {
		label string
		hit   func(dataset.Contractor) bool
	}{
		{"Missing E&S Instrument", MissingInstrument},
		{"No GRM Logbook", answer(0)},
		{"No Chance Finds Proc.", answer(1)},
		{"No Waste Authorization", answer(2)},
		{"No E&S in Bidding", answer(3)},
		{"No Social Specialist", func(c dataset.Contractor) bool { return c.SocialSpecialists() == 0 }},
		{"Has Incidents", contractorIncident},
	}
	for _, c := range checks {
		list.Items = append(list.Items, riskIndicator(c.label, analytics.Count(rows, c.hit), len(rows), 25, "sites"))
	}
	return list
}
