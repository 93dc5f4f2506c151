package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

// HealthDimension is one axis of the overall project health score. Value
// is NaN when its dataset is not loaded.
type HealthDimension struct {
	Label       string
	Description string
	Dataset     dataset.Name
	Weight      float64
	Value       float64
}

// Available reports whether the dimension could be computed
func (d HealthDimension) Available() bool { return !math.IsNaN(d.Value) }

func workerTrained(w dataset.Worker) bool { return w.TrainingCount > 0 }

// districtProgress is the household-weighted raw compensation progress,
// capped at 100
func districtProgress(rows []dataset.District) float64 {
	households := analytics.Sum(rows, func(d dataset.District) float64 { return d.HouseholdsAffected })
	if households <= 0 {
		return 0
	}
	weighted := analytics.Sum(rows, func(d dataset.District) float64 { return d.CompensationProgress * d.HouseholdsAffected })
	return math.Min(weighted/households, 100)
}

func grcResolution(rows []dataset.GRC) float64 {
	return analytics.Percent(
		analytics.Sum(rows, func(g dataset.GRC) float64 { return g.Resolved }),
		analytics.Sum(rows, func(g dataset.GRC) float64 { return g.Received }),
	)
}

// HealthDimensions computes the six dimensions of the project health score
func HealthDimensions(store *dataset.Store) []HealthDimension {
	dims := []HealthDimension{
		{Label: "PAP Compensation", Description: "Households compensated", Dataset: dataset.NamePAPs, Weight: 0.30},
		{Label: "Worker Training", Description: "Workers with any training", Dataset: dataset.NameWorkers, Weight: 0.15},
		{Label: "Contractor Safety", Description: "Sites without incidents", Dataset: dataset.NameContractors, Weight: 0.15},
		{Label: "GRC Resolution", Description: "Complaints resolved", Dataset: dataset.NameGRC, Weight: 0.15},
		{Label: "District Compensation", Description: "Weighted HH compensation rate", Dataset: dataset.NameDistrict, Weight: 0.15},
		{Label: "Site Audit Compliance", Description: "Audit indicators conform", Dataset: dataset.NameChecklist, Weight: 0.10},
	}
	for i := range dims {
		if !store.Loaded(dims[i].Dataset) {
			dims[i].Value = math.NaN()
			continue
		}
		switch dims[i].Dataset {
		case dataset.NamePAPs:
			dims[i].Value = analytics.Rate(store.PAPs, papCompensated)
		case dataset.NameWorkers:
			dims[i].Value = analytics.Rate(store.Workers, workerTrained)
		case dataset.NameContractors:
			dims[i].Value = 100 - analytics.Rate(store.Contractors, contractorIncident)
		case dataset.NameGRC:
			dims[i].Value = grcResolution(store.GRCs)
		case dataset.NameDistrict:
			dims[i].Value = districtProgress(store.Districts)
		case dataset.NameChecklist:
			dims[i].Value = ConformityRate(store)
		}
	}
	return dims
}

// OverallScore combines the available dimensions; weights of missing
// dimensions are redistributed. NaN when nothing is loaded.
func OverallScore(dims []HealthDimension) float64 {
	weights := make([]float64, len(dims))
	values := make([]float64, len(dims))
	for i, d := range dims {
		weights[i], values[i] = d.Weight, d.Value
	}
	return analytics.WeightedScore(weights, values)
}

// OverallLevel grades the overall score
func OverallLevel(score float64) Level {
	if math.IsNaN(score) {
		return analytics.LevelMuted
	}
	return analytics.LevelAtLeast(score, 75, 55)
}

func overallBadge(score float64) *Badge {
	switch l := OverallLevel(score); l {
	case analytics.LevelSuccess:
		return &Badge{Label: "● ON TRACK", Level: l}
	case analytics.LevelWarning:
		return &Badge{Label: "⚠ ATTENTION REQUIRED", Level: l}
	case analytics.LevelDanger:
		return &Badge{Label: "⚠ CRITICAL", Level: l}
	default:
		return &Badge{Label: "● NO DATA", Level: l}
	}
}

// BuildExecutive computes the landing page across every loaded dataset
func BuildExecutive(store *dataset.Store, _ filter.Selection) *Page {
	dims := HealthDimensions(store)
	score := OverallScore(dims)

	return &Page{
		Subtitle: executiveSubtitle(store),
		Status:   overallBadge(score),
		KPIs:     executiveKPIs(store, score),
		Alerts:   executiveAlerts(store),
		Charts:   []*Chart{executiveRadar(dims), executiveTimeline(store)},
		Indicators: []IndicatorList{
			executiveScorecard(dims),
		},
		Cards: executiveCards(store),
	}
}

func surveyCount(store *dataset.Store) int {
	return len(store.PAPs) + len(store.Workers) + len(store.Contractors) + len(store.GRCs) + len(store.Districts)
}

func executiveSubtitle(store *dataset.Store) string {
	districts := distinctCount(store.Districts, func(d dataset.District) string { return d.Name })
	if districts == 0 {
		districts = distinctCount(store.PAPs, func(p dataset.PAP) string { return p.District })
	}
	return fmt.Sprintf("IMCE Project Rwanda — Integrated Monitoring of Environmental & Social Commitments — %s · %s · %s",
		plural(store.LoadedCount(), "dataset"), plural(surveyCount(store), "survey"), plural(districts, "district"))
}

// alertKPI is a headline card that turns red past its threshold
func alertKPI(label, value, sub string, alert bool) KPI {
	l := analytics.LevelSuccess
	if alert {
		l = analytics.LevelDanger
	}
	return KPI{Label: label, Value: value, Sub: sub, Level: l}
}

func unavailableKPI(label string, store *dataset.Store, name dataset.Name) KPI {
	return KPI{Label: label, Value: dash, Sub: store.Placeholder(name), Level: analytics.LevelMuted}
}

func executiveKPIs(store *dataset.Store, score float64) []KPI {
	kpis := []KPI{{Label: "Overall Project Health", Value: pct1(score), Sub: "Weighted across available dimensions", Level: OverallLevel(score)}}

	if store.Loaded(dataset.NamePAPs) {
		rows := store.PAPs
		comp := analytics.Count(rows, papCompensated)
		rate := analytics.Percent(float64(comp), float64(len(rows)))
		unsat := analytics.Count(rows, func(p dataset.PAP) bool { return isNo(p.CompensationSatisfied) })
		kpis = append(kpis, alertKPI("PAPs Compensated", fmt.Sprintf("%d/%d", comp, len(rows)),
			fmt.Sprintf("%s — %d unsatisfied", pct(rate), unsat), rate < 80))
	} else {
		kpis = append(kpis, unavailableKPI("PAPs Compensated", store, dataset.NamePAPs))
	}

	if store.Loaded(dataset.NameWorkers) {
		rows := store.Workers
		trained := analytics.Count(rows, workerTrained)
		female := analytics.Count(rows, func(w dataset.Worker) bool { return w.Gender == "Female" })
		rate := analytics.Percent(float64(trained), float64(len(rows)))
		kpis = append(kpis, alertKPI("Workers Trained", fmt.Sprintf("%d/%d", trained, len(rows)),
			fmt.Sprintf("%s — %d women (%s)", pct(rate), female, pct(analytics.Percent(float64(female), float64(len(rows))))), rate < 60))
	} else {
		kpis = append(kpis, unavailableKPI("Workers Trained", store, dataset.NameWorkers))
	}

	if store.Loaded(dataset.NameContractors) {
		rows := store.Contractors
		incidents := analytics.Count(rows, contractorIncident)
		rate := analytics.Percent(float64(incidents), float64(len(rows)))
		kpis = append(kpis, alertKPI("Contractor Incidents", fmt.Sprintf("%d/%d", incidents, len(rows)),
			pct(rate)+" of sites reported incidents", rate > 50))
	} else {
		kpis = append(kpis, unavailableKPI("Contractor Incidents", store, dataset.NameContractors))
	}

	if store.Loaded(dataset.NameGRC) {
		rows := store.GRCs
		sum := func(f func(dataset.GRC) float64) float64 { return analytics.Sum(rows, f) }
		rate := grcResolution(rows)
		kpis = append(kpis, alertKPI("GRC Resolution Rate", pct(rate),
			fmt.Sprintf("%s/%s resolved · %s pending",
				num(sum(func(g dataset.GRC) float64 { return g.Resolved })),
				num(sum(func(g dataset.GRC) float64 { return g.Received })),
				num(sum(func(g dataset.GRC) float64 { return g.Pending }))), rate < 60))
	} else {
		kpis = append(kpis, unavailableKPI("GRC Resolution Rate", store, dataset.NameGRC))
	}

	if store.Loaded(dataset.NameDistrict) {
		rows := store.Districts
		rate := districtProgress(rows)
		pending := analytics.Sum(rows, func(d dataset.District) float64 { return d.NotYetCompensated })
		kpis = append(kpis, alertKPI("District Compensation", pct(rate),
			fmt.Sprintf("%s HH pending across %s", num(pending), plural(len(rows), "district")), rate < 60))
	} else {
		kpis = append(kpis, unavailableKPI("District Compensation", store, dataset.NameDistrict))
	}

	if c, ok := store.Checklist(); ok {
		conform, total := Conformity(c, AuditSections)
		kpis = append(kpis, KPI{
			Label: "Site Audit Score",
			Value: fmt.Sprintf("%d/%d", conform, total),
			Sub:   fmt.Sprintf("%s conform · %s compensation progress", pct(analytics.Percent(float64(conform), float64(total))), pct(c.Number("compensation_progress_pct"))),
			Level: analytics.ScoreLevel(analytics.Percent(float64(conform), float64(total))),
		})
	} else {
		kpis = append(kpis, unavailableKPI("Site Audit Score", store, dataset.NameChecklist))
	}
	return kpis
}

func executiveAlerts(store *dataset.Store) []Alert {
	var alerts []Alert
	add := func(l Level, format string, args ...any) {
		alerts = append(alerts, Alert{Level: l, Text: fmt.Sprintf(format, args...)})
	}

	for _, d := range store.Districts {
		if d.CompAnomaly {
			add(analytics.LevelDanger, "%s — Cross-phase compensation backlog: %s pending vs %s registered households. Immediate World Bank escalation required.",
				d.Name, num(d.NotYetCompensated), num(d.HouseholdsAffected))
		}
	}
	for _, d := range store.Districts {
		if d.CompensationKnown && d.CompensationProgress < districtCritical && !d.CompAnomaly {
			add(analytics.LevelDanger, "%s (%s) — Compensation rate at %s. %s households uncompensated.",
				d.Name, d.Site, pct(d.CompensationProgress), num(d.NotYetCompensated))
		}
	}

	if n := len(store.Contractors); n > 0 {
		incidents := analytics.Count(store.Contractors, contractorIncident)
		if rate := analytics.Percent(float64(incidents), float64(n)); rate >= 70 {
			add(analytics.LevelWarning, "%d/%d contractor sites reported safety incidents (%s). OHS compliance requires systematic review.",
				incidents, n, pct(rate))
		}
	}

	if n := len(store.Workers); n > 0 {
		untrained := n - analytics.Count(store.Workers, workerTrained)
		if untrained > 0 {
			add(analytics.LevelWarning, "%d workers (%s) have received zero training — no health/safety, GBV, or HIV awareness sessions recorded.",
				untrained, pct(analytics.Percent(float64(untrained), float64(n))))
		}
		gbv := flagCounts(store.Workers, dataset.WorkerTrainingFields, func(w dataset.Worker) []bool { return w.Training })[1]
		if gbv < float64(n)*0.5 {
			add(analytics.LevelWarning, "Only %s/%d workers (%s) received GBV/SEA awareness training — below the 50%% threshold.",
				num(gbv), n, pct(analytics.Percent(gbv, float64(n))))
		}
	}

	if len(store.PAPs) > 0 {
		unresolved := analytics.Count(store.PAPs, func(p dataset.PAP) bool { return p.GrievanceResolved == "Not resolved" })
		if unresolved > 5 {
			add(analytics.LevelInfo, "%d PAP grievances remain unresolved out of %d submitted — GRC follow-up required.",
				unresolved, analytics.Count(store.PAPs, papSubmitted))
		}
	}

	if c, ok := store.Checklist(); ok {
		conformity := ConformityRate(store)
		comp := c.Number("compensation_progress_pct")
		if conformity-comp >= paradoxGap {
			add(analytics.LevelInfo, "%s site (%s) — %s procedurally compliant but only %s of PAPs compensated after %s months. Formal compliance masks substantive gap.",
				orDash(c.Site), orDash(c.District), pct(conformity), pct(comp), num(c.Number("compensation_timing_months")))
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{Level: analytics.LevelSuccess, Text: "✓ No critical alerts"})
	}
	return alerts
}

func executiveRadar(dims []HealthDimension) *Chart {
	var labels []string
	var values []float64
	for _, d := range dims {
		if d.Available() {
			labels = append(labels, d.Label)
			values = append(values, d.Value)
		}
	}
	return newChart("health", "Project Health by Dimension", KindHBar, labels,
		colored("Score", values, levelColors(values, analytics.ScoreLevel))).
		percent().target(80, "80% target").sub("Six monitoring dimensions vs 80% World Bank target benchmark")
}

var timelineSources = []struct {
	name  dataset.Name
	color string
}{
	{dataset.NamePAPs, P(1)},
	{dataset.NameWorkers, P(2)},
	{dataset.NameContractors, P(3)},
	{dataset.NameGRC, P(5)},
	{dataset.NameDistrict, P(6)},
}

// surveyDates lists the interview dates of a dataset, skipping blanks
func surveyDates(store *dataset.Store, name dataset.Name) []time.Time {
	var out []time.Time
	collect := func(t time.Time) {
		if !t.IsZero() {
			out = append(out, t)
		}
	}
	switch name {
	case dataset.NamePAPs:
		for _, r := range store.PAPs {
			collect(r.Date)
		}
	case dataset.NameWorkers:
		for _, r := range store.Workers {
			collect(r.Date)
		}
	case dataset.NameContractors:
		for _, r := range store.Contractors {
			collect(r.Date)
		}
	case dataset.NameGRC:
		for _, r := range store.GRCs {
			collect(r.Date)
		}
	case dataset.NameDistrict:
		for _, r := range store.Districts {
			collect(r.Date)
		}
	}
	return out
}

func executiveTimeline(store *dataset.Store) *Chart {
	const layout = "2006-01-02"
	perSource := make([]map[string]int, len(timelineSources))
	days := map[string]bool{}
	for i, s := range timelineSources {
		perSource[i] = map[string]int{}
		for _, t := range surveyDates(store, s.name) {
			d := t.Format(layout)
			perSource[i][d]++
			days[d] = true
		}
	}
	labels := make([]string, 0, len(days))
	for d := range days {
		labels = append(labels, d)
	}
	sort.Strings(labels)

	series := make([]Series, 0, len(timelineSources))
	for i, s := range timelineSources {
		if !store.Loaded(s.name) {
			continue
		}
		values := make([]float64, len(labels))
		for j, d := range labels {
			values[j] = float64(perSource[i][d])
		}
		series = append(series, solid(s.name.Label(), values, s.color))
	}
	return newChart("timeline", "Monitoring Coverage Timeline", KindStacked, labels, series...).
		sub("Surveys per day across datasets").axes("Survey Date", "Surveys")
}

func executiveScorecard(dims []HealthDimension) IndicatorList {
	list := IndicatorList{ID: "scorecard", Title: "Dimension Scorecard"}
	for _, d := range dims {
		item := Indicator{Label: d.Label, Value: dash, Note: d.Description, Level: analytics.LevelMuted}
		if d.Available() {
			item.Value = pct(d.Value)
			item.Level = analytics.ScoreLevel(d.Value)
		}
		list.Items = append(list.Items, item)
	}
	return list
}

func executiveCards(store *dataset.Store) []Card {
	builders := []struct {
		name  dataset.Name
		title string
		link  string
		build func(*dataset.Store) Card
	}{
		{dataset.NamePAPs, "Project Affected Persons", "/paps", papsCard},
		{dataset.NameWorkers, "Workers", "/workers", workersCard},
		{dataset.NameContractors, "Contractors", "/contractors", contractorsCard},
		{dataset.NameGRC, "Grievance Committees (GRC)", "/grc", grcCard},
		{dataset.NameDistrict, "District Monitoring", "/district", districtCard},
		{dataset.NameChecklist, "Site Audit — Checklist", "/checklist", checklistCard},
	}
	cards := make([]Card, len(builders))
	for i, b := range builders {
		var c Card
		if store.Loaded(b.name) {
			c = b.build(store)
		} else {
			c = Card{Status: "Not loaded", Level: analytics.LevelMuted, Lines: []string{store.Placeholder(b.name)}}
		}
		c.Title, c.Link = b.title, b.link
		cards[i] = c
	}
	return cards
}

// cardStatus picks between an on-track and a review label
func cardStatus(ok bool, good, bad string, badLevel Level) (string, Level) {
	if ok {
		return good, analytics.LevelSuccess
	}
	return bad, badLevel
}

func papsCard(store *dataset.Store) Card {
	rows := store.PAPs
	comp := analytics.Rate(rows, papCompensated)
	c := Card{
		Bars: []Bar{
			{Label: "Compensated", Value: comp, Level: passLevel(comp, 80)},
			{Label: "GRM Aware", Value: analytics.Rate(rows, papAware), Level: analytics.LevelInfo},
			{Label: "Valuation Explained", Value: analytics.Rate(rows, func(p dataset.PAP) bool { return isYes(p.ValuationExplained) }), Level: analytics.LevelInfo},
		},
		Lines: []string{fmt.Sprintf("%d grievances submitted · %d fully resolved",
			analytics.Count(rows, papSubmitted),
			analytics.Count(rows, func(p dataset.PAP) bool { return p.GrievanceResolved == "Fully resolved" }))},
	}
	c.Status, c.Level = cardStatus(comp >= 80, "✓ On Track", "⚠ Review", analytics.LevelWarning)
	return c
}

func workersCard(store *dataset.Store) Card {
	rows := store.Workers
	trained := analytics.Rate(rows, workerTrained)
	training := flagRates(rows, dataset.WorkerTrainingFields, func(w dataset.Worker) []bool { return w.Training })
	c := Card{
		Bars: []Bar{
			{Label: "Trained (any)", Value: trained, Level: passLevel(trained, 70)},
			{Label: "Female Workers", Value: analytics.Rate(rows, func(w dataset.Worker) bool { return w.Gender == "Female" }), Level: analytics.LevelInfo},
			{Label: "Health & Safety Training", Value: training[0], Level: analytics.LevelInfo},
			{Label: "GBV Awareness Training", Value: training[1], Level: analytics.LevelInfo},
		},
	}
	c.Status, c.Level = cardStatus(trained >= 70, "✓ On Track", "⚠ Training Gap", analytics.LevelWarning)
	return c
}

func contractorsCard(store *dataset.Store) Card {
	rows := store.Contractors
	incidents := analytics.Rate(rows, contractorIncident)
	ppe := flagRates(rows, dataset.ContractorPPEFields, func(c dataset.Contractor) []bool { return c.PPE })
	c := Card{
		Bars: []Bar{
			{Label: "Sites with Incidents", Value: incidents, Level: analytics.LevelDanger},
			{Label: "Women in Workforce", Value: analytics.MeanOf(rows, func(c dataset.Contractor) float64 { return c.WomenPercent }), Level: analytics.LevelInfo},
			{Label: "Local Workforce", Value: analytics.MeanOf(rows, func(c dataset.Contractor) float64 { return c.LocalPercent }), Level: analytics.LevelInfo},
			{Label: "PPE Compliance (helmet)", Value: ppe[0], Level: analytics.ScoreLevel(ppe[0])},
		},
	}
	c.Status, c.Level = cardStatus(incidents <= 50, "✓ On Track", "⚠ Incidents", analytics.LevelDanger)
	return c
}

func grcCard(store *dataset.Store) Card {
	rows := store.GRCs
	res := grcResolution(rows)
	c := Card{
		Bars: []Bar{
			{Label: "Resolution Rate", Value: res, Level: passLevel(res, 60)},
			{Label: "Training Coverage", Value: analytics.Rate(rows, func(g dataset.GRC) bool { return g.TrainingCount > 0 }), Level: analytics.LevelSuccess},
			{Label: "Logbook Coverage", Value: analytics.Rate(rows, func(g dataset.GRC) bool { return isYes(g.HasLogbook) }), Level: analytics.LevelSuccess},
		},
	}
	counts := flagCounts(rows, dataset.GRCComplaintFields, func(g dataset.GRC) []bool { return g.Complaints })
	top := -1
	for i, n := range counts[:len(counts)-1] {
		if n > 0 && (top < 0 || n > counts[top]) {
			top = i
		}
	}
	if top >= 0 {
		c.Lines = []string{fmt.Sprintf("Top complaint: %s (%s GRCs)", dataset.GRCComplaintFields[top].Label, num(counts[top]))}
	}
	c.Status, c.Level = cardStatus(res >= 60, "✓ Functional", "⚠ Review", analytics.LevelWarning)
	return c
}

func districtCard(store *dataset.Store) Card {
	rows := store.Districts
	rate := districtProgress(rows)
	full := analytics.Count(rows, func(d dataset.District) bool { return len(MissingInstruments(d)) == 0 })
	staffed := analytics.Count(rows, func(d dataset.District) bool { return d.StaffEnv > 0 || d.StaffSocial > 0 })
	n := float64(len(rows))
	c := Card{
		Bars: []Bar{
			{Label: "Weighted Compensation Rate", Value: rate, Level: analytics.LevelAtLeast(rate, 75, 50)},
			{Label: "Districts with Full Instruments", Value: analytics.Percent(float64(full), n), Level: analytics.LevelInfo},
			{Label: "Districts with E&S Staff", Value: analytics.Percent(float64(staffed), n), Level: analytics.LevelInfo},
		},
		Lines: []string{num(analytics.Sum(rows, func(d dataset.District) float64 { return d.NotYetCompensated })) + " total households awaiting compensation"},
	}
	switch {
	case rate < 50:
		c.Status, c.Level = "⚠ Critical", analytics.LevelDanger
	case rate < 75:
		c.Status, c.Level = "⚠ Review", analytics.LevelWarning
	default:
		c.Status, c.Level = "✓ On Track", analytics.LevelSuccess
	}
	return c
}

func checklistCard(store *dataset.Store) Card {
	chk, ok := store.Checklist()
	if !ok {
		return Card{Status: "No audited site", Level: analytics.LevelMuted, Lines: []string{store.Status(dataset.NameChecklist).File + " has no rows."}}
	}
	conformity := ConformityRate(store)
	comp := chk.Number("compensation_progress_pct")
	staff, deployed := 0.0, 0
	for _, p := range staffParties {
		v := chk.Number(p.col)
		staff += v
		if v > 0 {
			deployed++
		}
	}
	c := Card{
		Bars: []Bar{
			{Label: "Procedural Compliance", Value: conformity, Level: analytics.ScoreLevel(conformity)},
			{Label: "Compensation Progress", Value: comp, Level: analytics.LevelAtLeast(comp, 80, 50)},
			{Label: "Staff Deployed (E&S)", Value: analytics.Percent(float64(deployed), float64(len(staffParties))), Level: analytics.LevelSuccess},
		},
		Lines: []string{fmt.Sprintf("%s dedicated E&S personnel · %s GRCs established", num(staff), num(chk.Number("grc_establishment_count")))},
	}
	c.Status, c.Level = cardStatus(conformity >= 100, "✓ Benchmark Site", "⚠ Review", analytics.LevelWarning)
	return c
}
