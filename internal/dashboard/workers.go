package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

var workerDimensions = []filter.Dimension[dataset.Worker]{
	{Key: filter.KeySite, Label: "Site", AllLabel: "All Sites", Value: func(w dataset.Worker) string { return w.Site }},
	{Key: filter.KeyRole, Label: "Role", AllLabel: "All Roles", Value: func(w dataset.Worker) string { return w.Role }},
	{Key: filter.KeyGender, Label: "Gender", AllLabel: "All Genders", Value: func(w dataset.Worker) string { return w.Gender }},
}

var categoryColors = map[string]string{
	dataset.CategoryInformal:  P(4),
	dataset.CategoryWetland:   P(2),
	dataset.CategorySecondary: P(1),
}

var categoryOrder = []string{dataset.CategoryInformal, dataset.CategoryWetland, dataset.CategorySecondary, dataset.CategoryOther}

var ageEdges = []float64{18, 25, 30, 35, 40, 50, 70}
var ageLabels = []string{"18-24", "25-29", "30-34", "35-39", "40-49", "50+"}

// workerRight is one labour right asked of every worker
type workerRight struct {
	label string
	value func(dataset.Worker) string
}

var workerRights = []workerRight{
	{"Signed Contract", func(w dataset.Worker) string { return w.SignedContract }},
	{"Code of Conduct", func(w dataset.Worker) string { return w.CodeOfConduct }},
	{"Health Insurance", func(w dataset.Worker) string { return w.HealthInsurance }},
	{"PPE Provided", func(w dataset.Worker) string { return w.PPEReceived }},
	{"Paid on Time", func(w dataset.Worker) string { return w.PaymentOnTime }},
}

func workerAccident(w dataset.Worker) bool   { return isYes(w.AccidentOccurred) }
func workerContract(w dataset.Worker) bool   { return isYes(w.SignedContract) }
func workerHighRisk(w dataset.Worker) bool   { return w.VulnScore >= 3 }
func workerUntrained(w dataset.Worker) bool  { return w.TrainingCount == 0 }
func workerSite(w dataset.Worker) string     { return w.Site }
func workerRole(w dataset.Worker) string     { return w.Role }
func workerCategory(w dataset.Worker) string { return w.SiteCategory }

// AgeGroup buckets an age into the dashboard age bands, "" outside 18..69
func AgeGroup(age float64) string {
	g, _ := analytics.Bin(age, ageEdges, ageLabels, false)
	return g
}

// BuildWorkers computes the workers page
func BuildWorkers(store *dataset.Store, sel filter.Selection) *Page {
	if p := missing(store, dataset.NameWorkers); p != nil {
		return p
	}
	res := filter.Cascade(store.Workers, workerDimensions, sel)
	rows := res.Rows

	page := &Page{
		Subtitle:  "Labour rights, occupational safety and training of site workers",
		Status:    workerStatus(store.Workers),
		Controls:  res.Controls,
		Selection: res.Selection,
		KPIs:      workerKPIs(rows),
		Charts: []*Chart{
			workerSiteCategories(rows),
			workerRoleGender(rows),
			workerAgeGroups(rows),
			workerRightsCoverage(rows),
			workerRightsByRole(rows),
			workerRightsByGender(rows),
			workerVulnerability(rows),
			workerAccidentBySite(rows),
			workerAccidentTypes(rows),
			workerAccidentByRole(rows),
			workerAccidentTraining(rows),
			workerAccidentPPE(rows),
			workerTrainingTypes(rows),
			workerTrainingBySite(rows),
			pieOf("payment-frequency", "Payment Frequency", rows, func(w dataset.Worker) string { return w.PaymentFrequency }),
			workerPaymentBySite(rows),
			workerGrievanceChannel(rows),
			workerGRCByContract(rows),
		},
		Tables:     []*Table{workerZeroTrainingTable(rows), workerSiteRiskTable(rows)},
		Indicators: []IndicatorList{workerRiskIndicators(rows)},
	}
	return page
}

func workerStatus(all []dataset.Worker) *Badge {
	contract := analytics.Rate(all, workerContract)
	accident := analytics.Rate(all, workerAccident)
	switch {
	case contract >= 80 && accident <= 15:
		return statusBadge(analytics.LevelSuccess)
	case contract >= 50 || accident <= 30:
		return statusBadge(analytics.LevelWarning)
	default:
		return statusBadge(analytics.LevelDanger)
	}
}

func workerKPIs(rows []dataset.Worker) []KPI {
	if len(rows) == 0 {
		return emptyKPIs("Workers Surveyed", "Contract Coverage", "Health Insurance", "PPE Provided", "Accident Rate", "High-Risk Workers")
	}
	n := len(rows)
	yes := func(f func(dataset.Worker) string) (int, float64) {
		c := analytics.Count(rows, func(w dataset.Worker) bool { return isYes(f(w)) })
		return c, analytics.Percent(float64(c), float64(n))
	}
	contract, contractPct := yes(func(w dataset.Worker) string { return w.SignedContract })
	insured, insuredPct := yes(func(w dataset.Worker) string { return w.HealthInsurance })
	ppe, ppePct := yes(func(w dataset.Worker) string { return w.PPEReceived })
	accidents, accidentPct := yes(func(w dataset.Worker) string { return w.AccidentOccurred })
	highRisk := analytics.Count(rows, workerHighRisk)

	return []KPI{
		{Label: "Workers Surveyed", Value: count(n), Sub: plural(distinctCount(rows, workerSite), "site"), Level: analytics.LevelInfo},
		{Label: "Contract Coverage", Value: pct(contractPct), Sub: fmt.Sprintf("%d with signed contract", contract), Level: passLevel(contractPct, 80)},
		{Label: "Health Insurance", Value: pct(insuredPct), Sub: fmt.Sprintf("%d covered", insured), Level: passLevel(insuredPct, 80)},
		{Label: "PPE Provided", Value: pct(ppePct), Sub: fmt.Sprintf("%d received PPE", ppe), Level: passLevel(ppePct, 95)},
		{Label: "Accident Rate", Value: pct(accidentPct), Sub: fmt.Sprintf("%d workers affected", accidents), Level: analytics.LevelAtMost(accidentPct, 10, 25)},
		{Label: "High-Risk Workers", Value: count(highRisk), Sub: "3+ rights deficits cumulated", Level: analytics.LevelAtMost(float64(highRisk), 0, 5)},
	}
}

// passLevel is success at or above target and a warning below it
func passLevel(v, target float64) Level {
	if v >= target {
		return analytics.LevelSuccess
	}
	return analytics.LevelWarning
}

func workerSiteCategories(rows []dataset.Worker) *Chart {
	var sites []string
	for _, cat := range categoryOrder {
		sites = append(sites, bySize(filter.Where(rows, func(w dataset.Worker) bool { return w.SiteCategory == cat }), workerSite)...)
	}
	counts := crossCounts(rows, workerSite, sites, workerCategory, categoryOrder)
	var series []Series
	for i, name := range categoryOrder {
		if total(counts[i]) == 0 {
			continue
		}
		series = append(series, solid(name, counts[i], categoryColor(name)))
	}
	return newChart("site-categories", "Workers by Site and Category", KindStacked, sites, series...).axes("", "Number of Workers")
}

func workerRoleGender(rows []dataset.Worker) *Chart {
	roles := bySize(rows, workerRole)
	names := []string{genderSeries[0].name, genderSeries[1].name}
	counts := crossCounts(rows, workerRole, roles, func(w dataset.Worker) string { return w.Gender }, names)
	series := make([]Series, len(genderSeries))
	for i, g := range genderSeries {
		series[i] = solid(g.name, counts[i], g.color)
	}
	return newChart("role-gender", "Role and Gender", KindStacked, roles, series...).axes("Number of Workers", "")
}

func workerAgeGroups(rows []dataset.Worker) *Chart {
	names := []string{genderSeries[0].name, genderSeries[1].name}
	counts := crossCounts(rows, func(w dataset.Worker) string { return AgeGroup(w.Age) }, ageLabels,
		func(w dataset.Worker) string { return w.Gender }, names)
	series := make([]Series, len(genderSeries))
	for i, g := range genderSeries {
		series[i] = solid(g.name, counts[i], g.color)
	}
	return newChart("age-groups", "Age Groups by Gender", KindGrouped, ageLabels, series...).axes("Age Group", "Number of Workers")
}

func workerRightsCoverage(rows []dataset.Worker) *Chart {
	labels := make([]string, len(workerRights))
	values := make([]float64, len(workerRights))
	for i, r := range workerRights {
		labels[i] = r.label
		values[i] = analytics.Rate(rows, func(w dataset.Worker) bool { return isYes(r.value(w)) })
	}
	return newChart("rights-coverage", "Labour Rights Coverage", KindHBar, labels,
		colored("Coverage", values, levelColors(values, atLeast(80, 50)))).
		percent().target(80, "80% target").axes("Compliance Rate", "")
}

func workerRightsByRole(rows []dataset.Worker) *Chart {
	roles := bySize(rows, workerRole)
	groups := make(map[string][]dataset.Worker, len(roles))
	for _, g := range analytics.GroupBy(rows, workerRole) {
		groups[g.Key] = g.Rows
	}
	rights := []workerRight{
		{"Contract", func(w dataset.Worker) string { return w.SignedContract }},
		{"Code of Conduct", func(w dataset.Worker) string { return w.CodeOfConduct }},
		{"Insurance", func(w dataset.Worker) string { return w.HealthInsurance }},
	}
	series := make([]Series, len(rights))
	for i, r := range rights {
		values := make([]float64, len(roles))
		for j, role := range roles {
			values[j] = analytics.Rate(groups[role], func(w dataset.Worker) bool { return isYes(r.value(w)) })
		}
		series[i] = solid(r.label, values, P(i+1))
	}
	return newChart("rights-by-role", "Rights Coverage by Role", KindGrouped, roles, series...).percent().axes("", "Compliance Rate (%)")
}

func workerRightsByGender(rows []dataset.Worker) *Chart {
	labels := []string{"Contract", "Code of Conduct", "Insurance", "PPE", "On-time Pay"}
	series := make([]Series, len(genderSeries))
	for i, g := range genderSeries {
		sub := filter.Where(rows, func(w dataset.Worker) bool { return w.Gender == g.name })
		values := make([]float64, len(workerRights))
		for j, r := range workerRights {
			values[j] = analytics.Rate(sub, func(w dataset.Worker) bool { return isYes(r.value(w)) })
		}
		series[i] = solid(g.name, values, g.color)
	}
	return newChart("rights-by-gender", "Rights Coverage by Gender", KindGrouped, labels, series...).percent().axes("", "Compliance Rate (%)")
}

func workerVulnerability(rows []dataset.Worker) *Chart {
	colors := []string{ColorSuccess, P(2), P(3), ColorWarning, ColorDanger, "#7B0000"}
	groups := analytics.GroupBy(rows, func(w dataset.Worker) string { return strconv.Itoa(w.VulnScore) })
	var labels, barColors []string
	var values []float64
	for _, g := range groups {
		score, _ := strconv.Atoi(g.Key)
		switch score {
		case 0:
			labels = append(labels, "No deficit")
		case 1:
			labels = append(labels, "1 deficit")
		default:
			labels = append(labels, fmt.Sprintf("%d deficits", score))
		}
		values = append(values, float64(len(g.Rows)))
		if score < len(colors) {
			barColors = append(barColors, colors[score])
		} else {
			barColors = append(barColors, ColorMuted)
		}
	}
	return newChart("vulnerability", "Cumulated Rights Deficits", KindBar, labels,
		colored("Workers", values, barColors)).axes("", "Number of Workers")
}

func workerAccidentBySite(rows []dataset.Worker) *Chart {
	rates := ratesBy(rows, workerSite, workerAccident)
	sortRates(rates, true)
	labels, values := splitRates(rates)
	colors := make([]string, len(labels))
	for i, site := range labels {
		colors[i] = categoryColor(dataset.SiteCategory(site))
	}
	return newChart("accident-by-site", "Accident Rate by Site", KindHBar, labels, colored("Accident Rate", values, colors)).
		percent().target(20, "20% threshold").axes("Accident Rate", "")
}

func categoryColor(cat string) string {
	if c, ok := categoryColors[cat]; ok {
		return c
	}
	return ColorMuted
}

func workerAccidentTypes(rows []dataset.Worker) *Chart {
	values := flagCounts(rows, dataset.WorkerAccidentFields, func(w dataset.Worker) []bool { return w.Accidents })
	ts := make([]analytics.Tally, 0, len(values))
	for i, f := range dataset.WorkerAccidentFields {
		if values[i] > 0 {
			ts = append(ts, analytics.Tally{Label: f.Label, Count: int(values[i])})
		}
	}
	sortTallies(ts)
	labels, counts := splitTallies(ts)
	return newChart("accident-types", "Accident Types", KindPie, labels, colored("Accidents", counts, paletteColors(len(labels))))
}

func workerAccidentByRole(rows []dataset.Worker) *Chart {
	rates := ratesBy(rows, workerRole, workerAccident)
	sortRates(rates, true)
	return rateChart("accident-by-role", "Accident Rate by Role", KindHBar, rates, atMost(20, 40)).axes("Accident Rate", "")
}

func workerAccidentTraining(rows []dataset.Worker) *Chart {
	groups := analytics.GroupBy(rows, func(w dataset.Worker) string { return strconv.Itoa(w.TrainingCount) })
	labels := make([]string, len(groups))
	counts := make([]float64, len(groups))
	rates := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		counts[i] = float64(len(g.Rows))
		rates[i] = analytics.Rate(g.Rows, workerAccident)
	}
	return newChart("accident-training", "Accidents by Number of Trainings", KindCombo, labels,
		solid("Number of Workers", counts, ColorAccent),
		Series{Name: "Accident Rate", Values: rates, Color: ColorDanger, Colors: levelColors(rates, atMost(20, 40))},
	).axes("Number of Trainings Received", "Number of Workers")
}

func workerAccidentPPE(rows []dataset.Worker) *Chart {
	both := func(acc, ppe func(string) bool) float64 {
		return float64(analytics.Count(rows, func(w dataset.Worker) bool { return acc(w.AccidentOccurred) && ppe(w.PPEReceived) }))
	}
	labels := []string{"Accident + PPE", "Accident + No PPE", "No Accident + PPE", "No Accident + No PPE"}
	values := []float64{both(isYes, isYes), both(isYes, isNo), both(isNo, isYes), both(isNo, isNo)}
	return newChart("accident-ppe", "Accidents and PPE", KindBar, labels,
		colored("Workers", values, []string{ColorWarning, ColorDanger, ColorSuccess, P(3)})).axes("", "Number of Workers")
}

func workerTrainingTypes(rows []dataset.Worker) *Chart {
	values := flagRates(rows, dataset.WorkerTrainingFields, func(w dataset.Worker) []bool { return w.Training })
	return newChart("training-types", "Training Coverage by Topic", KindBar, labelsOf(dataset.WorkerTrainingFields),
		colored("Trained", values, levelColors(values, atLeast(60, 40)))).
		percent().target(60, "60% target").axes("", "% of Workers Trained")
}

func workerTrainingBySite(rows []dataset.Worker) *Chart {
	means := meansBy(rows, workerSite, func(w dataset.Worker) float64 { return float64(w.TrainScore) })
	sortRates(means, true)
	labels, values := splitRates(means)
	colors := make([]string, len(labels))
	for i, site := range labels {
		colors[i] = categoryColor(dataset.SiteCategory(site))
	}
	return newChart("training-by-site", "Average Training Score by Site", KindHBar, labels, colored("Avg. Training Score", values, colors)).
		target(2.5, "target ≥ 2.5").axes("Avg. Training Score (out of 5)", "")
}

var paymentOrder = []struct{ name, color string }{
	{"Daily", P(4)},
	{"Weekly", P(3)},
	{"Bi-weekly", P(2)},
	{"Monthly", P(1)},
}

func workerPaymentBySite(rows []dataset.Worker) *Chart {
	sites := bySize(rows, workerSite)
	names := make([]string, len(paymentOrder))
	for i, p := range paymentOrder {
		names[i] = p.name
	}
	counts := crossCounts(rows, workerSite, sites, func(w dataset.Worker) string { return w.PaymentFrequency }, names)
	var series []Series
	for i, p := range paymentOrder {
		if total(counts[i]) == 0 {
			continue
		}
		series = append(series, solid(p.name, counts[i], p.color))
	}
	return newChart("payment-by-site", "Payment Frequency by Site", KindStacked, sites, series...).axes("", "Number of Workers")
}

// WorkerChannel buckets the free-text worker grievance channel
func WorkerChannel(ch string) string {
	lower := strings.ToLower(ch)
	switch {
	case dataset.KnowsGRC(ch):
		return "Grievance Redress Committee"
	case strings.Contains(lower, "foreman"):
		return "Reported to Foreman"
	case strings.Contains(lower, "company") || strings.Contains(lower, "administration"):
		return "Company Administration"
	case strings.Contains(ch, "District"):
		return "District Office"
	case strings.Contains(ch, "Cell"):
		return "Cell Administration"
	case strings.Contains(ch, "Sector"):
		return "Sector Administration"
	default:
		return "Other / None"
	}
}

func workerGrievanceChannel(rows []dataset.Worker) *Chart {
	ts := analytics.ValueCounts(rows, func(w dataset.Worker) string { return WorkerChannel(w.GrievanceChannel) })
	labels := make([]string, len(ts))
	values := make([]float64, len(ts))
	for i, t := range ts {
		labels[i] = t.Label
		values[i] = analytics.Percent(float64(t.Count), float64(len(rows)))
	}
	return newChart("grievance-channel", "Where Workers Would Raise a Grievance", KindHBar, labels,
		colored("Workers", values, paletteColors(len(labels)))).percent().axes("% of Workers", "")
}

func workerGRCByContract(rows []dataset.Worker) *Chart {
	rates := ratesBy(rows, func(w dataset.Worker) string { return w.SignedContract }, func(w dataset.Worker) bool { return w.KnowsGRC })
	for i := range rates {
		rates[i].Label = fmt.Sprintf("%s Contract (n=%d)", rates[i].Label, rates[i].N)
	}
	return rateChart("grc-by-contract", "GRC Awareness by Contract Status", KindBar, rates, atLeast(60, 60)).axes("", "% Aware of GRC")
}

func workerZeroTrainingTable(rows []dataset.Worker) *Table {
	t := &Table{
		ID:        "zero-training",
		Title:     "Workers Without Any Training",
		Columns:   []string{"Name", "Site", "Category", "Role", "Gender", "Age", "Had Accident", "Contract"},
		EmptyText: "All workers in this selection have received at least one training.",
	}
	for _, w := range filter.Where(rows, workerUntrained) {
		accident := leveled(orDash(w.AccidentOccurred), analytics.LevelSuccess)
		if workerAccident(w) {
			accident.Level = analytics.LevelDanger
		}
		contract := leveled(orDash(w.SignedContract), analytics.LevelDanger)
		if workerContract(w) {
			contract.Level = analytics.LevelSuccess
		}
		t.add(
			text(orDash(w.Name)),
			text(orDash(w.Site)),
			text(orDash(w.SiteCategory)),
			text(orDash(w.Role)),
			text(orDash(w.Gender)),
			text(strconv.Itoa(int(w.Age))),
			accident,
			contract,
		)
	}
	return t
}

// WorkerSiteScore is the per-site labour compliance breakdown
type WorkerSiteScore struct {
	Site      string
	Category  string
	Workers   int
	Contract  float64
	Conduct   float64
	Insurance float64
	Training  float64
	Safety    float64
	PPE       float64
	Global    float64
}

// WorkerSiteScores scores each site, largest sites first. Global is the
// plain mean of the six components.
func WorkerSiteScores(rows []dataset.Worker) []WorkerSiteScore {
	groups := analytics.GroupBy(rows, workerSite)
	analytics.SortGroupsBySize(groups)
	out := make([]WorkerSiteScore, len(groups))
	for i, g := range groups {
		yes := func(f func(dataset.Worker) string) float64 {
			return analytics.Rate(g.Rows, func(w dataset.Worker) bool { return isYes(f(w)) })
		}
		s := WorkerSiteScore{
			Site:      g.Key,
			Category:  g.Rows[0].SiteCategory,
			Workers:   len(g.Rows),
			Contract:  yes(func(w dataset.Worker) string { return w.SignedContract }),
			Conduct:   yes(func(w dataset.Worker) string { return w.CodeOfConduct }),
			Insurance: yes(func(w dataset.Worker) string { return w.HealthInsurance }),
			Training:  analytics.MeanOf(g.Rows, func(w dataset.Worker) float64 { return float64(w.TrainScore) }) / 5 * 100,
			Safety:    analytics.Rate(g.Rows, func(w dataset.Worker) bool { return isNo(w.AccidentOccurred) }),
			PPE:       yes(func(w dataset.Worker) string { return w.PPEReceived }),
		}
		s.Global = analytics.Mean([]float64{s.Contract, s.Conduct, s.Insurance, s.Training, s.Safety, s.PPE})
		out[i] = s
	}
	return out
}

func workerSiteRiskTable(rows []dataset.Worker) *Table {
	t := &Table{
		ID:        "site-risk",
		Title:     "Site Risk Scoring",
		Columns:   []string{"Site", "Category", "Workers", "Contract", "Code of Conduct", "Insurance", "Training", "Safety", "PPE", "Global Score"},
		EmptyText: "No data available.",
	}
	for _, s := range WorkerSiteScores(rows) {
		t.add(text(s.Site), text(s.Category), text(count(s.Workers)),
			scored(s.Contract), scored(s.Conduct), scored(s.Insurance),
			scored(s.Training), scored(s.Safety), scored(s.PPE), scored(s.Global))
	}
	return t
}

func workerRiskIndicators(rows []dataset.Worker) IndicatorList {
	list := IndicatorList{ID: "risk", Title: "Risk Summary"}
	if len(rows) == 0 {
		return list
	}
	checks := []struct {
		label string
		hit   func(dataset.Worker) bool
	}{
		{"No Signed Contract", func(w dataset.Worker) bool { return isNo(w.SignedContract) }},
		{"No Code of Conduct", func(w dataset.Worker) bool { return isNo(w.CodeOfConduct) }},
		{"No Health Insurance", func(w dataset.Worker) bool { return isNo(w.HealthInsurance) }},
		{"No PPE Provided", func(w dataset.Worker) bool { return isNo(w.PPEReceived) }},
		{"Zero Training", workerUntrained},
		{"Experienced Accident", workerAccident},
		{"3+ Rights Deficits", workerHighRisk},
	}
	for _, c := range checks {
		list.Items = append(list.Items, riskIndicator(c.label, analytics.Count(rows, c.hit), len(rows), 25, "workers"))
	}
	return list
}
