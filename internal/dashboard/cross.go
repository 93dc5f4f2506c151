package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

// Section ids of the cross analysis page; each chart shares its id with
// the insights that interpret it
const (
	CrossGRMCompensation = "grm-compensation"
	CrossTrainingGender  = "training-gender"
	CrossPPEIncidents    = "ppe-incidents"
	CrossGRCDistrict     = "grc-compensation"
	CrossImpactGrievance = "impact-grievance"
)

// BuildCross computes the cross-dataset analysis page
func BuildCross(store *dataset.Store, _ filter.Selection) *Page {
	p := &Page{Subtitle: "Insights that emerge only when crossing datasets — PAPs × Workers × Contractors × GRC × District"}
	analyses := []struct {
		id    string
		title string
		needs []dataset.Name
		run   func(*dataset.Store) (*Chart, []Insight)
	}{
		{CrossGRMCompensation, "GRM Awareness → Compensation Outcome", []dataset.Name{dataset.NamePAPs}, crossGRMCompensation},
		{CrossTrainingGender, "Training Gap by Gender", []dataset.Name{dataset.NameWorkers}, crossTrainingGender},
		{CrossPPEIncidents, "PPE Coverage vs Safety Incidents", []dataset.Name{dataset.NameContractors}, crossPPEIncidents},
		{CrossGRCDistrict, "GRC Resolution Rate × District Compensation Progress", []dataset.Name{dataset.NameGRC, dataset.NameDistrict}, crossGRCDistrict},
		{CrossImpactGrievance, "Impact Type → Grievance & Compensation Rate", []dataset.Name{dataset.NamePAPs}, crossImpactGrievance},
	}
	for _, a := range analyses {
		if name, ok := firstMissing(store, a.needs); !ok {
			p.Charts = append(p.Charts, emptyChart(a.id, a.title, KindBar))
			p.Insights = append(p.Insights, Insight{Section: a.id, Title: "Data unavailable", Text: store.Placeholder(name), Level: analytics.LevelMuted})
			continue
		}
		chart, insights := a.run(store)
		for i := range insights {
			insights[i].Section = a.id
		}
		p.Charts = append(p.Charts, chart)
		p.Insights = append(p.Insights, insights...)
	}
	return p
}

func firstMissing(store *dataset.Store, names []dataset.Name) (dataset.Name, bool) {
	for _, n := range names {
		if !store.Loaded(n) {
			return n, false
		}
	}
	return "", true
}

// GRMOutcome splits compensation by GRM awareness. Rates are percentages
// of each awareness group.
type GRMOutcome struct {
	AwareCompensated, AwareTotal     int
	UnawareCompensated, UnawareTotal int
}

func (o GRMOutcome) AwareRate() float64 {
	return analytics.Percent(float64(o.AwareCompensated), float64(o.AwareTotal))
}

func (o GRMOutcome) UnawareRate() float64 {
	return analytics.Percent(float64(o.UnawareCompensated), float64(o.UnawareTotal))
}

// Gap is the aware minus unaware compensation rate in points
func (o GRMOutcome) Gap() float64 { return o.AwareRate() - o.UnawareRate() }

// GRMCompensation counts compensation outcomes per awareness group
func GRMCompensation(rows []dataset.PAP) GRMOutcome {
	var o GRMOutcome
	for _, p := range rows {
		switch {
		case isYes(p.GRMAware):
			o.AwareTotal++
			if papCompensated(p) {
				o.AwareCompensated++
			}
		case isNo(p.GRMAware):
			o.UnawareTotal++
			if papCompensated(p) {
				o.UnawareCompensated++
			}
		}
	}
	return o
}

func crossGRMCompensation(store *dataset.Store) (*Chart, []Insight) {
	rows := filter.Where(store.PAPs, func(p dataset.PAP) bool {
		return isYes(p.CompensationReceived) || isNo(p.CompensationReceived)
	})
	o := GRMCompensation(rows)
	aware, unaware := o.AwareRate(), o.UnawareRate()
	chart := newChart(CrossGRMCompensation, "GRM Awareness → Compensation Outcome", KindStacked,
		[]string{"GRM Aware", "Not GRM Aware"},
		solid("Compensated", []float64{aware, unaware}, ColorSuccess),
		solid("Not Compensated", []float64{100 - aware, 100 - unaware}, ColorDanger),
	).percent().axes("", "% of Group").sub("PAPs who know about the grievance mechanism: are they better compensated?")
	if o.AwareTotal == 0 && o.UnawareTotal == 0 {
		chart.Empty = true
	}

	policy := Insight{
		Title: "Policy implication",
		Text:  "GRM awareness is a strong predictor of compensation receipt. Investing in GRM outreach directly improves compensation outcomes.",
		Level: analytics.LevelInfo,
	}
	if o.Gap() <= 0 {
		policy.Text = "PAPs unaware of the GRM are compensated at least as often as aware ones. Awareness alone does not explain compensation outcomes here."
	}
	return chart, []Insight{
		{
			Title: fmt.Sprintf("GRM-Aware PAPs: %s compensated", pct(aware)),
			Text:  fmt.Sprintf("%d/%d PAPs who knew the GRM received compensation.", o.AwareCompensated, o.AwareTotal),
			Level: analytics.LevelSuccess,
		},
		{
			Title: fmt.Sprintf("Non-Aware PAPs: %s compensated", pct(unaware)),
			Text: fmt.Sprintf("%d/%d PAPs unaware of GRM received compensation. Gap of %.0f percentage points.",
				o.UnawareCompensated, o.UnawareTotal, o.Gap()),
			Level: analytics.LevelDanger,
		},
		policy,
	}
}

var crossTrainings = []struct {
	index int
	name  string
	short string
}{
	{0, "Health & Safety", "Health & Safety"},
	{1, "GBV/SEA Awareness", "GBV/SEA"},
	{2, "HIV Awareness", "HIV Awareness"},
}

// GenderGapLevel grades a male minus female training gap in points
func GenderGapLevel(gap float64) Level {
	switch g := math.Abs(gap); {
	case g > 15:
		return analytics.LevelDanger
	case g > 5:
		return analytics.LevelWarning
	default:
		return analytics.LevelSuccess
	}
}

func trainingRate(rows []dataset.Worker, index int) float64 {
	return analytics.Rate(rows, func(w dataset.Worker) bool { return index < len(w.Training) && w.Training[index] })
}

func crossTrainingGender(store *dataset.Store) (*Chart, []Insight) {
	male := filter.Where(store.Workers, func(w dataset.Worker) bool { return w.Gender == "Male" })
	female := filter.Where(store.Workers, func(w dataset.Worker) bool { return w.Gender == "Female" })

	labels := make([]string, len(crossTrainings))
	mr := make([]float64, len(crossTrainings))
	fr := make([]float64, len(crossTrainings))
	var insights []Insight
	for i, t := range crossTrainings {
		labels[i] = t.name
		mr[i], fr[i] = trainingRate(male, t.index), trainingRate(female, t.index)
		gap := mr[i] - fr[i]
		verdict := "Moderate disparity — watch closely."
		switch {
		case gap > 15:
			verdict = "Women are significantly under-trained."
		case math.Abs(gap) <= 5:
			verdict = "Training gap is acceptable."
		}
		insights = append(insights, Insight{
			Title: fmt.Sprintf("%s — Gap: %.0fpp", t.short, math.Abs(gap)),
			Text:  fmt.Sprintf("Male: %s vs Female: %s. %s", pct(mr[i]), pct(fr[i]), verdict),
			Level: GenderGapLevel(gap),
		})
	}
	chart := newChart(CrossTrainingGender, "Training Gap by Gender", KindGrouped, labels,
		solid("Male", mr, P(1)),
		solid("Female", fr, P(4)),
	).percent().axes("", "% Trained").sub("Are women workers receiving equivalent E&S training to men?")
	return chart, insights
}

// PPEScore is the share of PPE items a contractor provides
func PPEScore(c dataset.Contractor) float64 {
	n := 0
	for i := range dataset.ContractorPPEFields {
		if i < len(c.PPE) && c.PPE[i] {
			n++
		}
	}
	return analytics.Percent(float64(n), float64(len(dataset.ContractorPPEFields)))
}

func crossPPEIncidents(store *dataset.Store) (*Chart, []Insight) {
	rows := store.Contractors
	var points []Point
	for _, c := range rows {
		series := "Incident: No"
		if contractorIncident(c) {
			series = "Incident: Yes"
		} else if !isNo(c.IncidentsOccurred) {
			continue
		}
		points = append(points, Point{Series: series, X: PPEScore(c), Y: c.WomenPercent, Label: c.Site})
	}
	chart := &Chart{
		ID:       CrossPPEIncidents,
		Title:    "PPE Coverage vs Safety Incidents",
		Subtitle: "Each point is a contractor site",
		Kind:     KindScatter,
		Points:   points,
		Unit:     "%",
		XLabel:   "PPE Coverage Score (%)",
		YLabel:   "Women in Workforce (%)",
	}
	chart.Empty = !chart.HasData()

	withIncident := filter.Where(rows, contractorIncident)
	without := filter.Where(rows, func(c dataset.Contractor) bool { return isNo(c.IncidentsOccurred) })
	incidentPPE := analytics.MeanOf(withIncident, PPEScore)
	cleanPPE := analytics.MeanOf(without, PPEScore)
	known := filter.Where(withIncident, func(c dataset.Contractor) bool { return c.IncidentsKnown })
	avgIncidents := analytics.MeanOf(known, func(c dataset.Contractor) float64 { return c.IncidentsCount })

	missingCounts := make([]int, len(dataset.ContractorPPEFields))
	for _, c := range rows {
		for i := range missingCounts {
			if i >= len(c.PPE) || !c.PPE[i] {
				missingCounts[i]++
			}
		}
	}
	worst := 0
	for i, n := range missingCounts {
		if n > missingCounts[worst] {
			worst = i
		}
	}

	insights := []Insight{{
		Title: fmt.Sprintf("%d/%d sites with incidents", len(withIncident), len(rows)),
		Text:  fmt.Sprintf("Average %.1f incidents per affected site. Average PPE score on incident sites: %s.", avgIncidents, pct(incidentPPE)),
		Level: analytics.LevelDanger,
	}}
	if missingCounts[worst] > 0 {
		insights = append(insights, Insight{
			Title: fmt.Sprintf("%s — most common PPE gap: %d/%d sites missing", dataset.ContractorPPEFields[worst].Label, missingCounts[worst], len(rows)),
			Text:  fmt.Sprintf("%s is the PPE item most often not provided. Related injuries are the likely consequence.", dataset.ContractorPPEFields[worst].Label),
			Level: analytics.LevelWarning,
		})
	} else {
		insights = append(insights, Insight{
			Title: "Full PPE coverage",
			Text:  "Every PPE item is provided on every site.",
			Level: analytics.LevelSuccess,
		})
	}
	clean := Insight{
		Title: fmt.Sprintf("No-incident sites: avg PPE %s", pct(cleanPPE)),
		Text:  "Sites without incidents have higher PPE coverage on average. This supports mandatory PPE enforcement.",
		Level: analytics.LevelSuccess,
	}
	if cleanPPE <= incidentPPE {
		clean.Text = "Sites without incidents do not have higher PPE coverage, which points to process gaps beyond equipment alone."
		clean.Level = analytics.LevelWarning
	}
	return chart, append(insights, clean)
}

// DistrictJoin pairs GRC activity with district compensation for one
// district key
type DistrictJoin struct {
	Key          string
	District     string
	GRCs         int
	Received     float64
	Resolved     float64
	Resolution   float64
	Compensation float64
	Pending      float64
}

// JoinGRCDistricts aggregates GRCs per district key and inner-joins them
// with the district summaries, in district file order
func JoinGRCDistricts(grcs []dataset.GRC, districts []dataset.District) []DistrictJoin {
	byKey := make(map[string]*DistrictJoin)
	for _, g := range grcs {
		k := dataset.DistrictKey(g.District)
		if k == "" {
			continue
		}
		j, ok := byKey[k]
		if !ok {
			j = &DistrictJoin{Key: k}
			byKey[k] = j
		}
		j.GRCs++
		j.Received += g.Received
		j.Resolved += g.Resolved
	}
	var out []DistrictJoin
	for _, d := range districts {
		j, ok := byKey[dataset.DistrictKey(d.Name)]
		if !ok {
			continue
		}
		row := *j
		row.District = d.Name
		row.Resolution = analytics.Percent(row.Resolved, row.Received)
		row.Compensation = d.CompensationProgress
		row.Pending = d.NotYetCompensated
		out = append(out, row)
	}
	return out
}

func crossGRCDistrict(store *dataset.Store) (*Chart, []Insight) {
	joined := JoinGRCDistricts(store.GRCs, store.Districts)
	points := make([]Point, len(joined))
	xs := make([]float64, len(joined))
	ys := make([]float64, len(joined))
	for i, j := range joined {
		points[i] = Point{Series: j.District, X: j.Resolution, Y: j.Compensation, Label: fmt.Sprintf("%s (%s)", j.District, plural(j.GRCs, "GRC"))}
		xs[i], ys[i] = j.Resolution, j.Compensation
	}
	chart := &Chart{
		ID:       CrossGRCDistrict,
		Title:    "GRC Resolution Rate × District Compensation Progress",
		Subtitle: "Districts with stronger GRC activity: do they compensate PAPs faster?",
		Kind:     KindScatter,
		Points:   points,
		Unit:     "%",
		Target:   &Target{Value: 80, Label: "80% compensation"},
		XLabel:   "GRC Complaint Resolution Rate (%)",
		YLabel:   "District Compensation Progress (%)",
	}
	chart.Empty = !chart.HasData()

	corr := analytics.Correlation(xs, ys)
	corrInsight := Insight{Level: analytics.LevelInfo}
	switch {
	case math.IsNaN(corr):
		corrInsight.Title = "Correlation: n/a"
		corrInsight.Text = fmt.Sprintf("Only %s could be matched between the GRC and district files, or one measure does not vary.", plural(len(joined), "district"))
		corrInsight.Level = analytics.LevelMuted
	case corr > 0:
		corrInsight.Title = fmt.Sprintf("Correlation: %.2f", corr)
		corrInsight.Text = "Positive correlation between GRC resolution rate and compensation progress. Districts with active, resolving GRCs tend to progress faster on compensation."
	default:
		corrInsight.Title = fmt.Sprintf("Correlation: %.2f", corr)
		corrInsight.Text = "No positive link between GRC resolution rate and compensation progress. Resolving complaints does not by itself speed up compensation."
		corrInsight.Level = analytics.LevelWarning
	}
	insights := []Insight{corrInsight}

	if len(joined) > 0 {
		most, best := joined[0], joined[0]
		for _, j := range joined[1:] {
			if j.GRCs > most.GRCs {
				most = j
			}
			if j.Compensation > best.Compensation {
				best = j
			}
		}
		if most.Key != best.Key {
			insights = append(insights, Insight{
				Title: "Districts with most GRCs don't have highest compensation",
				Text: fmt.Sprintf("%s has the most GRCs (%d) but only %s compensation and %s households pending, suggesting GRC quantity alone is insufficient. Quality of resolution matters.",
					most.District, most.GRCs, pct(most.Compensation), num(most.Pending)),
				Level: analytics.LevelDanger,
			})
		} else {
			insights = append(insights, Insight{
				Title: "GRC coverage and compensation align",
				Text:  fmt.Sprintf("%s has both the most GRCs (%d) and the highest compensation progress (%s).", most.District, most.GRCs, pct(most.Compensation)),
				Level: analytics.LevelSuccess,
			})
		}
	}
	insights = append(insights, Insight{
		Title: "Recommendation",
		Text:  "Focus on GRC resolution quality, not just establishment. Track time-to-resolution per district and tie it to compensation KPIs.",
		Level: analytics.LevelInfo,
	})
	return chart, insights
}

// ImpactGroup simplifies the free-text PAP impact type
func ImpactGroup(t string) string {
	switch {
	case strings.Contains(t, "Loss of house"):
		return "House Loss"
	case strings.Contains(t, "Loss of land") && strings.Contains(t, "Trees"):
		return "Land + Crops"
	case strings.Contains(t, "Loss of land"):
		return "Land Loss"
	case strings.Contains(t, "Trees"):
		return "Trees/Crops"
	case strings.Contains(t, "Other"):
		return "Other"
	default:
		return "Mixed/Other"
	}
}

// ImpactRates holds the outcome rates of one impact group
type ImpactRates struct {
	Group          string
	N              int
	Grievance      float64
	NotCompensated float64
	Dissatisfied   float64
}

// RatesByImpact computes outcome rates per impact group, sorted by
// grievance rate ascending
func RatesByImpact(rows []dataset.PAP) []ImpactRates {
	groups := analytics.GroupBy(rows, func(p dataset.PAP) string { return ImpactGroup(p.ImpactType) })
	out := make([]ImpactRates, len(groups))
	for i, g := range groups {
		out[i] = ImpactRates{
			Group:          g.Key,
			N:              len(g.Rows),
			Grievance:      analytics.Rate(g.Rows, papSubmitted),
			NotCompensated: analytics.Rate(g.Rows, func(p dataset.PAP) bool { return isNo(p.CompensationReceived) }),
			Dissatisfied:   analytics.Rate(g.Rows, func(p dataset.PAP) bool { return isNo(p.CompensationSatisfied) }),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Grievance < out[j].Grievance })
	return out
}

func crossImpactGrievance(store *dataset.Store) (*Chart, []Insight) {
	rates := RatesByImpact(store.PAPs)
	labels := make([]string, len(rates))
	griev := make([]float64, len(rates))
	uncomp := make([]float64, len(rates))
	unsat := make([]float64, len(rates))
	for i, r := range rates {
		labels[i] = fmt.Sprintf("%s (%d)", r.Group, r.N)
		griev[i], uncomp[i], unsat[i] = r.Grievance, r.NotCompensated, r.Dissatisfied
	}
	chart := newChart(CrossImpactGrievance, "Impact Type → Grievance & Compensation Rate", KindGrouped, labels,
		solid("Grievance Rate", griev, P(4)),
		solid("Not Compensated Rate", uncomp, P(3)),
		solid("Dissatisfied Rate", unsat, P(5)),
	).percent().axes("", "Rate (%)").sub("Which impact types drive the most grievances and uncompensated cases?")
	if len(rates) == 0 {
		return chart, nil
	}

	topGriev, topUncomp := rates[0], rates[0]
	for _, r := range rates[1:] {
		if r.Grievance > topGriev.Grievance {
			topGriev = r
		}
		if r.NotCompensated > topUncomp.NotCompensated {
			topUncomp = r
		}
	}
	return chart, []Insight{
		{
			Title: fmt.Sprintf("%q — highest grievance rate", topGriev.Group),
			Text: fmt.Sprintf("%s of PAPs with %s filed a grievance. This impact type requires priority attention.",
				pct(topGriev.Grievance), strings.ToLower(topGriev.Group)),
			Level: analytics.LevelDanger,
		},
		{
			Title: fmt.Sprintf("%q — highest uncompensated rate", topUncomp.Group),
			Text: fmt.Sprintf("%s of PAPs with %s have not received compensation. Complex valuations may be causing delays.",
				pct(topUncomp.NotCompensated), strings.ToLower(topUncomp.Group)),
			Level: analytics.LevelWarning,
		},
		{
			Title: "Grievance ≠ Uncompensated",
			Text:  "Some impact types generate high grievances but have good compensation rates. Grievances reflect dissatisfaction with process, not just outcome gaps.",
			Level: analytics.LevelInfo,
		},
	}
}
