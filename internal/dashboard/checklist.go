package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

// AuditIndicator names the three checklist columns of one indicator
type AuditIndicator struct {
	Label      string
	Value      string
	Compliance string
	Comment    string
}

// AuditSection groups indicators under one heading of the site audit
type AuditSection struct {
	Title      string
	Icon       string
	Indicators []AuditIndicator
}

func ind(label, value, prefix string) AuditIndicator {
	return AuditIndicator{Label: label, Value: value, Compliance: prefix + "_compliance", Comment: prefix + "_comment"}
}

// AuditSections is the layout of the site audit checklist
var AuditSections = []AuditSection{
	{Title: "E&S Capacity — Staff", Icon: "👷", Indicators: []AuditIndicator{
		ind("Project E&S Specialists", "proj_es_specialist_count", "proj_es_specialist"),
		ind("Contractor E&S Specialists", "contr_es_specialist_count", "contr_es_specialist"),
		ind("Supervisor E&S Specialists", "supv_es_specialist_count", "supv_es_specialist"),
		ind("GBV/SEA Specialist", "gbv_specialist_count", "gbv_specialist"),
		ind("OHS Officer", "ohs_officer_count", "ohs_officer"),
	}},
	{Title: "Implementation Instruments", Icon: "📋", Indicators: []AuditIndicator{
		ind("ESIA & ESMP", "has_esia_report", "esia_esmp"),
		ind("Resettlement Action Plan (RAP)", "has_rap", "rap"),
		ind("EIA Certificate", "has_eia_cert", "eia_cert"),
		ind("EIA Conditions", "has_eia_conditions", "eia_conditions"),
		ind("C-ESMP (Contractor ESMP)", "has_cemps", "cemps"),
		ind("OHS Plan", "has_ohs_plan", "ohs_plan"),
		ind("Waste Management Plan", "has_waste_plan", "waste_plan"),
		ind("GBV/SEA Outreach Plan", "has_gbv_plan", "gbv_plan"),
		ind("Borrow Pit Permit", "has_borrow_pit_permit", "borrow_pit"),
		ind("Code of Conduct", "has_code_conduct", "code_conduct"),
		ind("Labour Management Plan (LMP)", "has_lmp", "lmp"),
		ind("Traffic Management Plan", "has_traffic_plan", "traffic_plan"),
	}},
	{Title: "Resettlement & Compensation", Icon: "🏠", Indicators: []AuditIndicator{
		ind("Loss of Structures", "loss_structures_count", "loss_structures"),
		ind("Loss of Land", "loss_land_count", "loss_land"),
		ind("Loss of Trees / Crops", "loss_trees_crops_count", "loss_trees_crops"),
		ind("Wayleave", "wayleave_count", "wayleave"),
		ind("Physical Displacement", "physical_displacement_count", "physical_displacement"),
		ind("Compensation Progress", "compensation_progress_pct", "compensation_progress"),
		ind("Compensation Timing", "compensation_timing_months", "compensation_timing"),
	}},
	{Title: "GRC / GRS Setup", Icon: "⚖️", Indicators: []AuditIndicator{
		ind("GRC Establishment", "grc_establishment_count", "grc_establishment"),
		ind("GRS Training", "has_grs_training", "grs_training"),
		ind("Grievances Report / Logbook", "has_grievances_report", "grievances_report"),
	}},
	{Title: "ESMP Environmental Measures", Icon: "🌿", Indicators: []AuditIndicator{
		ind("Dust Control", "has_dust_control", "dust_control"),
		ind("Noise Control", "has_noise_control", "noise_control"),
		ind("Earth / Waste Disposal", "has_earth_waste_disposal", "earth_waste_disposal"),
		ind("Solid / Liquid Waste Management", "has_solid_liquid_waste", "solid_liquid_waste"),
		ind("Traffic Signage", "has_traffic_signage", "traffic_signage"),
		ind("Building / Pedestrian Access", "has_building_access", "building_access"),
		ind("Tree Planting / Compensation", "tree_planting_count", "tree_planting"),
		ind("Water Quality Monitoring", "has_water_quality_monitoring", "water_quality"),
		ind("Soil Quality Monitoring", "has_soil_quality_monitoring", "soil_quality"),
		ind("Erosion Control", "has_erosion_control", "erosion_control"),
		ind("Stormwater Drainage", "has_stormwater_drainage", "stormwater_drainage"),
		ind("Borrow Pit Rehabilitation", "has_borrow_pit_rehab_plan", "borrow_pit_rehab"),
		ind("Dumping Site Management", "has_dumping_site_mgmt_plan", "dumping_site_mgmt"),
	}},
}

var instrumentGroups = []struct {
	name string
	cols []string
}{
	{"Management Plans", []string{"has_ohs_plan", "has_waste_plan", "has_gbv_plan", "has_lmp", "has_traffic_plan"}},
	{"Legal / Permits", []string{"has_eia_cert", "has_eia_conditions", "has_borrow_pit_permit"}},
	{"ESMP Documents", []string{"has_esia_report", "has_esmp_plan", "has_rap", "has_cemps", "has_code_conduct"}},
	{"GRC / GRS", []string{"has_grs_training", "has_grievances_report"}},
	{"Environmental Controls", []string{
		"has_dust_control", "has_noise_control", "has_earth_waste_disposal",
		"has_solid_liquid_waste", "has_traffic_signage", "has_building_access",
		"has_water_quality_monitoring", "has_soil_quality_monitoring",
		"has_erosion_control", "has_stormwater_drainage",
		"has_borrow_pit_rehab_plan", "has_dumping_site_mgmt_plan",
	}},
}

var staffParties = []struct {
	label, col, color string
}{
	{"Project", "proj_es_specialist_count", P(1)},
	{"Contractor", "contr_es_specialist_count", P(2)},
	{"Supervisor", "supv_es_specialist_count", P(3)},
	{"GBV Spec.", "gbv_specialist_count", P(5)},
	{"OHS Officer", "ohs_officer_count", P(6)},
}

// IsConform reads a compliance cell
func IsConform(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "conform") || dataset.IsYes(s)
}

// Conformity counts conforming indicators in a section list
func Conformity(c dataset.Checklist, sections []AuditSection) (conform, total int) {
	for _, s := range sections {
		for _, i := range s.Indicators {
			total++
			if IsConform(c.Value(i.Compliance)) {
				conform++
			}
		}
	}
	return conform, total
}

// ConformityRate is the share of conforming audit indicators, NaN when the
// checklist is not loaded
func ConformityRate(store *dataset.Store) float64 {
	c, ok := store.Checklist()
	if !ok {
		return math.NaN()
	}
	conform, total := Conformity(c, AuditSections)
	return analytics.Percent(float64(conform), float64(total))
}

// paradoxGap is how far compensation must trail procedural conformity for
// the site to be flagged
const paradoxGap = 30

// BuildChecklist computes the single-site audit page
func BuildChecklist(store *dataset.Store, _ filter.Selection) *Page {
	if p := missing(store, dataset.NameChecklist); p != nil {
		return p
	}
	c, ok := store.Checklist()
	if !ok {
		return &Page{Missing: store.Placeholder(dataset.NameChecklist)}
	}
	conform, total := Conformity(c, AuditSections)
	conformity := analytics.Percent(float64(conform), float64(total))
	comp := c.Number("compensation_progress_pct")

	return &Page{
		Title:    "Site Compliance Audit",
		Subtitle: fmt.Sprintf("%s — %s District — Visited %s by %s", orDash(c.Site), orDash(c.District), orDash(c.DateVisit), orDash(c.Interviewer)),
		Status: &Badge{
			Label: fmt.Sprintf("✓ %s Procedurally Compliant", pct(conformity)),
			Level: analytics.ScoreLevel(conformity),
		},
		KPIs:  checklistKPIs(c, conform, total, comp),
		Cards: []Card{checklistIdentity(c, conform, total)},
		Charts: []*Chart{
			checklistParadox(conformity, comp),
			checklistSectionScores(c),
			checklistStaff(c),
			checklistInstruments(c),
		},
		Tables:   []*Table{checklistImpactProfile(c), checklistTable(c)},
		Insights: checklistInsights(c, conformity, comp),
	}
}

func checklistKPIs(c dataset.Checklist, conform, total int, comp float64) []KPI {
	conformity := analytics.Percent(float64(conform), float64(total))
	staff := 0.0
	for _, p := range staffParties {
		staff += c.Number(p.col)
	}
	return []KPI{
		{Label: "Indicators Audited", Value: count(total), Sub: plural(len(AuditSections), "section"), Level: analytics.LevelInfo},
		{Label: "Conform", Value: fmt.Sprintf("%d / %d", conform, total), Sub: pct(conformity) + " of indicators", Level: analytics.ScoreLevel(conformity)},
		{Label: "Compensation Progress", Value: pct(comp), Sub: fmt.Sprintf("%s months into project", num(c.Number("compensation_timing_months"))), Level: analytics.LevelAtLeast(comp, 80, 50)},
		{Label: "Structures Lost", Value: num(c.Number("loss_structures_count")), Sub: num(c.Number("loss_land_count")) + " land parcels affected", Level: analytics.LevelWarning},
		{Label: "GRCs Established", Value: num(c.Number("grc_establishment_count")), Sub: "At site level", Level: analytics.LevelInfo},
		{Label: "E&S Personnel", Value: num(staff), Sub: "Dedicated staff on site", Level: analytics.LevelInfo},
	}
}

func checklistIdentity(c dataset.Checklist, conform, total int) Card {
	location := strings.Join([]string{orDash(c.District), orDash(c.Sector), orDash(c.Cell), orDash(c.Village)}, " / ")
	return Card{
		Title:  "Site Identity",
		Status: orDash(c.Site),
		Level:  analytics.LevelInfo,
		Lines: []string{
			"Location: " + location,
			"Contractor: " + orDash(c.Contractor),
			"Supervising Engineer: " + orDash(c.SupervisingEngineer),
			"Date of Visit: " + orDash(c.DateVisit),
			"Interviewer: " + orDash(c.Interviewer),
			fmt.Sprintf("Indicators Audited: %d indicators", total),
			fmt.Sprintf("Conform: %d / %d (%s)", conform, total, pct(analytics.Percent(float64(conform), float64(total)))),
		},
	}
}

func checklistParadox(conformity, comp float64) *Chart {
	values := []float64{conformity, comp}
	return newChart("paradox", "The Compliance Paradox", KindBar,
		[]string{"Procedural Compliance", "Compensation Progress"},
		colored("Progress", values, levelColors(values, atLeast(80, 50)))).
		percent().target(80, "80% threshold").
		sub("Procedural conformity does not guarantee substantive progress")
}

func checklistSectionScores(c dataset.Checklist) *Chart {
	labels := make([]string, len(AuditSections))
	values := make([]float64, len(AuditSections))
	for i, s := range AuditSections {
		conform, total := Conformity(c, AuditSections[i:i+1])
		labels[i] = fmt.Sprintf("%s (%d/%d)", s.Title, conform, total)
		values[i] = analytics.Percent(float64(conform), float64(total))
	}
	return newChart("section-scores", "Compliance by Audit Section", KindHBar, labels,
		colored("Conform", values, levelColors(values, atLeast(100, 80)))).
		percent().axes("% of Indicators Conform", "")
}

func checklistStaff(c dataset.Checklist) *Chart {
	labels := make([]string, len(staffParties))
	values := make([]float64, len(staffParties))
	colors := make([]string, len(staffParties))
	for i, p := range staffParties {
		labels[i], values[i], colors[i] = p.label, c.Number(p.col), p.color
	}
	return newChart("staff", "E&S Staff Deployment", KindBar, labels, colored("Personnel", values, colors)).
		sub(fmt.Sprintf("Total: %s dedicated E&S personnel on site", num(total(values)))).
		axes("", "Personnel Count")
}

func checklistInstruments(c dataset.Checklist) *Chart {
	labels := make([]string, len(instrumentGroups))
	values := make([]float64, len(instrumentGroups))
	colors := make([]string, len(instrumentGroups))
	for i, g := range instrumentGroups {
		present := 0
		for _, col := range g.cols {
			if dataset.IsYes(c.Value(col)) {
				present++
			}
		}
		labels[i] = fmt.Sprintf("%s (%d)", g.name, len(g.cols))
		values[i] = analytics.Percent(float64(present), float64(len(g.cols)))
		colors[i] = ColorWarning
		if present == len(g.cols) {
			colors[i] = ColorSuccess
		}
	}
	return newChart("instruments", "Instruments Availability", KindHBar, labels, colored("Present", values, colors)).
		percent().axes("% Present", "")
}

func checklistImpactProfile(c dataset.Checklist) *Table {
	t := &Table{
		ID:      "impact-profile",
		Title:   "Site Impact Profile",
		Columns: []string{"Impact", "Value"},
	}
	for _, r := range []struct{ label, col string }{
		{"Structures lost", "loss_structures_count"},
		{"Land parcels affected", "loss_land_count"},
		{"Trees / Crops affected", "loss_trees_crops_count"},
		{"Wayleaves", "wayleave_count"},
		{"Physical displacements", "physical_displacement_count"},
		{"GRCs established", "grc_establishment_count"},
		{"Trees to replant", "tree_planting_count"},
	} {
		t.add(text(r.label), text(num(c.Number(r.col))))
	}
	comp := c.Number("compensation_progress_pct")
	t.add(text("Compensation progress"), leveled(
		fmt.Sprintf("%s (%s months)", pct(comp), num(c.Number("compensation_timing_months"))),
		analytics.LevelAtLeast(comp, 80, 50)))
	return t
}

// auditValue renders a checklist value cell
func auditValue(v string) Cell {
	switch {
	case v == "" || v == "nan":
		return leveled(dash, analytics.LevelMuted)
	case dataset.IsYes(v):
		return leveled("Yes", analytics.LevelSuccess)
	case dataset.IsNo(v):
		return leveled("No", analytics.LevelDanger)
	default:
		return text(v)
	}
}

func checklistTable(c dataset.Checklist) *Table {
	conform, total := Conformity(c, AuditSections)
	t := &Table{
		ID:      "checklist",
		Title:   fmt.Sprintf("Full Audit Checklist — %d Indicators (%d conform)", total, conform),
		Columns: []string{"Section", "Indicator", "Value", "Status", "Comment"},
	}
	for _, s := range AuditSections {
		for _, i := range s.Indicators {
			status := leveled("✗ Non-conform", analytics.LevelDanger)
			if IsConform(c.Value(i.Compliance)) {
				status = leveled("✓ Conform", analytics.LevelSuccess)
			}
			comment := c.Value(i.Comment)
			if comment == "nan" {
				comment = ""
			}
			t.add(text(s.Title), text(i.Label), auditValue(c.Value(i.Value)), status, text(comment))
		}
	}
	return t
}

func checklistInsights(c dataset.Checklist, conformity, comp float64) []Insight {
	var out []Insight
	if conformity-comp >= paradoxGap {
		months := num(c.Number("compensation_timing_months"))
		out = append(out,
			Insight{
				Title: "All instruments in place",
				Text:  fmt.Sprintf("%s of audit indicators conform: instruments, plans and permits are present and compliant.", pct(conformity)),
				Level: analytics.LevelSuccess,
			},
			Insight{
				Title: "Compensation critically lagging",
				Text: fmt.Sprintf("Only %s of PAPs compensated after %s months. %s structures and %s land parcels affected with minimal progress.",
					pct(comp), months, num(c.Number("loss_structures_count")), num(c.Number("loss_land_count"))),
				Level: analytics.LevelDanger,
			},
			Insight{
				Title: "Risk to World Bank commitments",
				Text:  "Procedural compliance is the floor, not the ceiling. Substantive progress on compensation is the real indicator of success.",
				Level: analytics.LevelWarning,
			},
		)
	}
	if s := strings.TrimSpace(c.Observations); s != "" && s != "nan" {
		out = append(out, Insight{Title: "Field Observations", Text: s, Level: analytics.LevelInfo})
	}
	if s := strings.TrimSpace(c.Recommendations); s != "" && s != "nan" {
		out = append(out, Insight{Title: "Recommendations", Text: s, Level: analytics.LevelInfo})
	}
	if conformity >= 100 {
		out = append(out, Insight{
			Title: "Benchmark Status",
			Text:  fmt.Sprintf("%s demonstrates full procedural compliance across all audit indicators and can serve as a reference model for future audits, provided compensation progress accelerates to match procedural standards.", orDash(c.Site)),
			Level: analytics.LevelSuccess,
		})
	}
	return out
}
