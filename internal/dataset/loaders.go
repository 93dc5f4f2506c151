package dataset

import "math"

const dateColumn = "date_interview"

func parsePAP(r row) PAP {
	p := PAP{
		Name:       r.text("full_name"),
		District:   CleanPAPDistrict(r.text("district")),
		Sector:     r.text("sector"),
		Site:       remap(r.text("site_name"), papSiteNames),
		ImpactType: r.text("impact_type"),

		Impacts:     r.flags(PAPImpactFields),
		GRMChannels: r.flags(PAPGRMChannelFields),

		CompensationReceived:    r.text("compensation_received"),
		CompensationSatisfied:   r.text("compensation_satisfied"),
		CompensationTiming:      r.text("compensation_timing"),
		CompensationMissingDesc: r.text("compensation_missing_desc"),
		ValuationExplained:      r.text("valuation_explained"),
		AdditionalAssistance:    r.text("additional_assistance"),

		InformedBeforeProject: r.text("informed_before_project"),
		InfoClearRights:       r.text("info_clear_rights"),
		InfoClearImpacts:      r.text("info_clear_impacts"),
		InfoClearActivities:   r.text("info_clear_activities"),
		ConsultationFrequency: r.text("consultation_frequency"),
		SEAChannel:            r.text("sea_sh_channel"),

		GRMAware:               r.text("grm_aware"),
		GrievanceSubmitted:     r.text("grievance_submitted"),
		GrievanceResolved:      r.text("grievance_resolved"),
		GrievanceChannel:       r.text("grievance_channel"),
		ResponseTimeReasonable: r.text("response_time_reasonable"),

		Date: parseDate(r.text(dateColumn)),
	}
	p.ImpactCount = countTrue(p.Impacts)
	p.AtRisk = p.CompensationReceived == "No" || p.CompensationSatisfied == "No" || p.GRMAware == "No"
	return p
}

var workerRightsColumns = []string{
	"signed_contract", "code_of_conduct", "health_insurance", "ppe_received", "payment_on_time",
}

func parseWorker(r row) Worker {
	w := Worker{
		Name:   r.text("worker_name"),
		Site:   r.text("site_name"),
		Role:   r.text("role"),
		Gender: r.text("gender"),
		Age:    r.number("age"),

		SignedContract:   r.text("signed_contract"),
		CodeOfConduct:    r.text("code_of_conduct"),
		HealthInsurance:  r.text("health_insurance"),
		PPEReceived:      r.text("ppe_received"),
		PaymentOnTime:    r.text("payment_on_time"),
		PaymentFrequency: NormalizePaymentFrequency(r.text("payment_frequency")),
		GrievanceChannel: r.text("grievance_channel"),
		AccidentOccurred: r.text("accident_occurred"),

		TrainingCount: r.integer("training_count"),
		Training:      r.flags(WorkerTrainingFields),
		Accidents:     r.flags(WorkerAccidentFields),

		Date: parseDate(r.text(dateColumn)),
	}
	w.SiteCategory = SiteCategory(w.Site)
	for _, col := range workerRightsColumns {
		if r.text(col) == "No" {
			w.VulnScore++
		}
	}
	w.TrainScore = countTrue(w.Training)
	w.KnowsGRC = KnowsGRC(w.GrievanceChannel)
	return w
}

func parseContractor(r row) Contractor {
	c := Contractor{
		Site:         r.text("site_name"),
		Company:      r.text("company_name"),
		CompanyShort: CompanyShortName(r.text("company_name")),

		IncidentsOccurred: r.text("incidents_occurred"),

		WomenPercent:   r.number("women_percent"),
		LocalPercent:   r.number("local_percent"),
		TotalWorkers:   r.number("total_workers"),
		CurrentWorkers: r.number("current_workers"),
		CurrentWomen:   r.number("current_women"),
		CurrentMen:     r.number("current_men"),
		TotalLocal:     r.number("total_local"),
		TotalNonLocal:  r.number("total_nonlocal"),
		TrainedWorkers: r.number("training_exact_number"),

		Instruments: r.flags(ContractorInstrumentFields),
		Specialists: r.numbers(ContractorSpecialistFields),
		PPE:         r.flags(ContractorPPEFields),

		PaymentFrequency:      r.text("payment_frequency"),
		PPEFrequency:          r.text("ppe_frequency"),
		WasteDisposalLocation: r.text("waste_disposal_location"),

		Date: parseDate(r.text(dateColumn)),
	}
	c.IncidentsCount, c.IncidentsKnown = r.optNumber("incidents_count")

	c.Compliance = make([]string, len(ContractorComplianceFields))
	yes := 0
	for i, f := range ContractorComplianceFields {
		c.Compliance[i] = r.text(f.Column)
		if c.Compliance[i] == "Yes" {
			yes++
		}
	}

	c.InstScore = shareTrue(c.Instruments)
	c.CompScore = percentOf(float64(yes), float64(len(ContractorComplianceFields)))
	c.TrainingCoverage = trainingCoverage(c.TrainedWorkers, c.TotalWorkers)
	c.GlobalScore = c.InstScore*0.3 +
		c.CompScore*0.3 +
		c.TrainingCoverage*0.2 +
		capAt(c.WomenPercent, 50)/50*100*0.1 +
		capAt(c.LocalPercent, 100)*0.1
	return c
}

// trainingCoverage is the trained share of the workforce capped at 100. A
// contractor reporting trained workers but no headcount counts as fully
// covered.
func trainingCoverage(trained, total float64) float64 {
	if total <= 0 {
		if trained > 0 {
			return 100
		}
		return 0
	}
	return capAt(percentOf(trained, total), 100)
}

func parseGRC(r row) GRC {
	g := GRC{
		District: TitleCase(r.text("district")),
		Sector:   TitleCase(r.text("sector")),
		Cell:     TitleCase(r.text("cell")),
		Location: r.text("grc_location"),

		Received:  r.number("complaints_received"),
		Resolved:  r.number("complaints_resolved"),
		Escalated: r.number("complaints_escalated"),
		Pending:   r.number("complaints_pending"),

		TrainingCount:  r.number("training_count"),
		HasLogbook:     r.text("has_logbook"),
		EscalatedTo:    r.text("escalated_to"),
		PendingReason:  r.text("pending_reason"),
		ResolutionTime: r.text("complaint_resolution_time"),

		Complaints: r.flags(GRCComplaintFields),
		Facilities: r.flags(GRCFacilityFields),

		Date: parseDate(r.text(dateColumn)),
	}
	g.ResolutionRate = capAt(percentOf(g.Resolved, g.Received), 100)
	g.EscalationRate = capAt(percentOf(g.Escalated, g.Received), 100)
	g.PendingRate = capAt(percentOf(g.Pending, g.Received), 100)
	g.FacilScore = shareTrue(g.Facilities)
	g.ComplaintTypes = countTrue(g.Complaints)
	g.ResolutionCategory = ResolutionCategory(g.ResolutionTime)
	g.TrainScore = g.TrainingCount / 3 * 100
	g.EscScore = math.Max(0, 100-g.EscalationRate)
	g.GlobalScore = g.ResolutionRate*0.4 + g.TrainScore*0.2 + g.FacilScore*0.2 + g.EscScore*0.2
	return g
}

func parseDistrict(r row) District {
	d := District{
		Name: r.text("district_name"),
		Site: r.text("site_name"),

		HouseholdsAffected:   r.number("households_affected"),
		NotYetCompensated:    r.number("not_yet_compensated_count"),
		NotCompensatedReason: r.text("not_compensated_reason"),
		CompensationTiming:   r.text("compensation_timing"),
		GRMCount:             r.number("grm_count"),
		GRMLevelSector:       r.text("grm_level_sector"),

		StaffEnv:    r.number("staff_env_specialist"),
		StaffSocial: r.number("staff_social_specialist"),
		StaffOther:  r.number("staff_other"),

		Instruments:   r.flags(DistrictInstrumentFields),
		Impacts:       r.numbers(DistrictImpactFields),
		GRMFacilities: r.flags(DistrictGRMFacilFields),
		GRMMembers:    r.flags(DistrictGRMMemberFields),

		Date: parseDate(r.text(dateColumn)),
	}
	d.CompensationProgress, d.CompensationKnown = r.optNumber("compensation_progress")
	d.CompensationRate = capAt(d.CompensationProgress, 100)
	d.InstScore = shareTrue(d.Instruments)
	d.StaffScore = (d.StaffEnv + d.StaffSocial) / 2 * 100
	d.GRMFacilScore = shareTrue(d.GRMFacilities)
	d.GlobalScore = d.CompensationRate*0.35 + d.InstScore*0.25 + d.StaffScore*0.2 + d.GRMFacilScore*0.2
	d.CompAnomaly = d.NotYetCompensated > d.HouseholdsAffected
	return d
}

func parseChecklist(r row) Checklist {
	values := r.values()
	return Checklist{
		Site:                values["site_name"],
		District:            values["district"],
		Sector:              values["sector"],
		Cell:                values["cell"],
		Village:             values["village"],
		Contractor:          values["contractor_name"],
		SupervisingEngineer: values["supervising_engineer"],
		DateVisit:           values["date_visit"],
		Interviewer:         values["interviewer_name"],
		Observations:        values["observations"],
		Recommendations:     values["recommendations"],

		Date: parseDate(values["date_visit"]),

		values: values,
	}
}
