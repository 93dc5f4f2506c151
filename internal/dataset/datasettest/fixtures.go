// Package datasettest provides a small survey store shared by the page,
// service and transport tests.
//
// The numbers are chosen so the derived figures are easy to check by hand:
//
//	PAPs         4 rows, 2 compensated (50%), 3 at risk
//	Workers      4 rows, 3 trained (75%), 1 trained on GBV
//	Contractors  3 sites, 2 with incidents, one with an unknown count
//	GRC          3 committees, 20 complaints received, 10 resolved
//	District     3 districts, 200 households, weighted progress 47.5%
//	Checklist    1 site, 39 of 40 indicators conform, 11% compensated
package datasettest

import (
	"github.com/michel-emel/imce-project/internal/dataset"
)

// CompliancePrefixes lists the audit indicators of the checklist file
var CompliancePrefixes = []string{
	"proj_es_specialist", "contr_es_specialist", "supv_es_specialist", "gbv_specialist", "ohs_officer",
	"esia_esmp", "rap", "eia_cert", "eia_conditions", "cemps", "ohs_plan", "waste_plan",
	"gbv_plan", "borrow_pit", "code_conduct", "lmp", "traffic_plan",
	"loss_structures", "loss_land", "loss_trees_crops", "wayleave", "physical_displacement",
	"compensation_progress", "compensation_timing",
	"grc_establishment", "grs_training", "grievances_report",
	"dust_control", "noise_control", "earth_waste_disposal", "solid_liquid_waste", "traffic_signage",
	"building_access", "tree_planting", "water_quality", "soil_quality", "erosion_control",
	"stormwater_drainage", "borrow_pit_rehab", "dumping_site_mgmt",
}

// NonConform is the one checklist indicator recorded as non-conform
const NonConform = "ohs_officer"

// PAPs returns the PAP survey rows
func PAPs() []map[string]string {
	return []map[string]string{
		{
			"full_name": "Uwase A.", "district": "Gasabo", "sector": "Remera", "site_name": "Rugunga",
			"impact_type": "Loss of land", "impact_loss_land": "1",
			"compensation_received": "Yes", "compensation_satisfied": "Yes",
			"grm_aware": "Yes", "grievance_submitted": "No",
			"compensation_timing": "Before construction",
			"date_interview":      "2025-02-10",
		},
		{
			"full_name": "Habimana J.", "district": "Gasabo", "sector": "Remera", "site_name": "Rugunga",
			"impact_type": "Loss of land, Trees", "impact_loss_land": "1", "impact_trees_crops": "1",
			"compensation_received": "Yes", "compensation_satisfied": "No",
			"grm_aware": "Yes", "grievance_submitted": "Yes", "grievance_resolved": "Fully resolved",
			"grievance_channel": "Grievance Redress Committee",
			"date_interview":    "2025-02-10",
		},
		{
			"full_name": "Mukamana C.", "district": "Kicukiro", "sector": "Gikondo", "site_name": "Rwandex",
			"impact_type": "Loss of house", "impact_loss_house": "1",
			"compensation_received": "No", "compensation_satisfied": "No",
			"grm_aware": "No", "grievance_submitted": "Yes", "grievance_resolved": "Not resolved",
			"grievance_channel": "Cell",
			"compensation_missing_desc": "Valuation not yet approved",
			"date_interview":            "2025-02-11",
		},
		{
			"full_name": "Niyonzima P.", "district": "Kicukiro", "sector": "Gikondo", "site_name": "Rwandex",
			"impact_type": "Trees", "impact_trees_crops": "1",
			"compensation_received": "No", "compensation_satisfied": "",
			"grm_aware": "Yes", "grievance_submitted": "No",
			"date_interview": "2025-02-11",
		},
	}
}

// Workers returns the worker survey rows
func Workers() []map[string]string {
	return []map[string]string{
		{
			"worker_name": "W1", "site_name": "Cyuve", "role": "Mason", "gender": "Male", "age": "24",
			"training_count": "2", "train_health_safety": "1", "train_gbv": "1", "train_hiv": "0",
			"signed_contract": "Yes", "code_of_conduct": "Yes", "health_insurance": "Yes",
			"ppe_received": "Yes", "payment_on_time": "Yes", "payment_frequency": "Monthly",
			"grievance_channel": "GRC members", "accident_occurred": "No",
			"date_interview": "2025-02-12",
		},
		{
			"worker_name": "W2", "site_name": "Cyuve", "role": "Helper", "gender": "Female", "age": "31",
			"training_count": "1", "train_health_safety": "1", "train_gbv": "0", "train_hiv": "0",
			"signed_contract": "No", "code_of_conduct": "No", "health_insurance": "No",
			"ppe_received": "Yes", "payment_on_time": "Yes", "payment_frequency": "Bi-weekly",
			"grievance_channel": "Foreman", "accident_occurred": "Yes", "acc_wound": "1",
			"date_interview": "2025-02-12",
		},
		{
			"worker_name": "W3", "site_name": "Cyuve", "role": "Helper", "gender": "Female", "age": "45",
			"training_count": "0",
			"signed_contract": "No", "code_of_conduct": "No", "health_insurance": "No",
			"ppe_received": "No", "payment_on_time": "Yes", "payment_frequency": "Monthly",
			"accident_occurred": "No",
			"date_interview":    "2025-02-13",
		},
		{
			"worker_name": "W4", "site_name": "Nyabugogo", "role": "Mason", "gender": "Male", "age": "52",
			"training_count": "1", "train_health_safety": "1", "train_gbv": "0",
			"signed_contract": "Yes", "code_of_conduct": "Yes", "health_insurance": "Yes",
			"ppe_received": "Yes", "payment_on_time": "No", "payment_frequency": "Monthly",
			"accident_occurred": "No",
			"date_interview":    "2025-02-13",
		},
	}
}

func ppe(helmet, gloves, shoes, mask, earplug string) map[string]string {
	return map[string]string{
		"ppe_helmet": helmet, "ppe_gloves": gloves, "ppe_safety_shoes": shoes,
		"ppe_mask": mask, "ppe_earplug": earplug,
	}
}

func merge(a, b map[string]string) map[string]string {
	for k, v := range b {
		a[k] = v
	}
	return a
}

// Contractors returns the contractor survey rows
func Contractors() []map[string]string {
	return []map[string]string{
		merge(map[string]string{
			"site_name": "Cyuve", "company_name": "NPD Ltd", "incidents_occurred": "Yes", "incidents_count": "2",
			"women_percent": "20", "local_percent": "70", "total_workers": "100", "current_workers": "80",
			"current_women": "20", "current_men": "60", "training_exact_number": "50",
			"inst_esia_esmp": "1", "inst_cesmp": "1", "inst_waste_plan": "1", "inst_ohs_plan": "1", "inst_borrow_pit_permit": "0",
			"grm_logbook": "Yes", "chance_finds_procedure": "Yes", "waste_disposal_auth": "No", "es_in_bidding": "Yes",
			"date_interview": "2025-02-14",
		}, ppe("1", "1", "1", "1", "0")),
		merge(map[string]string{
			"site_name": "Nyabugogo", "company_name": "Horizon Construction", "incidents_occurred": "Yes", "incidents_count": "",
			"women_percent": "10", "local_percent": "50", "total_workers": "60", "current_workers": "70",
			"current_women": "7", "current_men": "63", "training_exact_number": "60",
			"inst_esia_esmp": "1", "inst_cesmp": "0", "inst_waste_plan": "0", "inst_ohs_plan": "1", "inst_borrow_pit_permit": "0",
			"grm_logbook": "No", "chance_finds_procedure": "No", "waste_disposal_auth": "No", "es_in_bidding": "Yes",
			"date_interview": "2025-02-14",
		}, ppe("1", "1", "1", "1", "0")),
		merge(map[string]string{
			"site_name": "Rwandex", "company_name": "Fair Construction", "incidents_occurred": "No", "incidents_count": "0",
			"women_percent": "40", "local_percent": "90", "total_workers": "40", "current_workers": "40",
			"current_women": "16", "current_men": "24", "training_exact_number": "40",
			"inst_esia_esmp": "1", "inst_cesmp": "1", "inst_waste_plan": "1", "inst_ohs_plan": "1", "inst_borrow_pit_permit": "1",
			"grm_logbook": "Yes", "chance_finds_procedure": "Yes", "waste_disposal_auth": "Yes", "es_in_bidding": "Yes",
			"date_interview": "2025-02-15",
		}, ppe("1", "1", "1", "1", "1")),
	}
}

// GRCs returns the grievance committee rows. Two committees spell the
// same district differently.
func GRCs() []map[string]string {
	return []map[string]string{
		{
			"district": "Gasabo", "sector": "Remera", "cell": "Rukiri", "grc_location": "Remera GRC",
			"complaints_received": "10", "complaints_resolved": "8", "complaints_escalated": "1", "complaints_pending": "1",
			"training_count": "3", "has_logbook": "Yes", "escalated_to": "District Office",
			"complaint_resolution_time": "Within 1 week", "complaint_late_payment": "1",
			"facil_materials": "1", "facil_transport": "1", "facil_communication": "1", "facil_per_diem": "0",
			"date_interview": "2025-02-16",
		},
		{
			"district": "gasabo", "sector": "Kimironko", "cell": "Bibare", "grc_location": "Kimironko GRC",
			"complaints_received": "10", "complaints_resolved": "2", "complaints_escalated": "0", "complaints_pending": "8",
			"training_count": "1", "has_logbook": "No", "pending_reason": "New complaints received this month",
			"complaint_resolution_time": "1 month", "complaint_valuation_error": "1",
			"date_interview": "2025-02-16",
		},
		{
			"district": "Huye", "sector": "Ngoma", "cell": "Butare", "grc_location": "Ngoma GRC",
			"complaints_received": "0", "complaints_resolved": "0", "complaints_escalated": "0", "complaints_pending": "0",
			"training_count": "0", "has_logbook": "No",
			"complaint_resolution_time": "No complaints",
			"date_interview":            "2025-02-17",
		},
	}
}

func instruments(v string) map[string]string {
	out := make(map[string]string, len(dataset.DistrictInstrumentFields))
	for _, f := range dataset.DistrictInstrumentFields {
		out[f.Column] = v
	}
	return out
}

// Districts returns the district summary rows. Kicukiro reports more
// pending households than it registered.
func Districts() []map[string]string {
	return []map[string]string{
		merge(map[string]string{
			"district_name": "Gasabo District", "site_name": "Site G",
			"households_affected": "100", "not_yet_compensated_count": "20", "compensation_progress": "80",
			"not_compensated_reason": "Beneficiary living abroad",
			"compensation_timing":    "Before construction",
			"staff_env_specialist":   "1", "staff_social_specialist": "1",
			"grm_count": "2", "grm_level_sector": "Yes",
			"grm_facil_materials": "1", "grm_facil_transport": "1",
			"grm_member_paps_rep": "1", "grm_member_local_admin": "1",
			"impact_physical_displacement": "5", "impact_loss_land": "60",
			"date_interview": "2025-02-18",
		}, instruments("1")),
		merge(map[string]string{
			"district_name": "Kicukiro", "site_name": "Site K",
			"households_affected": "50", "not_yet_compensated_count": "60", "compensation_progress": "20",
			"not_compensated_reason": "Succession case in court",
			"compensation_timing":    "During construction",
			"staff_env_specialist":   "0", "staff_social_specialist": "0",
			"grm_count": "0",
			"impact_loss_land": "50",
			"date_interview":   "2025-02-18",
		}, instruments("0")),
		merge(map[string]string{
			"district_name": "Rubavu", "site_name": "Site R",
			"households_affected": "50", "not_yet_compensated_count": "40", "compensation_progress": "10",
			"compensation_timing":  "",
			"staff_env_specialist": "1", "staff_social_specialist": "0",
			"grm_count": "1",
			"impact_loss_crops_trees": "50",
			"date_interview":          "2025-02-19",
		}, instruments("0")),
	}
}

// Checklists returns the single audited site
func Checklists() []map[string]string {
	c := map[string]string{
		"site_name": "Cyuve", "district": "Musanze", "sector": "Cyuve", "cell": "Migeshi",
		"contractor_name": "NPD Ltd", "supervising_engineer": "Eng. K.", "date_visit": "2025-03-01",
		"interviewer_name": "M. Emel",
		"observations":     "Dust control visible on the access road.",
		"recommendations":  "Accelerate compensation payments.",

		"compensation_progress_pct": "11", "compensation_timing_months": "11",
		"loss_structures_count": "12", "loss_land_count": "30", "loss_trees_crops_count": "8",
		"proj_es_specialist_count": "2", "contr_es_specialist_count": "1", "supv_es_specialist_count": "1",
		"gbv_specialist_count": "1", "ohs_officer_count": "0",
		"has_ohs_plan": "Yes", "has_waste_plan": "Yes", "has_eia_cert": "Yes", "has_rap": "Yes",
	}
	for _, p := range CompliancePrefixes {
		c[p+"_compliance"] = "Conform"
	}
	c[NonConform+"_compliance"] = "Non-conform"
	c[NonConform+"_comment"] = "No OHS officer on site"
	return []map[string]string{c}
}

// Records returns every dataset
func Records() map[dataset.Name][]map[string]string {
	return map[dataset.Name][]map[string]string{
		dataset.NamePAPs:        PAPs(),
		dataset.NameWorkers:     Workers(),
		dataset.NameContractors: Contractors(),
		dataset.NameGRC:         GRCs(),
		dataset.NameDistrict:    Districts(),
		dataset.NameChecklist:   Checklists(),
	}
}

// Store loads every dataset
func Store() *dataset.Store {
	return dataset.FromRecords(Records())
}

// Only loads the named datasets; the others report as not found
func Only(names ...dataset.Name) *dataset.Store {
	all := Records()
	records := make(map[dataset.Name][]map[string]string, len(names))
	for _, n := range names {
		records[n] = all[n]
	}
	return dataset.FromRecords(records)
}
