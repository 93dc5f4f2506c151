package dataset

import "time"

// Field pairs a CSV column with its display label
type Field struct {
	Column string
	Label  string
}

// Labels returns the display labels of fields in order
func Labels(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label
	}
	return out
}

// Indicator column groups. Records store their values in the same order.
var (
	PAPImpactFields = []Field{
		{"impact_loss_land", "Loss of Land"},
		{"impact_loss_house", "Loss of House"},
		{"impact_loss_structure", "Loss of Structure"},
		{"impact_trees_crops", "Trees & Crops"},
		{"impact_other", "Other"},
	}

	PAPGRMChannelFields = []Field{
		{"grm_channel_grc", "Grievance Redress Committee"},
		{"grm_channel_cell", "Cell Administration"},
		{"grm_channel_sector", "Sector Administration"},
		{"grm_channel_district", "District Office"},
		{"grm_channel_other", "Other"},
	}

	WorkerTrainingFields = []Field{
		{"train_health_safety", "Health & Safety"},
		{"train_gbv", "GBV / SEA"},
		{"train_hiv", "HIV / AIDS"},
		{"train_road_safety", "Road Safety"},
		{"train_environment", "Environment"},
	}

	WorkerAccidentFields = []Field{
		{"acc_wound", "Wound"},
		{"acc_stones", "Falling Stones"},
		{"acc_equipment", "Equipment"},
		{"acc_flooding", "Flooding"},
		{"acc_transport", "Transport"},
		{"acc_other", "Other"},
	}

	ContractorInstrumentFields = []Field{
		{"inst_esia_esmp", "ESIA/ESMP"},
		{"inst_cesmp", "C-ESMP"},
		{"inst_waste_plan", "Waste Plan"},
		{"inst_ohs_plan", "OHS Plan"},
		{"inst_borrow_pit_permit", "Borrow Pit Permit"},
	}

	ContractorComplianceFields = []Field{
		{"grm_logbook", "GRM Logbook"},
		{"chance_finds_procedure", "Chance Finds Procedure"},
		{"waste_disposal_auth", "Waste Auth."},
		{"es_in_bidding", "E&S in Bidding"},
	}

	ContractorSpecialistFields = []Field{
		{"staff_env_specialist", "Environmental"},
		{"staff_social_specialist", "Social"},
		{"staff_ohs_specialist", "OHS"},
	}

	ContractorPPEFields = []Field{
		{"ppe_helmet", "Helmet"},
		{"ppe_gloves", "Gloves"},
		{"ppe_safety_shoes", "Safety Shoes"},
		{"ppe_mask", "Mask"},
		{"ppe_earplug", "Earplug"},
	}

	GRCComplaintFields = []Field{
		{"complaint_late_payment", "Late Payment"},
		{"complaint_valuation_error", "Valuation Error"},
		{"complaint_household_conflict", "Household Conflict"},
		{"complaint_valuation_refusal", "Valuation Refusal"},
		{"complaint_other", "Other"},
	}

	GRCFacilityFields = []Field{
		{"facil_materials", "Materials"},
		{"facil_transport", "Transport"},
		{"facil_communication", "Communication"},
		{"facil_per_diem", "Per Diem"},
		{"facil_other", "Other"},
	}

	DistrictInstrumentFields = []Field{
		{"inst_esmf_rpf", "ESMF/RPF"},
		{"inst_lmp", "LMP"},
		{"inst_sep", "SEP"},
		{"inst_esia", "ESIA"},
		{"inst_esmf", "ESMF"},
		{"inst_gbv_sea_plan", "GBV/SEA Plan"},
		{"permit_eia_cert", "EIA Certificate"},
		{"permit_eia_conditions", "EIA Conditions"},
		{"permit_borrow_pit", "Borrow Pit Permit"},
	}

	DistrictImpactFields = []Field{
		{"impact_physical_displacement", "Physical Displacement"},
		{"impact_loss_structures", "Loss of Structures"},
		{"impact_loss_land", "Loss of Land"},
		{"impact_loss_crops_trees", "Loss of Crops/Trees"},
		{"impact_loss_business", "Loss of Business"},
		{"impact_other", "Other"},
	}

	DistrictGRMFacilFields = []Field{
		{"grm_facil_materials", "Materials"},
		{"grm_facil_transport", "Transport"},
		{"grm_facil_communication", "Communication"},
		{"grm_facil_per_diem", "Per Diem"},
	}

	DistrictGRMMemberFields = []Field{
		{"grm_member_paps_rep", "PAPs Representative"},
		{"grm_member_local_admin", "Local Admin"},
		{"grm_member_project_staff", "Project Staff"},
		{"grm_member_contractors", "Contractors"},
		{"grm_member_other", "Other"},
	}
)

// PAP is one interviewed project affected person
type PAP struct {
	Name       string
	District   string
	Sector     string
	Site       string
	ImpactType string

	// Impacts follows PAPImpactFields
	Impacts []bool
	// GRMChannels follows PAPGRMChannelFields; channels whose column is
	// absent from the file are false
	GRMChannels []bool

	CompensationReceived    string
	CompensationSatisfied   string
	CompensationTiming      string
	CompensationMissingDesc string
	ValuationExplained      string
	AdditionalAssistance    string

	InformedBeforeProject string
	InfoClearRights       string
	InfoClearImpacts      string
	InfoClearActivities   string
	ConsultationFrequency string
	SEAChannel            string

	GRMAware               string
	GrievanceSubmitted     string
	GrievanceResolved      string
	GrievanceChannel       string
	ResponseTimeReasonable string

	Date time.Time

	ImpactCount int
	AtRisk      bool
}

// Worker is one interviewed site worker
type Worker struct {
	Name         string
	Site         string
	SiteCategory string
	Role         string
	Gender       string
	Age          float64

	SignedContract   string
	CodeOfConduct    string
	HealthInsurance  string
	PPEReceived      string
	PaymentOnTime    string
	PaymentFrequency string
	GrievanceChannel string
	AccidentOccurred string

	TrainingCount int
	// Training follows WorkerTrainingFields
	Training []bool
	// Accidents follows WorkerAccidentFields
	Accidents []bool

	Date time.Time

	VulnScore  int
	TrainScore int
	// KnowsGRC is true when the grievance channel names the committee
	KnowsGRC bool
}

// Contractor is one contractor site
type Contractor struct {
	Site         string
	Company      string
	CompanyShort string

	IncidentsOccurred string
	IncidentsCount    float64
	// IncidentsKnown is false when incidents_count was blank
	IncidentsKnown bool

	WomenPercent   float64
	LocalPercent   float64
	TotalWorkers   float64
	CurrentWorkers float64
	CurrentWomen   float64
	CurrentMen     float64
	TotalLocal     float64
	TotalNonLocal  float64
	TrainedWorkers float64

	// Compliance follows ContractorComplianceFields as Yes/No answers
	Compliance []string
	// Instruments follows ContractorInstrumentFields
	Instruments []bool
	// Specialists follows ContractorSpecialistFields
	Specialists []float64
	// PPE follows ContractorPPEFields
	PPE []bool

	PaymentFrequency      string
	PPEFrequency          string
	WasteDisposalLocation string

	Date time.Time

	InstScore        float64
	CompScore        float64
	TrainingCoverage float64
	GlobalScore      float64
}

// ESInBidding returns the es_in_bidding answer
func (c Contractor) ESInBidding() string {
	if len(c.Compliance) < 4 {
		return ""
	}
	return c.Compliance[3]
}

// SocialSpecialists returns the staff_social_specialist count
func (c Contractor) SocialSpecialists() float64 {
	if len(c.Specialists) < 2 {
		return 0
	}
	return c.Specialists[1]
}

// GRC is one grievance redress committee
type GRC struct {
	District string
	Sector   string
	Cell     string
	Location string

	Received  float64
	Resolved  float64
	Escalated float64
	Pending   float64

	TrainingCount  float64
	HasLogbook     string
	EscalatedTo    string
	PendingReason  string
	ResolutionTime string

	// Complaints follows GRCComplaintFields
	Complaints []bool
	// Facilities follows GRCFacilityFields
	Facilities []bool

	Date time.Time

	ResolutionRate     float64
	EscalationRate     float64
	PendingRate        float64
	FacilScore         float64
	ComplaintTypes     int
	ResolutionCategory string
	TrainScore         float64
	EscScore           float64
	GlobalScore        float64
}

// District is one district summary row
type District struct {
	Name string
	Site string

	HouseholdsAffected   float64
	NotYetCompensated    float64
	NotCompensatedReason string
	CompensationTiming   string
	CompensationProgress float64
	GRMCount             float64
	GRMLevelSector       string
	// CompensationKnown is false when compensation_progress was blank
	CompensationKnown bool

	StaffEnv    float64
	StaffSocial float64
	StaffOther  float64

	// Instruments follows DistrictInstrumentFields
	Instruments []bool
	// Impacts follows DistrictImpactFields
	Impacts []float64
	// GRMFacilities follows DistrictGRMFacilFields
	GRMFacilities []bool
	// GRMMembers follows DistrictGRMMemberFields
	GRMMembers []bool

	Date time.Time

	CompensationRate float64
	InstScore        float64
	StaffScore       float64
	GRMFacilScore    float64
	GlobalScore      float64
	CompAnomaly      bool
}

// PhysicallyDisplaced returns the impact_physical_displacement count
func (d District) PhysicallyDisplaced() float64 {
	if len(d.Impacts) == 0 {
		return 0
	}
	return d.Impacts[0]
}

// Checklist is the audit of a single site. Indicator cells are kept by
// column name because the checklist is read indicator by indicator.
type Checklist struct {
	Site                string
	District            string
	Sector              string
	Cell                string
	Village             string
	Contractor          string
	SupervisingEngineer string
	DateVisit           string
	Interviewer         string
	Observations        string
	Recommendations     string

	Date time.Time

	values map[string]string
}

// Value returns the trimmed cell of col, "" when absent
func (c Checklist) Value(col string) string {
	return c.values[col]
}

// Number returns the numeric cell of col, 0 when blank
func (c Checklist) Number(col string) float64 {
	return parseNumber(c.values[col])
}

// Has reports whether the checklist file carries col
func (c Checklist) Has(col string) bool {
	_, ok := c.values[col]
	return ok
}
