package dataset

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/michel-emel/imce-project/internal/errors"
	"github.com/michel-emel/imce-project/internal/shared/testutil"
)

func writeFixtures(t *testing.T, dir string) Files {
	t.Helper()

	paps := testutil.NewTable("full_name", "district", "sector", "site_name",
		"impact_loss_land", "impact_loss_house", "impact_loss_structure", "impact_trees_crops", "impact_other",
		"compensation_received", "compensation_satisfied", "grm_aware", "date_interview").
		Add(map[string]string{"full_name": "A", "district": "MUSANZE ", "site_name": "Gasabo- Wetland",
			"impact_loss_land": "1", "impact_loss_house": "1", "compensation_received": "Yes",
			"compensation_satisfied": "Yes", "grm_aware": "Yes", "date_interview": "2025-02-10"}).
		Add(map[string]string{"full_name": "B", "district": "Gasbo",
			"impact_trees_crops": "1", "compensation_received": "No",
			"compensation_satisfied": "Yes", "grm_aware": "Yes"})

	workers := testutil.NewTable("worker_name", "site_name", "signed_contract", "code_of_conduct",
		"health_insurance", "ppe_received", "payment_on_time", "payment_frequency",
		"train_health_safety", "train_gbv", "train_hiv", "train_road_safety", "train_environment",
		"grievance_channel").
		Add(map[string]string{"worker_name": "W1", "site_name": " Gatenga ", "signed_contract": "No",
			"code_of_conduct": "No", "health_insurance": "Yes", "ppe_received": "No", "payment_on_time": "Yes",
			"payment_frequency": "Monthly + 5 days", "train_gbv": "1", "train_hiv": "1",
			"grievance_channel": "GRC members"})

	contractors := testutil.NewTable("site_name", "company_name", "inst_esia_esmp", "inst_cesmp",
		"inst_waste_plan", "inst_ohs_plan", "inst_borrow_pit_permit", "grm_logbook",
		"chance_finds_procedure", "waste_disposal_auth", "es_in_bidding",
		"training_exact_number", "total_workers", "women_percent", "local_percent", "incidents_count").
		Add(map[string]string{"site_name": "Huye", "company_name": "CRBC / NET consultant PLC",
			"inst_esia_esmp": "1", "inst_cesmp": "1", "inst_waste_plan": "1", "inst_ohs_plan": "0",
			"inst_borrow_pit_permit": "0", "grm_logbook": "Yes", "chance_finds_procedure": "No",
			"waste_disposal_auth": "Yes", "es_in_bidding": "No",
			"training_exact_number": "150", "total_workers": "100",
			"women_percent": "80", "local_percent": "60"})

	// GRC and district files are left out to exercise the missing path.
	return Files{
		NamePAPs:        paps.Write(t, dir, "PAPs_clean.csv"),
		NameWorkers:     workers.Write(t, dir, "workers_clean.csv"),
		NameContractors: contractors.Write(t, dir, "contractors_clean.csv"),
		NameGRC:         filepath.Join(dir, "GRC_clean.csv"),
		NameDistrict:    filepath.Join(dir, "district_clean.csv"),
		NameChecklist: testutil.NewTable("site_name", "district", "date_visit", "has_rap", "rap_compliance").
			Add(map[string]string{"site_name": "Kimironko", "district": "Gasabo",
				"date_visit": "2025-03-01", "has_rap": "Yes", "rap_compliance": "Conform"}).
			Write(t, dir, "checklist_clean.csv"),
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	files := writeFixtures(t, dir)
	logger, handler := testutil.NewTestLogger(t)

	store, err := LoadAll(context.Background(), files, logger, nil)
	require.NoError(t, err)
	testutil.AssertNoErrors(t, handler)

	t.Run("statuses", func(t *testing.T) {
		assert.True(t, store.Loaded(NamePAPs))
		assert.Equal(t, 2, store.Status(NamePAPs).Rows)
		assert.False(t, store.Loaded(NameGRC))
		assert.False(t, store.Loaded(NameDistrict))
		assert.Equal(t, 4, store.LoadedCount())
		assert.Equal(t, "GRC_clean.csv not found.", store.Placeholder(NameGRC))
		assert.True(t, store.HasColumn(NamePAPs, "impact_loss_land"))
		assert.False(t, store.HasColumn(NamePAPs, "grm_channel_grc"))

		statuses := store.Statuses()
		require.Len(t, statuses, len(Names))
		assert.Equal(t, NamePAPs, statuses[0].Name)
		assert.Equal(t, "PAPs", statuses[0].Label)
	})

	t.Run("missing files are logged at warn", func(t *testing.T) {
		testutil.AssertLogContains(t, handler, slog.LevelWarn, "dataset file not found")
		assert.True(t, handler.ContainsAttr("dataset", "grc"))
		assert.True(t, handler.ContainsAttr("component", "dataset"))
	})

	t.Run("require", func(t *testing.T) {
		assert.NoError(t, store.Require(NamePAPs))
		err := store.Require(NameDistrict)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDatasetMissing))
		assert.Contains(t, err.Error(), "district_clean.csv")

		var appErr *apierrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apierrors.ErrTypeDataUnavailable, appErr.Type)
		assert.Equal(t, "district", appErr.Context["dataset"])
	})

	t.Run("pap cleaning and derived columns", func(t *testing.T) {
		require.Len(t, store.PAPs, 2)
		a, b := store.PAPs[0], store.PAPs[1]

		assert.Equal(t, "Musanze", a.District)
		assert.Equal(t, "Gasabo-Wetland", a.Site)
		assert.Equal(t, 2, a.ImpactCount)
		assert.False(t, a.AtRisk)
		assert.Equal(t, 2025, a.Date.Year())

		assert.Equal(t, "Gasabo", b.District)
		assert.Equal(t, 1, b.ImpactCount)
		assert.True(t, b.AtRisk)
		assert.Len(t, b.GRMChannels, len(PAPGRMChannelFields))
		assert.True(t, b.Date.IsZero())
	})

	t.Run("worker derived columns", func(t *testing.T) {
		require.Len(t, store.Workers, 1)
		w := store.Workers[0]

		assert.Equal(t, "Gatenga", w.Site)
		assert.Equal(t, CategoryInformal, w.SiteCategory)
		assert.Equal(t, "Monthly", w.PaymentFrequency)
		assert.Equal(t, 3, w.VulnScore)
		assert.Equal(t, 2, w.TrainScore)
		assert.True(t, w.KnowsGRC)
	})

	t.Run("contractor scores", func(t *testing.T) {
		require.Len(t, store.Contractors, 1)
		c := store.Contractors[0]

		assert.Equal(t, "CRBC/NET", c.CompanyShort)
		assert.InDelta(t, 60.0, c.InstScore, 1e-9)
		assert.InDelta(t, 50.0, c.CompScore, 1e-9)
		assert.InDelta(t, 100.0, c.TrainingCoverage, 1e-9, "coverage is capped")
		assert.Equal(t, "No", c.ESInBidding())
		assert.False(t, c.IncidentsKnown)
		// 0.3*60 + 0.3*50 + 0.2*100 + 0.1*100 + 0.1*60
		assert.InDelta(t, 69.0, c.GlobalScore, 1e-9)
	})

	t.Run("checklist", func(t *testing.T) {
		cl, ok := store.Checklist()
		require.True(t, ok)
		assert.Equal(t, "Kimironko", cl.Site)
		assert.Equal(t, "Conform", cl.Value("rap_compliance"))
		assert.True(t, cl.Has("has_rap"))
		assert.False(t, cl.Has("has_lmp"))
	})
}

func TestLoadAllMalformedFile(t *testing.T) {
	dir := t.TempDir()
	files := writeFixtures(t, dir)

	bad := filepath.Join(dir, "GRC_clean.csv")
	require.NoError(t, os.WriteFile(bad, []byte("district,complaints_received\n\"Gasabo,3\n"), 0o644))

	logger, _ := testutil.NewTestLogger(t)
	store, err := LoadAll(context.Background(), files, logger, nil)
	require.Error(t, err)
	assert.Nil(t, store)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
	assert.Equal(t, "grc", appErr.Context["dataset"])
}

func TestLoadAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger, _ := testutil.NewTestLogger(t)
	_, err := LoadAll(ctx, writeFixtures(t, t.TempDir()), logger, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromRecords(t *testing.T) {
	store := FromRecords(map[Name][]map[string]string{
		NameGRC: {
			{"district": "gasabo", "sector": "REMERA", "complaints_received": "10",
				"complaints_resolved": "8", "complaints_escalated": "4", "complaints_pending": "0",
				"training_count": "3", "facil_materials": "1", "facil_transport": "1",
				"complaint_resolution_time": "within 2 weeks"},
			{"district": "Kicukiro", "complaints_received": "0", "complaints_resolved": "0"},
		},
		NameDistrict: {
			{"district_name": " Gasabo ", "households_affected": "10", "not_yet_compensated_count": "25",
				"compensation_progress": "120", "staff_env_specialist": "1", "staff_social_specialist": "0",
				"inst_esmf_rpf": "1", "inst_lmp": "1", "inst_sep": "1",
				"grm_facil_materials": "1", "grm_facil_transport": "1"},
		},
	})

	assert.True(t, store.Loaded(NameGRC))
	assert.False(t, store.Loaded(NamePAPs))
	assert.Equal(t, "PAPs_clean.csv not found.", store.Placeholder(NamePAPs))

	g := store.GRCs[0]
	assert.Equal(t, "Gasabo", g.District)
	assert.Equal(t, "Remera", g.Sector)
	assert.InDelta(t, 80.0, g.ResolutionRate, 1e-9)
	assert.InDelta(t, 40.0, g.EscalationRate, 1e-9)
	assert.InDelta(t, 40.0, g.FacilScore, 1e-9)
	assert.InDelta(t, 100.0, g.TrainScore, 1e-9)
	assert.InDelta(t, 60.0, g.EscScore, 1e-9)
	assert.Equal(t, "1 week", g.ResolutionCategory)
	// 0.4*80 + 0.2*100 + 0.2*40 + 0.2*60
	assert.InDelta(t, 72.0, g.GlobalScore, 1e-9)

	idle := store.GRCs[1]
	assert.Zero(t, idle.ResolutionRate)
	assert.Equal(t, 100.0, idle.EscScore)

	d := store.Districts[0]
	assert.Equal(t, "Gasabo", d.Name)
	assert.Equal(t, 100.0, d.CompensationRate)
	assert.True(t, d.CompensationKnown)
	assert.True(t, d.CompAnomaly)
	assert.InDelta(t, 50.0, d.StaffScore, 1e-9)
	assert.InDelta(t, 100.0/3, d.InstScore, 1e-9)
	assert.InDelta(t, 50.0, d.GRMFacilScore, 1e-9)
	// 0.35*100 + 0.25*33.33 + 0.2*50 + 0.2*50
	assert.InDelta(t, 35+25.0/3+10+10, d.GlobalScore, 1e-9)
}

func TestBlankCompensationProgress(t *testing.T) {
	store := FromRecords(map[Name][]map[string]string{
		NameDistrict: {
			{"district_name": "Huye", "households_affected": "10", "compensation_progress": ""},
			{"district_name": "Nyanza", "households_affected": "10", "compensation_progress": "0"},
		},
	})

	blank, zero := store.Districts[0], store.Districts[1]
	assert.False(t, blank.CompensationKnown)
	assert.Zero(t, blank.CompensationRate)
	assert.True(t, zero.CompensationKnown)
	assert.Zero(t, zero.CompensationRate)
}

func TestTrainingCoverage(t *testing.T) {
	tests := []struct {
		name           string
		trained, total float64
		want           float64
	}{
		{"share", 15, 60, 25},
		{"capped", 80, 60, 100},
		{"no headcount", 12, 0, 100},
		{"nobody", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, trainingCoverage(tt.trained, tt.total), 1e-9)
		})
	}

	store := FromRecords(map[Name][]map[string]string{
		NameContractors: {{"company_name": "Acme", "total_workers": "", "training_exact_number": "12"}},
	})
	assert.Equal(t, 100.0, store.Contractors[0].TrainingCoverage)
}
