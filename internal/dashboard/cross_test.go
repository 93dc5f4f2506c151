package dashboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
)

var crossIDs = []string{CrossGRMCompensation, CrossTrainingGender, CrossPPEIncidents, CrossGRCDistrict, CrossImpactGrievance}

func TestGRMCompensation(t *testing.T) {
	got := GRMCompensation(datasettest.Store().PAPs)
	want := GRMOutcome{AwareCompensated: 2, AwareTotal: 3, UnawareCompensated: 0, UnawareTotal: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GRMCompensation() mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 66.67, got.AwareRate(), 0.01)
	assert.Zero(t, got.UnawareRate())
	assert.InDelta(t, 66.67, got.Gap(), 0.01)

	assert.Zero(t, GRMCompensation(nil).Gap())
}

func TestGenderGapLevel(t *testing.T) {
	assert.Equal(t, analytics.LevelDanger, GenderGapLevel(20))
	assert.Equal(t, analytics.LevelDanger, GenderGapLevel(-20))
	assert.Equal(t, analytics.LevelWarning, GenderGapLevel(10))
	assert.Equal(t, analytics.LevelSuccess, GenderGapLevel(5))
	assert.Equal(t, analytics.LevelSuccess, GenderGapLevel(0))
}

func TestPPEScore(t *testing.T) {
	cs := datasettest.Store().Contractors
	require.Len(t, cs, 3)
	assert.InDelta(t, 80, PPEScore(cs[0]), 0.01)
	assert.InDelta(t, 100, PPEScore(cs[2]), 0.01)
	assert.Zero(t, PPEScore(dataset.Contractor{}))
}

func TestJoinGRCDistricts(t *testing.T) {
	store := datasettest.Store()
	got := JoinGRCDistricts(store.GRCs, store.Districts)
	want := []DistrictJoin{{
		Key:          "gasabo",
		District:     "Gasabo District",
		GRCs:         2,
		Received:     20,
		Resolved:     10,
		Resolution:   50,
		Compensation: 80,
		Pending:      20,
	}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("JoinGRCDistricts() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, JoinGRCDistricts(nil, store.Districts))
}

func TestImpactGroup(t *testing.T) {
	tests := map[string]string{
		"Loss of house":         "House Loss",
		"Loss of house, Trees":  "House Loss",
		"Loss of land, Trees":   "Land + Crops",
		"Loss of land":          "Land Loss",
		"Trees":                 "Trees/Crops",
		"Other":                 "Other",
		"":                      "Mixed/Other",
		"Loss of business only": "Mixed/Other",
	}
	for in, want := range tests {
		assert.Equal(t, want, ImpactGroup(in), in)
	}
}

func TestRatesByImpact(t *testing.T) {
	got := RatesByImpact(datasettest.Store().PAPs)
	groups := make([]string, len(got))
	for i, r := range got {
		groups[i] = r.Group
		assert.Equal(t, 1, r.N, r.Group)
	}
	if diff := cmp.Diff([]string{"Land Loss", "Trees/Crops", "House Loss", "Land + Crops"}, groups); diff != "" {
		t.Errorf("RatesByImpact() order mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 100, got[2].NotCompensated, 0.01)
	assert.InDelta(t, 100, got[2].Dissatisfied, 0.01)
}

func TestBuildCross(t *testing.T) {
	p := BuildCross(datasettest.Store(), nil)
	require.Len(t, p.Charts, len(crossIDs))
	for i, id := range crossIDs {
		assert.Equal(t, id, p.Charts[i].ID)
		assert.False(t, p.Charts[i].Empty, id)
	}

	sections := make(map[string]int)
	for _, in := range p.Insights {
		require.Contains(t, crossIDs, in.Section)
		assert.NotEqual(t, "Data unavailable", in.Title)
		sections[in.Section]++
	}
	for _, id := range crossIDs {
		assert.Positive(t, sections[id], "no insight for %s", id)
	}

	scatter, err := p.Chart(CrossGRCDistrict)
	require.NoError(t, err)
	require.Len(t, scatter.Points, 1)
	assert.InDelta(t, 50, scatter.Points[0].X, 0.01)
	assert.InDelta(t, 80, scatter.Points[0].Y, 0.01)
}

func TestBuildCrossMissingDatasets(t *testing.T) {
	store := datasettest.Only(dataset.NamePAPs)
	p := BuildCross(store, nil)
	require.Len(t, p.Charts, len(crossIDs))

	var unavailable []string
	for _, in := range p.Insights {
		if in.Title == "Data unavailable" {
			unavailable = append(unavailable, in.Section)
			assert.Equal(t, analytics.LevelMuted, in.Level)
		}
	}
	assert.Equal(t, []string{CrossTrainingGender, CrossPPEIncidents, CrossGRCDistrict}, unavailable)

	for _, c := range p.Charts {
		switch c.ID {
		case CrossGRMCompensation, CrossImpactGrievance:
			assert.False(t, c.Empty, c.ID)
		default:
			assert.True(t, c.Empty, c.ID)
		}
	}
}
