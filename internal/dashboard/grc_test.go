package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
	"github.com/michel-emel/imce-project/internal/filter"
)

func TestMeanResolutionSkipsIdleCommittees(t *testing.T) {
	rows := []dataset.GRC{
		{Location: "A", Received: 10, ResolutionRate: 90},
		{Location: "B", Received: 4, ResolutionRate: 70},
		{Location: "C"},
		{Location: "D"},
	}
	assert.InDelta(t, 80.0, MeanResolution(rows), 1e-9)
	assert.Zero(t, MeanResolution(rows[2:]))

	// idle committees do not pull the badge down
	assert.Equal(t, analytics.LevelSuccess, statusBadge(analytics.ScoreLevel(MeanResolution(rows))).Level)
}

func TestBuildGRC(t *testing.T) {
	p := BuildGRC(datasettest.Store(), filter.Selection{})

	require.NotNil(t, p.Status)
	// Remera 80% and Kimironko 20%; Ngoma received nothing
	assert.Equal(t, analytics.LevelWarning, p.Status.Level)

	require.Len(t, p.KPIs, 6)
	assert.Equal(t, "3", p.KPIs[0].Value)
	assert.Equal(t, "2 districts covered", p.KPIs[0].Sub)
	assert.Equal(t, "20", p.KPIs[1].Value)
	assert.Equal(t, "50%", p.KPIs[2].Value)
	assert.Equal(t, "10 complaints resolved", p.KPIs[2].Sub)
	assert.Equal(t, analytics.LevelWarning, p.KPIs[2].Level)
	assert.Equal(t, "9", p.KPIs[3].Value)
	assert.Equal(t, "1", p.KPIs[4].Value)
	assert.Equal(t, analytics.LevelWarning, p.KPIs[4].Level)
	assert.Equal(t, "1", p.KPIs[5].Value)

	pending, err := p.Table("pending-reasons")
	require.NoError(t, err)
	require.Len(t, pending.Rows, 1)
	assert.Equal(t, "New complaints", pending.Rows[0][0].Text)
	assert.Equal(t, "Kimironko GRC", pending.Rows[0][1].Text)
	assert.Equal(t, "8 pending", pending.Rows[0][2].Text)

	scoring, err := p.Table("scoring")
	require.NoError(t, err)
	require.Len(t, scoring.Rows, 3)
	var order []string
	for _, r := range scoring.Rows {
		order = append(order, r[0].Text)
	}
	assert.Equal(t, []string{"Remera GRC", "Kimironko GRC", "Ngoma GRC"}, order)
	assert.Equal(t, "Yes", scoring.Rows[0][8].Text)
	assert.Equal(t, analytics.LevelSuccess, scoring.Rows[0][8].Level)
}

func TestBuildGRCSelection(t *testing.T) {
	store := datasettest.Store()

	gasabo := BuildGRC(store, filter.Selection{filter.KeyDistrict: "Gasabo"})
	assert.Equal(t, "2", gasabo.KPIs[0].Value, "both spellings of Gasabo are one district")
	assert.Equal(t, "0", gasabo.KPIs[5].Value)

	huye := BuildGRC(store, filter.Selection{filter.KeyDistrict: "Huye"})
	assert.Equal(t, "0%", huye.KPIs[2].Value)
	assert.Equal(t, analytics.LevelDanger, huye.KPIs[2].Level)
	// the badge grades every committee, not the selection
	assert.Equal(t, analytics.LevelWarning, huye.Status.Level)
}
