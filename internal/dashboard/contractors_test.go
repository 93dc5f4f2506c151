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

func contractorSites(women float64, incidents ...bool) []dataset.Contractor {
	out := make([]dataset.Contractor, len(incidents))
	for i, hit := range incidents {
		out[i] = dataset.Contractor{WomenPercent: women, IncidentsOccurred: "No"}
		if hit {
			out[i].IncidentsOccurred = "Yes"
		}
	}
	return out
}

func TestContractorStatus(t *testing.T) {
	tests := []struct {
		name string
		rows []dataset.Contractor
		want Level
	}{
		{"no contractor", nil, analytics.LevelDanger},
		{"women target and half with incidents", contractorSites(30, true, false), analytics.LevelSuccess},
		{"women target but incidents everywhere", contractorSites(30, true, true), analytics.LevelWarning},
		{"few women and incidents at 60%", contractorSites(10, true, true, true, false, false), analytics.LevelWarning},
		{"few women and incidents at 75%", contractorSites(10, true, true, true, false), analytics.LevelDanger},
		{"women at 20% and incidents everywhere", contractorSites(20, true, true), analytics.LevelWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contractorStatus(tt.rows).Level)
		})
	}
}

func TestContractorGlobalScores(t *testing.T) {
	store := datasettest.Store()
	scores := make(map[string]float64, len(store.Contractors))
	for _, c := range store.Contractors {
		scores[c.Site] = c.GlobalScore
	}
	// 0.3*80 + 0.3*75 + 0.2*50 + 0.1*40 + 0.1*70
	assert.InDelta(t, 67.5, scores["Cyuve"], 1e-9)
	// 0.3*40 + 0.3*25 + 0.2*100 + 0.1*20 + 0.1*50
	assert.InDelta(t, 46.5, scores["Nyabugogo"], 1e-9)
	// 0.3*100 + 0.3*100 + 0.2*100 + 0.1*80 + 0.1*90
	assert.InDelta(t, 97.0, scores["Rwandex"], 1e-9)
}

func TestBuildContractors(t *testing.T) {
	p := BuildContractors(datasettest.Store(), filter.Selection{})

	require.NotNil(t, p.Status)
	// average women share 23.3%, two sites of three with incidents
	assert.Equal(t, analytics.LevelWarning, p.Status.Level)

	require.Len(t, p.KPIs, 6)
	assert.Equal(t, "3", p.KPIs[0].Value)
	assert.Equal(t, "190", p.KPIs[1].Value)
	assert.Equal(t, "Total mobilized: 200", p.KPIs[1].Sub)
	assert.Equal(t, "23%", p.KPIs[2].Value)
	assert.Equal(t, analytics.LevelWarning, p.KPIs[2].Level)
	assert.Equal(t, "2", p.KPIs[4].Value)
	assert.Equal(t, "2 total incidents reported", p.KPIs[4].Sub)
	assert.Equal(t, analytics.LevelDanger, p.KPIs[4].Level)
	assert.Equal(t, "3/3", p.KPIs[5].Value)

	scoring, err := p.Table("scoring")
	require.NoError(t, err)
	require.Len(t, scoring.Rows, 3)

	var order []string
	for _, r := range scoring.Rows {
		order = append(order, r[0].Text)
	}
	assert.Equal(t, []string{"Rwandex", "Cyuve", "Nyabugogo"}, order, "highest global score first")

	assert.Equal(t, "None", scoring.Rows[0][7].Text)
	assert.Equal(t, "2 incidents", scoring.Rows[1][7].Text)
	assert.Equal(t, "Incident", scoring.Rows[2][7].Text, "an unknown count still flags the incident")

	assert.Equal(t, analytics.LevelSuccess, scoring.Rows[0][8].Level)
	assert.Equal(t, analytics.LevelWarning, scoring.Rows[1][8].Level)
	assert.Equal(t, analytics.LevelDanger, scoring.Rows[2][8].Level)
}

func TestBuildContractorsSelection(t *testing.T) {
	p := BuildContractors(datasettest.Store(), filter.Selection{filter.KeySite: "Rwandex"})

	assert.Equal(t, "1", p.KPIs[0].Value)
	assert.Equal(t, "0", p.KPIs[4].Value)
	assert.Equal(t, analytics.LevelSuccess, p.KPIs[4].Level)

	flags := p.Indicators[0]
	require.NotEmpty(t, flags.Items)
	for _, item := range flags.Items {
		if item.Label == "No Social Specialist" {
			continue
		}
		assert.Equal(t, analytics.LevelSuccess, item.Level, item.Label)
	}
}
