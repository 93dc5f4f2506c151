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

// uncompensated returns n PAPs of which the first missing were not paid
func uncompensated(n, missing int) []dataset.PAP {
	out := make([]dataset.PAP, n)
	for i := range out {
		out[i] = dataset.PAP{CompensationReceived: "Yes", CompensationSatisfied: "Yes", GRMAware: "Yes"}
		if i < missing {
			out[i].CompensationReceived = "No"
		}
	}
	return out
}

func indicator(t *testing.T, list IndicatorList, label string) Indicator {
	t.Helper()
	for _, item := range list.Items {
		if item.Label == label {
			return item
		}
	}
	t.Fatalf("indicator %q not found", label)
	return Indicator{}
}

func TestPAPRiskIndicatorBands(t *testing.T) {
	tests := []struct {
		name       string
		n, missing int
		value      string
		note       string
		want       Level
	}{
		{"none", 10, 0, "0 PAPs", "0%", analytics.LevelSuccess},
		{"below 20%", 10, 1, "1 PAPs", "10%", analytics.LevelWarning},
		{"just below 20%", 21, 4, "4 PAPs", "19%", analytics.LevelWarning},
		{"at 20%", 10, 2, "2 PAPs", "20%", analytics.LevelDanger},
		{"above 20%", 4, 2, "2 PAPs", "50%", analytics.LevelDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := papRiskIndicators(uncompensated(tt.n, tt.missing))
			got := indicator(t, list, "Not Compensated")
			assert.Equal(t, tt.value, got.Value)
			assert.Equal(t, tt.note, got.Note)
			assert.Equal(t, tt.want, got.Level)
		})
	}

	assert.Empty(t, papRiskIndicators(nil).Items)
}

func TestBuildPAPsRiskSummary(t *testing.T) {
	p := BuildPAPs(datasettest.Store(), filter.Selection{})

	require.NotNil(t, p.Status)
	// half of the PAPs are compensated
	assert.Equal(t, analytics.LevelDanger, p.Status.Level)

	require.Len(t, p.KPIs, 6)
	assert.Equal(t, "50%", p.KPIs[1].Value)
	assert.Equal(t, "2 of 4 compensated", p.KPIs[1].Sub)
	assert.Equal(t, "75%", p.KPIs[3].Value)
	assert.Equal(t, analytics.LevelWarning, p.KPIs[3].Level)
	assert.Equal(t, "1", p.KPIs[4].Value)
	assert.Equal(t, "3", p.KPIs[5].Value)

	require.Len(t, p.Indicators, 1)
	risk := p.Indicators[0]
	require.Len(t, risk.Items, 6)

	notPaid := indicator(t, risk, "Not Compensated")
	assert.Equal(t, "2 PAPs", notPaid.Value)
	assert.Equal(t, "50%", notPaid.Note)
	assert.Equal(t, analytics.LevelDanger, notPaid.Level)

	// Niyonzima left satisfaction blank
	assert.Equal(t, "2 PAPs", indicator(t, risk, "Dissatisfied").Value)

	unaware := indicator(t, risk, "Unaware of GRM")
	assert.Equal(t, "25%", unaware.Note)
	assert.Equal(t, analytics.LevelDanger, unaware.Level)

	once := indicator(t, risk, "Consulted Only Once")
	assert.Equal(t, "0 PAPs", once.Value)
	assert.Equal(t, analytics.LevelSuccess, once.Level)
}

func TestBuildPAPsSelectionRiskSummary(t *testing.T) {
	p := BuildPAPs(datasettest.Store(), filter.Selection{filter.KeyDistrict: "Gasabo"})

	risk := p.Indicators[0]
	assert.Equal(t, analytics.LevelSuccess, indicator(t, risk, "Not Compensated").Level)
	dissatisfied := indicator(t, risk, "Dissatisfied")
	assert.Equal(t, "1 PAPs", dissatisfied.Value)
	assert.Equal(t, "50%", dissatisfied.Note)
	assert.Equal(t, analytics.LevelDanger, dissatisfied.Level)
}
