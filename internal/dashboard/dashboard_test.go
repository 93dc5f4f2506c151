package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-emel/imce-project/internal/analytics"
	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/dataset/datasettest"
	"github.com/michel-emel/imce-project/internal/filter"
)

func TestLookup(t *testing.T) {
	e, err := Lookup("grc")
	require.NoError(t, err)
	assert.Equal(t, "/grc", e.Path)
	assert.Equal(t, dataset.NameGRC, e.Dataset)

	_, err = Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", ExecutiveSlug},
		{"", ExecutiveSlug},
		{"/paps", "paps"},
		{"/paps/", "paps"},
		{"district", "district"},
		{"/crossanalysis", "crossanalysis"},
		{"/unknown", ExecutiveSlug},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path).Slug)
		})
	}
}

func TestPagesOrder(t *testing.T) {
	pages := Pages()
	require.Len(t, pages, 8)
	assert.Equal(t, ExecutiveSlug, pages[0].Slug)

	pages[0].Slug = "changed"
	assert.Equal(t, ExecutiveSlug, Pages()[0].Slug, "Pages returns a copy")
}

func assertWellFormed(t *testing.T, p *Page) {
	t.Helper()
	seen := make(map[string]bool)
	for _, c := range p.Charts {
		require.NotNil(t, c)
		assert.NotEmpty(t, c.ID)
		assert.False(t, seen[c.ID], "duplicate chart id %s", c.ID)
		seen[c.ID] = true
		for _, s := range c.Series {
			assert.Len(t, s.Values, len(c.Categories), "%s/%s series %q", p.Slug, c.ID, s.Name)
		}
	}
	seen = make(map[string]bool)
	for _, tb := range p.Tables {
		assert.False(t, seen[tb.ID], "duplicate table id %s", tb.ID)
		seen[tb.ID] = true
		for i, row := range tb.Rows {
			assert.Len(t, row, len(tb.Columns), "%s/%s row %d", p.Slug, tb.ID, i)
		}
	}
}

func TestEveryPageBuilds(t *testing.T) {
	store := datasettest.Store()
	for _, e := range Pages() {
		t.Run(e.Slug, func(t *testing.T) {
			p := e.Build(store, nil)
			require.NotNil(t, p)
			assert.Equal(t, e.Slug, p.Slug)
			assert.Equal(t, e.Path, p.Path)
			assert.NotEmpty(t, p.Title)
			assert.Empty(t, p.Missing)
			assert.NotEmpty(t, p.Charts)
			assertWellFormed(t, p)

			for _, c := range p.Charts {
				got, err := p.Chart(c.ID)
				require.NoError(t, err)
				assert.Same(t, c, got)
			}
			_, err := p.Chart("no-such-chart")
			assert.ErrorIs(t, err, ErrUnknownChart)
			_, err = p.Table("no-such-table")
			assert.ErrorIs(t, err, ErrUnknownTable)
		})
	}
}

func headerOnly(names ...dataset.Name) *dataset.Store {
	records := datasettest.Records()
	for _, n := range names {
		records[n] = []map[string]string{}
	}
	return dataset.FromRecords(records)
}

func TestPagesMarshalWithEmptyFiles(t *testing.T) {
	stores := map[string]*dataset.Store{
		"empty checklist": headerOnly(dataset.NameChecklist),
		"all empty":       headerOnly(dataset.Names...),
	}
	for name, store := range stores {
		for _, e := range Pages() {
			t.Run(name+"/"+e.Slug, func(t *testing.T) {
				p := e.Build(store, nil)
				_, err := json.Marshal(p)
				require.NoError(t, err)
			})
		}
	}
}

func TestMissingDatasetPlaceholder(t *testing.T) {
	store := datasettest.Only()
	for _, e := range Pages() {
		if e.Dataset == "" {
			continue
		}
		t.Run(e.Slug, func(t *testing.T) {
			p := e.Build(store, nil)
			assert.Equal(t, store.Placeholder(e.Dataset), p.Missing)
			assert.Empty(t, p.Charts)
			assert.Equal(t, e.Title, p.Title)
		})
	}
}

func TestFilteredPageStillWellFormed(t *testing.T) {
	store := datasettest.Store()
	sels := []filter.Selection{
		{filter.KeyDistrict: "Kicukiro"},
		{filter.KeySite: "Cyuve"},
		{filter.KeyDistrict: "Nowhere"},
		{filter.KeyRole: "Mason", filter.KeyGender: "Female"},
	}
	for _, e := range Pages() {
		for _, sel := range sels {
			p := e.Build(store, sel)
			assertWellFormed(t, p)
		}
	}
}

func TestPAPSelectionNarrowsKPIs(t *testing.T) {
	store := datasettest.Store()

	all := BuildPAPs(store, filter.Selection{})
	require.NotEmpty(t, all.KPIs)
	assert.Equal(t, "PAPs Interviewed", all.KPIs[0].Label)
	assert.Equal(t, "4", all.KPIs[0].Value)
	assert.Equal(t, "50%", all.KPIs[1].Value)
	assert.Equal(t, "3", all.KPIs[5].Value)

	p := BuildPAPs(store, filter.Selection{filter.KeyDistrict: "Kicukiro"})
	assert.Equal(t, "2", p.KPIs[0].Value)
	assert.Equal(t, "0%", p.KPIs[1].Value)
	assert.Equal(t, analytics.LevelDanger, p.KPIs[1].Level)
	assert.Equal(t, "Kicukiro", p.Selection.Get(filter.KeyDistrict))
}

func TestStaleSelectionResets(t *testing.T) {
	store := datasettest.Store()
	p := BuildPAPs(store, filter.Selection{filter.KeyDistrict: "Nowhere"})
	assert.Equal(t, filter.All, p.Selection.Get(filter.KeyDistrict))
	assert.Equal(t, "4", p.KPIs[0].Value)
}

func TestEmptyRowsGiveDashes(t *testing.T) {
	for _, k := range papKPIs(nil) {
		assert.Equal(t, dash, k.Value, k.Label)
		assert.Equal(t, analytics.LevelMuted, k.Level, k.Label)
	}
	for _, c := range papCharts(datasettest.Store(), nil) {
		assert.True(t, c.Empty, c.ID)
	}
}
