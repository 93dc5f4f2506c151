package filter

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type place struct {
	District string
	Sector   string
	Site     string
}

var placeDims = []Dimension[place]{
	{Key: KeyDistrict, Label: "District", AllLabel: "All Districts", Value: func(p place) string { return p.District }},
	{Key: KeySector, Label: "Sector", AllLabel: "All Sectors", Value: func(p place) string { return p.Sector }},
	{Key: KeySite, Label: "Site", AllLabel: "All Sites", Value: func(p place) string { return p.Site }},
}

var places = []place{
	{"Gasabo", "Remera", "Rugunga"},
	{"Gasabo", "Kimironko", "Nyagatovu"},
	{"Gasabo", "Remera", "Gatenga"},
	{"Kicukiro", "Gikondo", "Rwandex"},
	{"Kicukiro", "", "Gikondo"},
	{"Huye", "Ngoma", "Huye"},
}

func TestCascade(t *testing.T) {
	t.Run("no selection returns every row", func(t *testing.T) {
		res := Cascade(places, placeDims, Selection{})

		assert.Equal(t, places, res.Rows)
		require.Len(t, res.Controls, 3)
		assert.Equal(t, []Option{
			{All, "All Districts"}, {"Gasabo", "Gasabo"}, {"Huye", "Huye"}, {"Kicukiro", "Kicukiro"},
		}, res.Controls[0].Options)
		assert.Equal(t, All, res.Controls[0].Selected)
	})

	t.Run("parent narrows child options", func(t *testing.T) {
		res := Cascade(places, placeDims, Selection{KeyDistrict: "Gasabo"})

		assert.Len(t, res.Rows, 3)
		sectors := res.Controls[1].Options
		assert.Equal(t, []Option{{All, "All Sectors"}, {"Kimironko", "Kimironko"}, {"Remera", "Remera"}}, sectors)
	})

	t.Run("stale child selection resets to all", func(t *testing.T) {
		res := Cascade(places, placeDims, Selection{KeyDistrict: "Huye", KeySector: "Remera"})

		assert.Equal(t, All, res.Selection[KeySector])
		assert.Equal(t, All, res.Controls[1].Selected)
		assert.Equal(t, []place{{"Huye", "Ngoma", "Huye"}}, res.Rows)
	})

	t.Run("full path", func(t *testing.T) {
		res := Cascade(places, placeDims, Selection{KeyDistrict: "Gasabo", KeySector: "Remera", KeySite: "Gatenga"})

		assert.Equal(t, []place{{"Gasabo", "Remera", "Gatenga"}}, res.Rows)
		want := Selection{KeyDistrict: "Gasabo", KeySector: "Remera", KeySite: "Gatenga"}
		if diff := cmp.Diff(want, res.Selection); diff != "" {
			t.Errorf("selection mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("blank values are not options", func(t *testing.T) {
		res := Cascade(places, placeDims, Selection{KeyDistrict: "Kicukiro"})
		assert.Len(t, res.Controls[1].Options, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		res := Cascade(nil, placeDims, Selection{KeyDistrict: "Gasabo"})
		assert.Empty(t, res.Rows)
		assert.Equal(t, All, res.Selection[KeyDistrict])
		assert.Len(t, res.Controls[0].Options, 1)
	})
}

func TestSelection(t *testing.T) {
	q := url.Values{
		"district": {" Gasabo "},
		"site":     {""},
		"role":     {All},
		"page":     {"2"},
	}
	sel := FromQuery(q)

	assert.Equal(t, "Gasabo", sel.Get(KeyDistrict))
	assert.Equal(t, All, sel.Get(KeySite))
	assert.False(t, sel.Active(KeyRole))
	assert.True(t, sel.Active(KeyDistrict))
	assert.NotContains(t, sel, "page")

	assert.Equal(t, "district=Gasabo", sel.Canonical())
	assert.Equal(t,
		Selection{KeySite: "B", KeyDistrict: "A"}.Canonical(),
		Selection{KeyDistrict: "A", KeySite: "B", KeyRole: All}.Canonical())
}

func genPlaces() gopter.Gen {
	pick := func(values ...string) gopter.Gen {
		items := make([]interface{}, len(values))
		for i, v := range values {
			items[i] = v
		}
		return gen.OneConstOf(items...)
	}
	return gen.SliceOf(gopter.CombineGens(
		pick("Gasabo", "Kicukiro", "Huye"),
		pick("Remera", "Gikondo", "Ngoma", ""),
		pick("S1", "S2", "S3", "S4"),
	).Map(func(vals []interface{}) place {
		return place{vals[0].(string), vals[1].(string), vals[2].(string)}
	}))
}

func genSelection() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(All, "Gasabo", "Kicukiro", "Huye", "Nowhere"),
		gen.OneConstOf(All, "Remera", "Gikondo", "Ngoma"),
		gen.OneConstOf(All, "S1", "S2", "S3", "S4"),
	).Map(func(vals []interface{}) Selection {
		return Selection{KeyDistrict: vals[0].(string), KeySector: vals[1].(string), KeySite: vals[2].(string)}
	})
}

func TestCascadeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("filtered rows match every effective parent selection", prop.ForAll(
		func(rows []place, sel Selection) bool {
			res := Cascade(rows, placeDims, sel)
			for _, r := range res.Rows {
				for _, d := range placeDims {
					if v := res.Selection[d.Key]; v != All && d.Value(r) != v {
						return false
					}
				}
			}
			return true
		},
		genPlaces(), genSelection(),
	))

	properties.Property("every child option occurs under the parent selection", prop.ForAll(
		func(rows []place, sel Selection) bool {
			res := Cascade(rows, placeDims, sel)
			current := rows
			for i, d := range placeDims {
				for _, opt := range res.Controls[i].Options[1:] {
					found := false
					for _, r := range current {
						if d.Value(r) == opt.Value {
							found = true
							break
						}
					}
					if !found {
						return false
					}
				}
				if v := res.Selection[d.Key]; v != All {
					current = Where(current, func(r place) bool { return d.Value(r) == v })
				}
			}
			return true
		},
		genPlaces(), genSelection(),
	))

	properties.Property("selecting all returns the input unchanged", prop.ForAll(
		func(rows []place) bool {
			res := Cascade(rows, placeDims, Selection{})
			return len(rows) == len(res.Rows) && (len(rows) == 0 || cmp.Equal(rows, res.Rows))
		},
		genPlaces(),
	))

	properties.Property("filtered rows are a subset of the input", prop.ForAll(
		func(rows []place, sel Selection) bool {
			res := Cascade(rows, placeDims, sel)
			return len(res.Rows) <= len(rows)
		},
		genPlaces(), genSelection(),
	))

	properties.TestingRun(t)
}
