package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	t.Run("strips BOM and trims header names", func(t *testing.T) {
		tb, err := parseTable(strings.NewReader("\ufeffsite_name , age\nGatenga,31\n"))
		require.NoError(t, err)

		assert.Equal(t, []string{"site_name", "age"}, tb.header)
		assert.True(t, tb.has("site_name"))
		assert.True(t, tb.has("age"))
		require.Len(t, tb.rows, 1)
	})

	t.Run("empty input is an error", func(t *testing.T) {
		_, err := parseTable(strings.NewReader(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no header")
	})

	t.Run("header only yields no rows", func(t *testing.T) {
		tb, err := parseTable(strings.NewReader("a,b\n"))
		require.NoError(t, err)
		assert.Empty(t, tb.rows)
	})

	t.Run("bad quoting reports the row", func(t *testing.T) {
		_, err := parseTable(strings.NewReader("a,b\n1,2\n\"x,3\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 3")
	})

	t.Run("ragged rows are accepted", func(t *testing.T) {
		tb, err := parseTable(strings.NewReader("a,b,c\n1\n1,2,3,4\n"))
		require.NoError(t, err)
		assert.Len(t, tb.rows, 2)
	})
}

func TestRowAccessors(t *testing.T) {
	tb, err := parseTable(strings.NewReader(
		"name,age,flag,pct,yes\n" +
			"  Alice ,31.6,1,45%,Yes\n" +
			"Bob,,0,n/a,No\n" +
			"Short\n"))
	require.NoError(t, err)

	var rows []row
	for r := range tb.all() {
		rows = append(rows, r)
	}
	require.Len(t, rows, 3)

	alice, bob, short := rows[0], rows[1], rows[2]

	assert.Equal(t, "Alice", alice.text("name"))
	assert.Equal(t, 31.6, alice.number("age"))
	assert.Equal(t, 32, alice.integer("age"))
	assert.Equal(t, 45.0, alice.number("pct"))
	assert.True(t, alice.flag("flag"))
	assert.True(t, alice.flag("yes"))

	assert.Equal(t, 0.0, bob.number("age"))
	_, ok := bob.optNumber("age")
	assert.False(t, ok)
	assert.Equal(t, 0.0, bob.number("pct"))
	assert.False(t, bob.flag("flag"))
	assert.False(t, bob.flag("yes"))

	assert.Equal(t, "", short.text("age"), "missing trailing cell")
	assert.Equal(t, "", alice.text("no_such_column"))
	assert.Equal(t, 0.0, alice.number("no_such_column"))

	values := alice.values()
	assert.Equal(t, "Alice", values["name"])
	assert.Len(t, values, 5)
}
