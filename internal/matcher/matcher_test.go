package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		rules []Rule
	}{
		{"bad regex", Regex, []Rule{{Pattern: "[unclosed", Label: "x"}}},
		{"bad glob", Glob, []Rule{{Pattern: "[unclosed", Label: "x"}}},
		{"bad kind", Kind(9), []Rule{{Pattern: "a", Label: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.kind, tt.rules)
			assert.Error(t, err)
		})
	}
}

func TestRegexLookup(t *testing.T) {
	table, err := Compile(Regex, []Rule{
		{Pattern: `^izol`, Label: "Изолинии"},
		{Pattern: `^extr`, Label: "Экстремумы"},
		{Pattern: `n_pole`, Label: "Северный полюс"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, Regex, table.Kind())

	tests := []struct {
		name  string
		label string
		index int
	}{
		{"IZOL_100", "Изолинии", 0},
		{"extr_max", "Экстремумы", 1},
		{"grav_n_pole", "Северный полюс", 2},
		{"rivers", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := table.Lookup(tt.name)
			assert.Equal(t, tt.index >= 0, ok)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.index, table.Index(tt.name))
		})
	}
}

func TestGlobLookup(t *testing.T) {
	table, err := Compile(Glob, []Rule{
		{Pattern: "map/*.json", Label: "map"},
		{Pattern: "*.json", Label: "document"},
	})
	require.NoError(t, err)

	label, ok := table.Lookup("Map/Wells.JSON")
	require.True(t, ok)
	assert.Equal(t, "map", label)

	label, ok = table.Lookup("GISProject.json")
	require.True(t, ok)
	assert.Equal(t, "document", label)

	_, ok = table.Lookup("notes.txt")
	assert.False(t, ok)
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.Equal(t, -1, table.Index("x"))
	assert.Equal(t, 0, table.Len())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "regex", Regex.String())
	assert.Equal(t, "glob", Glob.String())
	assert.Equal(t, "unknown", Kind(7).String())
}
