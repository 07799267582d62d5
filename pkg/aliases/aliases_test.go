package aliases_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/geomanifest/pkg/aliases"
)

func TestGenerate(t *testing.T) {
	got := aliases.Generate("gms_r", "Поле дельта G (мГал)", "мГал", nil)

	for _, want := range []string{
		"поле", "дельта", "мгал",
		"gms r", "gms_r",
		"pole delta g",
		"гравика", "гравитационное поле", "gravity", "гравиметрия",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "g")
	assert.True(t, sort.StringsAreSorted(got))
}

func TestGenerateDeduplicates(t *testing.T) {
	got := aliases.Generate("wells", "Скважины", "", nil)

	counts := map[string]int{}
	for _, a := range got {
		counts[a]++
	}
	for a, n := range counts {
		assert.Equal(t, 1, n, a)
	}
	assert.Contains(t, got, "скважины")
	assert.Contains(t, got, "skvazhiny")
	assert.Contains(t, got, "drillholes")
	assert.Contains(t, got, "wells")
}

func TestGenerateTrimsBeforeDeduplicating(t *testing.T) {
	tests := []struct {
		name    string
		dataset string
		display string
		want    string
	}{
		{"trailing underscore", "rivers_", "Rivers", "rivers"},
		{"leading underscore", "_roads", "Roads", "roads"},
		{"padded display name", "lakes", "  Lakes  ", "lakes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aliases.Generate(tt.dataset, tt.display, "", nil)

			n := 0
			for _, a := range got {
				assert.Equal(t, strings.TrimSpace(a), a, "alias %q is not trimmed", a)
				if a == tt.want {
					n++
				}
			}
			assert.Equal(t, 1, n, "%q must appear exactly once in %v", tt.want, got)
		})
	}
}

func TestGenerateDropsShortAliases(t *testing.T) {
	got := aliases.Generate("x", "x", "", nil)
	assert.Empty(t, got)
}

func TestIndex(t *testing.T) {
	idx := aliases.Index{}
	idx.Add("x", "x", "", nil)
	idx.Add("roads", "Дороги", "", nil)

	assert.NotContains(t, idx, "x")
	assert.Contains(t, idx["roads"], "dorogi")
	assert.Contains(t, idx["roads"], "roads")
}
