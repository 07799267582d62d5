// Package aliases generates the search aliases listed for each layer in a
// catalog manifest.
package aliases

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/agentstation/geomanifest/pkg/vocab"
)

// minTokenLen is the length a display-name token must exceed.
const minTokenLen = 2

// minAliasLen is the shortest alias kept.
const minAliasLen = 2

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Generate returns the sorted, de-duplicated aliases of a layer:
// display-name words, the dataset name with and without underscores, a
// transliteration of the display name and the synonyms of any keyword or
// unit it mentions. v defaults to the embedded vocabulary.
func Generate(datasetName, displayName, units string, v *vocab.Vocabulary) []string {
	if v == nil {
		v = vocab.Default()
	}
	set := mapset.NewThreadUnsafeSet[string]()
	add := func(values ...string) {
		for _, a := range values {
			if a = strings.TrimSpace(a); utf8.RuneCountInString(a) >= minAliasLen {
				set.Add(a)
			}
		}
	}

	clean := punctuation.ReplaceAllString(strings.ToLower(displayName), " ")
	for _, tok := range strings.Fields(clean) {
		if utf8.RuneCountInString(tok) > minTokenLen {
			add(tok)
		}
	}

	lower := strings.ToLower(datasetName)
	add(strings.ReplaceAll(lower, "_", " "), lower)

	base, _, _ := strings.Cut(displayName, "(")
	add(v.Transliterate(strings.TrimSpace(base)))

	add(v.KeywordAliases(displayName + " " + datasetName)...)
	add(v.UnitAliases(units)...)

	out := set.ToSlice()
	sort.Strings(out)
	return out
}

// Index maps each dataset to its aliases, skipping datasets without any.
type Index map[string][]string

// Add generates and records the aliases of one layer.
func (idx Index) Add(datasetName, displayName, units string, v *vocab.Vocabulary) {
	if a := Generate(datasetName, displayName, units, v); len(a) > 0 {
		idx[datasetName] = a
	}
}
