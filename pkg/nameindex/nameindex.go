// Package nameindex resolves free-form layer references against a manifest.
//
// A query is matched, first hit wins, by dataset identifier, display name,
// alias, then by token subset against display names and finally against
// aliases. Comparisons are case-insensitive. An Index is built from one
// manifest and never refreshed; build a new one for every manifest version.
package nameindex

import (
	"regexp"
	"strings"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/agentstation/geomanifest/pkg/manifest"
)

// Rule names the resolution step that produced a match.
type Rule string

// Resolution rules in evaluation order.
const (
	RuleLayerID       Rule = "layer_id"
	RuleDisplayName   Rule = "display_name"
	RuleAlias         Rule = "alias"
	RuleDisplayTokens Rule = "display_name_tokens"
	RuleAliasTokens   Rule = "alias_tokens"
)

// Match is a successful resolution.
type Match struct {
	LayerID string
	Rule    Rule
}

var separators = regexp.MustCompile(`[\s\-_,.()/]+`)

// Tokenize splits lowercased text on whitespace and punctuation, keeping
// tokens longer than one character.
func Tokenize(text string) []string {
	var out []string
	for _, t := range separators.Split(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}

type entry struct {
	id      string
	lowerID string
	display string
	tokens  mapset.Set[string]
	aliases []alias
}

type alias struct {
	lower  string
	tokens mapset.Set[string]
}

// Index answers name queries for one manifest.
type Index struct {
	entries []entry
}

// New indexes the layers and aliases of m in manifest order.
func New(m *manifest.Manifest) *Index {
	idx := &Index{}
	if m == nil {
		return idx
	}
	idx.entries = make([]entry, 0, len(m.Layers))
	for _, l := range m.Layers {
		e := entry{
			id:      l.LayerID,
			lowerID: strings.ToLower(l.LayerID),
			display: strings.ToLower(l.DisplayName),
			tokens:  tokenSet(l.DisplayName),
		}
		for _, a := range m.Aliases[l.LayerID] {
			e.aliases = append(e.aliases, alias{lower: strings.ToLower(a), tokens: tokenSet(a)})
		}
		idx.entries = append(idx.entries, e)
	}
	return idx
}

func tokenSet(s string) mapset.Set[string] {
	return mapset.NewThreadUnsafeSet(Tokenize(s)...)
}

// Resolve returns the layer id a query refers to.
func (idx *Index) Resolve(query string) (string, bool) {
	m, ok := idx.ResolveDetailed(query)
	return m.LayerID, ok
}

// ResolveDetailed is Resolve reporting which rule matched.
func (idx *Index) ResolveDetailed(query string) (Match, bool) {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, e := range idx.entries {
		if e.lowerID == q {
			return Match{LayerID: e.id, Rule: RuleLayerID}, true
		}
	}
	for _, e := range idx.entries {
		if e.display == q {
			return Match{LayerID: e.id, Rule: RuleDisplayName}, true
		}
	}
	for _, e := range idx.entries {
		for _, a := range e.aliases {
			if a.lower == q {
				return Match{LayerID: e.id, Rule: RuleAlias}, true
			}
		}
	}

	qt := tokenSet(q)
	if qt.Cardinality() == 0 {
		return Match{}, false
	}
	for _, e := range idx.entries {
		if qt.IsSubset(e.tokens) {
			return Match{LayerID: e.id, Rule: RuleDisplayTokens}, true
		}
	}
	for _, e := range idx.entries {
		for _, a := range e.aliases {
			if qt.IsSubset(a.tokens) {
				return Match{LayerID: e.id, Rule: RuleAliasTokens}, true
			}
		}
	}
	return Match{}, false
}
