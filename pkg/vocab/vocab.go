// Package vocab holds the curated, versioned tables used to name layers and
// generate search aliases: the known-layer dictionary, field-name signatures,
// dataset-name hints, keyword and unit synonyms, CRS labels, and the
// transliteration table.
//
// The default tables are embedded YAML; Load accepts a replacement document
// with the same shape.
package vocab

import (
	_ "embed"
	"regexp"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/geomanifest/internal/matcher"
	"github.com/agentstation/geomanifest/pkg/errors"
)

//go:embed vocab.yaml
var defaultDocument []byte

// FieldSignature labels layers whose field names intersect Fields.
type FieldSignature struct {
	Label  string   `yaml:"label"`
	Fields []string `yaml:"fields"`
}

// DatasetHint labels layers whose dataset name matches Pattern.
type DatasetHint struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// Synonyms lists alternate names injected when Keyword occurs in a text.
type Synonyms struct {
	Keyword  string   `yaml:"keyword"`
	Synonyms []string `yaml:"synonyms"`
}

// Vocabulary is a compiled set of curated tables.
type Vocabulary struct {
	Version         string            `yaml:"version"`
	KnownLayers     map[string]string `yaml:"known_layers"`
	FieldSignatures []FieldSignature  `yaml:"field_signatures"`
	DatasetHints    []DatasetHint     `yaml:"dataset_hints"`
	KeywordSynonyms []Synonyms        `yaml:"keyword_synonyms"`
	UnitSynonyms    []Synonyms        `yaml:"unit_synonyms"`
	UnitPattern     string            `yaml:"unit_pattern"`
	CRSLabels       map[string]string `yaml:"crs_labels"`
	Transliteration map[string]string `yaml:"transliteration"`

	hints    *matcher.Table
	units    *regexp.Regexp
	translit map[rune]string
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
)

// Default returns the embedded vocabulary. It panics if the embedded
// document is invalid, which is caught by the package tests.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		v, err := Load(defaultDocument)
		if err != nil {
			panic(err)
		}
		defaultVocab = v
	})
	return defaultVocab
}

// Load parses and compiles a vocabulary document.
func Load(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.WrapParse("yaml", "vocabulary", err)
	}
	if v.Version == "" {
		return nil, errors.NewValidationError("version", nil, "vocabulary version is required")
	}

	rules := make([]matcher.Rule, len(v.DatasetHints))
	for i, h := range v.DatasetHints {
		rules[i] = matcher.Rule{Pattern: h.Pattern, Label: h.Label}
	}
	hints, err := matcher.Compile(matcher.Regex, rules)
	if err != nil {
		return nil, errors.WrapValidation("dataset_hints", err)
	}
	v.hints = hints

	if v.UnitPattern != "" {
		units, err := regexp.Compile(v.UnitPattern)
		if err != nil {
			return nil, errors.WrapValidation("unit_pattern", err)
		}
		v.units = units
	}

	v.translit = make(map[rune]string, len(v.Transliteration))
	for k, out := range v.Transliteration {
		r := []rune(k)
		if len(r) != 1 {
			return nil, errors.NewValidationError("transliteration", k, "keys must be single characters")
		}
		v.translit[r[0]] = out
	}

	return &v, nil
}

// KnownLayer looks up a dataset name in the known-layer dictionary.
func (v *Vocabulary) KnownLayer(datasetName string) (string, bool) {
	key := strings.Trim(strings.ToLower(datasetName), "_")
	label, ok := v.KnownLayers[key]
	return label, ok
}

// Signature returns the label of the first field signature intersecting
// the given field names. Matching is case-insensitive.
func (v *Vocabulary) Signature(fieldNames []string) (string, bool) {
	present := make(map[string]struct{}, len(fieldNames))
	for _, name := range fieldNames {
		present[strings.ToLower(name)] = struct{}{}
	}
	for _, sig := range v.FieldSignatures {
		for _, f := range sig.Fields {
			if _, ok := present[f]; ok {
				return sig.Label, true
			}
		}
	}
	return "", false
}

// Hint returns the label of the first dataset hint matching the name.
func (v *Vocabulary) Hint(datasetName string) (string, bool) {
	return v.hints.Lookup(datasetName)
}

// Units extracts the measurement units from a display name such as
// "Поле дельта G (мГал)". It returns an empty string when none are present.
func (v *Vocabulary) Units(displayName string) string {
	if v.units == nil {
		return ""
	}
	m := v.units.FindStringSubmatch(displayName)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// KeywordAliases returns the synonyms of every keyword contained in text.
// The text is lowercased before matching.
func (v *Vocabulary) KeywordAliases(text string) []string {
	return collect(v.KeywordSynonyms, strings.ToLower(text))
}

// UnitAliases returns the synonyms implied by a units string.
func (v *Vocabulary) UnitAliases(units string) []string {
	if units == "" {
		return nil
	}
	return collect(v.UnitSynonyms, strings.ToLower(units))
}

func collect(table []Synonyms, text string) []string {
	var out []string
	for _, s := range table {
		if strings.Contains(text, s.Keyword) {
			out = append(out, s.Synonyms...)
		}
	}
	return out
}

// Transliterate lowercases text and replaces every character found in the
// transliteration table. Other characters pass through unchanged.
func (v *Vocabulary) Transliterate(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if out, ok := v.translit[r]; ok {
			b.WriteString(out)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CRSLabel returns "EPSG:n (name)" for well-known codes and the bare
// identifier otherwise.
func (v *Vocabulary) CRSLabel(id string) string {
	if name, ok := v.CRSLabels[id]; ok {
		return id + " (" + name + ")"
	}
	return id
}
