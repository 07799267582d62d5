package identity

import (
	"strings"

	"github.com/agentstation/geomanifest/pkg/aprx"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/provenance"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// Candidate is a database layer awaiting a display name.
type Candidate struct {
	DatasetName string
	Profile     *gdb.LayerProfile
}

// Resolution is a strategy's answer for one candidate.
type Resolution struct {
	DisplayName string
	// Mapping is the archive entry behind an archive resolution.
	Mapping *aprx.LayerMapping
	Reason  string
}

// Strategy resolves a display name from one source. Resolve reports false
// when the source has nothing to say about the candidate.
type Strategy interface {
	Source() provenance.Source
	Resolve(c Candidate) (Resolution, bool)
}

// ArchiveStrategy looks the dataset up in the project archive, exactly
// first and then by lowercased name.
type ArchiveStrategy struct {
	index map[string]*aprx.LayerMapping
}

// NewArchiveStrategy indexes the project's layer mappings. A nil project
// yields a strategy that never matches.
func NewArchiveStrategy(p *aprx.Project) *ArchiveStrategy {
	s := &ArchiveStrategy{index: map[string]*aprx.LayerMapping{}}
	if p == nil {
		return s
	}
	for i := range p.Layers {
		lm := &p.Layers[i]
		s.index[lm.DatasetName] = lm
		if _, ok := s.index[strings.ToLower(lm.DatasetName)]; !ok {
			s.index[strings.ToLower(lm.DatasetName)] = lm
		}
	}
	return s
}

func (s *ArchiveStrategy) Source() provenance.Source { return provenance.SourceArchive }

func (s *ArchiveStrategy) Resolve(c Candidate) (Resolution, bool) {
	lm, ok := s.index[c.DatasetName]
	if !ok {
		lm, ok = s.index[strings.ToLower(c.DatasetName)]
	}
	if !ok {
		return Resolution{}, false
	}
	return Resolution{DisplayName: lm.DisplayName, Mapping: lm, Reason: "project archive " + lm.ArchiveFile}, true
}

// DictionaryStrategy looks the dataset up in the known-layer dictionary.
type DictionaryStrategy struct {
	Vocabulary *vocab.Vocabulary
}

func (s *DictionaryStrategy) Source() provenance.Source { return provenance.SourceDict }

func (s *DictionaryStrategy) Resolve(c Candidate) (Resolution, bool) {
	name, ok := s.Vocabulary.KnownLayer(c.DatasetName)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{DisplayName: name, Reason: "known layer dictionary"}, true
}

// InferenceStrategy guesses a name from the layer's structure: field
// signatures first, then dataset-name hints, then a humanized identifier.
type InferenceStrategy struct {
	Vocabulary *vocab.Vocabulary
}

func (s *InferenceStrategy) Source() provenance.Source { return provenance.SourceInferred }

func (s *InferenceStrategy) Resolve(c Candidate) (Resolution, bool) {
	if c.Profile != nil {
		if label, ok := s.Vocabulary.Signature(c.Profile.FieldNames()); ok {
			return Resolution{DisplayName: label, Reason: "field signature"}, true
		}
	}
	if label, ok := s.Vocabulary.Hint(c.DatasetName); ok {
		return Resolution{DisplayName: label, Reason: "dataset name pattern"}, true
	}
	if readable, ok := Humanize(c.DatasetName); ok && readable != c.DatasetName {
		return Resolution{DisplayName: readable, Reason: "humanized identifier"}, true
	}
	return Resolution{}, false
}

// FallbackStrategy uses the technical identifier. It always matches.
type FallbackStrategy struct{}

func (FallbackStrategy) Source() provenance.Source { return provenance.SourceGDBOnly }

func (FallbackStrategy) Resolve(c Candidate) (Resolution, bool) {
	return Resolution{DisplayName: c.DatasetName, Reason: UnmappedReason}, true
}
