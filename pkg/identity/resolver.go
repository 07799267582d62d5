// Package identity maps technical dataset names onto human-readable
// display names.
//
// Each database layer is offered to a ranked list of strategies (project
// archive, curated dictionary, structural inference, raw identifier) and
// takes the first answer. Every layer comes out mapped; layers that fall
// through to the raw identifier are flagged for review and reported as
// unmapped as well.
package identity

import (
	"context"
	"math"

	"github.com/agentstation/geomanifest/pkg/aprx"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/logging"
	"github.com/agentstation/geomanifest/pkg/provenance"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// DisplayNameField is the provenance field recorded for each layer.
const DisplayNameField = "display_name"

// MappedLayer is the resolved record of one database layer.
type MappedLayer struct {
	DatasetName    string
	DisplayName    string
	Source         provenance.Source
	Confidence     float64
	Group          string
	FeatureDataset string
	Units          string
	Description    string
	// Archive-only attributes; ArchiveVisibility is nil without an archive match.
	ArchiveFile            string
	ArchiveVisibility      *bool
	ArchiveDisplayField    string
	ArchiveLabelExpression string
	FieldAliases           map[string]string
	NeedsReview            bool
}

// UnmappedLayer is a layer that only kept its technical name.
type UnmappedLayer struct {
	DatasetName string
	Reason      string
	DisplayName string
	Source      provenance.Source
	NeedsReview bool
}

// MappingQuality summarizes how layers were resolved.
type MappingQuality struct {
	TotalGDBLayers     int
	MappedFromArchive  int
	MappedFromDict     int
	MappedFromInferred int
	Unmapped           int
	// CoveragePercent counts archive matches only, rounded to one decimal.
	CoveragePercent float64
	HasGroups       bool
	GroupsCount     int
}

// Result is the outcome of resolving a whole database.
type Result struct {
	// Mapped holds one entry per non-attachment layer in database order.
	Mapped   []MappedLayer
	Unmapped []UnmappedLayer
	Quality  MappingQuality
	Warnings []string
	// Provenance records the tier that named each layer.
	Provenance provenance.Map

	index map[string]int
}

// Get returns the mapped layer for a dataset name.
func (r *Result) Get(dataset string) (*MappedLayer, bool) {
	if r.index == nil {
		r.index = make(map[string]int, len(r.Mapped))
		for i, m := range r.Mapped {
			r.index[m.DatasetName] = i
		}
	}
	i, ok := r.index[dataset]
	if !ok {
		return nil, false
	}
	return &r.Mapped[i], true
}

// Resolver applies the ranked strategies.
type Resolver struct {
	project    *aprx.Project
	strategies []Strategy
}

// NewResolver builds the default strategy ranking. project may be nil
// when no archive was supplied; v defaults to the embedded vocabulary.
func NewResolver(project *aprx.Project, v *vocab.Vocabulary) *Resolver {
	if v == nil {
		v = vocab.Default()
	}
	return &Resolver{
		project: project,
		strategies: []Strategy{
			NewArchiveStrategy(project),
			&DictionaryStrategy{Vocabulary: v},
			&InferenceStrategy{Vocabulary: v},
			FallbackStrategy{},
		},
	}
}

// NewRankedResolver builds a resolver over a custom ranking. Layers no
// strategy names fall back to their dataset name.
func NewRankedResolver(project *aprx.Project, strategies ...Strategy) *Resolver {
	return &Resolver{project: project, strategies: strategies}
}

// Strategies returns the strategies in rank order.
func (r *Resolver) Strategies() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// Resolve maps every non-attachment layer of db.
func (r *Resolver) Resolve(ctx context.Context, db *gdb.Database) *Result {
	logger := logging.FromContext(ctx)
	tracker := provenance.NewTracker(true)
	res := &Result{Mapped: []MappedLayer{}, Unmapped: []UnmappedLayer{}, Warnings: []string{}}

	layers := db.FeatureLayers()
	for i := range layers {
		lp := &layers[i]
		c := Candidate{DatasetName: lp.LayerID, Profile: lp}

		var (
			chosen   Strategy
			resolved Resolution
		)
		for _, s := range r.strategies {
			if out, ok := s.Resolve(c); ok {
				chosen, resolved = s, out
				break
			}
		}
		if chosen == nil {
			chosen = FallbackStrategy{}
			resolved, _ = chosen.Resolve(c)
		}
		tracker.Track(lp.LayerID, DisplayNameField, provenance.Provenance{
			Source:   chosen.Source(),
			Value:    resolved.DisplayName,
			Reason:   resolved.Reason,
			Selected: true,
		})

		m := r.mapped(lp.LayerID, chosen.Source(), resolved)
		res.Mapped = append(res.Mapped, m)

		switch m.Source {
		case provenance.SourceArchive:
			res.Quality.MappedFromArchive++
		case provenance.SourceDict:
			res.Quality.MappedFromDict++
		case provenance.SourceInferred:
			res.Quality.MappedFromInferred++
			res.Warnings = append(res.Warnings, InferredWarning(m.DatasetName, m.DisplayName))
		case provenance.SourceGDBOnly:
			res.Quality.Unmapped++
			res.Warnings = append(res.Warnings, UnmappedWarning(m.DatasetName))
			res.Unmapped = append(res.Unmapped, UnmappedLayer{
				DatasetName: m.DatasetName,
				Reason:      UnmappedReason,
				DisplayName: m.DisplayName,
				Source:      provenance.SourceGDBOnly,
				NeedsReview: true,
			})
		}

		logger.Debug().
			Str("layer_id", m.DatasetName).
			Str("source", m.Source.String()).
			Str("display_name", m.DisplayName).
			Msg("resolved layer")
	}

	if r.project == nil {
		res.Warnings = append([]string{MissingArchiveWarning}, res.Warnings...)
	}

	total := len(layers)
	res.Quality.TotalGDBLayers = total
	if total > 0 {
		res.Quality.CoveragePercent = math.Round(float64(res.Quality.MappedFromArchive)/float64(total)*1000) / 10
	}
	if r.project != nil {
		res.Quality.GroupsCount = len(r.project.Groups)
	}
	res.Quality.HasGroups = res.Quality.GroupsCount > 0
	res.Provenance = tracker.Map()

	for _, w := range res.Warnings {
		logger.Warn().Msg(w)
	}
	logger.Info().
		Int("layers", total).
		Int("from_archive", res.Quality.MappedFromArchive).
		Int("needs_review", res.Quality.Unmapped).
		Float64("coverage_percent", res.Quality.CoveragePercent).
		Msg("resolved layer identities")
	return res
}

func (r *Resolver) mapped(dataset string, source provenance.Source, out Resolution) MappedLayer {
	m := MappedLayer{
		DatasetName:  dataset,
		DisplayName:  out.DisplayName,
		Source:       source,
		Confidence:   source.Confidence(),
		FieldAliases: map[string]string{},
		NeedsReview:  source == provenance.SourceGDBOnly,
	}
	if lm := out.Mapping; lm != nil {
		visible := lm.Visibility
		m.Group = lm.Group
		m.FeatureDataset = lm.FeatureDataset
		m.Units = lm.Units
		m.Description = lm.Description
		m.ArchiveFile = lm.ArchiveFile
		m.ArchiveVisibility = &visible
		m.ArchiveDisplayField = lm.DisplayField
		m.ArchiveLabelExpression = lm.LabelExpression
		if lm.FieldAliases != nil {
			m.FieldAliases = lm.FieldAliases
		}
	}
	return m
}
