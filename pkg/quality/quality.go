// Package quality scores a resolved catalog for completeness and consistency.
package quality

import (
	"context"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/agentstation/geomanifest/pkg/crs"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/identity"
	"github.com/agentstation/geomanifest/pkg/logging"
)

// Completeness is the coarse metadata completeness rating.
type Completeness string

// Completeness ratings.
const (
	CompletenessLow    Completeness = "low"
	CompletenessMedium Completeness = "medium"
	CompletenessHigh   Completeness = "high"
)

// Thresholds for the completeness rating.
const (
	HighCoverage     = 80.0
	HighDescriptions = 0.5
	MediumCoverage   = 50.0
)

var (
	threeDMarkers  = []string{"3D", "Z", "Patch"}
	rasterKeywords = []string{"raster", "mosaic", "image"}
)

// Report is the quality assessment of a catalog.
type Report struct {
	LayersTotal              int
	LayersNonEmpty           int
	LayersWithDisplayName    int
	LayersWithUnknownMeaning int
	AttachmentsExtractable   bool
	CRSConsistent            bool
	// PrimaryCRS is "EPSG:n" or empty when no spatial layer has a code.
	PrimaryCRS           string
	Has3DLayers          bool
	HasRasters           bool
	MetadataCompleteness Completeness
	CoveragePercent      float64
	Warnings             []string
}

// InconsistentCRSWarning lists the distinct codes found across spatial layers.
func InconsistentCRSWarning(codes []int) string {
	ids := make([]string, len(codes))
	for i, c := range codes {
		ids[i] = crs.ID(c)
	}
	return "CRS inconsistent across layers: " + strings.Join(ids, ", ")
}

// Score computes the report for a profiled database and its resolution.
func Score(ctx context.Context, db *gdb.Database, res *identity.Result) *Report {
	layers := db.FeatureLayers()
	r := &Report{
		LayersTotal:            len(layers),
		AttachmentsExtractable: len(db.AttachmentTables) > 0,
		CoveragePercent:        res.Quality.CoveragePercent,
		Warnings:               append([]string{}, res.Warnings...),
	}

	// Codes in first-seen order; the mode breaks ties toward the earliest.
	codes := mapset.NewThreadUnsafeSet[int]()
	var order []int
	counts := map[int]int{}

	for _, lp := range layers {
		if lp.FeatureCount > 0 {
			r.LayersNonEmpty++
		}
		if lp.CRSEPSG != 0 && lp.GeometryType != "" {
			if codes.Add(lp.CRSEPSG) {
				order = append(order, lp.CRSEPSG)
			}
			counts[lp.CRSEPSG]++
		}
		if containsAny(lp.GeometryType, threeDMarkers) {
			r.Has3DLayers = true
		}
		if containsAny(strings.ToLower(lp.LayerID), rasterKeywords) {
			r.HasRasters = true
		}
	}

	for _, m := range res.Mapped {
		if m.Source.HasDisplayName() {
			r.LayersWithDisplayName++
		}
		if m.NeedsReview {
			r.LayersWithUnknownMeaning++
		}
	}

	r.CRSConsistent = codes.Cardinality() <= 1
	if len(order) > 0 {
		primary := order[0]
		for _, c := range order[1:] {
			if counts[c] > counts[primary] {
				primary = c
			}
		}
		r.PrimaryCRS = crs.ID(primary)
	}
	if !r.CRSConsistent {
		r.Warnings = append(r.Warnings, InconsistentCRSWarning(order))
	}

	r.MetadataCompleteness = completeness(r.LayersTotal, r.CoveragePercent, res.Mapped)

	logging.FromContext(ctx).Info().
		Str("completeness", string(r.MetadataCompleteness)).
		Bool("crs_consistent", r.CRSConsistent).
		Str("primary_crs", r.PrimaryCRS).
		Msg("scored catalog quality")
	return r
}

func completeness(total int, coverage float64, mapped []identity.MappedLayer) Completeness {
	if total == 0 {
		return CompletenessLow
	}
	described := 0
	for _, m := range mapped {
		if m.Description != "" && m.Description != m.DatasetName {
			described++
		}
	}
	ratio := float64(described) / float64(total)
	switch {
	case coverage >= HighCoverage && ratio >= HighDescriptions:
		return CompletenessHigh
	case coverage >= MediumCoverage:
		return CompletenessMedium
	default:
		return CompletenessLow
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
