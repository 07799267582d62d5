package quality_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/identity"
	"github.com/agentstation/geomanifest/pkg/provenance"
	"github.com/agentstation/geomanifest/pkg/quality"
)

func mapped(id string, src provenance.Source, description string) identity.MappedLayer {
	return identity.MappedLayer{
		DatasetName: id,
		DisplayName: id,
		Source:      src,
		Description: description,
		NeedsReview: src == provenance.SourceGDBOnly,
	}
}

func TestScore(t *testing.T) {
	db := &gdb.Database{
		Layers: []gdb.LayerProfile{
			{LayerID: "gms_r", GeometryType: "MultiPolygon", FeatureCount: 10, CRSEPSG: 32637},
			{LayerID: "mag_t", GeometryType: "3D Point", FeatureCount: 5, CRSEPSG: 4326},
			{LayerID: "wells", GeometryType: "Point", FeatureCount: 0, CRSEPSG: 4326},
			{LayerID: "Raster_DEM", FeatureCount: 1, CRSEPSG: 32637},
			{LayerID: "gms_r__ATTACH", IsAttachmentTable: true, FeatureCount: 3},
		},
		AttachmentTables: []gdb.AttachmentTable{{TableName: "gms_r__ATTACH", ParentLayer: "gms_r"}},
	}
	res := &identity.Result{
		Mapped: []identity.MappedLayer{
			mapped("gms_r", provenance.SourceArchive, "survey"),
			mapped("mag_t", provenance.SourceDict, ""),
			mapped("wells", provenance.SourceInferred, "wells"),
			mapped("Raster_DEM", provenance.SourceGDBOnly, ""),
		},
		Quality:  identity.MappingQuality{CoveragePercent: 25},
		Warnings: []string{"first"},
	}

	r := quality.Score(context.Background(), db, res)

	assert.Equal(t, 4, r.LayersTotal)
	assert.Equal(t, 3, r.LayersNonEmpty)
	assert.Equal(t, 3, r.LayersWithDisplayName)
	assert.Equal(t, 1, r.LayersWithUnknownMeaning)
	assert.True(t, r.AttachmentsExtractable)
	assert.False(t, r.CRSConsistent)
	assert.Equal(t, "EPSG:4326", r.PrimaryCRS)
	assert.True(t, r.Has3DLayers)
	assert.True(t, r.HasRasters)
	assert.Equal(t, quality.CompletenessLow, r.MetadataCompleteness)
	assert.Equal(t, 25.0, r.CoveragePercent)
	assert.Equal(t, []string{"first", "CRS inconsistent across layers: EPSG:32637, EPSG:4326"}, r.Warnings)

	// The report owns its warnings.
	r.Warnings[0] = "changed"
	assert.Equal(t, "first", res.Warnings[0])
}

func TestScorePrimaryCRSTieGoesToFirst(t *testing.T) {
	db := &gdb.Database{Layers: []gdb.LayerProfile{
		{LayerID: "a", GeometryType: "Point", CRSEPSG: 7683},
		{LayerID: "b", GeometryType: "Point", CRSEPSG: 32637},
	}}
	r := quality.Score(context.Background(), db, &identity.Result{})
	assert.Equal(t, "EPSG:7683", r.PrimaryCRS)
}

func TestScoreCompleteness(t *testing.T) {
	layers := []gdb.LayerProfile{
		{LayerID: "a", GeometryType: "Point", CRSEPSG: 7683},
		{LayerID: "b", GeometryType: "Point", CRSEPSG: 7683},
	}
	tests := []struct {
		name     string
		coverage float64
		mapped   []identity.MappedLayer
		want     quality.Completeness
	}{
		{
			name:     "high",
			coverage: 100,
			mapped:   []identity.MappedLayer{mapped("a", provenance.SourceArchive, "desc"), mapped("b", provenance.SourceArchive, "")},
			want:     quality.CompletenessHigh,
		},
		{
			name:     "description equal to dataset does not count",
			coverage: 100,
			mapped:   []identity.MappedLayer{mapped("a", provenance.SourceArchive, "a"), mapped("b", provenance.SourceArchive, "")},
			want:     quality.CompletenessMedium,
		},
		{
			name:     "medium",
			coverage: 50,
			mapped:   []identity.MappedLayer{mapped("a", provenance.SourceArchive, ""), mapped("b", provenance.SourceDict, "")},
			want:     quality.CompletenessMedium,
		},
		{
			name:     "low",
			coverage: 49.9,
			want:     quality.CompletenessLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &identity.Result{Mapped: tt.mapped, Quality: identity.MappingQuality{CoveragePercent: tt.coverage}}
			r := quality.Score(context.Background(), &gdb.Database{Layers: layers}, res)
			assert.Equal(t, tt.want, r.MetadataCompleteness)
			assert.True(t, r.CRSConsistent)
			assert.Equal(t, "EPSG:7683", r.PrimaryCRS)
		})
	}
}

func TestScoreEmptyCatalog(t *testing.T) {
	r := quality.Score(context.Background(), &gdb.Database{}, &identity.Result{Quality: identity.MappingQuality{CoveragePercent: 100}})
	assert.Equal(t, quality.CompletenessLow, r.MetadataCompleteness)
	assert.True(t, r.CRSConsistent)
	assert.Empty(t, r.PrimaryCRS)
	assert.False(t, r.AttachmentsExtractable)
	assert.NotNil(t, r.Warnings)
}
