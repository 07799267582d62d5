// Package manifest assembles the catalog manifest of an ingested project.
//
// The manifest is the single document downstream tools read: project and
// map metadata, one entry per layer with its resolved display name and
// profile, the debug mapping, attachment and quality summaries, and search
// aliases. Build is pure; identical inputs give byte-identical output.
package manifest

import (
	"encoding/json"

	"github.com/agentstation/geomanifest/pkg/aprx"
	"github.com/agentstation/geomanifest/pkg/crs"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/provenance"
)

// Manifest is the persisted catalog document.
type Manifest struct {
	Version            string              `json:"version"`
	GeneratedAt        string              `json:"generated_at"`
	Generator          string              `json:"generator"`
	Project            Project             `json:"project"`
	Groups             Groups              `json:"groups"`
	Layers             []Layer             `json:"layers"`
	LayerMapping       []MappingEntry      `json:"layer_mapping"`
	UnmappedLayers     []UnmappedEntry     `json:"unmapped_layers"`
	MappingQuality     MappingQuality      `json:"mapping_quality"`
	AttachmentsSummary AttachmentsSummary  `json:"attachments_summary"`
	Toolbox            *aprx.Toolbox       `json:"toolbox"`
	Quality            Quality             `json:"quality"`
	Aliases            map[string][]string `json:"aliases"`
}

// Layer returns the entry with the given layer id.
func (m *Manifest) Layer(id string) (*Layer, bool) {
	for i := range m.Layers {
		if m.Layers[i].LayerID == id {
			return &m.Layers[i], true
		}
	}
	return nil, false
}

// Project describes the ingested project.
type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	SourceFiles SourceFiles `json:"source_files"`
	Map         Map         `json:"map"`
}

// SourceFiles names the input files; absent inputs are null.
type SourceFiles struct {
	GDB  *string `json:"gdb"`
	APRX *string `json:"aprx"`
	ATBX *string `json:"atbx"`
}

// Map carries map-level metadata. Name is set only when a project archive
// was supplied.
type Map struct {
	Name            *string        `json:"name,omitempty"`
	PrimaryCRS      string         `json:"primary_crs,omitempty"`
	DatumTransforms []string       `json:"datum_transforms,omitempty"`
	Basemaps        []string       `json:"basemaps,omitempty"`
	LayerOrder      []string       `json:"layer_order,omitempty"`
	ExtentWGS84     *crs.GeoBounds `json:"extent_wgs84,omitempty"`
}

// Group lists the datasets of one layer group.
type Group struct {
	Name   string
	Layers []string
}

// Groups is an ordered set of groups, encoded as a JSON object keyed by
// group name.
type Groups []Group

// MarshalJSON writes the groups as {"name": {"layers": [...]}} in order.
func (g Groups) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, grp := range g {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(grp.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(groupBody{Layers: grp.Layers})
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON reads the object form, keeping document order.
func (g *Groups) UnmarshalJSON(data []byte) error {
	var pairs []struct {
		Key   string
		Value groupBody
	}
	if err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var body groupBody
		if err := json.Unmarshal(raw, &body); err != nil {
			return err
		}
		pairs = append(pairs, struct {
			Key   string
			Value groupBody
		}{key, body})
		return nil
	}); err != nil {
		return err
	}
	out := make(Groups, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Group{Name: p.Key, Layers: p.Value.Layers})
	}
	*g = out
	return nil
}

type groupBody struct {
	Layers []string `json:"layers"`
}

// Layer is one catalog entry.
type Layer struct {
	LayerID           string            `json:"layer_id"`
	DisplayName       string            `json:"display_name"`
	DisplayNameSource provenance.Source `json:"display_name_source"`
	NeedsReview       bool              `json:"needs_review,omitempty"`
	Group             string            `json:"group,omitempty"`
	FeatureDataset    string            `json:"feature_dataset,omitempty"`
	Units             string            `json:"units,omitempty"`
	GeometryType      string            `json:"geometry_type,omitempty"`
	FeatureCount      int               `json:"feature_count"`
	CRSEPSG           int               `json:"crs_epsg,omitempty"`
	ExtentWGS84       *crs.GeoBounds    `json:"extent_wgs84,omitempty"`
	IsLarge           bool              `json:"is_large"`
	Fields            []Field           `json:"fields"`
	Attachments       *Attachments      `json:"attachments,omitempty"`
	Source            Source            `json:"source"`
	// Project-archive presentation settings.
	VisibilityInProject *bool  `json:"visibility_in_project,omitempty"`
	DisplayField        string `json:"display_field,omitempty"`
	LabelExpression     string `json:"label_expression,omitempty"`
}

// Field is a profiled attribute column with its optional display alias.
type Field struct {
	Name        string        `json:"name"`
	DType       string        `json:"dtype"`
	NullCount   int           `json:"nulls,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Mean        *float64      `json:"mean,omitempty"`
	Std         *float64      `json:"std,omitempty"`
	UniqueCount *int          `json:"unique_count,omitempty"`
	TopValues   gdb.Histogram `json:"top_values,omitempty"`
	Alias       string        `json:"alias,omitempty"`
}

// Attachments points a layer at its attachment table.
type Attachments struct {
	Table        string         `json:"table"`
	Count        int            `json:"count"`
	LinkField    string         `json:"link_field"`
	ContentTypes map[string]int `json:"content_types"`
}

// Source records which inputs describe a layer.
type Source struct {
	FromGDB  bool   `json:"from_gdb"`
	FromAPRX bool   `json:"from_aprx"`
	APRXFile string `json:"aprx_file,omitempty"`
}

// MappingEntry is one row of the debug mapping. Absent values are null.
type MappingEntry struct {
	DatasetName         string            `json:"dataset_name"`
	DisplayName         string            `json:"display_name"`
	DisplayNameSource   provenance.Source `json:"display_name_source"`
	Group               *string           `json:"group"`
	FeatureDataset      *string           `json:"feature_dataset"`
	Description         *string           `json:"description"`
	Units               *string           `json:"units"`
	APRXFile            *string           `json:"aprx_file"`
	APRXVisibility      *bool             `json:"aprx_visibility"`
	APRXDisplayField    *string           `json:"aprx_display_field"`
	APRXLabelExpression *string           `json:"aprx_label_expression"`
}

// UnmappedEntry is a layer that kept its technical name.
type UnmappedEntry struct {
	DatasetName       string            `json:"dataset_name"`
	Reason            string            `json:"reason"`
	DisplayName       string            `json:"display_name"`
	DisplayNameSource provenance.Source `json:"display_name_source"`
	NeedsReview       bool              `json:"needs_review"`
}

// MappingQuality counts resolutions per source.
type MappingQuality struct {
	TotalGDBLayers     int     `json:"total_gdb_layers"`
	MappedFromAPRX     int     `json:"mapped_from_aprx"`
	MappedFromDict     int     `json:"mapped_from_dict"`
	MappedFromInferred int     `json:"mapped_from_inferred"`
	NeedsReview        int     `json:"needs_review"`
	CoveragePercent    float64 `json:"coverage_percent"`
	HasGroups          bool    `json:"has_groups"`
	GroupsCount        int     `json:"groups_count"`
}

// AttachmentsSummary aggregates every attachment table.
type AttachmentsSummary struct {
	Total        int            `json:"total"`
	Tables       []string       `json:"tables"`
	ContentTypes map[string]int `json:"content_types"`
	Extractable  bool           `json:"extractable"`
}

// Quality is the serialized quality report.
type Quality struct {
	LayersTotal              int      `json:"layers_total"`
	LayersNonEmpty           int      `json:"layers_non_empty"`
	LayersWithDisplayName    int      `json:"layers_with_display_name"`
	LayersWithUnknownMeaning int      `json:"layers_with_unknown_meaning"`
	AttachmentsExtractable   bool     `json:"attachments_extractable"`
	CRSConsistent            bool     `json:"crs_consistent"`
	PrimaryCRS               *string  `json:"primary_crs"`
	Has3DLayers              bool     `json:"has_3d_layers"`
	HasRasters               bool     `json:"has_rasters"`
	MetadataCompleteness     string   `json:"metadata_completeness"`
	Warnings                 []string `json:"warnings"`
}

// MappingDocument is the standalone mapping document stored next to the manifest.
type MappingDocument struct {
	LayerMapping   []MappingEntry  `json:"layer_mapping"`
	UnmappedLayers []UnmappedEntry `json:"unmapped_layers"`
	MappingQuality MappingQuality  `json:"mapping_quality"`
}

// ProjectSummary is a project's registry entry.
type ProjectSummary struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	CreatedAt            string  `json:"created_at"`
	LayersCount          int     `json:"layers_count"`
	HasAttachments       bool    `json:"has_attachments"`
	GDBFile              *string `json:"gdb_file"`
	PrimaryCRS           *string `json:"primary_crs"`
	MetadataCompleteness string  `json:"metadata_completeness"`
}

// DebugMapping extracts the debug mapping from a manifest.
func DebugMapping(m *Manifest) MappingDocument {
	return MappingDocument{
		LayerMapping:   m.LayerMapping,
		UnmappedLayers: m.UnmappedLayers,
		MappingQuality: m.MappingQuality,
	}
}

// Summary derives the registry entry of a manifest.
func Summary(m *Manifest) ProjectSummary {
	return ProjectSummary{
		ID:                   m.Project.ID,
		Name:                 m.Project.Name,
		CreatedAt:            m.GeneratedAt,
		LayersCount:          m.Quality.LayersTotal,
		HasAttachments:       m.AttachmentsSummary.Total > 0,
		GDBFile:              m.Project.SourceFiles.GDB,
		PrimaryCRS:           m.Quality.PrimaryCRS,
		MetadataCompleteness: m.Quality.MetadataCompleteness,
	}
}
