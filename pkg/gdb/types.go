// Package gdb profiles feature databases: it enumerates layers, separates
// attachment tables, records schema, feature counts, coordinate reference
// systems and extents, and computes attribute statistics for layers below
// the large-layer threshold.
//
// The on-disk format is hidden behind the Reader interface; each layer is
// profiled in isolation and reported as a LayerResult, so a single broken
// layer degrades to a minimal profile instead of failing the run.
package gdb

import (
	"github.com/agentstation/geomanifest/pkg/crs"
	"github.com/agentstation/geomanifest/pkg/errors"
)

// FieldProfile describes one attribute column.
type FieldProfile struct {
	Name      string `json:"name"`
	DType     string `json:"dtype"`
	NullCount int    `json:"nulls,omitempty"`

	// Numeric statistics over non-null values.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty"`
	Std  *float64 `json:"std,omitempty"`

	// Categorical statistics over non-null values.
	UniqueCount *int      `json:"unique_count,omitempty"`
	TopValues   Histogram `json:"top_values,omitempty"`
}

// LayerProfile describes one database layer or table.
type LayerProfile struct {
	LayerID string `json:"layer_id"`
	// GeometryType is empty for non-spatial tables.
	GeometryType      string         `json:"geometry_type,omitempty"`
	FeatureCount      int            `json:"feature_count"`
	CRSEPSG           int            `json:"crs_epsg,omitempty"`
	CRSDefinition     string         `json:"crs_wkt,omitempty"`
	ExtentNative      *crs.Bounds    `json:"extent_native,omitempty"`
	ExtentWGS84       *crs.GeoBounds `json:"extent_wgs84,omitempty"`
	Fields            []FieldProfile `json:"fields"`
	IsAttachmentTable bool           `json:"is_attachment_table"`
	IsLarge           bool           `json:"is_large"`
}

// IsSpatial reports whether the layer carries geometry.
func (lp *LayerProfile) IsSpatial() bool {
	return lp.GeometryType != ""
}

// FieldNames returns the names of the profiled fields in schema order.
func (lp *LayerProfile) FieldNames() []string {
	names := make([]string, len(lp.Fields))
	for i, f := range lp.Fields {
		names[i] = f.Name
	}
	return names
}

// AttachmentRecord is one row of an attachment table.
type AttachmentRecord struct {
	Index       int    `json:"index"`
	Name        string `json:"att_name"`
	ContentType string `json:"content_type"`
	DataSize    int64  `json:"data_size"`
	RelGlobalID string `json:"rel_globalid,omitempty"`
	HasData     bool   `json:"has_data"`
}

// AttachmentTable groups the attachments stored for one parent layer.
type AttachmentTable struct {
	TableName        string             `json:"table_name"`
	ParentLayer      string             `json:"parent_layer"`
	TotalAttachments int                `json:"total_attachments"`
	Attachments      []AttachmentRecord `json:"attachments"`
}

// ContentTypes counts attachments per declared content type; an empty
// type is counted as "unknown".
func (t *AttachmentTable) ContentTypes() map[string]int {
	counts := make(map[string]int)
	for _, a := range t.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "unknown"
		}
		counts[ct]++
	}
	return counts
}

// LayerResult is the outcome of profiling a single layer. Profile is always
// usable; Err is set when the profile is degraded.
type LayerResult struct {
	Profile LayerProfile
	Err     *errors.ProfileError
}

// OK reports whether the layer was profiled without degradation.
func (r LayerResult) OK() bool {
	return r.Err == nil
}

// Database is the profile of a whole feature database.
type Database struct {
	// Layers lists every layer in enumeration order, followed by the
	// attachment tables flagged IsAttachmentTable.
	Layers           []LayerProfile
	AttachmentTables []AttachmentTable
	// Results holds the per-layer outcomes behind Layers.
	Results []LayerResult
}

// Layer returns the profile with the given id.
func (d *Database) Layer(id string) (*LayerProfile, bool) {
	for i := range d.Layers {
		if d.Layers[i].LayerID == id {
			return &d.Layers[i], true
		}
	}
	return nil, false
}

// FeatureLayers returns the layers that are not attachment tables.
func (d *Database) FeatureLayers() []LayerProfile {
	out := make([]LayerProfile, 0, len(d.Layers))
	for _, lp := range d.Layers {
		if !lp.IsAttachmentTable {
			out = append(out, lp)
		}
	}
	return out
}

// AttachmentTableFor returns the attachment table whose parent is layerID.
func (d *Database) AttachmentTableFor(layerID string) (*AttachmentTable, bool) {
	for i := range d.AttachmentTables {
		if d.AttachmentTables[i].ParentLayer == layerID {
			return &d.AttachmentTables[i], true
		}
	}
	return nil, false
}

// Degraded returns the errors of every degraded layer.
func (d *Database) Degraded() []*errors.ProfileError {
	var out []*errors.ProfileError
	for _, r := range d.Results {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}
