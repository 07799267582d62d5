package gdb

import (
	"context"

	"github.com/agentstation/geomanifest/pkg/crs"
)

// Record is one row of a layer keyed by column name. Values are nil,
// int64, float64, bool, string, []byte or time.Time.
type Record map[string]any

// Column is a declared attribute column.
type Column struct {
	Name string
	// Type is the reader's declared type, normalized later by NormalizeType.
	Type string
}

// LayerInfo is the schema-level description of one layer.
type LayerInfo struct {
	Name string
	// GeometryType is the reader's geometry name; empty for plain tables.
	GeometryType string
	HasZ         bool
	FeatureCount int
	CRS          crs.Definition
	// Bounds is nil when the reader has no extent for the layer.
	Bounds  *crs.Bounds
	Columns []Column
}

// LayerSource gives access to one opened layer.
type LayerSource interface {
	Info() LayerInfo
	// Records streams every row. Returning an error from fn stops iteration
	// and is returned unchanged.
	Records(ctx context.Context, fn func(Record) error) error
}

// Reader enumerates and opens the layers of a feature database.
type Reader interface {
	Layers(ctx context.Context) ([]string, error)
	Layer(ctx context.Context, name string) (LayerSource, error)
	Close() error
}

// Opener opens a feature database at path.
type Opener func(ctx context.Context, path string) (Reader, error)
