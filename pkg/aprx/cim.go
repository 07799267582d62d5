package aprx

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// CIM document types the parser understands.
const (
	TypeFeatureLayer    = "CIMFeatureLayer"
	TypeRasterLayer     = "CIMRasterLayer"
	TypeAGSSubLayer     = "CIMAGSSubLayer"
	TypeStandaloneTable = "CIMStandaloneTable"
	TypeGroupLayer      = "CIMGroupLayer"
	TypeMap             = "CIMMap"
)

const cimPathPrefix = "CIMPATH="

// Document is one decoded CIM JSON document. The concrete type is one of
// *LayerDocument, *GroupDocument, *MapDocument or *UnknownDocument.
type Document interface {
	CIMType() string
}

// DataConnection points a layer at its dataset in the feature database.
type DataConnection struct {
	Dataset        string `json:"dataset"`
	FeatureDataset string `json:"featureDataset"`
}

// FieldDescription is a per-field display override.
type FieldDescription struct {
	FieldName string `json:"fieldName"`
	Alias     string `json:"alias"`
}

// FeatureTable is the table block of a feature layer.
type FeatureTable struct {
	DataConnection    *DataConnection    `json:"dataConnection"`
	DisplayField      string             `json:"displayField"`
	FieldDescriptions []FieldDescription `json:"fieldDescriptions"`
}

// LabelClass is one labeling rule.
type LabelClass struct {
	Expression string `json:"expression"`
}

// LayerDocument is a data-bearing layer or standalone table.
type LayerDocument struct {
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Visibility     *bool           `json:"visibility"`
	LayerType      string          `json:"layerType"`
	DisplayField   string          `json:"displayField"`
	DataConnection *DataConnection `json:"dataConnection"`
	FeatureTable   *FeatureTable   `json:"featureTable"`
	LabelClasses   []LabelClass    `json:"labelClasses"`
}

// CIMType implements Document.
func (d *LayerDocument) CIMType() string { return d.Type }

// Connection returns the feature-table connection, falling back to the
// layer-level one.
func (d *LayerDocument) Connection() DataConnection {
	if d.FeatureTable != nil && d.FeatureTable.DataConnection != nil && d.FeatureTable.DataConnection.Dataset != "" {
		return *d.FeatureTable.DataConnection
	}
	if d.DataConnection != nil {
		return *d.DataConnection
	}
	return DataConnection{}
}

// Visible reports the layer's visibility; absent means visible.
func (d *LayerDocument) Visible() bool {
	return d.Visibility == nil || *d.Visibility
}

// Field returns the configured display field.
func (d *LayerDocument) Field() string {
	if d.FeatureTable != nil && d.FeatureTable.DisplayField != "" {
		return d.FeatureTable.DisplayField
	}
	return d.DisplayField
}

// LabelExpression returns the first label class expression.
func (d *LayerDocument) LabelExpression() string {
	if len(d.LabelClasses) == 0 {
		return ""
	}
	return d.LabelClasses[0].Expression
}

// FieldAliases returns field-name to alias pairs whose alias differs from
// the field name.
func (d *LayerDocument) FieldAliases() map[string]string {
	aliases := map[string]string{}
	if d.FeatureTable == nil {
		return aliases
	}
	for _, fd := range d.FeatureTable.FieldDescriptions {
		if fd.FieldName != "" && fd.Alias != "" && fd.Alias != fd.FieldName {
			aliases[fd.FieldName] = fd.Alias
		}
	}
	return aliases
}

// GroupDocument is a group layer referencing member documents.
type GroupDocument struct {
	Name   string            `json:"name"`
	Layers []json.RawMessage `json:"layers"`
}

// CIMType implements Document.
func (d *GroupDocument) CIMType() string { return TypeGroupLayer }

// Members returns the archive paths of the referenced documents.
func (d *GroupDocument) Members() []string { return memberPaths(d.Layers) }

// MapDocument is a map definition.
type MapDocument struct {
	Name            string            `json:"name"`
	Layers          []json.RawMessage `json:"layers"`
	DatumTransforms []json.RawMessage `json:"datumTransforms"`
}

// CIMType implements Document.
func (d *MapDocument) CIMType() string { return TypeMap }

// Members returns the archive paths of the top-level map layers in display order.
func (d *MapDocument) Members() []string { return memberPaths(d.Layers) }

// Transforms returns the datum transformation names. An entry is either a
// plain string or an object listing geoTransforms.
func (d *MapDocument) Transforms() []string {
	var names []string
	for _, raw := range d.DatumTransforms {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if s != "" {
				names = append(names, s)
			}
			continue
		}
		var entry struct {
			GeoTransforms []json.RawMessage `json:"geoTransforms"`
		}
		if json.Unmarshal(raw, &entry) != nil {
			continue
		}
		for _, g := range entry.GeoTransforms {
			var gt struct {
				GeoTransformation *struct {
					Name string `json:"name"`
				} `json:"geoTransformation"`
				Name string `json:"name"`
			}
			if json.Unmarshal(g, &gt) != nil {
				continue
			}
			switch {
			case gt.GeoTransformation != nil && gt.GeoTransformation.Name != "":
				names = append(names, gt.GeoTransformation.Name)
			case gt.Name != "":
				names = append(names, gt.Name)
			}
		}
	}
	return names
}

// UnknownDocument is any other CIM document.
type UnknownDocument struct {
	Type string
}

// CIMType implements Document.
func (d *UnknownDocument) CIMType() string { return d.Type }

// Decode dispatches a CIM JSON document on its "type" field.
func Decode(data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}

	var doc Document
	switch head.Type {
	case TypeFeatureLayer, TypeRasterLayer, TypeAGSSubLayer, TypeStandaloneTable:
		doc = &LayerDocument{}
	case TypeGroupLayer:
		doc = &GroupDocument{}
	case TypeMap:
		doc = &MapDocument{}
	default:
		return &UnknownDocument{Type: head.Type}, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return doc, nil
}

func memberPaths(refs []json.RawMessage) []string {
	var out []string
	for _, raw := range refs {
		var ref string
		if json.Unmarshal(raw, &ref) != nil {
			continue
		}
		if p, ok := strings.CutPrefix(ref, cimPathPrefix); ok {
			out = append(out, p)
		}
	}
	return out
}
