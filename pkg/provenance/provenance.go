// Package provenance records where each layer's display name came from.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// Source identifies the strategy that produced a display name.
type Source string

// Display-name sources, strongest first.
const (
	SourceArchive  Source = "aprx"
	SourceDict     Source = "dict"
	SourceInferred Source = "inferred"
	SourceGDBOnly  Source = "gdb_only"
)

// Sources lists every source in rank order.
var Sources = []Source{SourceArchive, SourceDict, SourceInferred, SourceGDBOnly}

// String returns the source tag.
func (s Source) String() string { return string(s) }

// Confidence is the fixed confidence of a source.
func (s Source) Confidence() float64 {
	switch s {
	case SourceArchive:
		return 1.0
	case SourceDict:
		return 0.8
	case SourceInferred:
		return 0.5
	default:
		return 0.0
	}
}

// HasDisplayName reports whether the source yields a human-meaningful name.
func (s Source) HasDisplayName() bool {
	return s == SourceArchive || s == SourceDict || s == SourceInferred
}

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource parses a source tag.
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	if !src.IsValid() {
		return "", errors.NewValidationError("source", s, "unknown display name source")
	}
	return src, nil
}

// Provenance is one candidate value offered for a layer field.
type Provenance struct {
	Source     Source  `json:"source" yaml:"source"`
	Field      string  `json:"field" yaml:"field"`
	Value      string  `json:"value" yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Reason     string  `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Selected marks the candidate that was used.
	Selected bool `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// Map tracks provenance for multiple layers.
type Map map[string][]Provenance // key is "layerID:field"

// Tracker records provenance while layers are resolved.
type Tracker interface {
	// Track records a candidate for a layer field
	Track(layerID, field string, p Provenance)

	// FindByField returns the candidates recorded for a layer field in the order tracked
	FindByField(layerID, field string) []Provenance

	// FindByLayer returns every field of a layer
	FindByLayer(layerID string) map[string][]Provenance

	// Map returns a copy of everything recorded
	Map() Map

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

func (p *tracker) Track(layerID, field string, history Provenance) {
	if !p.enabled {
		return
	}
	if history.Field == "" {
		history.Field = field
	}
	if history.Confidence == 0 {
		history.Confidence = history.Source.Confidence()
	}
	key := makeKey(layerID, field)
	p.provenance[key] = append(p.provenance[key], history)
}

func (p *tracker) FindByField(layerID, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(layerID, field)]
}

func (p *tracker) FindByLayer(layerID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	for key, info := range p.provenance {
		id, field := splitKey(key)
		if id == layerID {
			result[field] = info
		}
	}
	return result
}

func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

func (p *tracker) Clear() {
	p.provenance = make(Map)
}

func makeKey(layerID, field string) string {
	return layerID + ":" + field
}

// splitKey splits on the last colon so layer ids may contain colons.
func splitKey(key string) (layerID, field string) {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}

// Report is a per-layer view of a Map.
type Report struct {
	Layers map[string]LayerProvenance `json:"layers"`
}

// LayerProvenance holds the fields of one layer.
type LayerProvenance struct {
	ID     string           `json:"layer_id"`
	Fields map[string]Field `json:"fields"`
}

// Field is the provenance of one field.
type Field struct {
	Current Provenance `json:"current"`
	// Candidates lists every value offered, strongest first.
	Candidates []Provenance `json:"candidates"`
	// Conflicts lists the candidates that disagree with Current.
	Conflicts []Provenance `json:"conflicts,omitempty"`
}

// GenerateReport groups a Map by layer and picks the current value of
// each field: the selected candidate, else the most confident one.
func GenerateReport(provenance Map) *Report {
	report := &Report{Layers: make(map[string]LayerProvenance)}

	for key, infos := range provenance {
		layerID, field := splitKey(key)
		if field == "" {
			continue
		}

		layer, ok := report.Layers[layerID]
		if !ok {
			layer = LayerProvenance{ID: layerID, Fields: make(map[string]Field)}
		}

		sorted := append([]Provenance{}, infos...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Confidence > sorted[j].Confidence
		})

		f := Field{Candidates: sorted}
		if len(sorted) > 0 {
			f.Current = sorted[0]
			for _, c := range sorted {
				if c.Selected {
					f.Current = c
					break
				}
			}
		}
		for _, c := range sorted {
			if c.Value != f.Current.Value {
				f.Conflicts = append(f.Conflicts, c)
			}
		}

		layer.Fields[field] = f
		report.Layers[layerID] = layer
	}

	return report
}

// String renders the report with layers and fields in sorted order.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	ids := make([]string, 0, len(r.Layers))
	for id := range r.Layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		layer := r.Layers[id]
		sb.WriteString(fmt.Sprintf("layer: %s\n", layer.ID))
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		fields := make([]string, 0, len(layer.Fields))
		for f := range layer.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, name := range fields {
			f := layer.Fields[name]
			sb.WriteString(fmt.Sprintf("  %s: %q (from %s, confidence %.1f)\n",
				name, f.Current.Value, f.Current.Source, f.Current.Confidence))
			for _, c := range f.Conflicts {
				sb.WriteString(fmt.Sprintf("    also: %q from %s\n", c.Value, c.Source))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// File is the on-disk provenance document.
type File struct {
	Provenance Map `yaml:"provenance"`
}

// Marshal encodes the map as a YAML provenance document.
func Marshal(m Map) ([]byte, error) {
	return yaml.Marshal(File{Provenance: m})
}

// Load reads a provenance document. A missing file yields nil, nil.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &pf, nil
}
