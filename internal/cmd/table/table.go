// Package table converts catalog data into rows for CLI tables.
package table

import (
	"strconv"

	"github.com/agentstation/geomanifest/internal/utils/ptr"
	"github.com/agentstation/geomanifest/pkg/manifest"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// ProjectsToTableData converts registry entries to table format.
func ProjectsToTableData(projects []manifest.ProjectSummary) Data {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			strconv.Itoa(p.LayersCount),
			yesNo(p.HasAttachments),
			ptr.Deref(p.PrimaryCRS),
			p.MetadataCompleteness,
			p.CreatedAt,
		})
	}
	return Data{
		Headers: []string{"ID", "Name", "Layers", "Attachments", "CRS", "Completeness", "Created"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft, AlignLeft, AlignRight, AlignCenter, AlignLeft, AlignLeft, AlignLeft,
		},
	}
}

// LayersToTableData converts the layers of a manifest to table format.
func LayersToTableData(m *manifest.Manifest) Data {
	rows := make([][]string, 0, len(m.Layers))
	for _, l := range m.Layers {
		review := ""
		if l.NeedsReview {
			review = "!"
		}
		rows = append(rows, []string{
			l.LayerID,
			l.DisplayName,
			l.DisplayNameSource.String(),
			review,
			l.Group,
			l.GeometryType,
			strconv.Itoa(l.FeatureCount),
		})
	}
	return Data{
		Headers: []string{"Layer", "Display Name", "Source", "Review", "Group", "Geometry", "Features"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft, AlignLeft, AlignLeft, AlignCenter, AlignLeft, AlignLeft, AlignRight,
		},
	}
}

// SummaryToTableData renders the headline figures of a manifest as
// key/value rows.
func SummaryToTableData(m *manifest.Manifest) Data {
	return Data{
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Project", m.Project.ID},
			{"Name", m.Project.Name},
			{"Map", ptr.Deref(m.Project.Map.Name)},
			{"Layers", strconv.Itoa(len(m.Layers))},
			{"Coverage", strconv.FormatFloat(m.MappingQuality.CoveragePercent, 'f', 1, 64) + "%"},
			{"Needs review", strconv.Itoa(m.MappingQuality.NeedsReview)},
			{"Completeness", m.Quality.MetadataCompleteness},
			{"Warnings", strconv.Itoa(len(m.Quality.Warnings))},
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
