package table

import (
	"fmt"
	"sort"

	"github.com/agentstation/geomanifest/pkg/provenance"
)

// ProvenanceToTableData converts recorded candidates to table format.
// Keys are sorted; the candidates of one key keep their rank order and the
// selected one is marked with an arrow.
func ProvenanceToTableData(m provenance.Map) Data {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][]string
	for _, key := range keys {
		for i, entry := range m[key] {
			name := ""
			if i == 0 {
				name = key
			}
			selected := ""
			if entry.Selected {
				selected = "→"
			}
			rows = append(rows, []string{
				name,
				selected,
				entry.Source.String(),
				entry.Value,
				fmt.Sprintf("%.0f%%", entry.Confidence*100),
				entry.Reason,
			})
		}
	}

	return Data{
		Headers:         []string{"Field", "", "Source", "Value", "Confidence", "Reason"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignCenter, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
}
