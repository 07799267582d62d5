package aprx

import (
	"encoding/json"
	"path"
	"sort"
	"strings"
)

// Tool is one geoprocessing tool of a toolbox.
type Tool struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// Toolbox summarizes a toolbox archive.
type Toolbox struct {
	Name  string `json:"name,omitempty"`
	Alias string `json:"alias,omitempty"`
	Tools []Tool `json:"tools"`
}

const (
	toolboxContent = "toolbox.content"
	toolContent    = "tool.content"
	toolSuffix     = ".tool"
)

type contentDoc struct {
	Alias       string `json:"alias"`
	DisplayName string `json:"displayname"`
}

// ParseToolbox lists the tools of the toolbox archive at path. Tools are
// the "<Name>.tool/" directories of the archive, sorted by name.
func ParseToolbox(p string) (*Toolbox, error) {
	zr, err := openArchive(p)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	tb := &Toolbox{Tools: []Tool{}}
	tools := map[string]*Tool{}

	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, "/")
		dir, base := path.Split(name)
		dir = strings.TrimSuffix(dir, "/")

		if strings.EqualFold(name, toolboxContent) {
			var doc contentDoc
			if data, err := readMember(f); err == nil && json.Unmarshal(data, &doc) == nil {
				tb.Name = cleanName(doc.DisplayName)
				tb.Alias = strings.TrimSpace(doc.Alias)
			}
			continue
		}

		// A tool shows up as its directory entry, as files inside it, or both.
		toolDir := ""
		switch {
		case f.FileInfo().IsDir() && strings.HasSuffix(base, toolSuffix) && !strings.Contains(dir, "/"):
			toolDir = name
		case strings.HasSuffix(dir, toolSuffix) && !strings.Contains(dir, "/"):
			toolDir = dir
		default:
			continue
		}

		t, ok := tools[toolDir]
		if !ok {
			t = &Tool{Name: strings.TrimSuffix(toolDir, toolSuffix)}
			tools[toolDir] = t
		}
		if base == toolContent && !f.FileInfo().IsDir() {
			var doc contentDoc
			if data, err := readMember(f); err == nil && json.Unmarshal(data, &doc) == nil {
				t.DisplayName = cleanName(doc.DisplayName)
			}
		}
	}

	for _, t := range tools {
		tb.Tools = append(tb.Tools, *t)
	}
	sort.Slice(tb.Tools, func(i, j int) bool { return tb.Tools[i].Name < tb.Tools[j].Name })
	return tb, nil
}
