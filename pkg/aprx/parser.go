// Package aprx reads ArcGIS Pro project archives.
//
// A project archive is a zip of CIM JSON documents. Parse visits every
// JSON member in archive order, decodes it by its "type" field and
// collects the dataset-to-display-name mapping, group membership, map
// metadata and basemaps. Member file names are unreliable (exports
// sometimes mangle them), so documents are recognized by content only.
package aprx

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/logging"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// LayerMapping links a database dataset to its presentation in the project.
type LayerMapping struct {
	DatasetName     string
	DisplayName     string
	Group           string
	FeatureDataset  string
	Units           string
	Description     string
	Visibility      bool
	DisplayField    string
	LabelExpression string
	FieldAliases    map[string]string
	// LayerType is the CIM layerType, e.g. "Operational" or "BasemapBackground".
	LayerType string
	// ArchiveFile is the member path of the layer document.
	ArchiveFile string
}

// Project is the parsed content of a project archive.
type Project struct {
	MapName string
	// Layers holds one mapping per dataset; the first document naming a
	// dataset wins. Order follows the archive.
	Layers []LayerMapping
	// Groups maps a group name to its member dataset names.
	Groups map[string][]string
	// GroupOrder lists group names in first-seen order.
	GroupOrder      []string
	DatumTransforms []string
	Basemaps        []string
	// LayerOrder lists dataset names in map display order, top to bottom,
	// with nested groups expanded.
	LayerOrder []string
}

// Layer returns the mapping for a dataset name, compared exactly.
func (p *Project) Layer(dataset string) (*LayerMapping, bool) {
	for i := range p.Layers {
		if p.Layers[i].DatasetName == dataset {
			return &p.Layers[i], true
		}
	}
	return nil, false
}

var mapDocumentPath = regexp.MustCompile(`(?i)^map/map\.json$`)

const projectDocument = "gisproject.json"

// Parse reads the project archive at path. A missing file or a file that
// is not a zip archive is an error; unreadable or malformed members are
// skipped.
func Parse(ctx context.Context, path string, opts ...Option) (*Project, error) {
	o := defaults()
	for _, opt := range opts {
		opt(o)
	}
	if o.Vocabulary == nil {
		o.Vocabulary = vocab.Default()
	}
	if err := o.compile(); err != nil {
		return nil, errors.WrapValidation("skip_names", err)
	}

	zr, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	logger := logging.FromContext(ctx)
	b := newBuilder(o.Vocabulary)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapResource("parse", "archive", path, errors.ErrCanceled)
		}
		if f.FileInfo().IsDir() || !isJSONMember(f.Name) {
			continue
		}

		preferredMap := mapDocumentPath.MatchString(f.Name)
		if strings.EqualFold(f.Name, projectDocument) {
			data, err := readMember(f)
			if err == nil {
				b.basemaps(data)
			}
			continue
		}
		if !preferredMap && (o.skip(f.Name) || o.tooLarge(f.UncompressedSize64)) {
			continue
		}

		data, err := readMember(f)
		if err != nil {
			logger.Debug().Err(err).Str("member", f.Name).Msg("skipping unreadable archive member")
			continue
		}
		doc, err := Decode(data)
		if err != nil {
			logger.Debug().Err(err).Str("member", f.Name).Msg("skipping malformed archive member")
			continue
		}
		b.add(f.Name, doc, preferredMap)
	}

	p := b.project()
	logger.Debug().
		Int("layers", len(p.Layers)).
		Int("groups", len(p.Groups)).
		Str("map", p.MapName).
		Msg("parsed project archive")
	return p, nil
}

// Member is a JSON document stored in a project archive.
type Member struct {
	Name string
	Data []byte
}

// Members returns every JSON member of the archive at path, in archive order.
func Members(path string) ([]Member, error) {
	zr, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []Member
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isJSONMember(f.Name) {
			continue
		}
		data, err := readMember(f)
		if err != nil {
			return nil, errors.WrapIO("read", path+"!"+f.Name, err)
		}
		out = append(out, Member{Name: f.Name, Data: data})
	}
	return out, nil
}

func openArchive(path string) (*zip.ReadCloser, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("archive", path)
		}
		return nil, errors.WrapIO("stat", path, err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.NewParseError("zip", path, "not a zip archive", err)
	}
	return zr, nil
}

func isJSONMember(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// cleanName trims and NFC-normalizes a display name.
func cleanName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

type groupEntry struct {
	file string
	doc  *GroupDocument
}

type builder struct {
	vocab *vocab.Vocabulary

	order     []string
	byDataset map[string]*LayerMapping
	byFile    map[string]*LayerMapping
	groups    []groupEntry
	groupDocs map[string]*GroupDocument

	mapDoc       *MapDocument
	mapPreferred bool
	basemapNames []string
}

func newBuilder(v *vocab.Vocabulary) *builder {
	return &builder{
		vocab:     v,
		byDataset: map[string]*LayerMapping{},
		byFile:    map[string]*LayerMapping{},
		groupDocs: map[string]*GroupDocument{},
	}
}

func (b *builder) add(file string, doc Document, preferredMap bool) {
	switch d := doc.(type) {
	case *LayerDocument:
		lm := b.layer(file, d)
		if lm == nil {
			return
		}
		if _, ok := b.byDataset[lm.DatasetName]; !ok {
			b.byDataset[lm.DatasetName] = lm
			b.order = append(b.order, lm.DatasetName)
		}
		b.byFile[file] = lm
	case *GroupDocument:
		b.groups = append(b.groups, groupEntry{file: file, doc: d})
		b.groupDocs[file] = d
	case *MapDocument:
		switch {
		case preferredMap && !b.mapPreferred:
			b.mapDoc, b.mapPreferred = d, true
		case b.mapDoc == nil:
			b.mapDoc = d
		}
	}
}

func (b *builder) layer(file string, d *LayerDocument) *LayerMapping {
	name := cleanName(d.Name)
	conn := d.Connection()
	if name == "" || conn.Dataset == "" {
		return nil
	}
	return &LayerMapping{
		DatasetName:     conn.Dataset,
		DisplayName:     name,
		FeatureDataset:  conn.FeatureDataset,
		Units:           b.vocab.Units(name),
		Description:     d.Description,
		Visibility:      d.Visible(),
		DisplayField:    d.Field(),
		LabelExpression: d.LabelExpression(),
		FieldAliases:    d.FieldAliases(),
		LayerType:       d.LayerType,
		ArchiveFile:     file,
	}
}

func (b *builder) basemaps(data []byte) {
	var doc struct {
		Basemaps []json.RawMessage `json:"basemaps"`
	}
	if json.Unmarshal(data, &doc) != nil {
		return
	}
	for _, raw := range doc.Basemaps {
		var item struct {
			Name            string `json:"name"`
			MapServiceLayer struct {
				URL string `json:"url"`
			} `json:"mapServiceLayer"`
		}
		if json.Unmarshal(raw, &item) != nil {
			continue
		}
		switch {
		case item.Name != "":
			b.basemapNames = append(b.basemapNames, item.Name)
		case item.MapServiceLayer.URL != "":
			b.basemapNames = append(b.basemapNames, item.MapServiceLayer.URL)
		}
	}
}

func (b *builder) project() *Project {
	p := &Project{
		Groups:   map[string][]string{},
		Basemaps: b.basemapNames,
	}

	for _, g := range b.groups {
		name := cleanName(g.doc.Name)
		if name == "" {
			continue
		}
		var members []string
		for _, ref := range g.doc.Members() {
			if lm, ok := b.byFile[ref]; ok {
				lm.Group = name
				members = append(members, lm.DatasetName)
			}
		}
		if len(members) == 0 {
			continue
		}
		if _, seen := p.Groups[name]; !seen {
			p.GroupOrder = append(p.GroupOrder, name)
		}
		p.Groups[name] = members
	}

	if b.mapDoc != nil {
		p.MapName = cleanName(b.mapDoc.Name)
		p.DatumTransforms = dedupe(b.mapDoc.Transforms())
		visited := map[string]bool{}
		for _, ref := range b.mapDoc.Members() {
			p.LayerOrder = b.expand(ref, visited, p.LayerOrder)
		}
	}

	p.Layers = make([]LayerMapping, 0, len(b.order))
	for _, ds := range b.order {
		p.Layers = append(p.Layers, *b.byDataset[ds])
	}
	return p
}

// expand appends the datasets reachable from ref, descending into groups.
func (b *builder) expand(ref string, visited map[string]bool, out []string) []string {
	if lm, ok := b.byFile[ref]; ok {
		return append(out, lm.DatasetName)
	}
	g, ok := b.groupDocs[ref]
	if !ok || visited[ref] {
		return out
	}
	visited[ref] = true
	for _, child := range g.Members() {
		out = b.expand(child, visited, out)
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
