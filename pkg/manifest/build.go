package manifest

import (
	"time"

	"github.com/agentstation/geomanifest/internal/utils/ptr"
	"github.com/agentstation/geomanifest/pkg/aliases"
	"github.com/agentstation/geomanifest/pkg/aprx"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/crs"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/identity"
	"github.com/agentstation/geomanifest/pkg/quality"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// TimeLayout is the generated_at format: seconds precision with a numeric offset.
const TimeLayout = "2006-01-02T15:04:05-07:00"

// Input is everything an assembly needs. Archive and Toolbox are nil when
// the corresponding file was not supplied.
type Input struct {
	ProjectID   string
	SourceFiles SourceFiles
	Archive     *aprx.Project
	Database    *gdb.Database
	Resolution  *identity.Result
	Quality     *quality.Report
	Toolbox     *aprx.Toolbox
	GeneratedAt time.Time
	// Vocabulary supplies CRS labels and alias synonyms; nil uses the default.
	Vocabulary *vocab.Vocabulary
}

// Build assembles the manifest. It performs no I/O.
func Build(in Input) *Manifest {
	v := in.Vocabulary
	if v == nil {
		v = vocab.Default()
	}
	db := in.Database
	if db == nil {
		db = &gdb.Database{}
	}
	res := in.Resolution
	if res == nil {
		res = &identity.Result{}
	}
	q := in.Quality
	if q == nil {
		q = &quality.Report{}
	}

	m := &Manifest{
		Version:     constants.ManifestVersion,
		GeneratedAt: in.GeneratedAt.UTC().Format(TimeLayout),
		Generator:   constants.Generator,
		Project: Project{
			ID:          in.ProjectID,
			Name:        in.ProjectID,
			SourceFiles: in.SourceFiles,
			Map:         buildMap(in.Archive, db, q, v),
		},
		Groups:             buildGroups(in.Archive),
		Layers:             make([]Layer, 0, len(res.Mapped)),
		LayerMapping:       make([]MappingEntry, 0, len(res.Mapped)),
		UnmappedLayers:     make([]UnmappedEntry, 0, len(res.Unmapped)),
		MappingQuality:     buildMappingQuality(res.Quality),
		AttachmentsSummary: buildAttachmentsSummary(db),
		Toolbox:            in.Toolbox,
		Quality:            buildQuality(q),
		Aliases:            map[string][]string{},
	}
	if in.Archive != nil && in.Archive.MapName != "" {
		m.Project.Name = in.Archive.MapName
	}

	idx := aliases.Index(m.Aliases)
	for i := range res.Mapped {
		ml := &res.Mapped[i]
		m.Layers = append(m.Layers, buildLayer(ml, db))
		m.LayerMapping = append(m.LayerMapping, buildMappingEntry(ml))
		idx.Add(ml.DatasetName, ml.DisplayName, ml.Units, v)
	}
	for _, u := range res.Unmapped {
		m.UnmappedLayers = append(m.UnmappedLayers, UnmappedEntry{
			DatasetName:       u.DatasetName,
			Reason:            u.Reason,
			DisplayName:       u.DisplayName,
			DisplayNameSource: u.Source,
			NeedsReview:       u.NeedsReview,
		})
	}
	return m
}

func buildMap(p *aprx.Project, db *gdb.Database, q *quality.Report, v *vocab.Vocabulary) Map {
	var out Map
	if p != nil {
		name := p.MapName
		out.Name = &name
		if q.PrimaryCRS != "" {
			out.PrimaryCRS = v.CRSLabel(q.PrimaryCRS)
		}
		out.DatumTransforms = p.DatumTransforms
		out.Basemaps = p.Basemaps
		out.LayerOrder = p.LayerOrder
	}
	out.ExtentWGS84 = globalExtent(db)
	return out
}

// globalExtent unions every reprojected layer extent.
func globalExtent(db *gdb.Database) *crs.GeoBounds {
	var out *crs.GeoBounds
	for _, lp := range db.Layers {
		if lp.ExtentWGS84 == nil {
			continue
		}
		if out == nil {
			e := *lp.ExtentWGS84
			out = &e
			continue
		}
		u := out.Union(*lp.ExtentWGS84)
		out = &u
	}
	return out
}

func buildGroups(p *aprx.Project) Groups {
	out := Groups{}
	if p == nil {
		return out
	}
	for _, name := range p.GroupOrder {
		out = append(out, Group{Name: name, Layers: p.Groups[name]})
	}
	return out
}

func buildLayer(ml *identity.MappedLayer, db *gdb.Database) Layer {
	l := Layer{
		LayerID:           ml.DatasetName,
		DisplayName:       ml.DisplayName,
		DisplayNameSource: ml.Source,
		NeedsReview:       ml.NeedsReview,
		Group:             ml.Group,
		FeatureDataset:    ml.FeatureDataset,
		Units:             ml.Units,
		Fields:            []Field{},
		Source:            Source{FromGDB: true},
	}

	if lp, ok := db.Layer(ml.DatasetName); ok {
		l.GeometryType = lp.GeometryType
		l.FeatureCount = lp.FeatureCount
		l.CRSEPSG = lp.CRSEPSG
		l.ExtentWGS84 = lp.ExtentWGS84
		l.IsLarge = lp.IsLarge
		for _, fp := range lp.Fields {
			l.Fields = append(l.Fields, buildField(fp, ml.FieldAliases[fp.Name]))
		}
		if at, ok := db.AttachmentTableFor(ml.DatasetName); ok {
			l.Attachments = &Attachments{
				Table:        at.TableName,
				Count:        at.TotalAttachments,
				LinkField:    constants.AttachmentLinkField,
				ContentTypes: at.ContentTypes(),
			}
		}
	}

	if ml.ArchiveFile != "" {
		l.Source.FromAPRX = true
		l.Source.APRXFile = ml.ArchiveFile
		l.VisibilityInProject = ml.ArchiveVisibility
		l.DisplayField = ml.ArchiveDisplayField
		l.LabelExpression = ml.ArchiveLabelExpression
	}
	return l
}

func buildField(fp gdb.FieldProfile, alias string) Field {
	return Field{
		Name:        fp.Name,
		DType:       fp.DType,
		NullCount:   fp.NullCount,
		Min:         fp.Min,
		Max:         fp.Max,
		Mean:        round(fp.Mean),
		Std:         round(fp.Std),
		UniqueCount: fp.UniqueCount,
		TopValues:   fp.TopValues,
		Alias:       alias,
	}
}

func round(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return ptr.Float64(crs.Round(*v, constants.StatsPrecision))
}

func buildMappingEntry(ml *identity.MappedLayer) MappingEntry {
	return MappingEntry{
		DatasetName:         ml.DatasetName,
		DisplayName:         ml.DisplayName,
		DisplayNameSource:   ml.Source,
		Group:               optional(ml.Group),
		FeatureDataset:      optional(ml.FeatureDataset),
		Description:         optional(ml.Description),
		Units:               optional(ml.Units),
		APRXFile:            optional(ml.ArchiveFile),
		APRXVisibility:      ml.ArchiveVisibility,
		APRXDisplayField:    optional(ml.ArchiveDisplayField),
		APRXLabelExpression: optional(ml.ArchiveLabelExpression),
	}
}

func buildMappingQuality(q identity.MappingQuality) MappingQuality {
	return MappingQuality{
		TotalGDBLayers:     q.TotalGDBLayers,
		MappedFromAPRX:     q.MappedFromArchive,
		MappedFromDict:     q.MappedFromDict,
		MappedFromInferred: q.MappedFromInferred,
		NeedsReview:        q.Unmapped,
		CoveragePercent:    q.CoveragePercent,
		HasGroups:          q.HasGroups,
		GroupsCount:        q.GroupsCount,
	}
}

func buildAttachmentsSummary(db *gdb.Database) AttachmentsSummary {
	s := AttachmentsSummary{
		Tables:       make([]string, 0, len(db.AttachmentTables)),
		ContentTypes: map[string]int{},
	}
	for i := range db.AttachmentTables {
		at := &db.AttachmentTables[i]
		s.Total += at.TotalAttachments
		s.Tables = append(s.Tables, at.TableName)
		for ct, n := range at.ContentTypes() {
			s.ContentTypes[ct] += n
		}
	}
	s.Extractable = s.Total > 0
	return s
}

func buildQuality(r *quality.Report) Quality {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return Quality{
		LayersTotal:              r.LayersTotal,
		LayersNonEmpty:           r.LayersNonEmpty,
		LayersWithDisplayName:    r.LayersWithDisplayName,
		LayersWithUnknownMeaning: r.LayersWithUnknownMeaning,
		AttachmentsExtractable:   r.AttachmentsExtractable,
		CRSConsistent:            r.CRSConsistent,
		PrimaryCRS:               optional(r.PrimaryCRS),
		Has3DLayers:              r.Has3DLayers,
		HasRasters:               r.HasRasters,
		MetadataCompleteness:     string(r.MetadataCompleteness),
		Warnings:                 warnings,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return ptr.String(s)
}
