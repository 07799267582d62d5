package gdb

import (
	"context"
	"strings"

	"github.com/agentstation/geomanifest/pkg/crs"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/logging"
)

// Profiler builds a Database profile through a Reader.
type Profiler struct {
	open       Opener
	threshold  int
	topN       int
	convention AttachmentConvention
}

// New creates a Profiler. An opener is required before Profile is called.
func New(opts ...Option) (*Profiler, error) {
	p := defaults()
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Profile opens the database at path and profiles every layer. Failing to
// open or enumerate the database is fatal; failures inside one layer are
// recorded on that layer's LayerResult.
func (p *Profiler) Profile(ctx context.Context, path string) (*Database, error) {
	if p.open == nil {
		return nil, errors.NewConfigError("gdb", "no database opener configured", nil)
	}
	logger := logging.FromContext(ctx)

	r, err := p.open(ctx, path)
	if err != nil {
		return nil, errors.WrapResource("open", "database", path, err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("path", path).Msg("Failed to close database")
		}
	}()

	return p.ProfileReader(ctx, r)
}

// ProfileReader profiles an already opened database.
func (p *Profiler) ProfileReader(ctx context.Context, r Reader) (*Database, error) {
	names, err := r.Layers(ctx)
	if err != nil {
		return nil, errors.WrapResource("list", "layers", "", err)
	}

	db := &Database{}
	var attachmentNames []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapResource("profile", "database", "", errors.ErrCanceled)
		}
		if p.convention.IsAttachmentTable(name) {
			attachmentNames = append(attachmentNames, name)
			continue
		}
		res := p.profileLayer(ctx, r, name)
		if res.Err != nil {
			logging.FromContext(ctx).Warn().
				Err(res.Err.Err).
				Str("layer_id", name).
				Str("stage", res.Err.Stage).
				Msg("Layer profile degraded")
		}
		db.Results = append(db.Results, res)
		db.Layers = append(db.Layers, res.Profile)
	}

	for _, name := range attachmentNames {
		table, res := p.profileAttachments(ctx, r, name)
		if res.Err != nil {
			logging.FromContext(ctx).Warn().
				Err(res.Err.Err).
				Str("layer_id", name).
				Msg("Attachment table unreadable")
		}
		db.AttachmentTables = append(db.AttachmentTables, table)
		db.Results = append(db.Results, res)
		db.Layers = append(db.Layers, res.Profile)
	}

	logging.FromContext(ctx).Debug().
		Int("layers", len(db.Layers)).
		Int("attachment_tables", len(db.AttachmentTables)).
		Int("degraded", len(db.Degraded())).
		Msg("Database profiled")
	return db, nil
}

func (p *Profiler) profileLayer(ctx context.Context, r Reader, name string) LayerResult {
	minimal := LayerProfile{LayerID: name, Fields: []FieldProfile{}}

	src, err := r.Layer(ctx, name)
	if err != nil {
		return LayerResult{Profile: minimal, Err: errors.NewProfileError(name, "open", err)}
	}
	info := src.Info()

	lp := LayerProfile{
		LayerID:       name,
		GeometryType:  NormalizeGeometry(info.GeometryType, info.HasZ),
		FeatureCount:  info.FeatureCount,
		CRSEPSG:       crs.EPSG(info.CRS),
		CRSDefinition: strings.TrimSpace(info.CRS.WKT),
		IsLarge:       info.FeatureCount > p.threshold,
	}

	if info.Bounds != nil && !info.Bounds.IsZero() {
		b := *info.Bounds
		lp.ExtentNative = &b
		if !info.CRS.IsZero() {
			ext, err := crs.ToWGS84(b, info.CRS)
			if err != nil {
				logging.FromContext(ctx).Debug().Err(err).Str("layer_id", name).Msg("Extent not reprojected")
			} else {
				lp.ExtentWGS84 = ext
			}
		}
	}

	accs := make([]*fieldAccumulator, len(info.Columns))
	for i, col := range info.Columns {
		accs[i] = newFieldAccumulator(col)
	}
	schemaOnly := func() []FieldProfile {
		out := make([]FieldProfile, len(accs))
		for i, a := range accs {
			out[i] = a.profile
		}
		return out
	}

	if lp.IsLarge || lp.FeatureCount == 0 {
		lp.Fields = schemaOnly()
		return LayerResult{Profile: lp}
	}

	err = src.Records(ctx, func(rec Record) error {
		for _, a := range accs {
			a.add(rec[a.profile.Name])
		}
		return nil
	})
	if err != nil {
		lp.Fields = schemaOnly()
		return LayerResult{Profile: lp, Err: errors.NewProfileError(name, "stats", err)}
	}

	lp.Fields = make([]FieldProfile, len(accs))
	for i, a := range accs {
		lp.Fields[i] = a.finish(p.topN)
	}
	return LayerResult{Profile: lp}
}
