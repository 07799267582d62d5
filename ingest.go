package geomanifest

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/agentstation/geomanifest/internal/store"
	"github.com/agentstation/geomanifest/pkg/aprx"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/identity"
	"github.com/agentstation/geomanifest/pkg/logging"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/quality"
)

// Pipeline stage names attached to the context logger.
const (
	StageArchive  = "archive"
	StageToolbox  = "toolbox"
	StageDatabase = "database"
	StageResolve  = "resolve"
	StageQuality  = "quality"
	StageAssemble = "assemble"
	StagePersist  = "persist"
)

// Ingest runs the pipeline for one project and persists the result.
//
// It fails without writing anything when the project id is not a valid
// slug, when the id is already registered and req.Replace is false, when
// the archive path is set but the file is missing or not a zip archive,
// and when the database cannot be opened or enumerated. Everything else
// degrades the manifest instead.
func (c *client) Ingest(ctx context.Context, req Request) (*manifest.Manifest, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	// one ingestion per client at a time keeps the replace check honest
	c.mu.Lock()
	defer c.mu.Unlock()

	var previous *manifest.Manifest
	registered, err := c.store.Exists(req.ProjectID)
	if err != nil {
		return nil, err
	}
	if registered {
		if !req.Replace {
			return nil, errors.NewAlreadyExistsError("project", req.ProjectID)
		}
		if previous, err = c.store.Manifest(req.ProjectID); err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
	}

	ctx = c.withLogger(ctx)
	ctx = logging.WithRun(ctx, uuid.NewString())
	ctx = logging.WithProject(ctx, req.ProjectID)
	logger := logging.FromContext(ctx)
	logger.Info().
		Str("database", req.DatabasePath).
		Str("archive", req.ArchivePath).
		Bool("replace", req.Replace).
		Msg("Starting ingestion")

	project, err := c.parseArchive(ctx, req.ArchivePath)
	if err != nil {
		return nil, err
	}
	toolbox := c.parseToolbox(ctx, req.ToolboxPath)

	db, err := c.profile(ctx, req.DatabasePath)
	if err != nil {
		return nil, err
	}

	res := identity.NewResolver(project, c.config.vocabulary).
		Resolve(logging.WithStage(ctx, StageResolve), db)
	report := quality.Score(logging.WithStage(ctx, StageQuality), db, res)

	m := manifest.Build(manifest.Input{
		ProjectID:   req.ProjectID,
		SourceFiles: sourceFiles(req),
		Archive:     project,
		Database:    db,
		Resolution:  res,
		Quality:     report,
		Toolbox:     toolbox,
		GeneratedAt: c.config.clock(),
		Vocabulary:  c.config.vocabulary,
	})
	logging.FromContext(logging.WithStage(ctx, StageAssemble)).Info().
		Int("layers", len(m.Layers)).
		Str("completeness", m.Quality.MetadataCompleteness).
		Int("warnings", len(m.Quality.Warnings)).
		Msg("Assembled manifest")

	save := store.SaveRequest{
		Manifest:    m,
		Database:    db,
		ArchivePath: req.ArchivePath,
	}
	if c.config.provenance {
		save.Provenance = res.Provenance
	}
	if err := c.store.Save(logging.WithStage(ctx, StagePersist), save); err != nil {
		return nil, err
	}

	c.hooks.triggerManifestUpdate(previous, m)
	logger.Info().Msg("Ingestion complete")
	return m, nil
}

func (c *client) validate(req Request) error {
	if err := store.ValidateID(req.ProjectID); err != nil {
		return err
	}
	if req.DatabasePath == "" {
		return errors.NewValidationError("database_path", req.DatabasePath, "database path is required")
	}
	return nil
}

// withLogger installs the configured logger unless the caller already put
// one in the context.
func (c *client) withLogger(ctx context.Context) context.Context {
	if c.config.logger == nil || logging.FromContext(ctx) != logging.Default() {
		return ctx
	}
	return logging.WithLogger(ctx, c.config.logger)
}

func (c *client) parseArchive(ctx context.Context, path string) (*aprx.Project, error) {
	if path == "" {
		return nil, nil
	}
	ctx = logging.WithStage(ctx, StageArchive)
	project, err := aprx.Parse(ctx, path,
		aprx.WithMaxMemberBytes(c.config.maxLayerJSONBytes),
		aprx.WithVocabulary(c.config.vocabulary),
	)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().
		Str("map", project.MapName).
		Int("layers", len(project.Layers)).
		Int("groups", len(project.Groups)).
		Msg("Parsed project archive")
	return project, nil
}

// parseToolbox summarizes the toolbox. A toolbox is informational, so a
// bad one is logged and left out of the manifest.
func (c *client) parseToolbox(ctx context.Context, path string) *aprx.Toolbox {
	if path == "" {
		return nil
	}
	logger := logging.FromContext(logging.WithStage(ctx, StageToolbox))
	tb, err := aprx.ParseToolbox(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable toolbox")
		return nil
	}
	logger.Info().Int("tools", len(tb.Tools)).Msg("Parsed toolbox")
	return tb
}

func (c *client) profile(ctx context.Context, path string) (*gdb.Database, error) {
	ctx = logging.WithStage(ctx, StageDatabase)
	profiler, err := gdb.New(
		gdb.WithOpener(c.config.opener),
		gdb.WithLargeLayerThreshold(c.config.largeLayerThreshold),
		gdb.WithTopValuesLimit(c.config.topValuesLimit),
		gdb.WithAttachmentConvention(c.config.convention),
	)
	if err != nil {
		return nil, err
	}
	db, err := profiler.Profile(ctx, path)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Int("layers", len(db.Layers)).
		Int("attachment_tables", len(db.AttachmentTables)).
		Int("degraded", len(db.Degraded())).
		Msg("Profiled database")
	return db, nil
}

func sourceFiles(req Request) manifest.SourceFiles {
	base := func(p string) *string {
		if p == "" {
			return nil
		}
		b := filepath.Base(p)
		return &b
	}
	return manifest.SourceFiles{
		GDB:  base(req.DatabasePath),
		APRX: base(req.ArchivePath),
		ATBX: base(req.ToolboxPath),
	}
}
