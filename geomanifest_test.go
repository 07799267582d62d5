package geomanifest_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/geomanifest"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/identity"
	"github.com/agentstation/geomanifest/pkg/logging"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/nameindex"
	"github.com/agentstation/geomanifest/pkg/provenance"

	_ "modernc.org/sqlite"
)

const surveySchema = `
CREATE TABLE gpkg_spatial_ref_sys (
	srs_name TEXT NOT NULL,
	srs_id INTEGER PRIMARY KEY,
	organization TEXT NOT NULL,
	organization_coordsys_id INTEGER NOT NULL,
	definition TEXT NOT NULL,
	description TEXT
);
CREATE TABLE gpkg_contents (
	table_name TEXT PRIMARY KEY,
	data_type TEXT NOT NULL,
	identifier TEXT,
	description TEXT DEFAULT '',
	last_change DATETIME,
	min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
	srs_id INTEGER
);
CREATE TABLE gpkg_geometry_columns (
	table_name TEXT NOT NULL,
	column_name TEXT NOT NULL,
	geometry_type_name TEXT NOT NULL,
	srs_id INTEGER NOT NULL,
	z TINYINT NOT NULL,
	m TINYINT NOT NULL
);
INSERT INTO gpkg_spatial_ref_sys VALUES
	('WGS 84 / UTM zone 37N', 32637, 'epsg', 32637, 'undefined', NULL);

CREATE TABLE wells (fid INTEGER PRIMARY KEY, geom BLOB, NAME TEXT(50), DEPTH REAL, GLOBALID TEXT);
INSERT INTO wells (geom, NAME, DEPTH, GLOBALID) VALUES
	(NULL, 'W-1', 120.5, '{A}'),
	(NULL, 'W-2', 80, '{B}');
INSERT INTO gpkg_contents (table_name, data_type, min_x, min_y, max_x, max_y, srs_id)
	VALUES ('wells', 'features', 400000, 6000000, 600000, 6200000, 32637);
INSERT INTO gpkg_geometry_columns VALUES ('wells', 'geom', 'POINT', 32637, 0, 0);

CREATE TABLE "wells__ATTACH" (
	ATTACHMENTID INTEGER PRIMARY KEY,
	REL_GLOBALID TEXT, CONTENT_TYPE TEXT, ATT_NAME TEXT, DATA_SIZE INTEGER, DATA BLOB
);
INSERT INTO "wells__ATTACH" (REL_GLOBALID, CONTENT_TYPE, ATT_NAME, DATA_SIZE, DATA) VALUES
	('{A}', 'image/jpeg', 'core.jpg', 3, X'FFD8FF'),
	('{B}', 'image/jpeg', 'log.jpg', 3, X'FFD8FF');
INSERT INTO gpkg_contents (table_name, data_type) VALUES ('wells__ATTACH', 'attributes');
`

const wellsLayer = `{
  "type": "CIMFeatureLayer",
  "name": "Скважины",
  "featureTable": {"dataConnection": {"dataset": "wells"}}
}`

const surveyMap = `{
  "type": "CIMMap",
  "name": "Карта участка",
  "layers": ["CIMPATH=map/wells.json"]
}`

var fixedClock = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }

func writeSurvey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Survey.gpkg")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(surveySchema)
	require.NoError(t, err)
	return path
}

func writeZip(t *testing.T, name string, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for n, body := range members {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func newClient(t *testing.T, opts ...geomanifest.Option) geomanifest.Client {
	t.Helper()
	opts = append([]geomanifest.Option{
		geomanifest.WithProjectsDir(t.TempDir()),
		geomanifest.WithClock(fixedClock),
	}, opts...)
	c, err := geomanifest.New(opts...)
	require.NoError(t, err)
	return c
}

func TestIngestGeoPackage(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	archive := writeZip(t, "Survey.aprx", map[string]string{
		"map/map.json":   surveyMap,
		"map/wells.json": wellsLayer,
	})

	m, err := c.Ingest(ctx, geomanifest.Request{
		ProjectID:    "survey",
		DatabasePath: writeSurvey(t),
		ArchivePath:  archive,
	})
	require.NoError(t, err)

	assert.Equal(t, "survey", m.Project.ID)
	assert.Equal(t, "Карта участка", m.Project.Name)
	assert.Equal(t, "2025-03-01T09:30:00+00:00", m.GeneratedAt)
	require.NotNil(t, m.Project.SourceFiles.GDB)
	assert.Equal(t, "Survey.gpkg", *m.Project.SourceFiles.GDB)
	require.NotNil(t, m.Project.SourceFiles.APRX)
	assert.Equal(t, "Survey.aprx", *m.Project.SourceFiles.APRX)
	assert.Nil(t, m.Project.SourceFiles.ATBX)

	require.Len(t, m.Layers, 1)
	wells := m.Layers[0]
	assert.Equal(t, "wells", wells.LayerID)
	assert.Equal(t, "Скважины", wells.DisplayName)
	assert.Equal(t, provenance.SourceArchive, wells.DisplayNameSource)
	assert.Equal(t, 2, wells.FeatureCount)
	assert.Equal(t, 32637, wells.CRSEPSG)
	require.NotNil(t, wells.Attachments)
	assert.Equal(t, 2, wells.Attachments.Count)
	assert.Equal(t, map[string]int{"image/jpeg": 2}, wells.Attachments.ContentTypes)
	assert.True(t, wells.Source.FromGDB)
	assert.True(t, wells.Source.FromAPRX)

	dir := c.Store().Dir("survey")
	assert.FileExists(t, filepath.Join(dir, constants.ManifestFile))
	assert.FileExists(t, filepath.Join(dir, constants.MappingFile))
	assert.FileExists(t, filepath.Join(dir, constants.ProvenanceFile))
	assert.FileExists(t, filepath.Join(dir, constants.ProfilesDir, "wells.json"))
	assert.FileExists(t, filepath.Join(dir, constants.UnpackedArchiveDir, "map", "wells.json"))

	stored, err := c.Store().Manifest("survey")
	require.NoError(t, err)
	assert.Equal(t, m.Layers[0].DisplayName, stored.Layers[0].DisplayName)

	match, ok, err := c.Store().ResolveLayer("survey", "скважины")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nameindex.Match{LayerID: "wells", Rule: nameindex.RuleDisplayName}, match)
}

func TestIngestWithoutArchive(t *testing.T) {
	c := newClient(t)
	m, err := c.Ingest(context.Background(), geomanifest.Request{
		ProjectID:    "bare",
		DatabasePath: writeSurvey(t),
		ToolboxPath:  filepath.Join(t.TempDir(), "missing.atbx"),
	})
	require.NoError(t, err)

	assert.Nil(t, m.Project.SourceFiles.APRX)
	assert.Nil(t, m.Toolbox, "an unreadable toolbox is left out")
	assert.Empty(t, m.Groups)
	assert.Contains(t, m.Quality.Warnings, identity.MissingArchiveWarning)
	assert.NoDirExists(t, filepath.Join(c.Store().Dir("bare"), constants.UnpackedArchiveDir))
}

func TestIngestToolbox(t *testing.T) {
	c := newClient(t)
	toolbox := writeZip(t, "Tools.atbx", map[string]string{
		"toolbox.content":        `{"displayname": "Survey tools", "alias": "survey"}`,
		"Clip.tool/tool.content": `{"displayname": "Clip wells"}`,
	})
	m, err := c.Ingest(context.Background(), geomanifest.Request{
		ProjectID:    "tools",
		DatabasePath: writeSurvey(t),
		ToolboxPath:  toolbox,
	})
	require.NoError(t, err)
	require.NotNil(t, m.Toolbox)
	assert.Equal(t, "survey", m.Toolbox.Alias)
	require.NotNil(t, m.Project.SourceFiles.ATBX)
	assert.Equal(t, "Tools.atbx", *m.Project.SourceFiles.ATBX)
}

func TestIngestFatalErrors(t *testing.T) {
	database := writeSurvey(t)
	notZip := filepath.Join(t.TempDir(), "broken.aprx")
	require.NoError(t, os.WriteFile(notZip, []byte("not a zip"), 0o644))

	tests := []struct {
		name  string
		req   geomanifest.Request
		check func(t *testing.T, err error)
	}{
		{
			name: "invalid project id",
			req:  geomanifest.Request{ProjectID: "Bad ID", DatabasePath: database},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsValidationError(err))
			},
		},
		{
			name: "missing database path",
			req:  geomanifest.Request{ProjectID: "demo"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsValidationError(err))
			},
		},
		{
			name: "database not found",
			req:  geomanifest.Request{ProjectID: "demo", DatabasePath: filepath.Join(t.TempDir(), "none.gpkg")},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFound(err))
			},
		},
		{
			name: "archive not found",
			req:  geomanifest.Request{ProjectID: "demo", DatabasePath: database, ArchivePath: filepath.Join(t.TempDir(), "none.aprx")},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsNotFound(err))
			},
		},
		{
			name: "archive not a zip",
			req:  geomanifest.Request{ProjectID: "demo", DatabasePath: database, ArchivePath: notZip},
			check: func(t *testing.T, err error) {
				var perr *errors.ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t)
			m, err := c.Ingest(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, m)
			tt.check(t, err)

			projects, err := c.Store().Projects()
			require.NoError(t, err)
			assert.Empty(t, projects)
			assert.NoDirExists(t, c.Store().Dir("demo"))
		})
	}
}

// stubReader serves a fixed set of empty attribute tables.
type stubReader struct {
	names []string
}

type stubLayer struct {
	info gdb.LayerInfo
}

func (l stubLayer) Info() gdb.LayerInfo { return l.info }

func (l stubLayer) Records(context.Context, func(gdb.Record) error) error { return nil }

func (r *stubReader) Layers(context.Context) ([]string, error) { return r.names, nil }

func (r *stubReader) Layer(_ context.Context, name string) (gdb.LayerSource, error) {
	return stubLayer{info: gdb.LayerInfo{
		Name:         name,
		FeatureCount: len(name),
		Columns:      []gdb.Column{{Name: "ID", Type: "INTEGER"}},
	}}, nil
}

func (r *stubReader) Close() error { return nil }

func TestIngestReplaceAndHooks(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{names: []string{"aa", "bb"}}
	c := newClient(t, geomanifest.WithReaderOpener(func(context.Context, string) (gdb.Reader, error) {
		return reader, nil
	}))

	var added, updated, removed []string
	var ingested int
	c.OnLayerAdded(func(_ string, l manifest.Layer) { added = append(added, l.LayerID) })
	c.OnLayerUpdated(func(_ string, _, l manifest.Layer) { updated = append(updated, l.LayerID) })
	c.OnLayerRemoved(func(_ string, l manifest.Layer) { removed = append(removed, l.LayerID) })
	c.OnIngested(func(*manifest.Manifest) { ingested++ })

	req := geomanifest.Request{ProjectID: "demo", DatabasePath: "stub"}
	_, err := c.Ingest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb"}, added)

	_, err = c.Ingest(ctx, req)
	assert.True(t, errors.IsAlreadyExists(err))

	added = nil
	reader.names = []string{"bb", "cccc"}
	req.Replace = true
	m, err := c.Ingest(ctx, req)
	require.NoError(t, err)
	require.Len(t, m.Layers, 2)

	assert.Equal(t, []string{"cccc"}, added)
	assert.Empty(t, updated, "bb is unchanged")
	assert.Equal(t, []string{"aa"}, removed)
	assert.Equal(t, 2, ingested)

	projects, err := c.Store().Projects()
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 2, projects[0].LayersCount)
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database := writeSurvey(t)
	c := newClient(t)

	first, err := c.Ingest(ctx, geomanifest.Request{ProjectID: "demo", DatabasePath: database})
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(filepath.Join(c.Store().Dir("demo"), constants.ManifestFile))
	require.NoError(t, err)

	second, err := c.Ingest(ctx, geomanifest.Request{ProjectID: "demo", DatabasePath: database, Replace: true})
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(filepath.Join(c.Store().Dir("demo"), constants.ManifestFile))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, string(firstBytes), string(secondBytes))
}

func TestIngestLogsStages(t *testing.T) {
	tl := logging.NewTestLogger(t)
	c := newClient(t, geomanifest.WithLogger(tl.Logger))

	_, err := c.Ingest(context.Background(), geomanifest.Request{ProjectID: "demo", DatabasePath: writeSurvey(t)})
	require.NoError(t, err)

	assert.True(t, tl.Contains(`"stage":"persist"`))
	assert.True(t, tl.Contains(`"run_id"`))
	assert.Subset(t, tl.Messages(zerolog.InfoLevel), []string{"Starting ingestion", "Profiled database", "Ingestion complete"})
	assert.Empty(t, tl.Messages(zerolog.ErrorLevel))
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  geomanifest.Option
	}{
		{"empty projects dir", geomanifest.WithProjectsDir("")},
		{"negative threshold", geomanifest.WithLargeLayerThreshold(-1)},
		{"zero top values", geomanifest.WithTopValuesLimit(0)},
		{"nil opener", geomanifest.WithReaderOpener(nil)},
		{"nil convention", geomanifest.WithAttachmentConvention(nil)},
		{"nil vocabulary", geomanifest.WithVocabulary(nil)},
		{"nil clock", geomanifest.WithClock(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geomanifest.New(tt.opt)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}
