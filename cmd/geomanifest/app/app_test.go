package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/geomanifest/internal/config"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/provenance"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE gpkg_spatial_ref_sys (
	srs_name TEXT NOT NULL, srs_id INTEGER PRIMARY KEY, organization TEXT NOT NULL,
	organization_coordsys_id INTEGER NOT NULL, definition TEXT NOT NULL, description TEXT
);
CREATE TABLE gpkg_contents (
	table_name TEXT PRIMARY KEY, data_type TEXT NOT NULL, identifier TEXT, description TEXT DEFAULT '',
	last_change DATETIME, min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE, srs_id INTEGER
);
CREATE TABLE gpkg_geometry_columns (
	table_name TEXT NOT NULL, column_name TEXT NOT NULL, geometry_type_name TEXT NOT NULL,
	srs_id INTEGER NOT NULL, z TINYINT NOT NULL, m TINYINT NOT NULL
);
INSERT INTO gpkg_spatial_ref_sys VALUES ('WGS 84', 4326, 'EPSG', 4326, 'undefined', NULL);
CREATE TABLE wells (fid INTEGER PRIMARY KEY, geom BLOB, NAME TEXT, DEPTH REAL);
INSERT INTO wells (geom, NAME, DEPTH) VALUES (NULL, 'W-1', 120.5), (NULL, 'W-2', 80);
INSERT INTO gpkg_contents (table_name, data_type, min_x, min_y, max_x, max_y, srs_id)
	VALUES ('wells', 'features', 37, 55, 38, 56, 4326);
INSERT INTO gpkg_geometry_columns VALUES ('wells', 'geom', 'POINT', 4326, 0, 0);
`

func writeInputs(t *testing.T) (database, archive string) {
	t.Helper()
	dir := t.TempDir()

	database = filepath.Join(dir, "Field.gpkg")
	db, err := sql.Open("sqlite", database)
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	archive = filepath.Join(dir, "Field.aprx")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"map/map.json":   `{"type": "CIMMap", "name": "Полевая карта", "layers": ["CIMPATH=map/wells.json"]}`,
		"map/wells.json": `{"type": "CIMFeatureLayer", "name": "Скважины", "featureTable": {"dataConnection": {"dataset": "wells"}}}`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return database, archive
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App {
	t.Helper()
	cfg := &config.Config{
		ProjectsDir:         t.TempDir(),
		LargeLayerThreshold: constants.LargeLayerThreshold,
		TopValuesLimit:      constants.TopValuesLimit,
		MaxLayerJSONBytes:   constants.MaxLayerJSONBytes,
		LogFormat:           "json",
		LogOutput:           "stderr",
	}
	a, err := New("1.2.3", "abc", "today", "test", WithConfig(cfg), WithOutput(out))
	require.NoError(t, err)
	return a
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	a := newTestApp(t, &out)
	database, archive := writeInputs(t)

	run := func(args ...string) (string, error) {
		out.Reset()
		err := a.Execute(ctx, append(args, "-q"))
		return out.String(), err
	}

	got, err := run("ingest", "--gdb", database, "--aprx", archive, "--project-id", "field", "-o", "json")
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &summary))
	assert.Equal(t, "field", summary["project"])
	assert.Equal(t, "Полевая карта", summary["map"])
	assert.EqualValues(t, 1, summary["layers"])

	_, err = run("ingest", "--gdb", database, "--project-id", "field")
	assert.True(t, errors.IsAlreadyExists(err))

	got, err = run("resolve", "field", "скважины")
	require.NoError(t, err)
	assert.Equal(t, "wells\n", got)

	_, err = run("resolve", "field", "nothing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	got, err = run("projects", "-o", "json")
	require.NoError(t, err)
	var entries []manifest.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(got), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Полевая карта", entries[0].Name)

	got, err = run("inspect", "field", "-o", "json")
	require.NoError(t, err)
	m, err := manifest.Decode(strings.NewReader(got))
	require.NoError(t, err)
	assert.Equal(t, "Скважины", m.Layers[0].DisplayName)

	got, err = run("inspect", "field", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, got, "layer_id: wells")

	got, err = run("inspect", "field", "Скважины", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, got, `"layer_id": "wells"`)

	got, err = run("inspect", "field", "--provenance", "-o", "json")
	require.NoError(t, err)
	var report provenance.Report
	require.NoError(t, json.Unmarshal([]byte(got), &report))
	current := report.Layers["wells"].Fields["display_name"].Current
	assert.Equal(t, "Скважины", current.Value)
	assert.Equal(t, provenance.SourceArchive, current.Source)

	got, err = run("delete", "field")
	require.NoError(t, err)
	assert.Equal(t, "deleted field\n", got)

	_, err = run("inspect", "field")
	assert.True(t, errors.IsNotFound(err))
}

func TestIngestOutputFlag(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, &out)
	database, _ := writeInputs(t)
	dir := filepath.Join(t.TempDir(), "elsewhere")

	err := a.Execute(context.Background(), []string{
		"ingest", "--gdb", database, "--project-id", "field", "--output", dir, "-o", "table", "-q",
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "field", constants.ManifestFile))
	assert.Contains(t, out.String(), "field")
}

func TestIngestRequiresFlags(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, &out)
	err := a.Execute(context.Background(), []string{"ingest", "--project-id", "field"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gdb")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, &out)
	require.NoError(t, a.Execute(context.Background(), []string{"version"}))
	assert.Contains(t, out.String(), "geomanifest version 1.2.3")
	assert.Contains(t, out.String(), "manifest version: "+constants.ManifestVersion)
}

func TestInvalidFormat(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, &out)
	err := a.Execute(context.Background(), []string{"projects", "-o", "xml"})
	assert.True(t, errors.IsValidationError(err))
}
