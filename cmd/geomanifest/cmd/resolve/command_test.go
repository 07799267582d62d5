package resolve

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/geomanifest"
	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/internal/store"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/provenance"
)

func seededApp(t *testing.T) *application.Mock {
	t.Helper()
	dir := t.TempDir()
	m := &manifest.Manifest{
		Version:     constants.ManifestVersion,
		GeneratedAt: "2025-03-01T09:30:00+00:00",
		Project:     manifest.Project{ID: "north", Name: "North"},
		Layers: []manifest.Layer{
			{LayerID: "gms_r", DisplayName: "Поле дельта G (мГал)", DisplayNameSource: provenance.SourceArchive, Fields: []manifest.Field{}},
			{LayerID: "geo/faults", DisplayName: "Разломы", DisplayNameSource: provenance.SourceDict, Fields: []manifest.Field{}},
		},
		LayerMapping:   []manifest.MappingEntry{},
		UnmappedLayers: []manifest.UnmappedEntry{},
		Aliases:        map[string][]string{"gms_r": {"gravity", "гравиметрия"}},
		Quality:        manifest.Quality{LayersTotal: 2, Warnings: []string{}},
	}
	require.NoError(t, store.New(dir).Save(context.Background(), store.SaveRequest{Manifest: m}))

	return &application.Mock{
		ClientFunc: func(opts ...geomanifest.Option) (geomanifest.Client, error) {
			return geomanifest.New(append(opts, geomanifest.WithProjectsDir(dir))...)
		},
	}
}

func TestExecute(t *testing.T) {
	app := seededApp(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"layer id", "GMS_R", "gms_r"},
		{"display name", "разломы", "geo/faults"},
		{"alias", "Gravity", "gms_r"},
		{"display tokens", "дельта G", "gms_r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Execute(app, "north", tt.query, &buf))
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestExecuteNotFound(t *testing.T) {
	app := seededApp(t)

	tests := []struct {
		name    string
		project string
		query   string
	}{
		{"unknown layer", "north", "magnetics"},
		{"unknown project", "south", "gravity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Execute(app, tt.project, tt.query, &buf)
			assert.True(t, errors.IsNotFound(err), "got %v", err)
			assert.Empty(t, buf.String())
		})
	}
}

func TestCommand(t *testing.T) {
	cmd := NewCommand(seededApp(t))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"north", "гравиметрия"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "gms_r\n", buf.String())
}
