// Package geomanifest turns a feature database and an optional ArcGIS Pro
// project archive into a persisted project manifest.
//
// A Client runs the ingestion pipeline and hands its output to a store:
//
//	client, err := geomanifest.New(geomanifest.WithProjectsDir("./projects"))
//	if err != nil {
//		return err
//	}
//	m, err := client.Ingest(ctx, geomanifest.Request{
//		ProjectID:    "north-field",
//		DatabasePath: "North.gpkg",
//		ArchivePath:  "North.aprx",
//	})
//
// Per-layer problems degrade the manifest and show up in its quality
// warnings; only the errors listed on Ingest abort a run.
package geomanifest

import (
	"context"
	"sync"

	"github.com/agentstation/geomanifest/internal/store"
	"github.com/agentstation/geomanifest/pkg/manifest"
)

// Client ingests projects and exposes the persisted catalog.
type Client interface {
	// Ingest runs the pipeline for one project and persists the result.
	Ingest(ctx context.Context, req Request) (*manifest.Manifest, error)

	// Store returns the read side of the persisted catalog.
	Store() *store.Store

	// OnLayerAdded registers a callback for layers new to a project
	OnLayerAdded(LayerAddedHook)

	// OnLayerUpdated registers a callback for layers whose manifest entry changed
	OnLayerUpdated(LayerUpdatedHook)

	// OnLayerRemoved registers a callback for layers dropped by a re-ingestion
	OnLayerRemoved(LayerRemovedHook)

	// OnIngested registers a callback run after every successful ingestion
	OnIngested(IngestedHook)
}

// Request names the inputs of one ingestion run.
type Request struct {
	// ProjectID is the store identifier; it must be a lowercase slug.
	ProjectID string
	// DatabasePath is the feature database. Required.
	DatabasePath string
	// ArchivePath is the project archive. Empty selects the no-archive mode.
	ArchivePath string
	// ToolboxPath is an optional toolbox archive.
	ToolboxPath string
	// Replace allows overwriting a registered project.
	Replace bool
}

// client is the internal implementation of the Client interface
type client struct {
	mu     sync.Mutex
	config *config
	store  *store.Store
	hooks  *hooks
}

// New creates a Client with the given options.
func New(opts ...Option) (Client, error) {
	c := &client{
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	for _, opt := range opts {
		if err := opt(c.config); err != nil {
			return nil, err
		}
	}
	c.store = store.New(c.config.projectsDir)
	return c, nil
}

// Store returns the read side of the persisted catalog.
func (c *client) Store() *store.Store {
	return c.store
}

// OnLayerAdded registers a callback for layers new to a project.
func (c *client) OnLayerAdded(fn LayerAddedHook) {
	c.hooks.OnLayerAdded(fn)
}

// OnLayerUpdated registers a callback for changed layers.
func (c *client) OnLayerUpdated(fn LayerUpdatedHook) {
	c.hooks.OnLayerUpdated(fn)
}

// OnLayerRemoved registers a callback for removed layers.
func (c *client) OnLayerRemoved(fn LayerRemovedHook) {
	c.hooks.OnLayerRemoved(fn)
}

// OnIngested registers a callback run after every successful ingestion.
func (c *client) OnIngested(fn IngestedHook) {
	c.hooks.OnIngested(fn)
}
