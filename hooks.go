package geomanifest

import (
	"reflect"
	"sync"

	"github.com/agentstation/geomanifest/pkg/manifest"
)

// Hook function types for catalog events
type (
	// LayerAddedHook is called when a layer appears in a project's manifest
	LayerAddedHook func(projectID string, layer manifest.Layer)

	// LayerUpdatedHook is called when a layer's manifest entry changes on re-ingestion
	LayerUpdatedHook func(projectID string, old, new manifest.Layer)

	// LayerRemovedHook is called when a re-ingestion drops a layer
	LayerRemovedHook func(projectID string, layer manifest.Layer)

	// IngestedHook is called once a manifest has been persisted
	IngestedHook func(m *manifest.Manifest)
)

// hooks manages event callbacks for catalog changes
type hooks struct {
	mu             sync.RWMutex
	onLayerAdded   []LayerAddedHook
	onLayerUpdated []LayerUpdatedHook
	onLayerRemoved []LayerRemovedHook
	onIngested     []IngestedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnLayerAdded registers a callback for when layers are added
func (h *hooks) OnLayerAdded(fn LayerAddedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLayerAdded = append(h.onLayerAdded, fn)
}

// OnLayerUpdated registers a callback for when layers are updated
func (h *hooks) OnLayerUpdated(fn LayerUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLayerUpdated = append(h.onLayerUpdated, fn)
}

// OnLayerRemoved registers a callback for when layers are removed
func (h *hooks) OnLayerRemoved(fn LayerRemovedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLayerRemoved = append(h.onLayerRemoved, fn)
}

// OnIngested registers a callback for completed ingestions
func (h *hooks) OnIngested(fn IngestedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onIngested = append(h.onIngested, fn)
}

// triggerManifestUpdate compares the previous and new manifests of a
// project and triggers the layer hooks. previous is nil for a first
// ingestion, in which case every layer counts as added.
func (h *hooks) triggerManifestUpdate(previous, current *manifest.Manifest) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	id := current.Project.ID
	oldLayers := make(map[string]manifest.Layer)
	if previous != nil {
		for _, l := range previous.Layers {
			oldLayers[l.LayerID] = l
		}
	}

	newLayers := make(map[string]struct{}, len(current.Layers))
	for _, l := range current.Layers {
		newLayers[l.LayerID] = struct{}{}
		if old, exists := oldLayers[l.LayerID]; exists {
			if !reflect.DeepEqual(old, l) {
				for _, hook := range h.onLayerUpdated {
					hook(id, old, l)
				}
			}
			continue
		}
		for _, hook := range h.onLayerAdded {
			hook(id, l)
		}
	}

	if previous != nil {
		for _, l := range previous.Layers {
			if _, exists := newLayers[l.LayerID]; !exists {
				for _, hook := range h.onLayerRemoved {
					hook(id, l)
				}
			}
		}
	}

	for _, hook := range h.onIngested {
		hook(current)
	}
}
