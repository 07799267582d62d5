package store

import (
	"encoding/json"
	"os"

	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/nameindex"
	"github.com/agentstation/geomanifest/pkg/provenance"
)

// Manifest loads a project's manifest.
func (s *Store) Manifest(id string) (*manifest.Manifest, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m, err := manifest.Load(s.path(id, constants.ManifestFile))
	if errors.IsNotFound(err) {
		return nil, errors.NewNotFoundError("project", id)
	}
	return m, err
}

// LayerProfile loads the full database profile of one layer.
func (s *Store) LayerProfile(id, layerID string) (*gdb.LayerProfile, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	path := s.path(id, constants.ProfilesDir, SafeName(layerID)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("layer profile", layerID)
		}
		return nil, errors.WrapIO("read", path, err)
	}
	var lp gdb.LayerProfile
	if err := json.Unmarshal(data, &lp); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &lp, nil
}

// Provenance loads the display-name sources recorded for a project. A
// project saved without provenance yields an empty map.
func (s *Store) Provenance(id string) (provenance.Map, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	f, err := provenance.Load(s.path(id, constants.ProvenanceFile))
	if err != nil {
		return nil, err
	}
	if f == nil || f.Provenance == nil {
		return provenance.Map{}, nil
	}
	return f.Provenance, nil
}

// ResolveLayer resolves a free-form layer reference against the current
// manifest. The index is rebuilt on every call so a re-ingested project is
// never answered from a stale catalog.
func (s *Store) ResolveLayer(id, query string) (nameindex.Match, bool, error) {
	m, err := s.Manifest(id)
	if err != nil {
		return nameindex.Match{}, false, err
	}
	match, ok := nameindex.New(m).ResolveDetailed(query)
	return match, ok, nil
}

// LayerEntry returns the manifest entry of a layer.
func LayerEntry(m *manifest.Manifest, layerID string) (*manifest.Layer, bool) {
	if m == nil {
		return nil, false
	}
	return m.Layer(layerID)
}
