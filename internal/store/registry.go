package store

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/agentstation/geomanifest/internal/atomicfile"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/save"
)

// legacyRegistry is the object form written by earlier pipeline versions.
type legacyRegistry struct {
	Projects []manifest.ProjectSummary `json:"projects"`
}

// Projects lists the registry entries in registration order.
func (s *Store) Projects() ([]manifest.ProjectSummary, error) {
	return s.readRegistry()
}

// Exists reports whether a project is registered.
func (s *Store) Exists(id string) (bool, error) {
	entries, err := s.readRegistry()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) readRegistry() ([]manifest.ProjectSummary, error) {
	path := s.registryPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []manifest.ProjectSummary{}, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []manifest.ProjectSummary{}, nil
	}
	if trimmed[0] == '{' {
		var legacy legacyRegistry
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, errors.WrapParse("json", path, err)
		}
		if legacy.Projects == nil {
			legacy.Projects = []manifest.ProjectSummary{}
		}
		return legacy.Projects, nil
	}

	entries := []manifest.ProjectSummary{}
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return entries, nil
}

// updateRegistry applies fn to the registry entries and writes the result.
func (s *Store) updateRegistry(fn func([]manifest.ProjectSummary) []manifest.ProjectSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readRegistry()
	if err != nil {
		return err
	}
	entries = fn(entries)
	if entries == nil {
		entries = []manifest.ProjectSummary{}
	}

	data, err := save.Marshal(entries)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(s.registryPath(), data, 0)
}

func without(entries []manifest.ProjectSummary, id string) []manifest.ProjectSummary {
	out := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
