// Package store persists ingested projects on the local filesystem.
//
// Layout under the store root:
//
//	_index.json                      registry of project summaries
//	<id>/manifest.json               catalog manifest
//	<id>/layer_mapping.json          debug mapping
//	<id>/provenance.yaml             display-name source per layer
//	<id>/layer_profiles/<layer>.json full database profile per layer
//	<id>/aprx_unpacked/<member>      JSON members of the project archive
//
// Every file is replaced atomically and a project directory is swapped in
// only after all of its files were written.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gosimple/slug"

	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
)

// Store reads and writes projects below a root directory.
type Store struct {
	root string
	// mu serializes registry read-modify-write cycles within the process.
	mu sync.Mutex
}

// New returns a store rooted at dir; an empty dir uses constants.DefaultProjectsDir.
func New(dir string) *Store {
	if dir == "" {
		dir = constants.DefaultProjectsDir
	}
	return &Store{root: dir}
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a project.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// ValidateID checks that a project id is a slug: lowercase letters, digits
// and single hyphens. slug.IsSlug also admits underscores and repeated
// hyphens, so both are rejected here.
func ValidateID(id string) error {
	if !slug.IsSlug(id) || strings.ContainsRune(id, '_') || strings.Contains(id, "--") {
		return errors.NewValidationError("project_id", id, "must be a lowercase slug such as \"north-field-2024\"")
	}
	return nil
}

// SafeName maps a layer id onto a file name.
func SafeName(layerID string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(layerID)
}

func (s *Store) path(id string, parts ...string) string {
	return filepath.Join(append([]string{s.Dir(id)}, parts...)...)
}

func (s *Store) registryPath() string {
	return filepath.Join(s.root, constants.RegistryFile)
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.WrapIO("stat", path, err)
	}
}
