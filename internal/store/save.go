package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/geomanifest/internal/atomicfile"
	"github.com/agentstation/geomanifest/pkg/aprx"
	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/gdb"
	"github.com/agentstation/geomanifest/pkg/logging"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/provenance"
	"github.com/agentstation/geomanifest/pkg/save"
)

// SaveRequest is everything persisted for one ingestion run.
type SaveRequest struct {
	Manifest *manifest.Manifest
	// Database supplies the full per-layer profiles; nil skips them.
	Database *gdb.Database
	// ArchivePath is the project archive whose JSON members are unpacked;
	// empty when the run had no archive.
	ArchivePath string
	// Provenance is written when non-empty.
	Provenance provenance.Map
}

// Save writes a project and replaces its registry entry. The project
// directory is assembled in a staging directory and swapped in at the end.
// The previous version is kept aside until the registry is written and is
// restored if that write fails, so a failed save leaves it untouched.
func (s *Store) Save(ctx context.Context, req SaveRequest) error {
	if req.Manifest == nil {
		return errors.NewValidationError("manifest", nil, "manifest is required")
	}
	id := req.Manifest.Project.ID
	if err := ValidateID(id); err != nil {
		return err
	}
	logger := logging.FromContext(ctx).With().Str("project_id", id).Logger()

	if err := os.MkdirAll(s.root, constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", s.root, err)
	}
	staging, err := os.MkdirTemp(s.root, "."+id+".staging-")
	if err != nil {
		return errors.WrapIO("mkdir", s.root, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := s.writeProject(ctx, staging, req); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapResource("save", "project", id, errors.ErrCanceled)
	}

	dir := s.Dir(id)
	old, err := s.swap(staging, dir)
	if err != nil {
		return err
	}
	committed = true

	summary := manifest.Summary(req.Manifest)
	if err := s.updateRegistry(func(entries []manifest.ProjectSummary) []manifest.ProjectSummary {
		return append(without(entries, id), summary)
	}); err != nil {
		if rerr := restore(dir, old); rerr != nil {
			logger.Error().Err(rerr).Str("backup", old).Msg("failed to restore previous project version")
		}
		return err
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			logger.Warn().Err(err).Str("backup", old).Msg("failed to remove previous project version")
		}
	}

	logger.Info().
		Str("dir", dir).
		Int("layers", len(req.Manifest.Layers)).
		Msg("saved project")
	return nil
}

func (s *Store) writeProject(ctx context.Context, dir string, req SaveRequest) error {
	m := req.Manifest
	if err := writeDocument(filepath.Join(dir, constants.ManifestFile), m); err != nil {
		return err
	}
	if err := writeDocument(filepath.Join(dir, constants.MappingFile), manifest.DebugMapping(m)); err != nil {
		return err
	}

	if len(req.Provenance) > 0 {
		data, err := provenance.Marshal(req.Provenance)
		if err != nil {
			return errors.WrapParse("yaml", constants.ProvenanceFile, err)
		}
		if err := atomicfile.WriteFile(filepath.Join(dir, constants.ProvenanceFile), data, 0); err != nil {
			return err
		}
	}

	if req.Database != nil {
		profiles := filepath.Join(dir, constants.ProfilesDir)
		for _, l := range m.Layers {
			lp, ok := req.Database.Layer(l.LayerID)
			if !ok {
				continue
			}
			if err := writeDocument(filepath.Join(profiles, SafeName(l.LayerID)+".json"), lp); err != nil {
				return err
			}
		}
	}

	if req.ArchivePath != "" {
		if err := unpack(ctx, req.ArchivePath, filepath.Join(dir, constants.UnpackedArchiveDir)); err != nil {
			return err
		}
	}
	return nil
}

func writeDocument(path string, v any) error {
	return atomicfile.Write(path, 0, func(w io.Writer) error {
		return save.Write(v, save.WithWriter(w), save.WithPath(path))
	})
}

// unpack copies the JSON members of an archive below dir. Members whose
// names would escape dir are skipped.
func unpack(ctx context.Context, archive, dir string) error {
	members, err := aprx.Members(archive)
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)
	for _, mem := range members {
		target, ok := memberPath(dir, mem.Name)
		if !ok {
			logger.Warn().Str("member", mem.Name).Msg("skipping archive member outside the unpack directory")
			continue
		}
		if err := atomicfile.WriteFile(target, mem.Data, 0); err != nil {
			return err
		}
	}
	return nil
}

// memberPath maps an archive member name below dir.
func memberPath(dir, name string) (string, bool) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", false
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

// swap moves staging to dir. An existing dir is moved aside and its new
// location returned; the caller removes it once the save is committed.
func (s *Store) swap(staging, dir string) (string, error) {
	old := ""
	if ok, err := exists(dir); err != nil {
		return "", err
	} else if ok {
		old = staging + ".old"
		if err := os.Rename(dir, old); err != nil {
			return "", errors.WrapIO("rename", dir, err)
		}
	}

	if err := os.Rename(staging, dir); err != nil {
		if old != "" {
			_ = os.Rename(old, dir)
		}
		return "", errors.WrapIO("rename", staging, err)
	}
	return old, nil
}

// restore undoes a swap: dir is removed and old, when set, moved back.
func restore(dir, old string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapIO("remove", dir, err)
	}
	if old == "" {
		return nil
	}
	if err := os.Rename(old, dir); err != nil {
		return errors.WrapIO("rename", old, err)
	}
	return nil
}

// Delete removes a project directory and its registry entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	registered, err := s.Exists(id)
	if err != nil {
		return err
	}
	onDisk, err := exists(s.Dir(id))
	if err != nil {
		return err
	}
	if !registered && !onDisk {
		return errors.NewNotFoundError("project", id)
	}

	if err := os.RemoveAll(s.Dir(id)); err != nil {
		return errors.WrapIO("remove", s.Dir(id), err)
	}
	if err := s.updateRegistry(func(entries []manifest.ProjectSummary) []manifest.ProjectSummary {
		return without(entries, id)
	}); err != nil {
		return err
	}

	logging.FromContext(ctx).Info().Str("project_id", id).Msg("deleted project")
	return nil
}
