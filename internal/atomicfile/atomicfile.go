// Package atomicfile replaces files through a temporary sibling and a rename,
// so readers never observe a partially written document.
package atomicfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/geomanifest/pkg/constants"
	"github.com/agentstation/geomanifest/pkg/errors"
)

// WriteFile writes data to path atomically, creating missing parent
// directories. A zero perm keeps the mode of an existing file and otherwise
// uses constants.FilePermissions.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return Write(path, perm, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// Write streams fn's output into a temporary file next to path and renames
// it into place once fn and the flush succeed. On any error path is left
// untouched.
func Write(path string, perm os.FileMode, fn func(w io.Writer) error) error {
	if perm == 0 {
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode().Perm()
		} else {
			perm = constants.FilePermissions
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapIO("create temp", path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	_ = tmp.Chmod(perm)

	if err := fn(tmp); err != nil {
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WrapIO("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}

	// Windows refuses to rename over an existing file.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return errors.WrapIO("rename", path, err)
		}
	}

	committed = true
	return nil
}
