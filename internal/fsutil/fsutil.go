// Package fsutil holds the filesystem helpers shared by generators.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	generr "shireesh.com/stackgen/internal/errors"
)

const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

// Mkdir creates a single directory. An existing entry at path is a conflict.
func Mkdir(path string) error {
	if err := os.Mkdir(path, DirPerm); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return generr.WrapWithDetails(generr.EPathConflict, "path already exists", err, map[string]string{"path": path})
		}
		return generr.Wrap(generr.EIO, "create directory "+path, err)
	}
	return nil
}

// MkdirAll creates path and any missing parents.
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, DirPerm); err != nil {
		return generr.Wrap(generr.EIO, "create directory "+path, err)
	}
	return nil
}

// WriteFile writes a complete file, replacing any existing content.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, FilePerm); err != nil {
		return generr.Wrap(generr.EIO, "write "+path, err)
	}
	return nil
}

// ReadFile reads path. A missing file keeps fs.ErrNotExist in the chain.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, generr.Wrap(generr.EIO, "read "+path, err)
	}
	return data, nil
}

// Exists reports whether path exists. Errors other than not-exist are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, generr.Wrap(generr.EIO, "stat "+path, err)
}

// WriteFileAtomic writes data to path atomically using a temp file + rename.
// The temp file is created in the same directory as path so the rename stays
// on one filesystem. On failure the original file is left unchanged.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".stackgen-tmp-*")
	if err != nil {
		return generr.Wrap(generr.EIO, "write "+path, err)
	}
	tmpPath := f.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return generr.Wrap(generr.EIO, "write "+path, err)
	}
	if err := f.Close(); err != nil {
		return generr.Wrap(generr.EIO, "write "+path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return generr.Wrap(generr.EIO, "write "+path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return generr.Wrap(generr.EIO, "write "+path, err)
	}

	success = true
	return nil
}

// PatchFile is a read-modify-write of an existing file. The file keeps its
// permissions and is replaced atomically. When patch returns the input
// unchanged nothing is written.
func PatchFile(path string, patch func([]byte) ([]byte, error)) error {
	info, err := os.Stat(path)
	if err != nil {
		return generr.Wrap(generr.EIO, "read "+path, err)
	}
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	out, err := patch(data)
	if err != nil {
		return err
	}
	if string(out) == string(data) {
		return nil
	}
	return WriteFileAtomic(path, out, info.Mode().Perm())
}
