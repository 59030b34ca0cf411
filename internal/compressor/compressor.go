// Package compressor archives generated projects as zip files.
package compressor

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	generr "shireesh.com/stackgen/internal/errors"
	"shireesh.com/stackgen/internal/fsutil"
)

// SkipFunc reports whether a directory entry, given by its slash-separated
// path relative to the archive root, should be left out. Skipping a
// directory skips everything below it.
type SkipFunc func(rel string, isDir bool) bool

// DependencyDirs are folders that installs recreate and archives leave out.
var DependencyDirs = []string{"node_modules", ".venv", "venv", "__pycache__", ".git"}

// SkipDependencyDirs skips every directory named in DependencyDirs.
func SkipDependencyDirs(rel string, isDir bool) bool {
	if !isDir {
		return false
	}
	base := rel[strings.LastIndex(rel, "/")+1:]
	for _, d := range DependencyDirs {
		if base == d {
			return true
		}
	}
	return false
}

// ZipDir zips the contents of srcDir into destZip, including all
// subdirectories. A nil skip keeps everything. destZip must not be inside
// srcDir.
func ZipDir(srcDir, destZip string, skip SkipFunc) error {
	if _, err := os.Stat(srcDir); err != nil {
		return generr.Wrap(generr.EIO, "archive source "+srcDir, err)
	}
	if err := fsutil.MkdirAll(filepath.Dir(destZip)); err != nil {
		return err
	}
	zipfile, err := os.Create(destZip)
	if err != nil {
		return generr.Wrap(generr.EIO, "create "+destZip, err)
	}
	defer zipfile.Close()

	archive := zip.NewWriter(zipfile)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if skip != nil && skip(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = relPath
		if info.IsDir() {
			header.Name += "/"
			_, err := archive.CreateHeader(header)
			return err
		}
		if !info.Mode().IsRegular() {
			// symlinks and devices are not archived
			return nil
		}
		header.Method = zip.Deflate

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		f, err := archive.CreateHeader(header)
		if err != nil {
			return err
		}
		_, err = io.Copy(f, file)
		return err
	})
	if err != nil {
		archive.Close()
		return generr.Wrap(generr.EIO, "archive "+srcDir, err)
	}
	if err := archive.Close(); err != nil {
		return generr.Wrap(generr.EIO, "finish "+destZip, err)
	}
	return nil
}

// Unzip extracts srcZip into destDir. Entries that would land outside
// destDir are rejected.
func Unzip(srcZip, destDir string) error {
	r, err := zip.OpenReader(srcZip)
	if err != nil {
		return generr.Wrap(generr.EIO, "open "+srcZip, err)
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return generr.Wrap(generr.EIO, "resolve "+destDir, err)
	}
	for _, f := range r.File {
		fpath := filepath.Join(root, filepath.FromSlash(f.Name))
		if fpath != root && !strings.HasPrefix(fpath, root+string(os.PathSeparator)) {
			return generr.WrapWithDetails(generr.EPathConflict, "archive entry escapes destination", nil, map[string]string{"entry": f.Name})
		}
		if f.FileInfo().IsDir() {
			if err := fsutil.MkdirAll(fpath); err != nil {
				return err
			}
			continue
		}
		if err := fsutil.MkdirAll(filepath.Dir(fpath)); err != nil {
			return err
		}
		if err := extract(f, fpath); err != nil {
			return generr.Wrap(generr.EIO, "extract "+f.Name, err)
		}
	}
	return nil
}

func extract(f *zip.File, dst string) error {
	outFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm())
	if err != nil {
		return err
	}
	defer outFile.Close()
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(outFile, rc)
	return err
}
