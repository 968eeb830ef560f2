// Package fsutil holds file copy helpers shared by install and self-update.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Exists reports whether path exists on fs.
func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// CopyFile copies src to dst, creating parent directories and replacing dst.
func CopyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent dir for %s: %w", dst, err)
	}
	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0200)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// Files returns the slash separated paths of all regular files under root,
// relative to root, in lexical order.
func Files(fs afero.Fs, root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CopyTree copies every file under src into dst, overwriting existing files.
// Files for which skip returns true are left alone. The first failure stops
// the copy; files copied before it stay in place.
func CopyTree(fs afero.Fs, src, dst string, skip func(rel string) bool) ([]string, error) {
	files, err := Files(fs, src)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", src, err)
	}

	var copied []string
	for _, rel := range files {
		if skip != nil && skip(rel) {
			continue
		}
		if err := CopyFile(fs, filepath.Join(src, filepath.FromSlash(rel)), filepath.Join(dst, filepath.FromSlash(rel))); err != nil {
			return copied, err
		}
		copied = append(copied, rel)
	}
	return copied, nil
}
