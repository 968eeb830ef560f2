// Package archive extracts zip packages onto an afero filesystem.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/multigameinc/launcher/internal/paths"
	"github.com/spf13/afero"
)

// ProgressFunc is called during extraction with current file index and total files.
type ProgressFunc func(current, total int, filename string)

// IsZip reports whether name looks like a zip archive.
func IsZip(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// ExtractFile unpacks the zip stored at zipPath on fs into targetDir. Entries
// that would land outside targetDir abort the extraction.
func ExtractFile(fs afero.Fs, zipPath, targetDir string, progress ProgressFunc) error {
	f, err := fs.Open(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat zip: %w", err)
	}
	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	return extract(fs, reader, targetDir, progress)
}

func extract(fs afero.Fs, reader *zip.Reader, targetDir string, progress ProgressFunc) error {
	if err := fs.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", targetDir, err)
	}

	total := len(reader.File)
	for i, f := range reader.File {
		relPath := strings.TrimLeft(strings.ReplaceAll(f.Name, "\\", "/"), "/")
		if relPath == "" {
			continue
		}
		if progress != nil {
			progress(i+1, total, relPath)
		}

		target, err := paths.Within(targetDir, relPath)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", relPath, err)
			}
			continue
		}

		if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create parent dir for %s: %w", relPath, err)
		}
		if err := extractFile(fs, f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", relPath, err)
		}
	}
	return nil
}

func extractFile(fs afero.Fs, f *zip.File, targetPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := fs.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// SingleRoot returns the directory that holds the package content. When dir
// contains exactly one entry and it is a directory (the usual "repo-branch/"
// wrapper of snapshot archives) that directory is returned, otherwise dir.
func SingleRoot(fs afero.Fs, dir string) (string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}
