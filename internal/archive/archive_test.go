package archive

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// extractBytes stores data as a zip on fs and extracts it.
func extractBytes(t *testing.T, fs afero.Fs, data []byte, targetDir string, progress ProgressFunc) error {
	t.Helper()
	zipPath := filepath.Join("/zips", filepath.Base(targetDir)+".zip")
	require.NoError(t, afero.WriteFile(fs, zipPath, data, 0644))
	return ExtractFile(fs, zipPath, targetDir, progress)
}

func TestExtract(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := buildZip(t, map[string]string{
		"mods/a.jar":   "A",
		"mods/b.jar":   "B",
		"readme.txt":   "hi",
		"config/x.cfg": "x",
	})

	var seen int
	require.NoError(t, extractBytes(t, fs, data, "/out", func(current, total int, name string) { seen++ }))
	assert.Equal(t, 4, seen)

	got, err := afero.ReadFile(fs, "/out/mods/a.jar")
	require.NoError(t, err)
	assert.Equal(t, "A", string(got))
}

// TestExtract_PreventTraversal tests that entries escaping the target abort extraction
func TestExtract_PreventTraversal(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := buildZip(t, map[string]string{"../evil.txt": "x"})

	require.Error(t, extractBytes(t, fs, data, "/out", nil))

	_, statErr := fs.Stat("/evil.txt")
	assert.Error(t, statErr)
}

func TestExtract_NotAZip(t *testing.T) {
	assert.Error(t, extractBytes(t, afero.NewMemMapFs(), []byte("plain"), "/out", nil))
}

func TestExtractFile(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pack.zip")
	require.NoError(t, afero.WriteFile(fs, zipPath, buildZip(t, map[string]string{"a.txt": "a"}), 0644))

	require.NoError(t, ExtractFile(fs, zipPath, filepath.Join(dir, "out"), nil))
	got, err := afero.ReadFile(fs, filepath.Join(dir, "out", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}

// TestSingleRoot tests promotion of a lone top-level directory
func TestSingleRoot(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, extractBytes(t, fs, buildZip(t, map[string]string{
		"Launcher-main/main.js":     "m",
		"Launcher-main/lib/util.js": "u",
	}), "/wrapped", nil))
	root, err := SingleRoot(fs, "/wrapped")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/wrapped", "Launcher-main"), root)

	require.NoError(t, extractBytes(t, fs, buildZip(t, map[string]string{
		"main.js":     "m",
		"lib/util.js": "u",
	}), "/flat", nil))
	root, err = SingleRoot(fs, "/flat")
	require.NoError(t, err)
	assert.Equal(t, "/flat", root)
}

func TestIsZip(t *testing.T) {
	assert.True(t, IsZip("pack.ZIP"))
	assert.True(t, IsZip("mods.zip"))
	assert.False(t, IsZip("mod.jar"))
}
