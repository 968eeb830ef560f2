package testing

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// LenientManifest is a hand-edited manifest with a BOM, comments and trailing
// commas. Its files are relative to the manifest location.
const LenientManifest = "\ufeff" + `{
  // hand maintained
  "id": "survival",
  "name": "Survival Pack",
  "recommended": "1.1",
  "versions": [
    {
      "id": "1.0",
      "files": [
        { "path": "mods/old.jar", "category": "mod" },
      ],
    },
    {
      "id": "1.1",
      "name": "Survival 1.1",
      /* loaders are installed separately */
      "files": [
        { "path": "mods/core.jar", "category": "mods" },
        { "path": "shaders/sky.zip", "category": "shaderpacks" },
        { "path": "installers/forge-installer.jar", "category": "installer", "installerArgs": ["--installClient", "%INSTALL_DIR%"] },
      ],
    },
  ],
}`

// JSON marshals v or fails the test.
func JSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// VersionDescriptor returns a remote launcher version document.
func VersionDescriptor(t *testing.T, version, releaseZip string) []byte {
	t.Helper()
	desc := map[string]string{"version": version, "date": "2025-01-31"}
	if releaseZip != "" {
		desc["release_zip"] = releaseZip
	}
	return JSON(t, desc)
}

// ZipBytes builds an in-memory zip archive. Entries are written in name order.
func ZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
