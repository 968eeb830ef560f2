package fsutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.txt", []byte("a"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/sub/b.txt", []byte("b"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/skip.txt", []byte("s"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dst/a.txt", []byte("old"), 0644))

	copied, err := CopyTree(fs, "/src", "/dst", func(rel string) bool { return rel == "skip.txt" })
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, copied)

	data, err := afero.ReadFile(fs, "/dst/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
	assert.True(t, Exists(fs, "/dst/sub/b.txt"))
	assert.False(t, Exists(fs, "/dst/skip.txt"))
}

func TestCopyTree_StopsAtFirstFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/src/a.txt", []byte("a"), 0644))
	require.NoError(t, afero.WriteFile(base, "/src/b.txt", []byte("b"), 0644))

	ro := afero.NewReadOnlyFs(base)
	copied, err := CopyTree(ro, "/src", "/dst", nil)
	assert.Error(t, err)
	assert.Empty(t, copied)
}

func TestFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r/z.txt", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/r/a/b.txt", nil, 0644))
	require.NoError(t, fs.MkdirAll("/r/empty", 0755))

	files, err := Files(fs, "/r")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.txt", "z.txt"}, files)
}
