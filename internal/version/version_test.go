package version

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "1.2.3", "1.2.3", 0},
		{"missing components are zero", "1.2", "1.2.0", 0},
		{"patch greater", "1.2.4", "1.2.3", 1},
		{"minor less", "1.1.9", "1.2.0", -1},
		{"numeric not lexical", "1.10.0", "1.9.0", 1},
		{"longer wins when extra is nonzero", "1.2.0.1", "1.2", 1},
		{"non-numeric component is zero", "1.x", "1.0", 0},
		{"leading digits only", "1.3beta", "1.3", 0},
		{"v prefix is not a number", "v2.0", "0.0", 0},
		{"empty is zero", "", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	assert.True(t, IsNewer("1.0.1", "1.0.0"))
	assert.False(t, IsNewer("1.0.0", "1.0.0"))
	assert.False(t, IsNewer("0.9", "1.0"))
}

func TestLoadLocal(t *testing.T) {
	fs := afero.NewMemMapFs()
	appRoot := "/app"
	userData := "/data"

	_, err := LoadLocal(fs, appRoot, userData)
	assert.ErrorIs(t, err, ErrNoLocalVersion)

	// Fallback to user data marker.
	require.NoError(t, afero.WriteFile(fs, filepath.Join(userData, UserDataFile), []byte(`{"version":"0.5.0"}`), 0644))
	got, err := LoadLocal(fs, appRoot, userData)
	require.NoError(t, err)
	assert.Equal(t, "0.5.0", got)

	// App root marker wins.
	require.NoError(t, SaveMarker(fs, appRoot, "1.0.0"))
	got, err = LoadLocal(fs, appRoot, userData)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got)
}

func TestLoadLocalIgnoresCorruptMarker(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/"+MarkerFile, []byte("{not json"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/data/"+UserDataFile, []byte(`{"version":"2.1"}`), 0644))

	got, err := LoadLocal(fs, "/app", "/data")
	require.NoError(t, err)
	assert.Equal(t, "2.1", got)
}

func TestParseRemote(t *testing.T) {
	r, err := ParseRemote([]byte(`{"version":"1.4.0","release_zip":"releases/app.zip","published_at":"2024-05-01"}`))
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", r.Version)
	assert.Equal(t, "releases/app.zip", r.ReleaseZip)
	assert.Equal(t, "2024-05-01", r.Released())

	_, err = ParseRemote([]byte("nope"))
	assert.Error(t, err)
}
