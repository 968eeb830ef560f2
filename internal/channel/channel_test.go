package channel

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaveAndLoad tests saving and loading channel configuration
func TestSaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()

	for _, channel := range []string{"stable", "dev", "feature/test-branch", "custom"} {
		t.Run(channel, func(t *testing.T) {
			require.NoError(t, Save(fs, "/data", channel))
			loaded, err := Load(fs, "/data")
			require.NoError(t, err)
			assert.Equal(t, channel, loaded)
		})
	}
}

// TestLoad_TrimsWhitespace tests that whitespace is trimmed from loaded channel
func TestLoad_TrimsWhitespace(t *testing.T) {
	fs := afero.NewMemMapFs()
	tests := []struct {
		name    string
		content string
	}{
		{"leading space", "  stable"},
		{"trailing space", "stable  "},
		{"newline at end", "stable\n"},
		{"tabs and spaces", "\t stable \t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, afero.WriteFile(fs, filepath.Join("/data", ChannelFile), []byte(tt.content), 0644))
			loaded, err := Load(fs, "/data")
			require.NoError(t, err)
			assert.Equal(t, "stable", loaded)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nowhere")
	assert.Error(t, err)
}

func TestBranch(t *testing.T) {
	tests := []struct {
		channel string
		branch  string
		builtIn bool
	}{
		{"stable", "main", true},
		{"STABLE", "main", true},
		{"dev", "dev", true},
		{"feature/x", "feature/x", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			assert.Equal(t, tt.branch, Branch(tt.channel))
			assert.Equal(t, tt.builtIn, IsBuiltIn(tt.channel))
		})
	}
}
