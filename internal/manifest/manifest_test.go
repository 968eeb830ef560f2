package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseCategory tests the alias table
func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"installers", Installer},
		{"Installer", Installer},
		{"MODS", Mod},
		{"mod", Mod},
		{"shaders", Shader},
		{"shaderpacks", Shader},
		{"Shader", Shader},
		{"resourcepacks", ResourcePack},
		{"texturepacks", ResourcePack},
		{"textures", ResourcePack},
		{" resourcepack ", ResourcePack},
		{"configs", Unclassified},
		{"", Unclassified},
	}

	for _, tt := range tests {
		if got := ParseCategory(tt.in); got != tt.want {
			t.Errorf("ParseCategory(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCategoryCritical(t *testing.T) {
	assert.True(t, Mod.Critical())
	assert.True(t, Shader.Critical())
	assert.True(t, ResourcePack.Critical())
	assert.False(t, Installer.Critical())
	assert.False(t, Unclassified.Critical())
}

func TestCategoryJSON(t *testing.T) {
	var f File
	require.NoError(t, json.Unmarshal([]byte(`{"url":"a.jar","category":"ShaderPacks"}`), &f))
	assert.Equal(t, Shader, f.Category)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"category":"shaders"`)

	require.NoError(t, json.Unmarshal([]byte(`{"url":"a.jar"}`), &f))
	assert.Equal(t, Unclassified, f.Category)
}

const sample = `{
  "id": "survival",
  "name": "Survival Pack",
  "recommended": "1.1",
  "versions": [
    { "id": "1.0", "files": [ { "url": "mods/a.jar", "category": "mods" } ] },
    { "id": "1.1", "files": [
        { "path": "installers/forge.jar", "name": "forge.jar", "category": "installers", "installerArgs": ["--installClient", "%INSTALL_DIR%"] },
        { "url": "https://cdn.example.com/b.jar", "category": "mod", "sha256": "abc" }
    ] }
  ]
}`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "Survival Pack", m.Title())
	require.Len(t, m.Versions, 2)
	assert.Equal(t, Installer, m.Versions[1].Files[0].Category)
	assert.Equal(t, []string{"--installClient", "%INSTALL_DIR%"}, m.Versions[1].Files[0].InstallerArgs)
}

// TestParse_Lenient tests manifests with BOM, comments and trailing commas
func TestParse_Lenient(t *testing.T) {
	data := "\xef\xbb\xbf" + `{
  // pack used on the server
  "id": "x",
  /* multi
     line */
  "versions": [
    { "id": "1", "files": [ { "url": "a.jar", "category": "mods", }, ], },
  ],
}`
	m, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "x", m.ID)
	assert.Equal(t, "a.jar", m.Versions[0].Files[0].URL)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("not json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"id":"x","versions":[]}`))
	assert.ErrorIs(t, err, ErrNoVersions)
}

// TestSelectVersion tests explicit, recommended and first-version selection
func TestSelectVersion(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	tests := []struct {
		name        string
		recommended string
		id          string
		want        string
		wantErr     error
	}{
		{"explicit", "1.1", "1.0", "1.0", nil},
		{"recommended", "1.1", "", "1.1", nil},
		{"first when no recommendation", "", "", "1.0", nil},
		{"first when recommendation is stale", "9.9", "", "1.0", nil},
		{"missing", "1.1", "2.0", "", ErrVersionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Recommended = tt.recommended
			v, err := m.SelectVersion(tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.ID)
		})
	}
}

// TestResolve tests placeholder substitution and relative resolution
func TestResolve(t *testing.T) {
	r, err := NewResolver("https://raw.githubusercontent.com/Pimpoli/Packs/main/survival/manifest.json")
	require.NoError(t, err)

	tests := []struct {
		name     string
		file     File
		wantURL  string
		wantName string
	}{
		{
			name:     "relative path",
			file:     File{Path: "mods/a.jar"},
			wantURL:  "https://raw.githubusercontent.com/Pimpoli/Packs/main/survival/mods/a.jar",
			wantName: "a.jar",
		},
		{
			name:     "placeholder",
			file:     File{URL: "https://raw.githubusercontent.com/{owner}/{repo}/{ref}/shared/b.zip", Name: "shared.zip"},
			wantURL:  "https://raw.githubusercontent.com/Pimpoli/Packs/main/shared/b.zip",
			wantName: "shared.zip",
		},
		{
			name:     "absolute url untouched",
			file:     File{URL: "https://cdn.example.com/x/c.jar?dl=1"},
			wantURL:  "https://cdn.example.com/x/c.jar?dl=1",
			wantName: "c.jar",
		},
		{
			name:     "file field",
			file:     File{File: "../common/d.jar"},
			wantURL:  "https://raw.githubusercontent.com/Pimpoli/Packs/main/common/d.jar",
			wantName: "d.jar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got.URL)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}

	_, err = r.Resolve(File{Name: "nothing"})
	assert.Error(t, err)
}

func TestResolve_NoRepoContext(t *testing.T) {
	r, err := NewResolver("https://example.com/m.json")
	require.NoError(t, err)
	_, ok := r.Coordinates()
	assert.False(t, ok)

	got, err := r.Resolve(File{URL: "https://x/{owner}/a.jar"})
	require.NoError(t, err)
	assert.Contains(t, got.URL, "owner")
}

func TestParseIndex(t *testing.T) {
	entries, err := ParseIndex([]byte(`[{"name":"Survival","manifest":"survival/manifest.json"},]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "survival/manifest.json", entries[0].Manifest)

	entries, err = ParseIndex([]byte(`{"packs":[{"name":"A","manifest":"a.json"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "A", entries[0].Name)
}

func TestCandidateURLs(t *testing.T) {
	assert.Equal(t, []string{"https://r/o/x/main/m.json", "https://r/o/x/master/m.json"}, CandidateURLs("https://r/o/x/main/m.json"))
	assert.Equal(t, []string{"https://r/o/x/master/m.json", "https://r/o/x/main/m.json"}, CandidateURLs("https://r/o/x/master/m.json"))
	assert.Equal(t, []string{"https://r/m.json"}, CandidateURLs("https://r/m.json"))
}

type fakeGetter map[string][]byte

func (g fakeGetter) Fetch(_ context.Context, url string, _ *download.Credentials, _ download.ProgressFunc) ([]byte, error) {
	if data, ok := g[url]; ok {
		return data, nil
	}
	return nil, download.ErrNotFound
}

func TestLoad_FallsBackToMaster(t *testing.T) {
	g := fakeGetter{"https://r/o/x/master/m.json": []byte(sample)}
	m, from, err := Load(context.Background(), g, nil, CandidateURLs("https://r/o/x/main/m.json")...)
	require.NoError(t, err)
	assert.Equal(t, "https://r/o/x/master/m.json", from)
	assert.Equal(t, "survival", m.ID)

	_, _, err = Load(context.Background(), fakeGetter{}, nil, "https://nope")
	assert.True(t, errors.Is(err, download.ErrNotFound))
}

func TestIndexEntry_ManifestURL(t *testing.T) {
	const index = "https://raw.githubusercontent.com/o/packs/main/index.json"
	tests := []struct {
		entry IndexEntry
		want  string
	}{
		{IndexEntry{Manifest: "survival/manifest.json"}, "https://raw.githubusercontent.com/o/packs/main/survival/manifest.json"},
		{IndexEntry{Manifest: "./a.json"}, "https://raw.githubusercontent.com/o/packs/main/a.json"},
		{IndexEntry{Manifest: "https://cdn.example.com/m.json"}, "https://cdn.example.com/m.json"},
	}
	for _, tt := range tests {
		got, err := tt.entry.ManifestURL(index)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := IndexEntry{Name: "empty"}.ManifestURL(index)
	assert.Error(t, err)
	assert.Equal(t, "a.json", IndexEntry{Manifest: "a.json"}.Title())
}

func TestLoadIndex(t *testing.T) {
	g := fakeGetter{"https://r/o/x/master/index.json": []byte(`{"packs":[{"name":"A","manifest":"a.json"}]}`)}
	entries, from, err := LoadIndex(context.Background(), g, nil, "https://r/o/x/main/index.json")
	require.NoError(t, err)
	assert.Equal(t, "https://r/o/x/master/index.json", from)
	assert.Equal(t, []IndexEntry{{Name: "A", Manifest: "a.json"}}, entries)

	_, _, err = LoadIndex(context.Background(), fakeGetter{}, nil, "https://r/index.json")
	assert.ErrorIs(t, err, download.ErrNotFound)
}
