package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoordinatesFromURL tests repository coordinate derivation
func TestCoordinatesFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   Coordinates
		wantOK bool
	}{
		{
			name:   "manifest at repository root",
			url:    "https://raw.githubusercontent.com/Pimpoli/Packs/main/manifest.json",
			want:   Coordinates{Owner: "Pimpoli", Repo: "Packs", Ref: "main", BasePath: ""},
			wantOK: true,
		},
		{
			name:   "manifest in nested folder",
			url:    "https://raw.githubusercontent.com/o/r/master/packs/survival/manifest.json",
			want:   Coordinates{Owner: "o", Repo: "r", Ref: "master", BasePath: "packs/survival"},
			wantOK: true,
		},
		{
			name:   "query string ignored",
			url:    "https://raw.githubusercontent.com/o/r/main/a/m.json?token=x",
			want:   Coordinates{Owner: "o", Repo: "r", Ref: "main", BasePath: "a"},
			wantOK: true,
		},
		{name: "three segments", url: "https://host/o/r/main", wantOK: false},
		{name: "no host", url: "/o/r/main/m.json", wantOK: false},
		{name: "garbage", url: "::not a url", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoordinatesFromURL(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("CoordinatesFromURL(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("CoordinatesFromURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestCoordinatesJoin(t *testing.T) {
	assert.Equal(t, "mods", Coordinates{}.Join("mods"))
	assert.Equal(t, "packs/a/mods", Coordinates{BasePath: "packs/a"}.Join("mods"))
}

// TestListFiles tests listing of a repository directory
func TestListFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/contents/packs/mods", r.URL.Path)
		assert.Equal(t, "master", r.URL.Query().Get("ref"))
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Entry{
			{Name: "a.jar", Path: "packs/mods/a.jar", Type: "file", DownloadURL: "https://dl/a.jar"},
			{Name: "sub", Path: "packs/mods/sub", Type: "dir"},
			{Name: "b.jar", Path: "packs/mods/b.jar", Type: "file", DownloadURL: "https://dl/b.jar"},
		})
	}))
	defer server.Close()

	l := NewLister(server.URL, server.Client(), nil)
	files := l.ListFiles(context.Background(), "owner", "repo", "master", "packs/mods", &download.Credentials{Token: "secret"})
	require.Len(t, files, 2)
	assert.Equal(t, "a.jar", files[0].Name)
	assert.Equal(t, "b.jar", files[1].Name)
}

// TestListFiles_DefaultRef tests that an empty ref leaves the query off
func TestListFiles_DefaultRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(`[{"name":"a.jar","type":"file"}]`))
	}))
	defer server.Close()

	files := NewLister(server.URL, server.Client(), nil).ListFiles(context.Background(), "o", "r", "", "mods", nil)
	require.Len(t, files, 1)
	assert.Equal(t, "a.jar", files[0].Name)
}

// TestListFiles_FailuresYieldEmpty tests that every failure mode returns an empty list
func TestListFiles_FailuresYieldEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{oops")) }},
		{"object instead of list", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"type":"file"}`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			files := NewLister(server.URL, server.Client(), nil).ListFiles(context.Background(), "o", "r", "main", "mods", nil)
			assert.NotNil(t, files)
			assert.Empty(t, files)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()
		files := NewLister(server.URL, nil, nil).ListFiles(context.Background(), "o", "r", "main", "mods", nil)
		assert.Empty(t, files)
	})
}

// TestClientURLs tests URL construction for raw files, archives and release assets
func TestClientURLs(t *testing.T) {
	c := NewClient("Pimpoli", "MultiGameInc-Launcher", nil)

	assert.Equal(t, "https://raw.githubusercontent.com/Pimpoli/MultiGameInc-Launcher/main/launcher-version.json",
		c.RawURL("main", "/launcher-version.json"))
	assert.Equal(t, "https://github.com/Pimpoli/MultiGameInc-Launcher/archive/refs/heads/main.zip",
		c.ArchiveURL("main"))

	urls := c.ReleaseAssetURLs("v1.2.0", []string{"{repo}-{version}.zip", "{repo}.zip"})
	assert.Equal(t, []string{
		"https://github.com/Pimpoli/MultiGameInc-Launcher/releases/download/v1.2.0/MultiGameInc-Launcher-1.2.0.zip",
		"https://github.com/Pimpoli/MultiGameInc-Launcher/releases/download/v1.2.0/MultiGameInc-Launcher.zip",
		"https://github.com/Pimpoli/MultiGameInc-Launcher/releases/download/1.2.0/MultiGameInc-Launcher-1.2.0.zip",
		"https://github.com/Pimpoli/MultiGameInc-Launcher/releases/download/1.2.0/MultiGameInc-Launcher.zip",
	}, urls)

	c.SetEndpoints(Endpoints{Web: "http://localhost:9/"})
	assert.Equal(t, "http://localhost:9/Pimpoli/MultiGameInc-Launcher/archive/refs/heads/dev.zip", c.ArchiveURL("dev"))
}

// TestLatestCommit tests commit lookup against an injected API base
func TestLatestCommit(t *testing.T) {
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/o/r/commits/main") {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(Commit{SHA: "abc", Commit: CommitInner{Message: "Fix shaders", Author: CommitAuthor{Name: "dev", Date: date}}})
	}))
	defer server.Close()

	c := NewClient("o", "r", server.Client())
	c.SetEndpoints(Endpoints{API: server.URL})

	got, err := c.LatestCommit(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.SHA)
	assert.Equal(t, "Fix shaders", got.Commit.Message)
	assert.Equal(t, date, got.Commit.Author.Date)

	_, err = c.LatestCommit(context.Background(), "missing")
	assert.ErrorContains(t, err, "HTTP 404")
}
