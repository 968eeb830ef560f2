// Package integration runs the install pipeline and the self-updater against
// a mock repository host with real HTTP, fetcher and file system.
package integration

import (
	"path/filepath"
	"testing"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/github"
	"github.com/multigameinc/launcher/internal/install"
	"github.com/multigameinc/launcher/internal/metrics"
	"github.com/multigameinc/launcher/internal/state"
	lt "github.com/multigameinc/launcher/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	owner = "o"
	repo  = "r"
)

// TestEnvironment represents a complete test environment
type TestEnvironment struct {
	T          *testing.T
	Server     *lt.MockRepoServer
	Fetcher    *download.Fetcher
	Lister     *github.Lister
	Metrics    *metrics.Recorder
	GameDir    string
	StagingDir string
	State      *state.Store
}

// SetupTestEnvironment creates a complete test environment
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	srv := lt.NewMockRepoServer(t)
	log := zaptest.NewLogger(t)

	store, err := state.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &TestEnvironment{
		T:          t,
		Server:     srv,
		Fetcher:    download.NewFetcher(srv.Client(), log),
		Lister:     github.NewLister(srv.Endpoints().API, srv.Client(), log),
		Metrics:    metrics.New(),
		GameDir:    t.TempDir(),
		StagingDir: t.TempDir(),
		State:      store,
	}
}

// Pipeline returns an install pipeline wired to the mock host.
func (e *TestEnvironment) Pipeline() *install.Pipeline {
	return install.New(install.Options{
		Fetcher:     e.Fetcher,
		Lister:      e.Lister,
		StagingRoot: e.StagingDir,
		Log:         zaptest.NewLogger(e.T),
		Metrics:     e.Metrics,
	})
}

// PublishPack serves lt.LenientManifest and its files on ref and returns the
// manifest URL. The installers and resourcepacks folders hold extra files
// only found by directory discovery.
func (e *TestEnvironment) PublishPack(ref string, skip ...string) string {
	e.T.Helper()
	skipped := map[string]bool{}
	for _, s := range skip {
		skipped[s] = true
	}
	files := map[string]string{
		"packs/mods/core.jar":                    "core mod",
		"packs/shaders/sky.zip":                  "sky shader",
		"packs/installers/forge-installer.jar":   "forge",
		"packs/installers/fabric-installer.jar":  "fabric",
		"packs/resourcepacks/faithful.zip":       "faithful",
		"packs/resourcepacks/programmer-art.zip": "programmer art",
	}
	e.Server.SetRaw(owner, repo, ref, "packs/manifest.json", []byte(lt.LenientManifest))
	for p, content := range files {
		if !skipped[p] {
			e.Server.SetRaw(owner, repo, ref, p, []byte(content))
		}
	}
	require.NoError(e.T, e.Server.SetDirectory(owner, repo, ref, "packs/installers", "forge-installer.jar", "fabric-installer.jar"))
	require.NoError(e.T, e.Server.SetDirectory(owner, repo, ref, "packs/resourcepacks", "faithful.zip", "programmer-art.zip"))
	return e.Server.RawURL(owner, repo, ref, "packs/manifest.json")
}

// Game returns the path of a file in the game directory.
func (e *TestEnvironment) Game(rel string) string {
	return filepath.Join(e.GameDir, filepath.FromSlash(rel))
}

// StagingSessions lists the staging directories left behind.
func (e *TestEnvironment) StagingSessions() []string {
	e.T.Helper()
	matches, err := filepath.Glob(filepath.Join(e.StagingDir, "staging-*"))
	require.NoError(e.T, err)
	return matches
}
