// Package install downloads a manifest version into a staging session and
// applies it to a game directory.
//
// Apply is best effort and not transactional: each staged file is placed
// independently, failures are logged and skipped, and nothing already placed
// is rolled back. Staged files are copied rather than moved, so re-running
// Apply against a surviving staging directory produces the same result.
package install

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/github"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/multigameinc/launcher/internal/metrics"
	"github.com/multigameinc/launcher/internal/progress"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	MetaFile        = "meta.json"
	ModsDir         = "mods"
	ShaderDir       = "shaderpacks"
	ResourcePackDir = "resourcepacks"
	InstallerDir    = "launcher_installers"

	// InstallDirToken in installer arguments is replaced by the install path.
	InstallDirToken = "%INSTALL_DIR%"
)

var (
	ErrBusy         = errors.New("another install operation is in progress")
	ErrNoCheckpoint = errors.New("staging directory has no readable checkpoint")
	ErrNoInstallDir = errors.New("no install directory given")
)

// Fetcher retrieves remote content into memory.
type Fetcher interface {
	Fetch(ctx context.Context, url string, creds *download.Credentials, onProgress download.ProgressFunc) ([]byte, error)
}

// RepoLister lists the files of a repository directory, returning an empty
// list when it cannot.
type RepoLister interface {
	ListFiles(ctx context.Context, owner, repo, ref, dirPath string, creds *download.Credentials) []github.Entry
}

type Status string

const (
	StatusApplied         Status = "applied"
	StatusMissingCritical Status = "missing_critical"
)

// Request describes one install.
type Request struct {
	ManifestURL string
	// Manifest may be supplied when the caller already loaded it.
	Manifest          *manifest.Manifest
	VersionID         string
	InstallPath       string
	SelectedInstaller string
	Credentials       *download.Credentials
}

// FileMeta is one staged file as recorded in the checkpoint.
type FileMeta struct {
	Name          string            `json:"name"`
	Category      manifest.Category `json:"category"`
	TmpName       string            `json:"tmpName"`
	ResolvedURL   string            `json:"resolvedUrl"`
	InstallerArgs []string          `json:"installerArgs,omitempty"`
	Original      *manifest.File    `json:"original,omitempty"`
}

// Checkpoint is the meta.json written into every staging directory. Apply
// needs nothing else.
type Checkpoint struct {
	ManifestURL           string     `json:"manifestUrl"`
	VersionID             string     `json:"versionId"`
	FilesMeta             []FileMeta `json:"filesMeta"`
	MissingInstallers     []string   `json:"missingInstallers"`
	MissingCritical       []string   `json:"missingCritical"`
	SelectedInstallerName string     `json:"selectedInstallerName,omitempty"`
}

// Result is returned by a completed apply. BackupDir is always nil: the game
// directory is not snapshotted.
type Result struct {
	BackupDir         *string  `json:"backupDir"`
	InstallerPath     string   `json:"installerPath,omitempty"`
	InstallerArgs     []string `json:"installerArgs,omitempty"`
	MissingInstallers []string `json:"missingInstallers"`
	Placed            []string `json:"placed,omitempty"`
	Skipped           []string `json:"skipped,omitempty"`
	Failed            []string `json:"failed,omitempty"`
}

// Outcome of Install. With StatusMissingCritical the staging directory is
// left in place for ApplyStaged or Cleanup.
type Outcome struct {
	Status            Status
	StagingDir        string
	Checkpoint        *Checkpoint
	MissingCritical   []string
	MissingInstallers []string
	Result            *Result
}

type Options struct {
	Fs          afero.Fs
	Fetcher     Fetcher
	Lister      RepoLister
	StagingRoot string
	Log         *zap.Logger
	Metrics     *metrics.Recorder
}

// Pipeline runs installs. A Pipeline performs one operation at a time;
// concurrent calls fail fast with ErrBusy.
type Pipeline struct {
	fs          afero.Fs
	fetcher     Fetcher
	lister      RepoLister
	stagingRoot string
	log         *zap.Logger
	metrics     *metrics.Recorder
	mu          sync.Mutex
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		fs:          opts.Fs,
		fetcher:     opts.Fetcher,
		lister:      opts.Lister,
		stagingRoot: opts.StagingRoot,
		log:         opts.Log,
		metrics:     opts.Metrics,
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.log = p.log.With(zap.String("component", "install"))
	if p.fetcher == nil {
		p.fetcher = download.NewFetcher(&http.Client{}, p.log)
	}
	if p.stagingRoot == "" {
		p.stagingRoot = filepath.Join(os.TempDir(), "multigame-launcher")
	}
	return p
}

// Install stages every file of the requested version and, unless critical
// files are missing, applies them.
func (p *Pipeline) Install(ctx context.Context, req Request, sink progress.Sink) (*Outcome, error) {
	if !p.mu.TryLock() {
		return nil, ErrBusy
	}
	defer p.mu.Unlock()
	sink = progress.Or(sink)

	if req.InstallPath == "" {
		return nil, ErrNoInstallDir
	}

	cp, dir, err := p.stage(ctx, req, sink)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		StagingDir:        dir,
		Checkpoint:        cp,
		MissingCritical:   cp.MissingCritical,
		MissingInstallers: cp.MissingInstallers,
	}
	if len(cp.MissingCritical) > 0 {
		p.log.Warn("critical files missing, waiting for a decision", zap.Strings("missing", cp.MissingCritical), zap.String("staging", dir))
		p.metrics.Install(string(StatusMissingCritical))
		out.Status = StatusMissingCritical
		return out, nil
	}

	res, err := p.apply(ctx, dir, req.InstallPath, sink)
	if err != nil {
		return nil, err
	}
	p.metrics.Install(string(StatusApplied))
	out.Status = StatusApplied
	out.Result = res
	return out, nil
}

// Stage downloads into a new staging session and writes its checkpoint
// without applying anything.
func (p *Pipeline) Stage(ctx context.Context, req Request, sink progress.Sink) (*Checkpoint, string, error) {
	if !p.mu.TryLock() {
		return nil, "", ErrBusy
	}
	defer p.mu.Unlock()
	return p.stage(ctx, req, progress.Or(sink))
}

// ApplyStaged applies a staging directory produced by Install or Stage. It is
// the "proceed" answer to StatusMissingCritical.
func (p *Pipeline) ApplyStaged(ctx context.Context, stagingDir, installPath string, sink progress.Sink) (*Result, error) {
	if !p.mu.TryLock() {
		return nil, ErrBusy
	}
	defer p.mu.Unlock()
	if installPath == "" {
		return nil, ErrNoInstallDir
	}
	res, err := p.apply(ctx, stagingDir, installPath, progress.Or(sink))
	if err == nil {
		p.metrics.Install(string(StatusApplied))
	}
	return res, err
}

// Cleanup discards a staging directory. It is the "cancel" answer to
// StatusMissingCritical.
func (p *Pipeline) Cleanup(stagingDir string) error {
	if !p.mu.TryLock() {
		return ErrBusy
	}
	defer p.mu.Unlock()
	p.log.Info("discarding staging directory", zap.String("staging", stagingDir))
	p.metrics.Install("cancelled")
	return p.fs.RemoveAll(stagingDir)
}
