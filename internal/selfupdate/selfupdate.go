// Package selfupdate keeps the launcher's own files in line with the version
// published in its repository.
//
// A check downloads and unpacks the newer package into a scratch directory;
// applying it copies the package over the application directory. Apply is
// best effort: a copy failure stops the apply and leaves the backup in place
// but nothing is rolled back.
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/multigameinc/launcher/internal/archive"
	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/github"
	"github.com/multigameinc/launcher/internal/metrics"
	"github.com/multigameinc/launcher/internal/paths"
	"github.com/multigameinc/launcher/internal/progress"
	"github.com/multigameinc/launcher/internal/version"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	DefaultBranch      = "main"
	DefaultVersionPath = "launcher-version.json"
	ExtractedDir       = "extracted"
)

// DefaultAssetNames are the release asset names tried for a tag. {repo} and
// {version} are substituted.
var DefaultAssetNames = []string{"{repo}-{version}.zip", "{repo}.zip"}

var (
	ErrBusy           = errors.New("another update operation is in progress")
	ErrNoPackage      = errors.New("no update package available")
	ErrDownloadFailed = errors.New("update package download failed")
	ErrExtractFailed  = errors.New("update package extraction failed")
	ErrApplyFailed    = errors.New("update apply failed")
)

// Reason explains the outcome of a check.
type Reason string

const (
	ReasonNoRemote          Reason = "no_remote"
	ReasonNoRemoteVersion   Reason = "no_remote_version"
	ReasonUpToDate          Reason = "up_to_date"
	ReasonNoZip             Reason = "no_zip"
	ReasonZipDownloadFailed Reason = "zip_download_failed"
	ReasonZipExtractFailed  Reason = "zip_extract_failed"
	ReasonReady             Reason = "ready"
)

// Fetcher retrieves remote content into memory.
type Fetcher interface {
	Fetch(ctx context.Context, url string, creds *download.Credentials, onProgress download.ProgressFunc) ([]byte, error)
}

type Options struct {
	Fs      afero.Fs
	Fetcher Fetcher
	// Repo is the repository publishing the version descriptor.
	Repo        *github.Client
	Branch      string
	VersionPath string
	// Fallback enables the branch archive and release assets as package
	// sources when the descriptor names no release_zip.
	Fallback    bool
	AssetNames  []string
	ScratchRoot string
	Credentials *download.Credentials
	Log         *zap.Logger
	Metrics     *metrics.Recorder
	Now         func() time.Time
}

// Updater checks for and applies launcher updates, one operation at a time.
type Updater struct {
	fs          afero.Fs
	fetcher     Fetcher
	repo        *github.Client
	branch      string
	versionPath string
	fallback    bool
	assetNames  []string
	scratchRoot string
	creds       *download.Credentials
	log         *zap.Logger
	metrics     *metrics.Recorder
	now         func() time.Time
	mu          sync.Mutex
}

func New(opts Options) *Updater {
	u := &Updater{
		fs:          opts.Fs,
		fetcher:     opts.Fetcher,
		repo:        opts.Repo,
		branch:      opts.Branch,
		versionPath: opts.VersionPath,
		fallback:    opts.Fallback,
		assetNames:  opts.AssetNames,
		scratchRoot: opts.ScratchRoot,
		creds:       opts.Credentials,
		log:         opts.Log,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if u.fs == nil {
		u.fs = afero.NewOsFs()
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	u.log = u.log.With(zap.String("component", "selfupdate"))
	if u.fetcher == nil {
		u.fetcher = download.NewFetcher(&http.Client{}, u.log)
	}
	if u.branch == "" {
		u.branch = DefaultBranch
	}
	if u.versionPath == "" {
		u.versionPath = DefaultVersionPath
	}
	if u.assetNames == nil {
		u.assetNames = DefaultAssetNames
	}
	if u.scratchRoot == "" {
		u.scratchRoot = os.TempDir()
	}
	if u.now == nil {
		u.now = time.Now
	}
	return u
}

// CheckResult describes a finished check. With ReasonReady, ExtractedDir holds
// the normalised package root ready for ApplyUpdate.
type CheckResult struct {
	UpdateAvailable bool   `json:"updateAvailable"`
	Reason          Reason `json:"reason"`
	LocalVersion    string `json:"localVersion,omitempty"`
	RemoteVersion   string `json:"remoteVersion,omitempty"`
	Released        string `json:"released,omitempty"`
	PackageURL      string `json:"packageUrl,omitempty"`
	ScratchDir      string `json:"scratchDir,omitempty"`
	ExtractedDir    string `json:"extractedDir,omitempty"`
	Err             error  `json:"-"`
}

// CheckForUpdate compares the local version against the published one and,
// when the remote is newer, downloads and unpacks the package. Outcomes are
// reported in the result; the error is only set for ErrBusy and
// cancellation.
func (u *Updater) CheckForUpdate(ctx context.Context, appRoot, userData string, sink progress.Sink) (*CheckResult, error) {
	if !u.mu.TryLock() {
		return nil, ErrBusy
	}
	defer u.mu.Unlock()
	sink = progress.Or(sink)

	res, err := u.check(ctx, appRoot, userData, sink)
	if err != nil {
		return nil, err
	}
	u.metrics.UpdateCheck(string(res.Reason))
	u.log.Info("update check finished",
		zap.String("reason", string(res.Reason)),
		zap.String("local", res.LocalVersion),
		zap.String("remote", res.RemoteVersion),
		zap.Error(res.Err))
	return res, nil
}

func (u *Updater) check(ctx context.Context, appRoot, userData string, sink progress.Sink) (*CheckResult, error) {
	sink.Report(progress.Event{Stage: progress.StageCheck, Status: progress.StatusStarted})

	local, err := version.LoadLocal(u.fs, appRoot, userData)
	if err != nil {
		u.log.Debug("no local version, treating as 0.0.0", zap.Error(err))
	}
	res := &CheckResult{LocalVersion: local}

	descURL := u.repo.RawURL(u.branch, u.versionPath)
	data, err := u.fetcher.Fetch(ctx, descURL, u.creds, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Reason = ReasonNoRemote
		res.Err = fmt.Errorf("unable to fetch %s: %w", descURL, err)
		return res, nil
	}
	remote, err := version.ParseRemote(data)
	if err != nil || remote.Version == "" {
		res.Reason = ReasonNoRemoteVersion
		res.Err = err
		return res, nil
	}
	res.RemoteVersion = remote.Version
	res.Released = remote.Released()

	baseline := local
	if baseline == "" {
		baseline = "0.0.0"
	}
	if !version.IsNewer(remote.Version, baseline) {
		res.Reason = ReasonUpToDate
		sink.Report(progress.Event{Stage: progress.StageCheck, Status: progress.StatusDone})
		return res, nil
	}
	res.UpdateAvailable = true
	sink.Report(progress.Event{Stage: progress.StageCheck, Status: progress.StatusDone, CurrentFile: remote.Version})

	candidates := u.packageURLs(remote)
	if len(candidates) == 0 {
		res.Reason = ReasonNoZip
		res.Err = ErrNoPackage
		return res, nil
	}

	scratch := filepath.Join(u.scratchRoot, fmt.Sprintf("mg_launcher_update_%d", u.now().UnixMilli()))
	if err := u.fs.MkdirAll(scratch, 0755); err != nil {
		res.Reason = ReasonZipDownloadFailed
		res.Err = fmt.Errorf("%w: %w", ErrDownloadFailed, err)
		return res, nil
	}
	res.ScratchDir = scratch

	zipPath, pkgURL, err := u.download(ctx, candidates, scratch, sink)
	if err != nil {
		if ctx.Err() != nil {
			u.fs.RemoveAll(scratch)
			return nil, ctx.Err()
		}
		res.Reason = ReasonZipDownloadFailed
		res.Err = err
		return res, nil
	}
	res.PackageURL = pkgURL

	extracted := filepath.Join(scratch, ExtractedDir)
	sink.Report(progress.Event{Stage: progress.StageExtract, CurrentFile: filepath.Base(zipPath), Status: progress.StatusStarted})
	err = archive.ExtractFile(u.fs, zipPath, extracted, func(current, total int, name string) {
		sink.Report(progress.Event{Stage: progress.StageExtract, CurrentFile: name, FileIndex: current, FileCount: total, Status: progress.StatusRunning})
	})
	if err != nil {
		sink.Report(progress.Event{Stage: progress.StageExtract, Status: progress.StatusFailed})
		res.Reason = ReasonZipExtractFailed
		res.Err = fmt.Errorf("%w: %w", ErrExtractFailed, err)
		return res, nil
	}
	root, err := archive.SingleRoot(u.fs, extracted)
	if err != nil {
		res.Reason = ReasonZipExtractFailed
		res.Err = fmt.Errorf("%w: %w", ErrExtractFailed, err)
		return res, nil
	}
	sink.Report(progress.Event{Stage: progress.StageExtract, Status: progress.StatusDone})

	res.ExtractedDir = root
	res.Reason = ReasonReady
	return res, nil
}

// packageURLs lists the download candidates for remote in the order they are
// tried.
func (u *Updater) packageURLs(remote *version.Remote) []string {
	if z := strings.TrimSpace(remote.ReleaseZip); z != "" {
		if strings.HasPrefix(z, "http://") || strings.HasPrefix(z, "https://") {
			return []string{z}
		}
		return []string{u.repo.RawBase(u.branch) + strings.TrimLeft(z, "/")}
	}
	if !u.fallback {
		return nil
	}
	urls := []string{u.repo.ArchiveURL(u.branch)}
	return append(urls, u.repo.ReleaseAssetURLs(remote.Version, u.assetNames)...)
}

// download fetches the first candidate that succeeds into dir.
func (u *Updater) download(ctx context.Context, candidates []string, dir string, sink progress.Sink) (string, string, error) {
	var errs []error
	for i, url := range candidates {
		event := progress.Event{Stage: progress.StageDownload, CurrentFile: url, FileIndex: i + 1, FileCount: len(candidates)}
		started := event
		started.Status = progress.StatusStarted
		sink.Report(started)

		data, err := u.fetcher.Fetch(ctx, url, u.creds, func(p download.Progress) {
			e := event
			e.DownloadedBytes = p.ReceivedBytes
			e.TotalBytes = p.TotalBytes
			e.Status = progress.StatusRunning
			sink.Report(e)
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			u.log.Debug("update package candidate failed", zap.String("url", url), zap.Error(err))
			failed := event
			failed.Status = progress.StatusFailed
			sink.Report(failed)
			errs = append(errs, err)
			continue
		}

		name := paths.BaseName(url)
		if !archive.IsZip(name) {
			name = "update.zip"
		}
		zipPath := filepath.Join(dir, name)
		if err := afero.WriteFile(u.fs, zipPath, data, 0644); err != nil {
			return "", "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
		}
		done := event
		done.Status = progress.StatusDone
		done.DownloadedBytes = int64(len(data))
		done.TotalBytes = int64(len(data))
		sink.Report(done)
		return zipPath, url, nil
	}
	return "", "", fmt.Errorf("%w: %w", ErrDownloadFailed, errors.Join(errs...))
}

// Cleanup removes the scratch directory of a check.
func (u *Updater) Cleanup(res *CheckResult) error {
	if res == nil || res.ScratchDir == "" {
		return nil
	}
	return u.fs.RemoveAll(res.ScratchDir)
}
