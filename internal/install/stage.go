package install

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/github"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/multigameinc/launcher/internal/paths"
	"github.com/multigameinc/launcher/internal/progress"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// discoveryOrder is the order repository folders are listed in.
var discoveryOrder = []manifest.Category{manifest.Installer, manifest.Mod, manifest.Shader, manifest.ResourcePack}

type stager struct {
	p     *Pipeline
	ctx   context.Context
	sink  progress.Sink
	creds *download.Credentials
	dir   string
	cp    *Checkpoint
	// claimed holds lower-cased file names discovery must not fetch: every
	// declared name, whether or not it staged, and every discovered name
	// already staged.
	claimed map[string]bool
	next    int
}

func (p *Pipeline) stage(ctx context.Context, req Request, sink progress.Sink) (*Checkpoint, string, error) {
	m := req.Manifest
	if m == nil {
		var err error
		m, _, err = manifest.Load(ctx, p.fetcher, req.Credentials, req.ManifestURL)
		if err != nil {
			return nil, "", err
		}
	}
	version, err := m.SelectVersion(req.VersionID)
	if err != nil {
		return nil, "", err
	}
	resolver, err := manifest.NewResolver(req.ManifestURL)
	if err != nil {
		return nil, "", err
	}

	dir := filepath.Join(p.stagingRoot, "staging-"+uuid.NewString())
	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("staging directory not writable: %w", err)
	}

	s := &stager{
		p:     p,
		ctx:   ctx,
		sink:  sink,
		creds: req.Credentials,
		dir:   dir,
		cp: &Checkpoint{
			ManifestURL:           req.ManifestURL,
			VersionID:             version.ID,
			FilesMeta:             []FileMeta{},
			MissingInstallers:     []string{},
			MissingCritical:       []string{},
			SelectedInstallerName: req.SelectedInstaller,
		},
		claimed: map[string]bool{},
	}
	log := p.log.With(zap.String("manifest", req.ManifestURL), zap.String("version", version.ID))
	log.Info("staging version", zap.Int("declaredFiles", len(version.Files)), zap.String("staging", dir))

	if err := s.declared(version, resolver); err != nil {
		p.fs.RemoveAll(dir)
		return nil, "", err
	}
	if err := s.discover(version, resolver); err != nil {
		p.fs.RemoveAll(dir)
		return nil, "", err
	}

	sink.Report(progress.Event{Stage: progress.StageCheckpoint, Status: progress.StatusStarted})
	if err := writeCheckpoint(p.fs, dir, s.cp); err != nil {
		p.fs.RemoveAll(dir)
		return nil, "", err
	}
	sink.Report(progress.Event{Stage: progress.StageCheckpoint, Status: progress.StatusDone, FileCount: len(s.cp.FilesMeta)})

	log.Info("staging complete",
		zap.Int("staged", len(s.cp.FilesMeta)),
		zap.Strings("missingCritical", s.cp.MissingCritical),
		zap.Strings("missingInstallers", s.cp.MissingInstallers))
	return s.cp, dir, nil
}

func (s *stager) declared(version *manifest.Version, resolver *manifest.Resolver) error {
	total := len(version.Files)
	for i := range version.Files {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		f := version.Files[i]
		res, err := resolver.Resolve(f)
		if err != nil {
			s.p.log.Warn("cannot resolve declared file", zap.String("file", f.Label()), zap.Error(err))
			s.claim(f.Label())
			s.missing(f.Category, f.Label(), false)
			continue
		}
		s.claim(res.Name)
		orig := f
		if err := s.fetch(res.URL, res.Name, f.Category, f.InstallerArgs, &orig, i+1, total, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *stager) discover(version *manifest.Version, resolver *manifest.Resolver) error {
	coords, ok := resolver.Coordinates()
	if !ok || s.p.lister == nil {
		return nil
	}

	for _, cat := range discoveryOrder {
		if cat != manifest.Installer && version.HasCategory(cat) {
			continue
		}
		if err := s.ctx.Err(); err != nil {
			return err
		}

		dir := coords.Join(cat.RepoFolder())
		s.sink.Report(progress.Event{Stage: progress.StageDiscover, CurrentFile: dir, Status: progress.StatusStarted})
		entries := s.p.lister.ListFiles(s.ctx, coords.Owner, coords.Repo, coords.Ref, dir, s.creds)

		var fresh []github.Entry
		for _, e := range entries {
			if s.claimed[strings.ToLower(e.Name)] {
				s.p.log.Debug("skipping discovered file already claimed", zap.String("file", e.Name), zap.String("dir", dir))
				continue
			}
			fresh = append(fresh, e)
		}
		s.sink.Report(progress.Event{Stage: progress.StageDiscover, CurrentFile: dir, FileCount: len(fresh), Status: progress.StatusDone})

		for i, e := range fresh {
			url := e.DownloadURL
			if url == "" {
				res, err := resolver.Resolve(manifest.File{Path: path.Join(cat.RepoFolder(), e.Name)})
				if err != nil {
					s.missing(cat, e.Name, true)
					continue
				}
				url = res.URL
			}
			if err := s.fetch(url, e.Name, cat, nil, nil, i+1, len(fresh), true); err != nil {
				return err
			}
		}
	}
	return nil
}

// fetch downloads one file into the staging directory. Per-file failures are
// recorded in the checkpoint; only cancellation and staging write failures
// are returned.
func (s *stager) fetch(url, name string, cat manifest.Category, args []string, orig *manifest.File, index, count int, discovered bool) error {
	name = paths.BaseName(name)
	label := name
	if orig != nil {
		label = orig.Label()
	}
	if name == "" || name == "." || name == ".." {
		s.p.log.Warn("file has no usable name", zap.String("file", label))
		s.missing(cat, label, discovered)
		return nil
	}

	event := progress.Event{Stage: progress.StageDownload, CurrentFile: name, FileIndex: index, FileCount: count}
	started := event
	started.Status = progress.StatusStarted
	s.sink.Report(started)

	data, err := s.p.fetcher.Fetch(s.ctx, url, s.creds, func(pr download.Progress) {
		e := event
		e.DownloadedBytes = pr.ReceivedBytes
		e.TotalBytes = pr.TotalBytes
		e.Status = progress.StatusRunning
		s.sink.Report(e)
	})
	if err == nil && orig != nil && orig.SHA256 != "" {
		err = download.Verify(data, orig.SHA256)
	}
	if err != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.p.log.Warn("download failed", zap.String("file", name), zap.String("url", url), zap.String("category", cat.String()), zap.Error(err))
		failed := event
		failed.Status = progress.StatusFailed
		s.sink.Report(failed)
		s.missing(cat, name, discovered)
		return nil
	}

	s.next++
	tmpName := fmt.Sprintf("%d-%s", s.next, name)
	if err := afero.WriteFile(s.p.fs, filepath.Join(s.dir, tmpName), data, 0644); err != nil {
		return fmt.Errorf("staging directory not writable: %w", err)
	}
	s.claim(name)
	s.p.metrics.FileFetched(cat.String(), int64(len(data)))

	s.cp.FilesMeta = append(s.cp.FilesMeta, FileMeta{
		Name:          name,
		Category:      cat,
		TmpName:       tmpName,
		ResolvedURL:   url,
		InstallerArgs: args,
		Original:      orig,
	})

	done := event
	done.DownloadedBytes = int64(len(data))
	done.TotalBytes = int64(len(data))
	done.Status = progress.StatusDone
	s.sink.Report(done)
	return nil
}

func (s *stager) claim(name string) {
	if n := paths.BaseName(name); n != "" {
		s.claimed[strings.ToLower(n)] = true
	}
}

// missing records a file that could not be staged. Declared critical
// categories block apply; installers and unclassified files do not. Of the
// discovered folders only mods are critical.
func (s *stager) missing(cat manifest.Category, name string, discovered bool) {
	s.p.metrics.FileFailed(cat.String())
	critical := cat.Critical()
	if discovered {
		critical = cat == manifest.Mod
	}
	if critical {
		s.cp.MissingCritical = append(s.cp.MissingCritical, name)
	} else {
		s.cp.MissingInstallers = append(s.cp.MissingInstallers, name)
	}
}

func writeCheckpoint(fs afero.Fs, dir string, cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := afero.WriteFile(fs, filepath.Join(dir, MetaFile), data, 0644); err != nil {
		return fmt.Errorf("staging directory not writable: %w", err)
	}
	return nil
}

// ReadCheckpoint loads meta.json from a staging directory.
func ReadCheckpoint(fs afero.Fs, dir string) (*Checkpoint, error) {
	data, err := afero.ReadFile(fs, filepath.Join(dir, MetaFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCheckpoint, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCheckpoint, err)
	}
	return &cp, nil
}
