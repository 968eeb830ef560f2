package install

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/multigameinc/launcher/internal/archive"
	"github.com/multigameinc/launcher/internal/fsutil"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/multigameinc/launcher/internal/progress"
	"go.uber.org/zap"
)

func (p *Pipeline) apply(ctx context.Context, stagingDir, installPath string, sink progress.Sink) (*Result, error) {
	cp, err := ReadCheckpoint(p.fs, stagingDir)
	if err != nil {
		return nil, err
	}
	// Staging is consumed whatever happens from here on.
	defer func() {
		if err := p.fs.RemoveAll(stagingDir); err != nil {
			p.log.Warn("unable to remove staging directory", zap.String("staging", stagingDir), zap.Error(err))
		}
	}()

	log := p.log.With(zap.String("installPath", installPath), zap.String("version", cp.VersionID))
	dirs := map[string]string{}
	for _, d := range []string{ModsDir, ShaderDir, ResourcePackDir, InstallerDir} {
		dirs[d] = filepath.Join(installPath, d)
		if err := p.fs.MkdirAll(dirs[d], 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dirs[d], err)
		}
	}

	sink.Report(progress.Event{Stage: progress.StageApply, CurrentFile: ModsDir, Status: progress.StatusStarted})
	removed, err := p.emptyDir(dirs[ModsDir])
	if err != nil {
		return nil, fmt.Errorf("failed to empty mods directory: %w", err)
	}
	log.Info("emptied mods directory", zap.Int("removed", removed))

	res := &Result{
		MissingInstallers: cp.MissingInstallers,
	}
	if res.MissingInstallers == nil {
		res.MissingInstallers = []string{}
	}

	total := len(cp.FilesMeta)
	for i, fm := range cp.FilesMeta {
		if ctx.Err() != nil {
			log.Warn("apply interrupted, remaining files skipped", zap.Int("remaining", total-i))
			break
		}
		event := progress.Event{Stage: progress.StageApply, CurrentFile: fm.Name, FileIndex: i + 1, FileCount: total}
		src := filepath.Join(stagingDir, fm.TmpName)

		placed, err := p.place(fm, src, stagingDir, i, dirs, log)
		if err != nil {
			log.Warn("failed to apply file", zap.String("file", fm.Name), zap.String("category", fm.Category.String()), zap.Error(err))
			p.metrics.ApplyFailure(fm.Category.String())
			res.Failed = append(res.Failed, fm.Name)
			event.Status = progress.StatusFailed
			sink.Report(event)
			continue
		}
		if !placed {
			res.Skipped = append(res.Skipped, fm.Name)
			event.Status = progress.StatusSkipped
			sink.Report(event)
			continue
		}
		res.Placed = append(res.Placed, fm.Name)

		if fm.Category == manifest.Installer && res.InstallerPath == "" && matchesInstaller(fm, cp.SelectedInstallerName) {
			res.InstallerPath = filepath.Join(dirs[InstallerDir], fm.Name)
			res.InstallerArgs = ExpandArgs(fm.InstallerArgs, installPath)
		}
		event.Status = progress.StatusDone
		sink.Report(event)
	}

	sink.Report(progress.Event{Stage: progress.StageDone, FileCount: len(res.Placed), Status: progress.StatusDone})
	log.Info("apply complete",
		zap.Int("placed", len(res.Placed)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)),
		zap.String("installer", res.InstallerPath))
	return res, nil
}

// place puts one staged file into the install directory. It returns false
// when the file was intentionally not placed.
func (p *Pipeline) place(fm FileMeta, src, stagingDir string, index int, dirs map[string]string, log *zap.Logger) (bool, error) {
	switch fm.Category {
	case manifest.Installer:
		return true, fsutil.CopyFile(p.fs, src, filepath.Join(dirs[InstallerDir], fm.Name))

	case manifest.Mod:
		if archive.IsZip(fm.Name) {
			return true, p.placeModArchive(src, filepath.Join(stagingDir, fmt.Sprintf("scratch-%d", index)), dirs[ModsDir])
		}
		return true, fsutil.CopyFile(p.fs, src, filepath.Join(dirs[ModsDir], fm.Name))

	case manifest.Shader, manifest.ResourcePack:
		dir := dirs[ShaderDir]
		if fm.Category == manifest.ResourcePack {
			dir = dirs[ResourcePackDir]
		}
		dst := filepath.Join(dir, fm.Name)
		// Existing packs may carry user changes.
		if fsutil.Exists(p.fs, dst) {
			log.Debug("keeping existing pack", zap.String("file", fm.Name))
			return false, nil
		}
		return true, fsutil.CopyFile(p.fs, src, dst)

	default:
		log.Warn("unclassified file placed with installers", zap.String("file", fm.Name))
		return true, fsutil.CopyFile(p.fs, src, filepath.Join(dirs[InstallerDir], fm.Name))
	}
}

// placeModArchive extracts a zipped mod bundle and copies its content into
// the mods directory. A top-level "mods" folder in the archive is used as the
// root when present.
func (p *Pipeline) placeModArchive(src, scratch, modsDir string) error {
	defer p.fs.RemoveAll(scratch)
	if err := archive.ExtractFile(p.fs, src, scratch, nil); err != nil {
		return err
	}

	root := scratch
	if info, err := p.fs.Stat(filepath.Join(scratch, ModsDir)); err == nil && info.IsDir() {
		root = filepath.Join(scratch, ModsDir)
	}
	_, err := fsutil.CopyTree(p.fs, root, modsDir, nil)
	return err
}

func (p *Pipeline) emptyDir(dir string) (int, error) {
	f, err := p.fs.Open(dir)
	if err != nil {
		return 0, err
	}
	names, err := f.Readdirnames(-1)
	f.Close()
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		if err := p.fs.RemoveAll(filepath.Join(dir, name)); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

// ExpandArgs substitutes InstallDirToken in installer arguments.
func ExpandArgs(args []string, installPath string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, InstallDirToken, installPath)
	}
	return out
}
