package selfupdate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/multigameinc/launcher/internal/fsutil"
	"github.com/multigameinc/launcher/internal/paths"
	"github.com/multigameinc/launcher/internal/progress"
	"github.com/multigameinc/launcher/internal/version"
	"go.uber.org/zap"
)

type ApplyOptions struct {
	// RemoveObsolete deletes application files the package no longer ships.
	RemoveObsolete bool
	// Preserve lists entries never removed as obsolete. Defaults to
	// paths.DefaultPreserve.
	Preserve []string
	// NewVersion is written to the version marker after the copy.
	NewVersion string
}

type ApplyResult struct {
	OK               bool     `json:"ok"`
	BackupDir        string   `json:"backupDir,omitempty"`
	Error            error    `json:"-"`
	WroteVersionFile bool     `json:"wroteVersionFile"`
	Copied           []string `json:"copied,omitempty"`
	Removed          []string `json:"removed,omitempty"`
}

// ApplyUpdate copies an extracted package over targetDir. A backup of
// targetDir is attempted first; failing to make one only logs a warning.
func (u *Updater) ApplyUpdate(ctx context.Context, extractedDir, targetDir string, opts ApplyOptions, sink progress.Sink) ApplyResult {
	if !u.mu.TryLock() {
		return ApplyResult{Error: ErrBusy}
	}
	defer u.mu.Unlock()
	sink = progress.Or(sink)

	if err := ctx.Err(); err != nil {
		return ApplyResult{Error: err}
	}
	log := u.log.With(zap.String("source", extractedDir), zap.String("target", targetDir))

	files, err := fsutil.Files(u.fs, extractedDir)
	if err != nil {
		return ApplyResult{Error: fmt.Errorf("%w: %w", ErrApplyFailed, err)}
	}

	var res ApplyResult
	res.BackupDir = u.backup(targetDir, sink, log)

	total := len(files)
	shipped := make(map[string]bool, total)
	for i, rel := range files {
		shipped[paths.CleanLower(rel)] = true
		if isMarker(rel) {
			continue
		}
		event := progress.Event{Stage: progress.StageCopy, CurrentFile: rel, FileIndex: i + 1, FileCount: total}
		src := filepath.Join(extractedDir, filepath.FromSlash(rel))
		dst := filepath.Join(targetDir, filepath.FromSlash(rel))
		if err := fsutil.CopyFile(u.fs, src, dst); err != nil {
			log.Error("update copy failed, application directory may be partially updated",
				zap.String("file", rel), zap.String("backup", res.BackupDir), zap.Error(err))
			event.Status = progress.StatusFailed
			sink.Report(event)
			res.Error = fmt.Errorf("%w: %s: %w", ErrApplyFailed, rel, err)
			return res
		}
		res.Copied = append(res.Copied, rel)
		event.Status = progress.StatusDone
		sink.Report(event)
	}

	if opts.NewVersion != "" {
		if err := version.SaveMarker(u.fs, targetDir, opts.NewVersion); err != nil {
			log.Warn("unable to write version marker", zap.Error(err))
		} else {
			res.WroteVersionFile = true
		}
	}

	if opts.RemoveObsolete {
		preserve := opts.Preserve
		if preserve == nil {
			preserve = paths.DefaultPreserve
		}
		res.Removed = u.prune(targetDir, shipped, preserve, log)
	}

	res.OK = true
	sink.Report(progress.Event{Stage: progress.StageDone, FileCount: len(res.Copied), Status: progress.StatusDone})
	log.Info("update applied",
		zap.Int("copied", len(res.Copied)),
		zap.Int("removed", len(res.Removed)),
		zap.String("version", opts.NewVersion),
		zap.Bool("wroteVersionFile", res.WroteVersionFile))
	return res
}

// backup copies targetDir to a timestamped sibling and returns its path, or
// "" when no backup was made.
func (u *Updater) backup(targetDir string, sink progress.Sink, log *zap.Logger) string {
	if !fsutil.Exists(u.fs, targetDir) {
		return ""
	}
	dir := fmt.Sprintf("%s.backup-%d", strings.TrimRight(targetDir, `/\`), u.now().UnixMilli())
	sink.Report(progress.Event{Stage: progress.StageBackup, CurrentFile: dir, Status: progress.StatusStarted})
	if _, err := fsutil.CopyTree(u.fs, targetDir, dir, nil); err != nil {
		log.Warn("unable to back up application directory, continuing without backup", zap.String("backup", dir), zap.Error(err))
		sink.Report(progress.Event{Stage: progress.StageBackup, CurrentFile: dir, Status: progress.StatusFailed})
		u.fs.RemoveAll(dir)
		return ""
	}
	sink.Report(progress.Event{Stage: progress.StageBackup, CurrentFile: dir, Status: progress.StatusDone})
	return dir
}

// prune removes files from targetDir that the package does not ship. Failures
// are logged and skipped.
func (u *Updater) prune(targetDir string, shipped map[string]bool, preserve []string, log *zap.Logger) []string {
	existing, err := fsutil.Files(u.fs, targetDir)
	if err != nil {
		log.Warn("unable to list application directory for obsolete files", zap.Error(err))
		return nil
	}
	var removed []string
	for _, rel := range existing {
		if shipped[paths.CleanLower(rel)] || isMarker(rel) || paths.IsProtected(rel, preserve) {
			continue
		}
		if err := u.fs.Remove(filepath.Join(targetDir, filepath.FromSlash(rel))); err != nil {
			log.Warn("unable to remove obsolete file", zap.String("file", rel), zap.Error(err))
			continue
		}
		removed = append(removed, rel)
	}
	if len(removed) > 0 {
		log.Info("removed obsolete files", zap.Strings("files", removed))
	}
	return removed
}

func isMarker(rel string) bool {
	return strings.EqualFold(paths.Normalize(rel), version.MarkerFile)
}
