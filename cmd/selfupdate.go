package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/multigameinc/launcher/internal/changelog"
	"github.com/multigameinc/launcher/internal/channel"
	"github.com/multigameinc/launcher/internal/config"
	"github.com/multigameinc/launcher/internal/process"
	"github.com/multigameinc/launcher/internal/selfupdate"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var selfUpdateCfg struct {
	checkOnly bool
	yes       bool
	restart   bool
	channel   string
	quiet     bool
}

var selfUpdateCmd = &cobra.Command{
	Use:     "self-update",
	Aliases: []string{"update"},
	Short:   "Update the launcher itself to the version published in its repository",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSelfUpdate(cmd.Context())
	},
}

// updateBranch picks the branch the descriptor is read from: an explicitly
// configured branch, else a saved channel, else the default.
func updateBranch(fs afero.Fs) string {
	if selfUpdateCfg.channel != "" {
		if err := channel.Save(fs, cfg.DataDir, selfUpdateCfg.channel); err != nil {
			log.Warn("unable to save update channel", zap.Error(err))
		}
		return channel.Branch(selfUpdateCfg.channel)
	}
	if v.IsSet(config.UpdateBranchKey) {
		return cfg.Update.Branch
	}
	if ch, err := channel.Load(fs, cfg.DataDir); err == nil && ch != "" {
		return channel.Branch(ch)
	}
	return cfg.Update.Branch
}

func appRoot() (string, error) {
	if cfg.Update.AppRoot != "" {
		return cfg.Update.AppRoot, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("unable to locate the launcher executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func runSelfUpdate(ctx context.Context) error {
	fs := afero.NewOsFs()
	root, err := appRoot()
	if err != nil {
		return err
	}
	branch := updateBranch(fs)
	repo := newUpdateRepo()
	u := newUpdater(repo, branch)
	p := newPrompter(selfUpdateCfg.yes)

	sink, wait := sinks(selfUpdateCfg.quiet)
	res, err := u.CheckForUpdate(ctx, root, cfg.DataDir, sink)
	wait()
	if err != nil {
		return err
	}
	defer func() {
		if err := u.Cleanup(res); err != nil {
			log.Warn("unable to remove update scratch directory", zap.String("dir", res.ScratchDir), zap.Error(err))
		}
	}()

	switch res.Reason {
	case selfupdate.ReasonUpToDate:
		fmt.Printf("The launcher is up to date (%s).\n", displayVersion(res.LocalVersion))
		return nil
	case selfupdate.ReasonNoRemote, selfupdate.ReasonNoRemoteVersion:
		fmt.Printf("Unable to check for launcher updates on %s.\n", branch)
		log.Info("no remote version available", zap.Error(res.Err))
		return nil
	case selfupdate.ReasonReady:
	default:
		return fmt.Errorf("update to %s failed (%s): %w", res.RemoteVersion, res.Reason, res.Err)
	}

	fmt.Printf("Launcher %s is available (installed: %s).\n", res.RemoteVersion, displayVersion(res.LocalVersion))
	if selfUpdateCfg.checkOnly {
		return nil
	}
	if !p.Confirm("Install the update now?") {
		return nil
	}

	sink, wait = sinks(selfUpdateCfg.quiet)
	applied := u.ApplyUpdate(ctx, res.ExtractedDir, root, selfupdate.ApplyOptions{
		RemoveObsolete: cfg.Update.RemoveObsolete,
		Preserve:       cfg.Update.Preserve,
		NewVersion:     res.RemoteVersion,
	}, sink)
	wait()
	if !applied.OK {
		if applied.BackupDir != "" {
			fmt.Printf("The previous launcher files were backed up to %s\n", applied.BackupDir)
		}
		return applied.Error
	}

	notes := changelog.Notes{
		Previous:  res.LocalVersion,
		Version:   res.RemoteVersion,
		Released:  res.Released,
		Branch:    branch,
		Copied:    applied.Copied,
		Removed:   applied.Removed,
		BackupDir: applied.BackupDir,
		At:        time.Now(),
	}
	if c, err := repo.LatestCommit(ctx, branch); err == nil {
		notes.Commit = c
	} else {
		log.Debug("latest commit unavailable", zap.Error(err))
	}
	if path, err := changelog.Write(fs, cfg.DataDir, notes); err != nil {
		log.Warn("unable to write changelog", zap.Error(err))
	} else {
		fmt.Printf("Updated to %s. Changes were written to %s\n", res.RemoteVersion, path)
	}

	if selfUpdateCfg.restart && !process.Relaunched() {
		if err := process.Relaunch("", nil); err != nil {
			return fmt.Errorf("updated, but unable to restart: %w", err)
		}
	}
	return nil
}

func displayVersion(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func init() {
	flags := selfUpdateCmd.Flags()
	flags.BoolVar(&selfUpdateCfg.checkOnly, "check", false, "Only check whether an update is available.")
	flags.BoolVarP(&selfUpdateCfg.yes, "yes", "y", false, "Install the update without asking.")
	flags.BoolVar(&selfUpdateCfg.restart, "restart", false, "Start the updated launcher after the update.")
	flags.StringVar(&selfUpdateCfg.channel, "channel", "", "Switch to an update channel (stable, dev or a branch name) and remember it.")
	flags.BoolVarP(&selfUpdateCfg.quiet, "quiet", "q", false, "Do not draw progress bars.")
	Add(selfUpdateCmd)
}
