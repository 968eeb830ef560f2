package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"github.com/multigameinc/launcher/internal/desktop"
	"github.com/multigameinc/launcher/internal/process"
	"github.com/multigameinc/launcher/internal/progress"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// minMemory is the free memory below which a modded game tends to fail to
// start.
const minMemory = 4 << 30

var launchCfg struct {
	path  string
	force bool
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start the game launcher",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		names := append([]string{"TLauncher"}, gameProcesses...)
		if running, err := process.IsRunning(ctx, names...); err == nil && running && !launchCfg.force {
			fmt.Println("A game launcher is already running.")
			return nil
		}
		if avail, err := process.AvailableMemory(ctx); err == nil && avail < minMemory {
			fmt.Printf("Only %s of memory is available; the game may fail to start.\n", progress.FormatBytes(int64(avail)))
		}

		path := launchCfg.path
		if path == "" {
			home, err := homedir.Dir()
			if err != nil {
				return err
			}
			path, _ = process.FindLauncher(afero.NewOsFs(), process.LauncherCandidates(runtime.GOOS, home, os.Getenv))
		}
		if path != "" {
			log.Info("starting launcher", zap.String("path", path))
			err := process.Start(process.LaunchCommand(runtime.GOOS, path))
			if err == nil {
				return nil
			}
			log.Warn("unable to start launcher, trying the protocol handler", zap.Error(err))
		}
		if err := process.Start(process.OpenCommand(runtime.GOOS, process.LauncherProtocol)); err != nil {
			return fmt.Errorf("no game launcher found: %w", err)
		}
		return nil
	},
}

var shortcutCfg struct {
	name string
}

var shortcutCmd = &cobra.Command{
	Use:   "shortcut",
	Short: "Create desktop and start menu shortcuts for the launcher (Windows only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		for _, p := range desktop.ShortcutPaths(home, os.Getenv("APPDATA"), shortcutCfg.name) {
			s := desktop.NewShortcut(p, exe, nil)
			s.Description = shortcutCfg.name
			if err := desktop.CreateShortcut(s); err != nil {
				return fmt.Errorf("unable to create %s: %w", p, err)
			}
			fmt.Println("Created", p)
		}
		return nil
	},
}

func init() {
	launchCmd.Flags().StringVar(&launchCfg.path, "path", "", "Game launcher executable to start instead of searching for one.")
	launchCmd.Flags().BoolVar(&launchCfg.force, "force", false, "Start the launcher even if one is already running.")
	Add(launchCmd)

	shortcutCmd.Flags().StringVar(&shortcutCfg.name, "name", "MultiGameInc Launcher", "Shortcut name.")
	Add(shortcutCmd)
}
