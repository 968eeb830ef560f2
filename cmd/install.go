package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/multigameinc/launcher/internal/console"
	"github.com/multigameinc/launcher/internal/desktop"
	"github.com/multigameinc/launcher/internal/install"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/multigameinc/launcher/internal/paths"
	"github.com/multigameinc/launcher/internal/process"
	"github.com/multigameinc/launcher/internal/prompt"
	"github.com/multigameinc/launcher/internal/state"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// gameProcesses are checked before files are replaced under a running game.
var gameProcesses = []string{"javaw", "Minecraft", "MinecraftLauncher"}

type installConfig struct {
	packFlags
	installer       string
	gameDir         string
	pickFolder      bool
	yes             bool
	cancelOnMissing bool
	noRunInstaller  bool
	quiet           bool
}

var installCfg installConfig

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download a pack version and install it into the game directory",
	Long: `Download every file of a pack version into a staging directory, then
replace the game's mods and add shaders, resource packs and installers.

When critical files (mods, shaders or resource packs) cannot be downloaded
the install stops and asks whether to apply what was downloaded anyway.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd.Context(), installCfg)
	},
}

func runInstall(ctx context.Context, ic installConfig) error {
	interactive := !ic.yes
	p := newPrompter(ic.yes)
	f := newFetcher()
	pipeline := newPipeline(f)

	manifestURL, err := resolveManifestURL(ctx, f, &ic.packFlags, p, interactive)
	if err != nil {
		return err
	}
	m, used, err := loadManifest(ctx, f, cfg.Credentials(), manifestURL)
	if err != nil {
		return err
	}
	ver, err := pickVersion(m, ic.version, p, interactive)
	if err != nil {
		return err
	}

	installer, err := chooseInstaller(ctx, pipeline, used, ver, ic.installer)
	if err != nil {
		return err
	}
	gameDir, err := resolveGameDir(ic, p, interactive)
	if err != nil {
		return err
	}
	if !install.LooksLikeGameDir(afero.NewOsFs(), gameDir) {
		log.Warn("install directory does not look like a game directory; run the official launcher once first", zap.String("dir", gameDir))
	}
	if err := ensureGameClosed(ctx, p, liveGame); err != nil {
		return err
	}

	fmt.Printf("Installing %s %s into %s\n", m.Title(), ver.ID, gameDir)
	sink, wait := sinks(ic.quiet)
	out, err := pipeline.Install(ctx, install.Request{
		ManifestURL:       used,
		Manifest:          m,
		VersionID:         ver.ID,
		InstallPath:       gameDir,
		SelectedInstaller: installer,
		Credentials:       cfg.Credentials(),
	}, sink)
	if err != nil {
		wait()
		return err
	}

	res := out.Result
	if out.Status == install.StatusMissingCritical {
		if ic.cancelOnMissing || !p.ProceedWithMissing(out.MissingCritical) {
			wait()
			if err := pipeline.Cleanup(out.StagingDir); err != nil {
				log.Warn("unable to remove staging directory", zap.String("staging", out.StagingDir), zap.Error(err))
			}
			return fmt.Errorf("install cancelled, %d critical files missing", len(out.MissingCritical))
		}
		if res, err = pipeline.ApplyStaged(ctx, out.StagingDir, gameDir, sink); err != nil {
			wait()
			return err
		}
	}
	wait()

	printResult(res)
	if err := recordInstall(used, ver.ID, gameDir, installer); err != nil {
		log.Warn("unable to record install", zap.Error(err))
	}
	if res.InstallerPath != "" && !ic.noRunInstaller {
		return runInstaller(ctx, p, res, gameDir)
	}
	return nil
}

// chooseInstaller matches the flagged installer against the available ones,
// or picks the preferred loader.
func chooseInstaller(ctx context.Context, pipeline *install.Pipeline, manifestURL string, ver *manifest.Version, flag string) (string, error) {
	names := pipeline.AvailableInstallers(ctx, manifestURL, ver, cfg.Credentials())
	if flag == "" {
		return install.PreferredInstaller(names), nil
	}
	if len(names) == 0 {
		return "", fmt.Errorf("--installer %q given but the version has no installers", flag)
	}
	i, err := matchOne(flag, names)
	if err != nil {
		return "", fmt.Errorf("installer: %w", err)
	}
	return names[i], nil
}

// gameExitTimeout bounds how long install waits for the game to close.
const gameExitTimeout = 10 * time.Minute

type gameWatch struct {
	running func(ctx context.Context) (bool, error)
	wait    func(ctx context.Context) bool
}

var liveGame = gameWatch{
	running: func(ctx context.Context) (bool, error) { return process.IsRunning(ctx, gameProcesses...) },
	wait:    func(ctx context.Context) bool { return process.WaitForExit(ctx, 2*time.Second, gameProcesses...) },
}

// ensureGameClosed offers to wait for a running game to exit before its mods
// are replaced.
func ensureGameClosed(ctx context.Context, p *prompt.Prompter, g gameWatch) error {
	if running, _ := g.running(ctx); !running {
		return nil
	}
	if p.Confirm("The game appears to be running. Wait for it to close?") {
		fmt.Println("Waiting for the game to close...")
		wctx, cancel := context.WithTimeout(ctx, gameExitTimeout)
		defer cancel()
		if g.wait(wctx) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("the game is still running after %s", gameExitTimeout)
	}
	if !p.Confirm("Continue while the game is running?") {
		return errNoSelection
	}
	return nil
}

// resolveGameDir picks the install directory: flag, folder picker, config,
// then the platform default, which an interactive user may override.
func resolveGameDir(ic installConfig, p *prompt.Prompter, interactive bool) (string, error) {
	switch {
	case ic.gameDir != "":
		return ic.gameDir, nil
	case ic.pickFolder:
		dir, err := desktop.SelectFolder("Select the game directory", console.Window())
		if err != nil {
			return "", err
		}
		if dir == "" {
			return "", errNoSelection
		}
		return dir, nil
	case cfg.Install.GameDir != "":
		return cfg.Install.GameDir, nil
	}

	def, err := paths.DefaultGameDir(runtime.GOOS)
	if !interactive {
		return def, err
	}
	dir := p.Line("Game directory", def)
	if dir == "" {
		if err != nil {
			return "", err
		}
		return "", errNoSelection
	}
	return homedir.Expand(dir)
}

func printResult(res *install.Result) {
	fmt.Printf("Placed %d files", len(res.Placed))
	if len(res.Skipped) > 0 {
		fmt.Printf(", skipped %d", len(res.Skipped))
	}
	if len(res.Failed) > 0 {
		fmt.Printf(", failed %d: %v", len(res.Failed), res.Failed)
	}
	fmt.Println()
	if len(res.MissingInstallers) > 0 {
		fmt.Printf("Installers that could not be downloaded: %v\n", res.MissingInstallers)
	}
}

func recordInstall(manifestURL, versionID, gameDir, installer string) error {
	store, err := openState()
	if err != nil {
		return err
	}
	defer store.Close()
	return store.MarkInstalled(state.Record{
		ManifestURL: manifestURL,
		VersionID:   versionID,
		InstallPath: gameDir,
		Installer:   installer,
		InstalledAt: time.Now(),
	})
}

func runInstaller(ctx context.Context, p *prompt.Prompter, res *install.Result, gameDir string) error {
	if !p.Confirm(fmt.Sprintf("Run the installer %s now?", paths.BaseName(res.InstallerPath))) {
		fmt.Printf("The installer was saved to %s\n", res.InstallerPath)
		return nil
	}
	code, err := process.RunInstaller(ctx, res.InstallerPath, gameDir, res.InstallerArgs, process.RunOptions{Stdout: os.Stdout, Stderr: os.Stderr})
	if err != nil {
		return fmt.Errorf("unable to run installer: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("installer exited with code %d", code)
	}
	return nil
}

var applyCfg struct {
	gameDir string
	quiet   bool
}

var applyCmd = &cobra.Command{
	Use:   "apply <staging-dir>",
	Short: "Apply a staging directory left by an install that stopped on missing files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameDir, err := resolveGameDir(installConfig{gameDir: applyCfg.gameDir}, newPrompter(true), false)
		if err != nil {
			return err
		}
		pipeline := newPipeline(newFetcher())
		cp, err := install.ReadCheckpoint(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}
		sink, wait := sinks(applyCfg.quiet)
		res, err := pipeline.ApplyStaged(cmd.Context(), args[0], gameDir, sink)
		wait()
		if err != nil {
			return err
		}
		printResult(res)
		if err := recordInstall(cp.ManifestURL, cp.VersionID, gameDir, cp.SelectedInstallerName); err != nil {
			log.Warn("unable to record install", zap.Error(err))
		}
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <staging-dir>",
	Short: "Discard a staging directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := install.ReadCheckpoint(afero.NewOsFs(), args[0]); err != nil {
			if errors.Is(err, install.ErrNoCheckpoint) {
				return fmt.Errorf("%s is not a staging directory: %w", args[0], err)
			}
			return err
		}
		return newPipeline(newFetcher()).Cleanup(args[0])
	},
}

func init() {
	flags := installCmd.Flags()
	installCfg.packFlags.register(flags)
	flags.StringVarP(&installCfg.installer, "installer", "i", "", "Installer to run after the install, matched against the available installers.")
	flags.StringVarP(&installCfg.gameDir, "game-dir", "d", "", "Game directory to install into.")
	flags.BoolVar(&installCfg.pickFolder, "pick-folder", false, "Choose the game directory in a folder dialog (Windows only).")
	flags.BoolVarP(&installCfg.yes, "yes", "y", false, "Answer yes to every question and apply even when critical files are missing.")
	flags.BoolVar(&installCfg.cancelOnMissing, "cancel-on-missing", false, "Discard the install when critical files are missing.")
	flags.BoolVar(&installCfg.noRunInstaller, "no-run-installer", false, "Do not run the selected installer after the install.")
	flags.BoolVarP(&installCfg.quiet, "quiet", "q", false, "Do not draw progress bars.")
	installCmd.MarkFlagsMutuallyExclusive("pack", "manifest")
	installCmd.MarkFlagsMutuallyExclusive("game-dir", "pick-folder")
	Add(installCmd)

	applyCmd.Flags().StringVarP(&applyCfg.gameDir, "game-dir", "d", "", "Game directory to install into.")
	applyCmd.Flags().BoolVarP(&applyCfg.quiet, "quiet", "q", false, "Do not draw progress bars.")
	Add(applyCmd)
	Add(cleanupCmd)
}
