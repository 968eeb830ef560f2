// Package cmd implements the launcher's command line.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/multigameinc/launcher/internal/config"
	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/github"
	"github.com/multigameinc/launcher/internal/install"
	"github.com/multigameinc/launcher/internal/logger"
	"github.com/multigameinc/launcher/internal/metrics"
	"github.com/multigameinc/launcher/internal/progress"
	"github.com/multigameinc/launcher/internal/prompt"
	"github.com/multigameinc/launcher/internal/selfupdate"
	"github.com/multigameinc/launcher/internal/state"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	v   = viper.New()
	cfg *config.AppConfig
	log *logger.Logger
	rec *metrics.Recorder
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "launcher",
	Short:         "Install modpacks and keep the MultiGameInc launcher up to date",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(v); err != nil {
			return err
		}
		if log, err = logger.New(cfg.Log); err != nil {
			return err
		}
		rec = metrics.New()
		log.Debug("configuration loaded", zap.String("config", v.ConfigFileUsed()), zap.String("dataDir", cfg.DataDir))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg != nil && cfg.MetricsFile != "" {
			if err := rec.WriteFile(cfg.MetricsFile); err != nil {
				log.Warn("unable to write metrics", zap.String("file", cfg.MetricsFile), zap.Error(err))
			}
		}
		if log != nil {
			log.Sync()
		}
		return nil
	},
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Add adds a new command as a subcommand to the launcher
func Add(newCommand *cobra.Command) {
	rootCmd.AddCommand(newCommand)
}

func init() {
	config.InitGlobalFlags(rootCmd.PersistentFlags())
	config.Bind(v, rootCmd.PersistentFlags())
}

func httpClient() *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

func endpoints() github.Endpoints {
	return github.Endpoints{API: cfg.GitHub.APIBase, Raw: cfg.GitHub.RawBase, Web: cfg.GitHub.WebBase}
}

func newFetcher() *download.Fetcher {
	return download.NewFetcher(httpClient(), log.Logger)
}

func newPipeline(f *download.Fetcher) *install.Pipeline {
	return install.New(install.Options{
		Fetcher:     f,
		Lister:      github.NewLister(cfg.GitHub.APIBase, nil, log.Logger),
		StagingRoot: cfg.Install.StagingDir,
		Log:         log.Logger,
		Metrics:     rec,
	})
}

func newUpdateRepo() *github.Client {
	repo := github.NewClient(cfg.Update.Owner, cfg.Update.Repo, nil)
	repo.SetEndpoints(endpoints())
	return repo
}

func newUpdater(repo *github.Client, branch string) *selfupdate.Updater {
	return selfupdate.New(selfupdate.Options{
		Fetcher:     newFetcher(),
		Repo:        repo,
		Branch:      branch,
		VersionPath: cfg.Update.VersionPath,
		Fallback:    cfg.Update.Fallback,
		AssetNames:  cfg.Update.AssetNames,
		Credentials: cfg.Credentials(),
		Log:         log.Logger,
		Metrics:     rec,
	})
}

func newPrompter(yes bool) *prompt.Prompter {
	return prompt.New(prompt.Config{NonInteractive: yes, Assume: yes})
}

func openState() (*state.Store, error) {
	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create state directory: %w", err)
	}
	return state.Open(cfg.StateDir)
}

// sinks returns the progress sink for a command and a func that waits for the
// bars to finish rendering.
func sinks(quiet bool) (progress.Sink, func()) {
	logSink := progress.NewLog(log.Logger)
	if quiet {
		return logSink, func() {}
	}
	bars := progress.NewBars(os.Stderr)
	return progress.Multi(logSink, bars), bars.Wait
}
