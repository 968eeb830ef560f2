// Package config defines the launcher's global flags, environment bindings and
// config file handling.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/logger"
	"github.com/multigameinc/launcher/internal/paths"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigKey = "config"

	LogTypeKey            = "log.type"
	LogFileKey            = "log.file"
	LogLevelKey           = "log.level"
	LogMaxSizeKey         = "log.max-size"
	LogNumRotatedFilesKey = "log.num-rotated-files"
	LogDeveloperKey       = "log.developer"

	GitHubTokenKey   = "github.token"
	GitHubAPIBaseKey = "github.api-base"
	GitHubRawBaseKey = "github.raw-base"
	GitHubWebBaseKey = "github.web-base"

	InstallStagingDirKey = "install.staging-dir"
	InstallGameDirKey    = "install.game-dir"
	InstallPackIndexKey  = "install.pack-index"

	UpdateOwnerKey          = "update.owner"
	UpdateRepoKey           = "update.repo"
	UpdateBranchKey         = "update.branch"
	UpdateVersionPathKey    = "update.version-path"
	UpdateFallbackKey       = "update.fallback"
	UpdateAssetNamesKey     = "update.asset-names"
	UpdateRemoveObsoleteKey = "update.remove-obsolete"
	UpdatePreserveKey       = "update.preserve"
	UpdateAppRootKey        = "update.app-root"

	DataDirKey     = "data-dir"
	StateDirKey    = "state-dir"
	MetricsFileKey = "metrics-file"
	HTTPTimeoutKey = "http-timeout"

	// EnvPrefix starts every environment variable, e.g. LAUNCHER_LOG__LEVEL.
	EnvPrefix = "launcher"
	// ConfigFileName is looked for in the data directory.
	ConfigFileName = "config.toml"
)

const (
	DefaultPackIndex   = "https://raw.githubusercontent.com/Pimpoli/LauncherModPack/main/index.json"
	DefaultUpdateOwner = "Pimpoli"
	DefaultUpdateRepo  = "MultiGameInc-Launcher"
)

type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	APIBase string `mapstructure:"api-base"`
	RawBase string `mapstructure:"raw-base"`
	WebBase string `mapstructure:"web-base"`
}

type InstallConfig struct {
	StagingDir string `mapstructure:"staging-dir"`
	GameDir    string `mapstructure:"game-dir"`
	PackIndex  string `mapstructure:"pack-index"`
}

type UpdateConfig struct {
	Owner          string   `mapstructure:"owner"`
	Repo           string   `mapstructure:"repo"`
	Branch         string   `mapstructure:"branch"`
	VersionPath    string   `mapstructure:"version-path"`
	Fallback       bool     `mapstructure:"fallback"`
	AssetNames     []string `mapstructure:"asset-names"`
	RemoveObsolete bool     `mapstructure:"remove-obsolete"`
	Preserve       []string `mapstructure:"preserve"`
	AppRoot        string   `mapstructure:"app-root"`
}

type AppConfig struct {
	Log         logger.Config `mapstructure:"log"`
	GitHub      GitHubConfig  `mapstructure:"github"`
	Install     InstallConfig `mapstructure:"install"`
	Update      UpdateConfig  `mapstructure:"update"`
	DataDir     string        `mapstructure:"data-dir"`
	StateDir    string        `mapstructure:"state-dir"`
	MetricsFile string        `mapstructure:"metrics-file"`
	HTTPTimeout time.Duration `mapstructure:"http-timeout"`
}

// InitGlobalFlags defines the persistent flags shared by every command.
func InitGlobalFlags(flags *pflag.FlagSet) {
	flags.String(ConfigKey, "", fmt.Sprintf("Config file (default is %s in the data directory).", ConfigFileName))

	flags.String(LogTypeKey, string(logger.StdErr), fmt.Sprintf("Where to log: %s, %s or %s.", logger.StdErr, logger.StdOut, logger.LogFile))
	flags.String(LogFileKey, "", fmt.Sprintf("The log file to use when --%s=%s.", LogTypeKey, logger.LogFile))
	flags.Int8(LogLevelKey, 2, "Log level (0=Fatal, 1=Error, 2=Warn, 3=Info, 4+5=Debug).")
	flags.Int(LogMaxSizeKey, 100, "Maximum size of a log file in megabytes before it is rotated.")
	flags.Int(LogNumRotatedFilesKey, 3, "Number of rotated log files to keep.")
	flags.Bool(LogDeveloperKey, false, "Enable logging at DebugLevel and above and print stack traces at WarnLevel and above.")
	flags.MarkHidden(LogDeveloperKey)

	flags.String(GitHubTokenKey, "", "GitHub token used for repository listings and downloads (raises rate limits).")
	flags.String(GitHubAPIBaseKey, "https://api.github.com", "GitHub API base URL.")
	flags.String(GitHubRawBaseKey, "https://raw.githubusercontent.com", "Raw content base URL.")
	flags.String(GitHubWebBaseKey, "https://github.com", "GitHub web base URL, used for archives and release assets.")

	flags.String(InstallStagingDirKey, "", "Directory staging sessions are created in (default is the system temp directory).")
	flags.String(InstallGameDirKey, "", "Game directory packs are installed into (default is the platform's .minecraft).")
	flags.String(InstallPackIndexKey, DefaultPackIndex, "URL of the pack index.")

	flags.String(UpdateOwnerKey, DefaultUpdateOwner, "Owner of the launcher repository.")
	flags.String(UpdateRepoKey, DefaultUpdateRepo, "Name of the launcher repository.")
	flags.String(UpdateBranchKey, "main", "Branch the launcher version descriptor is read from.")
	flags.String(UpdateVersionPathKey, "launcher-version.json", "Path of the version descriptor in the launcher repository.")
	flags.Bool(UpdateFallbackKey, true, "Use the branch archive and release assets when the descriptor names no package.")
	flags.StringSlice(UpdateAssetNamesKey, []string{"{repo}-{version}.zip", "{repo}.zip"}, "Release asset names to try; {repo} and {version} are substituted.")
	flags.Bool(UpdateRemoveObsoleteKey, false, "Remove application files the new version no longer ships.")
	flags.StringSlice(UpdatePreserveKey, paths.DefaultPreserve, "Application entries never removed as obsolete (glob patterns).")
	flags.String(UpdateAppRootKey, "", "Application directory to update (default is the executable's directory).")

	flags.String(DataDirKey, "", "Per-user data directory (default is ~/.multigame-launcher).")
	flags.String(StateDirKey, "", "Directory of the install record store (default is <data-dir>/state).")
	flags.String(MetricsFileKey, "", "Write Prometheus metrics to this file after each command.")
	flags.Duration(HTTPTimeoutKey, 30*time.Minute, "Overall timeout of a single HTTP download.")
}

// Bind binds every flag to v and to an environment variable. Nested keys use
// a double underscore: log.level is LAUNCHER_LOG__LEVEL.
func Bind(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "_"))
	flags.VisitAll(func(flag *pflag.Flag) {
		v.BindEnv(flag.Name)
		v.BindPFlag(flag.Name, flag)
	})
}

// Load reads the config file, if any, and decodes the merged configuration.
// An explicitly named config file must exist; the default one is optional.
func Load(v *viper.Viper) (*AppConfig, error) {
	dataDir := v.GetString(DataDirKey)
	if dataDir == "" {
		d, err := paths.DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = d
		v.Set(DataDirKey, dataDir)
	}

	cfgFile := v.GetString(ConfigKey)
	explicit := cfgFile != ""
	if !explicit {
		cfgFile = filepath.Join(dataDir, ConfigFileName)
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("unable to read config file %s: %w", cfgFile, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(cfg.DataDir, "state")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.Log.Type {
	case logger.StdErr, logger.StdOut, "":
	case logger.LogFile:
		if c.Log.File == "" {
			return fmt.Errorf("--%s is required when --%s=%s", LogFileKey, LogTypeKey, logger.LogFile)
		}
	default:
		return fmt.Errorf("unsupported --%s %q", LogTypeKey, c.Log.Type)
	}
	if c.Update.Owner == "" || c.Update.Repo == "" {
		return fmt.Errorf("--%s and --%s must be set", UpdateOwnerKey, UpdateRepoKey)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("--%s must not be negative", HTTPTimeoutKey)
	}
	return nil
}

// Credentials returns the configured GitHub credentials, or nil without a
// token.
func (c *AppConfig) Credentials() *download.Credentials {
	if c.GitHub.Token == "" {
		return nil
	}
	return &download.Credentials{Token: c.GitHub.Token}
}
