package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/multigameinc/launcher/internal/logger"
	"github.com/multigameinc/launcher/internal/paths"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, args ...string) (*viper.Viper, *pflag.FlagSet) {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitGlobalFlags(flags)
	require.NoError(t, flags.Parse(args))
	v := viper.New()
	Bind(v, flags)
	return v, flags
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	v, _ := setup(t, "--data-dir", dataDir)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, logger.StdErr, cfg.Log.Type)
	assert.Equal(t, int8(2), cfg.Log.Level)
	assert.Equal(t, DefaultPackIndex, cfg.Install.PackIndex)
	assert.Equal(t, DefaultUpdateOwner, cfg.Update.Owner)
	assert.True(t, cfg.Update.Fallback)
	assert.Equal(t, paths.DefaultPreserve, cfg.Update.Preserve)
	assert.Equal(t, []string{"{repo}-{version}.zip", "{repo}.zip"}, cfg.Update.AssetNames)
	assert.Equal(t, filepath.Join(dataDir, "state"), cfg.StateDir)
	assert.Equal(t, 30*time.Minute, cfg.HTTPTimeout)
	assert.Nil(t, cfg.Credentials())
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, ConfigFileName), []byte(`
http-timeout = "90s"

[log]
level = 4

[install]
game-dir = "/from/file"
pack-index = "https://example.com/file-index.json"

[update]
remove-obsolete = true
`), 0644))

	t.Setenv("LAUNCHER_GITHUB__TOKEN", "secret")
	t.Setenv("LAUNCHER_INSTALL__PACK_INDEX", "https://example.com/env-index.json")

	v, _ := setup(t, "--data-dir", dataDir, "--install.game-dir", "/from/flag")
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, int8(4), cfg.Log.Level)
	assert.Equal(t, "/from/flag", cfg.Install.GameDir, "flags win over the file")
	assert.Equal(t, "https://example.com/env-index.json", cfg.Install.PackIndex, "env wins over the file")
	assert.True(t, cfg.Update.RemoveObsolete)
	assert.Equal(t, 90*time.Second, cfg.HTTPTimeout)
	require.NotNil(t, cfg.Credentials())
	assert.Equal(t, "secret", cfg.Credentials().Token)
}

func TestLoad_ExplicitConfigMustExist(t *testing.T) {
	v, _ := setup(t, "--data-dir", t.TempDir(), "--config", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(c *AppConfig) {}, false},
		{"logfile without file", func(c *AppConfig) { c.Log.Type = logger.LogFile }, true},
		{"logfile with file", func(c *AppConfig) { c.Log.Type = logger.LogFile; c.Log.File = "/tmp/l.log" }, false},
		{"unknown log type", func(c *AppConfig) { c.Log.Type = "syslog" }, true},
		{"no update repo", func(c *AppConfig) { c.Update.Repo = "" }, true},
		{"negative timeout", func(c *AppConfig) { c.HTTPTimeout = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{Update: UpdateConfig{Owner: "o", Repo: "r"}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
