// Package channel persists the update channel a user switched to.
package channel

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const ChannelFile = ".update-channel"

// Built-in channels and the branches they follow.
var builtIn = map[string]string{
	"stable": "main",
	"dev":    "dev",
}

// Save writes the channel to the channel file in baseDir.
func Save(fs afero.Fs, baseDir, channel string) error {
	if err := fs.MkdirAll(baseDir, 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(baseDir, ChannelFile), []byte(strings.TrimSpace(channel)), 0644)
}

// Load reads the channel from the channel file in baseDir.
func Load(fs afero.Fs, baseDir string) (string, error) {
	data, err := afero.ReadFile(fs, filepath.Join(baseDir, ChannelFile))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// IsBuiltIn returns true if the channel is a built-in channel (stable or dev)
func IsBuiltIn(channel string) bool {
	_, ok := builtIn[strings.ToLower(channel)]
	return ok
}

// Branch maps a channel to the branch the version descriptor is read from.
// Any other channel names a branch directly.
func Branch(channel string) string {
	if b, ok := builtIn[strings.ToLower(channel)]; ok {
		return b
	}
	return channel
}
