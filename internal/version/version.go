package version

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const (
	// MarkerFile lives in the application root and is only ever rewritten
	// explicitly after an update has been copied into place.
	MarkerFile = "app_version.json"
	// UserDataFile is the fallback marker kept in the per-user data directory.
	UserDataFile = "launcher-version.json"
)

var ErrNoLocalVersion = errors.New("no local version marker found")

// Marker is the on-disk version marker.
type Marker struct {
	Version string `json:"version"`
}

// Remote is the version descriptor published in the repository.
type Remote struct {
	Version     string `json:"version"`
	ReleaseZip  string `json:"release_zip,omitempty"`
	Date        string `json:"date,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Released returns the publication date, preferring date over published_at.
func (r Remote) Released() string {
	if r.Date != "" {
		return r.Date
	}
	return r.PublishedAt
}

// ParseRemote decodes a remote version descriptor.
func ParseRemote(data []byte) (*Remote, error) {
	var r Remote
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse remote version: %w", err)
	}
	return &r, nil
}

// Compare orders two dotted version strings component by component.
// Each component contributes its leading integer (0 when there is none) and
// missing components count as 0, so "1.2" == "1.2.0" and "1.x" == "1.0".
// Returns -1, 0 or 1.
func Compare(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	n := max(len(pa), len(pb))
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(pa) {
			x = leadingInt(pa[i])
		}
		if i < len(pb) {
			y = leadingInt(pb[i])
		}
		if x > y {
			return 1
		}
		if x < y {
			return -1
		}
	}
	return 0
}

// IsNewer reports whether remote is strictly greater than local.
func IsNewer(remote, local string) bool {
	return Compare(remote, local) > 0
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// LoadLocal returns the installed version, reading the marker in appRoot
// first and the user data marker second.
func LoadLocal(fs afero.Fs, appRoot, userDataDir string) (string, error) {
	candidates := []string{filepath.Join(appRoot, MarkerFile)}
	if userDataDir != "" {
		candidates = append(candidates, filepath.Join(userDataDir, UserDataFile))
	}
	for _, path := range candidates {
		m, err := ReadMarker(fs, path)
		if err != nil {
			continue
		}
		if m.Version != "" {
			return m.Version, nil
		}
	}
	return "", ErrNoLocalVersion
}

// ReadMarker reads a single marker file.
func ReadMarker(fs afero.Fs, path string) (*Marker, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local version: %w", err)
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse local version: %w", err)
	}
	return &m, nil
}

// SaveMarker writes the version marker into dir.
func SaveMarker(fs afero.Fs, dir, ver string) error {
	data, err := json.MarshalIndent(Marker{Version: ver}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version: %w", err)
	}

	if err := afero.WriteFile(fs, filepath.Join(dir, MarkerFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write version file: %w", err)
	}
	return nil
}
