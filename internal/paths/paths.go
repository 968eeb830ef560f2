package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	homedir "github.com/mitchellh/go-homedir"
)

// DefaultPreserve lists application entries a self-update never removes.
var DefaultPreserve = []string{"app_version.json", "user_data", "node_modules", ".git"}

// Normalize converts a path to use forward slashes (for manifest/cross-platform storage)
func Normalize(p string) string {
	return strings.ReplaceAll(filepath.Clean(p), string(filepath.Separator), "/")
}

// Denormalize converts a path from forward slashes to platform-specific separators
func Denormalize(p string) string {
	return strings.ReplaceAll(p, "/", string(filepath.Separator))
}

// CleanLower returns a cleaned, lowercase path for case-insensitive comparison
func CleanLower(p string) string {
	return strings.ToLower(Normalize(p))
}

// Within joins rel onto base and fails if the result escapes base.
func Within(base, rel string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	target := filepath.Join(absBase, Denormalize(rel))
	r, err := filepath.Rel(absBase, target)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt detected: %s", rel)
	}
	return target, nil
}

// BaseName returns the last element of a slash separated name or URL path,
// with any query or fragment dropped.
func BaseName(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// IsProtected reports whether rel (relative to the application root) is one of
// the preserved entries or sits underneath one. Patterns are doublestar globs
// matched case-insensitively.
func IsProtected(rel string, patterns []string) bool {
	norm := CleanLower(rel)
	for _, p := range patterns {
		p = strings.ToLower(strings.Trim(Normalize(p), "/"))
		if p == "" || p == "." {
			continue
		}
		if ok, _ := doublestar.Match(p, norm); ok {
			return true
		}
		if ok, _ := doublestar.Match(p+"/**", norm); ok {
			return true
		}
	}
	return false
}

// DefaultGameDir returns the conventional game directory for goos.
func DefaultGameDir(goos string) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", ".minecraft"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "minecraft"), nil
	default:
		return filepath.Join(home, ".minecraft"), nil
	}
}

// DefaultDataDir returns the per-user launcher data directory.
func DefaultDataDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".multigame-launcher"), nil
}
