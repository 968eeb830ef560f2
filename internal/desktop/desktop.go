// Package desktop integrates with the Windows shell: shortcuts and the folder
// picker. Other platforms get ErrUnsupported.
package desktop

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrUnsupported = errors.New("not supported on this platform")

// Shortcut describes a .lnk file.
type Shortcut struct {
	// Path of the .lnk file to write.
	Path        string
	Target      string
	Args        []string
	WorkingDir  string
	Icon        string
	Description string
}

// ShortcutPaths returns where shortcuts named name go: the desktop and the
// start menu programs folder.
func ShortcutPaths(home, appData, name string) []string {
	file := name
	if !strings.EqualFold(filepath.Ext(file), ".lnk") {
		file += ".lnk"
	}
	paths := []string{filepath.Join(home, "Desktop", file)}
	if appData != "" {
		paths = append(paths, filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", file))
	}
	return paths
}

// NewShortcut fills the defaults of a shortcut to target.
func NewShortcut(path, target string, args []string) Shortcut {
	return Shortcut{
		Path:       path,
		Target:     target,
		Args:       args,
		WorkingDir: filepath.Dir(target),
		Icon:       target,
	}
}

func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
