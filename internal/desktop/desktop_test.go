package desktop

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortcutPaths(t *testing.T) {
	got := ShortcutPaths("/home/p", "/home/p/AppData/Roaming", "MultiGameInc-Launcher")
	assert.Equal(t, []string{
		filepath.Join("/home/p", "Desktop", "MultiGameInc-Launcher.lnk"),
		filepath.Join("/home/p/AppData/Roaming", "Microsoft", "Windows", "Start Menu", "Programs", "MultiGameInc-Launcher.lnk"),
	}, got)

	assert.Equal(t, []string{filepath.Join("/h", "Desktop", "x.LNK")}, ShortcutPaths("/h", "", "x.LNK"))
}

func TestNewShortcut(t *testing.T) {
	s := NewShortcut("/d/l.lnk", filepath.Join("/opt", "launcher", "launcher.exe"), []string{"launch"})
	assert.Equal(t, filepath.Join("/opt", "launcher"), s.WorkingDir)
	assert.Equal(t, s.Target, s.Icon)
}

func TestJoinArgs(t *testing.T) {
	assert.Equal(t, `install --pack "My Pack" -y`, joinArgs([]string{"install", "--pack", "My Pack", "-y"}))
	assert.Equal(t, `"say \"hi\""`, joinArgs([]string{`say "hi"`}))
	assert.Empty(t, joinArgs(nil))
}

func TestUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell integration is available")
	}
	assert.ErrorIs(t, CreateShortcut(Shortcut{}), ErrUnsupported)
	_, err := SelectFolder("x", 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}
