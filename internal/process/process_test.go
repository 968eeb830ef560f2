package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallerCommand(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		args     []string
		wantName string
		wantArgs []string
	}{
		{"jar", "/i/forge-installer.jar", []string{"--installClient", "/mc"}, "java", []string{"-jar", "/i/forge-installer.jar", "--installClient", "/mc"}},
		{"upper case jar", "/i/Fabric.JAR", nil, "java", []string{"-jar", "/i/Fabric.JAR"}},
		{"native", "/i/setup.exe", []string{"/S"}, "/i/setup.exe", []string{"/S"}},
		{"native without args", "/i/setup.sh", nil, "/i/setup.sh", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args := InstallerCommand(tt.path, tt.args)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRunInstaller_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "installer.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1 $INSTALL_DIR\"\nexit 3\n"), 0755))

	var out strings.Builder
	code, err := RunInstaller(context.Background(), script, "/mc", []string{"hello"}, RunOptions{Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "hello /mc\n", out.String())
}

func TestRunInstaller_Missing(t *testing.T) {
	code, err := RunInstaller(context.Background(), filepath.Join(t.TempDir(), "nope.jar"), "", nil, RunOptions{})
	assert.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestLauncherCandidates(t *testing.T) {
	env := func(key string) string {
		if key == "ProgramFiles" {
			return `D:\Apps`
		}
		return ""
	}

	win := LauncherCandidates("windows", `C:\Users\p`, env)
	require.Len(t, win, 9)
	assert.Equal(t, filepath.Join(`D:\Apps`, "TLauncher", "TLauncher.exe"), win[0])
	assert.Equal(t, filepath.Join(`C:\Program Files (x86)`, "TLauncher", "TLauncher.exe"), win[1])

	mac := LauncherCandidates("darwin", "/Users/p", env)
	assert.Equal(t, "/Applications/TLauncher.app", mac[0])
	assert.Contains(t, mac, filepath.Join("/Users/p", "Applications", "Minecraft.app"))

	linux := LauncherCandidates("linux", "/home/p", env)
	assert.Equal(t, filepath.Join("/home/p", ".tlauncher", "TLauncher"), linux[0])
	assert.Contains(t, linux, "/usr/bin/minecraft-launcher")
}

func TestFindLauncher(t *testing.T) {
	fs := afero.NewMemMapFs()
	candidates := []string{"/usr/bin/tlauncher", "/usr/bin/minecraft-launcher"}

	_, ok := FindLauncher(fs, candidates)
	assert.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, "/usr/bin/minecraft-launcher", []byte{}, 0755))
	got, ok := FindLauncher(fs, candidates)
	assert.True(t, ok)
	assert.Equal(t, "/usr/bin/minecraft-launcher", got)
}

func TestLaunchCommand(t *testing.T) {
	assert.Equal(t, []string{"open", "-a", "/Applications/Minecraft.app"}, LaunchCommand("darwin", "/Applications/Minecraft.app").Args)
	assert.Equal(t, []string{"/usr/bin/tlauncher"}, LaunchCommand("linux", "/usr/bin/tlauncher").Args)
	assert.Equal(t, []string{"xdg-open", LauncherProtocol}, OpenCommand("linux", LauncherProtocol).Args)
	assert.Equal(t, []string{"open", LauncherProtocol}, OpenCommand("darwin", LauncherProtocol).Args)
}

func TestIsRunning(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping process table scan in short mode")
	}
	ctx := context.Background()

	running, err := IsRunning(ctx, "no-such-launcher-process.exe")
	require.NoError(t, err)
	assert.False(t, running)

	running, err = IsRunning(ctx, os.Args[0])
	require.NoError(t, err)
	assert.True(t, running, "the test binary itself is running")
}

func TestWaitForExit_NotRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.True(t, WaitForExit(ctx, 10*time.Millisecond, "no-such-launcher-process"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "tlauncher", normalizeName("TLauncher.exe"))
	assert.Equal(t, "minecraft-launcher", normalizeName("/usr/bin/minecraft-launcher"))
}
