// Package process starts and inspects external programs: loader installers,
// the game launcher and the launcher itself after a self-update.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// InstallerCommand returns the program and arguments that run an installer.
// Jar installers are run with java -jar.
func InstallerCommand(installerPath string, args []string) (string, []string) {
	if strings.EqualFold(filepath.Ext(installerPath), ".jar") {
		return "java", append([]string{"-jar", installerPath}, args...)
	}
	return installerPath, append([]string(nil), args...)
}

// RunOptions controls where installer output goes. Nil writers discard.
type RunOptions struct {
	Stdout io.Writer
	Stderr io.Writer
}

// RunInstaller runs a loader installer to completion and returns its exit
// code. The error is only set when the installer could not be started or was
// cancelled; a non-zero exit is reported through the code.
func RunInstaller(ctx context.Context, installerPath, installPath string, args []string, opts RunOptions) (int, error) {
	if _, err := os.Stat(installerPath); err != nil {
		return -1, fmt.Errorf("installer not found: %w", err)
	}
	name, argv := InstallerCommand(installerPath, args)
	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Dir = filepath.Dir(installerPath)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if installPath != "" {
		cmd.Env = append(os.Environ(), "INSTALL_DIR="+installPath)
	}

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return 0, nil
}

// Relaunch starts a new copy of the executable with the given arguments and
// returns without waiting for it. The caller is expected to exit.
func Relaunch(exePath string, args []string) error {
	if exePath == "" {
		var err error
		if exePath, err = os.Executable(); err != nil {
			return fmt.Errorf("unable to locate executable: %w", err)
		}
	}
	cmd := exec.Command(exePath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "LAUNCHER_RELAUNCHED=1")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to relaunch: %w", err)
	}
	return cmd.Process.Release()
}

// Relaunched reports whether this process was started by Relaunch.
func Relaunched() bool {
	return os.Getenv("LAUNCHER_RELAUNCHED") == "1"
}
