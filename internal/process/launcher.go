package process

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/spf13/afero"
)

// LauncherProtocol opens the official launcher when no executable is found.
const LauncherProtocol = "minecraft://"

// LauncherCandidates lists the places a game launcher is looked for on goos,
// third-party launchers first. env looks up environment variables.
func LauncherCandidates(goos, home string, env func(string) string) []string {
	getenv := func(key, fallback string) string {
		if v := env(key); v != "" {
			return v
		}
		return fallback
	}

	switch goos {
	case "windows":
		pf := getenv("ProgramFiles", `C:\Program Files`)
		pf86 := getenv("ProgramFiles(x86)", `C:\Program Files (x86)`)
		return []string{
			filepath.Join(pf, "TLauncher", "TLauncher.exe"),
			filepath.Join(pf86, "TLauncher", "TLauncher.exe"),
			filepath.Join(home, "AppData", "Roaming", ".tlauncher", "TLauncher.exe"),
			filepath.Join(`C:\`, "TLauncher", "TLauncher.exe"),
			filepath.Join(home, "TLauncher.exe"),
			filepath.Join(pf, "Minecraft Launcher", "MinecraftLauncher.exe"),
			filepath.Join(pf86, "Minecraft Launcher", "MinecraftLauncher.exe"),
			filepath.Join(pf, "Minecraft Launcher", "launcher.exe"),
			filepath.Join(pf86, "Mojang", "MinecraftLauncher.exe"),
		}
	case "darwin":
		return []string{
			"/Applications/TLauncher.app",
			filepath.Join(home, "Applications", "TLauncher.app"),
			"/Applications/Minecraft.app",
			filepath.Join(home, "Applications", "Minecraft.app"),
		}
	default:
		return []string{
			filepath.Join(home, ".tlauncher", "TLauncher"),
			"/usr/bin/tlauncher",
			"/usr/local/bin/tlauncher",
			"/usr/bin/minecraft-launcher",
			"/usr/local/bin/minecraft-launcher",
		}
	}
}

// FindLauncher returns the first candidate that exists.
func FindLauncher(fs afero.Fs, candidates []string) (string, bool) {
	for _, c := range candidates {
		if ok, _ := afero.Exists(fs, c); ok {
			return c, true
		}
	}
	return "", false
}

// LaunchCommand builds the detached command that starts a launcher.
func LaunchCommand(goos, path string) *exec.Cmd {
	if goos == "darwin" {
		return exec.Command("open", "-a", path)
	}
	return exec.Command(path)
}

// OpenCommand builds the command that hands a URL to the desktop.
func OpenCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// Start runs cmd without waiting for it to exit.
func Start(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return cmd.Process.Release()
}
