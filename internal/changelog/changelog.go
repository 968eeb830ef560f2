// Package changelog renders the notes shown and saved after a self-update.
package changelog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/multigameinc/launcher/internal/github"
	"github.com/spf13/afero"
)

// FileName is written into the data directory after each applied update.
const FileName = "changelog.txt"

// FormatCommit formats a commit as a one line note. Merge commits yield "".
func FormatCommit(commit github.Commit) string {
	firstLine := strings.TrimSpace(strings.SplitN(commit.Commit.Message, "\n", 2)[0])
	if firstLine == "" || strings.HasPrefix(strings.ToLower(firstLine), "merge ") {
		return ""
	}

	shortSHA := commit.SHA
	if len(shortSHA) > 7 {
		shortSHA = shortSHA[:7]
	}

	r := []rune(firstLine)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return fmt.Sprintf("* %s (Commit %s)", string(r), shortSHA)
}

// Notes describes one applied update.
type Notes struct {
	Previous  string
	Version   string
	Released  string
	Branch    string
	Commit    *github.Commit
	Copied    []string
	Removed   []string
	BackupDir string
	At        time.Time
}

// Build creates a formatted changelog string
func Build(n Notes) string {
	var b strings.Builder

	b.WriteString("MultiGameInc Launcher Update\n\n")
	prev := n.Previous
	if prev == "" {
		prev = "none"
	}
	fmt.Fprintf(&b, "Version: %s -> %s\n", prev, n.Version)
	if n.Released != "" {
		fmt.Fprintf(&b, "Released: %s\n", n.Released)
	}
	if n.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", n.Branch)
	}
	fmt.Fprintf(&b, "Update completed: %s\n", n.At.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total changes: %d files (%d updated, %d removed)\n", len(n.Copied)+len(n.Removed), len(n.Copied), len(n.Removed))
	if n.BackupDir != "" {
		fmt.Fprintf(&b, "Backup: %s\n", n.BackupDir)
	}

	if n.Commit != nil {
		if note := FormatCommit(*n.Commit); note != "" {
			b.WriteString("\nLatest change:\n")
			b.WriteString(note + "\n")
		}
	}

	if len(n.Copied) == 0 && len(n.Removed) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\nDetailed file changes:\n")
	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\n\n")

	if len(n.Copied) > 0 {
		fmt.Fprintf(&b, "Updated/Added (%d files):\n", len(n.Copied))
		for _, f := range n.Copied {
			fmt.Fprintf(&b, "  + %s\n", f)
		}
		b.WriteString("\n")
	}
	if len(n.Removed) > 0 {
		fmt.Fprintf(&b, "Removed (%d files):\n", len(n.Removed))
		for _, f := range n.Removed {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Write saves the built notes as FileName in dir and returns the path.
func Write(fs afero.Fs, dir string, n Notes) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	return path, afero.WriteFile(fs, path, []byte(Build(n)), 0644)
}
