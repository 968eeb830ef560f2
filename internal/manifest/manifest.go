// Package manifest parses modpack manifests and resolves their file sources.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNoVersions      = errors.New("manifest declares no versions")
	ErrVersionNotFound = errors.New("version not found in manifest")
)

// File is a declared file entry. Exactly one of URL, Path or File is expected
// to carry the source.
type File struct {
	URL           string   `json:"url,omitempty"`
	Path          string   `json:"path,omitempty"`
	File          string   `json:"file,omitempty"`
	Name          string   `json:"name,omitempty"`
	DisplayName   string   `json:"displayName,omitempty"`
	Category      Category `json:"category"`
	SHA256        string   `json:"sha256,omitempty"`
	InstallerArgs []string `json:"installerArgs,omitempty"`
}

// Source returns the first non-empty of URL, Path and File.
func (f File) Source() string {
	switch {
	case f.URL != "":
		return f.URL
	case f.Path != "":
		return f.Path
	default:
		return f.File
	}
}

// Label is how the file is identified to users and when selecting an installer.
func (f File) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Source()
}

type Version struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Files []File `json:"files"`
}

// Installers returns the declared installer files in order.
func (v Version) Installers() []File {
	var out []File
	for _, f := range v.Files {
		if f.Category == Installer {
			out = append(out, f)
		}
	}
	return out
}

// HasCategory reports whether any declared file belongs to c.
func (v Version) HasCategory(c Category) bool {
	for _, f := range v.Files {
		if f.Category == c {
			return true
		}
	}
	return false
}

type Manifest struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Recommended string    `json:"recommended,omitempty"`
	Versions    []Version `json:"versions"`
}

// Title returns the display name of the pack.
func (m *Manifest) Title() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// SelectVersion returns the version with the given id. An empty id selects the
// recommended version, or the first one when no recommendation resolves.
func (m *Manifest) SelectVersion(id string) (*Version, error) {
	if len(m.Versions) == 0 {
		return nil, ErrNoVersions
	}
	if id == "" {
		id = m.Recommended
		if id == "" {
			return &m.Versions[0], nil
		}
		if v := m.find(id); v != nil {
			return v, nil
		}
		return &m.Versions[0], nil
	}
	if v := m.find(id); v != nil {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
}

func (m *Manifest) find(id string) *Version {
	for i := range m.Versions {
		if m.Versions[i].ID == id {
			return &m.Versions[i]
		}
	}
	return nil
}

// Parse decodes a manifest. Hand edited manifests with a BOM, comments or
// trailing commas are accepted.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := decodeLenient(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Versions) == 0 {
		return nil, ErrNoVersions
	}
	return &m, nil
}

func decodeLenient(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	return json.Unmarshal(Sanitize(data), v)
}

var (
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// Sanitize strips a UTF-8 BOM, whole-line // comments, /* */ blocks and
// trailing commas before closing brackets.
func Sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = blockComment.ReplaceAll(data, nil)

	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "//") {
			kept = append(kept, line)
		}
	}
	return trailingComma.ReplaceAll([]byte(strings.Join(kept, "\n")), []byte("$1"))
}
