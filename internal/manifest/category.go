package manifest

import (
	"strings"
)

// Category classifies a declared file. It is closed: unknown spellings parse
// to Unclassified.
type Category int

const (
	Unclassified Category = iota
	Installer
	Mod
	Shader
	ResourcePack
)

var categoryAliases = map[string]Category{
	"installers":    Installer,
	"installer":     Installer,
	"mods":          Mod,
	"mod":           Mod,
	"shaders":       Shader,
	"shader":        Shader,
	"shaderpacks":   Shader,
	"resourcepacks": ResourcePack,
	"resourcepack":  ResourcePack,
	"texturepacks":  ResourcePack,
	"textures":      ResourcePack,
}

// ParseCategory maps a manifest category string onto a Category, ignoring case
// and surrounding whitespace.
func ParseCategory(s string) Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return Unclassified
}

func (c Category) String() string {
	switch c {
	case Installer:
		return "installers"
	case Mod:
		return "mods"
	case Shader:
		return "shaders"
	case ResourcePack:
		return "resourcepacks"
	default:
		return "unclassified"
	}
}

// Critical reports whether a failed download of this category blocks apply
// until the user decides.
func (c Category) Critical() bool {
	return c == Mod || c == Shader || c == ResourcePack
}

// RepoFolder is the folder, relative to the manifest, that holds extra files
// of this category in the repository.
func (c Category) RepoFolder() string {
	switch c {
	case Installer, Mod, Shader, ResourcePack:
		return c.String()
	default:
		return ""
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
