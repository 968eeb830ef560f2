package github

import (
	"net/url"
	"path"
	"strings"
)

// Coordinates locate a directory inside a repository at a ref.
type Coordinates struct {
	Owner    string
	Repo     string
	Ref      string
	BasePath string
}

// CoordinatesFromURL derives repository coordinates from a raw content URL of
// the form {host}/{owner}/{repo}/{ref}/{path...}. BasePath is the directory
// holding the referenced file ("" at the repository root). URLs with fewer
// than four path segments carry no repository context and return false.
func CoordinatesFromURL(rawURL string) (Coordinates, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Coordinates{}, false
	}

	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 4 {
		return Coordinates{}, false
	}

	base := path.Dir(strings.Join(segs[3:], "/"))
	if base == "." {
		base = ""
	}
	return Coordinates{
		Owner:    segs[0],
		Repo:     segs[1],
		Ref:      segs[2],
		BasePath: base,
	}, true
}

// Join returns BasePath joined with elem, relative to the repository root.
func (c Coordinates) Join(elem ...string) string {
	return strings.TrimPrefix(path.Join(append([]string{c.BasePath}, elem...)...), "/")
}
