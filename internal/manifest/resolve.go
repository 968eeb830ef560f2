package manifest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/multigameinc/launcher/internal/github"
	"github.com/multigameinc/launcher/internal/paths"
)

// Resolved is a declared file with an absolute source and a staging name.
type Resolved struct {
	URL  string
	Name string
}

// Resolver turns declared sources into absolute URLs relative to the manifest.
type Resolver struct {
	base   *url.URL
	coords github.Coordinates
	hasCtx bool
}

// NewResolver creates a resolver for the manifest published at manifestURL.
func NewResolver(manifestURL string) (*Resolver, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL %q: %w", manifestURL, err)
	}
	coords, ok := github.CoordinatesFromURL(manifestURL)
	return &Resolver{base: base, coords: coords, hasCtx: ok}, nil
}

// Coordinates returns the repository coordinates of the manifest, if any.
func (r *Resolver) Coordinates() (github.Coordinates, bool) {
	return r.coords, r.hasCtx
}

// Resolve substitutes repository placeholders, resolves relative sources
// against the manifest's directory and picks the staging name.
func (r *Resolver) Resolve(f File) (Resolved, error) {
	src := strings.TrimSpace(f.Source())
	if src == "" {
		return Resolved{}, fmt.Errorf("file %q declares no source", f.Name)
	}

	if r.hasCtx {
		src = strings.NewReplacer(
			"{owner}", r.coords.Owner,
			"{repo}", r.coords.Repo,
			"{ref}", r.coords.Ref,
		).Replace(src)
	}

	ref, err := url.Parse(src)
	if err != nil {
		return Resolved{}, fmt.Errorf("invalid source %q: %w", src, err)
	}
	resolved := ref
	if !ref.IsAbs() {
		resolved = r.base.ResolveReference(ref)
	}

	name := f.Name
	if name == "" {
		name = paths.BaseName(resolved.Path)
	}
	if name == "" {
		return Resolved{}, fmt.Errorf("cannot derive a file name from %q", src)
	}
	return Resolved{URL: resolved.String(), Name: name}, nil
}
