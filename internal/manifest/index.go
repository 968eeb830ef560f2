package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/multigameinc/launcher/internal/download"
)

// IndexEntry is one pack listed in a pack index.
type IndexEntry struct {
	Name     string `json:"name"`
	Manifest string `json:"manifest"`
}

// ParseIndex decodes a pack index. It accepts either a bare list or an object
// with a "packs" list.
func ParseIndex(data []byte) ([]IndexEntry, error) {
	var entries []IndexEntry
	if err := decodeLenient(data, &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		Packs []IndexEntry `json:"packs"`
	}
	if err := decodeLenient(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse pack index: %w", err)
	}
	return wrapped.Packs, nil
}

// ManifestURL resolves the entry's manifest against the index it was listed
// in.
func (e IndexEntry) ManifestURL(indexURL string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(e.Manifest))
	if err != nil || e.Manifest == "" {
		return "", fmt.Errorf("invalid manifest reference %q for pack %q", e.Manifest, e.Name)
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return "", fmt.Errorf("invalid index URL %q: %w", indexURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Title is the entry name, or its manifest reference when unnamed.
func (e IndexEntry) Title() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Manifest
}

// LoadIndex fetches the pack index, trying the alternate default branch when
// the first location fails. It returns the URL the index was read from.
func LoadIndex(ctx context.Context, g Getter, creds *download.Credentials, indexURL string) ([]IndexEntry, string, error) {
	var errs []error
	for _, u := range CandidateURLs(indexURL) {
		data, err := g.Fetch(ctx, u, creds, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries, err := ParseIndex(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		return entries, u, nil
	}
	return nil, "", fmt.Errorf("failed to load pack index: %w", errors.Join(errs...))
}

// CandidateURLs returns u followed by its alternate default-branch spelling
// (main <-> master) when u is a raw repository URL.
func CandidateURLs(u string) []string {
	urls := []string{u}
	for _, pair := range [][2]string{{"/main/", "/master/"}, {"/master/", "/main/"}} {
		if strings.Contains(u, pair[0]) {
			urls = append(urls, strings.Replace(u, pair[0], pair[1], 1))
			break
		}
	}
	return urls
}

// Getter fetches a URL into memory.
type Getter interface {
	Fetch(ctx context.Context, url string, creds *download.Credentials, onProgress download.ProgressFunc) ([]byte, error)
}

// Load fetches and parses the first candidate that succeeds and returns it with
// the URL it came from.
func Load(ctx context.Context, g Getter, creds *download.Credentials, candidates ...string) (*Manifest, string, error) {
	var errs []error
	for _, u := range candidates {
		data, err := g.Fetch(ctx, u, creds, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		return m, u, nil
	}
	if len(errs) == 0 {
		return nil, "", errors.New("no manifest URL given")
	}
	return nil, "", fmt.Errorf("failed to load manifest: %w", errors.Join(errs...))
}
