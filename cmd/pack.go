package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/multigameinc/launcher/internal/prompt"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var errNoSelection = errors.New("nothing selected")

// packFlags choose a pack and one of its versions.
type packFlags struct {
	pack        string
	manifestURL string
	version     string
}

func (pf *packFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&pf.pack, "pack", "p", "", "Pack to use, matched against the pack index names.")
	flags.StringVarP(&pf.manifestURL, "manifest", "m", "", "Manifest URL to use instead of a pack from the index.")
	flags.StringVar(&pf.version, "version", "", "Version id to use (default is the recommended version).")
}

// resolveManifestURL returns the manifest URL named by the flags, asking the
// user to pick from the pack index when neither --manifest nor --pack is set.
func resolveManifestURL(ctx context.Context, f manifest.Getter, pf *packFlags, p *prompt.Prompter, interactive bool) (string, error) {
	if pf.manifestURL != "" {
		return pf.manifestURL, nil
	}
	entries, indexURL, err := manifest.LoadIndex(ctx, f, cfg.Credentials(), cfg.Install.PackIndex)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("pack index %s lists no packs", indexURL)
	}

	var idx int
	switch {
	case pf.pack != "":
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Title()
		}
		if idx, err = matchOne(pf.pack, names); err != nil {
			return "", fmt.Errorf("pack: %w", err)
		}
	case len(entries) == 1 || !interactive:
		idx = 0
	default:
		items := make([]prompt.MenuItem, len(entries))
		for i, e := range entries {
			items[i] = prompt.MenuItem{Label: e.Title()}
		}
		if idx = p.Menu("Select a pack", items, 0); idx < 0 {
			return "", errNoSelection
		}
	}
	log.Debug("pack selected", zap.String("pack", entries[idx].Title()), zap.String("index", indexURL))
	return entries[idx].ManifestURL(indexURL)
}

// loadManifest fetches a manifest, falling back to the alternate default
// branch. It returns the URL the manifest was read from.
func loadManifest(ctx context.Context, g manifest.Getter, creds *download.Credentials, manifestURL string) (*manifest.Manifest, string, error) {
	return manifest.Load(ctx, g, creds, manifest.CandidateURLs(manifestURL)...)
}

// pickVersion selects the flagged version, or lets the user pick with the
// recommended version as the default.
func pickVersion(m *manifest.Manifest, id string, p *prompt.Prompter, interactive bool) (*manifest.Version, error) {
	if id != "" || !interactive || len(m.Versions) < 2 {
		return m.SelectVersion(id)
	}
	recommended, err := m.SelectVersion("")
	if err != nil {
		return nil, err
	}
	def := 0
	items := make([]prompt.MenuItem, len(m.Versions))
	for i, ver := range m.Versions {
		items[i] = prompt.MenuItem{Label: ver.ID, Description: ver.Name}
		if ver.ID == recommended.ID {
			def = i
			items[i].Description = strings.TrimSpace(items[i].Description + " (recommended)")
		}
	}
	idx := p.Menu(fmt.Sprintf("Select a version of %s", m.Title()), items, def)
	if idx < 0 {
		return nil, errNoSelection
	}
	return &m.Versions[idx], nil
}

// matchOne finds query in names: an exact case-insensitive match wins,
// otherwise the best fuzzy match.
func matchOne(query string, names []string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, query) {
			return i, nil
		}
	}
	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return -1, fmt.Errorf("nothing matches %q (have %s)", query, strings.Join(names, ", "))
	}
	return matches[0].Index, nil
}
