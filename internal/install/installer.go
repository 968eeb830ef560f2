package install

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/multigameinc/launcher/internal/download"
	"github.com/multigameinc/launcher/internal/fsutil"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/spf13/afero"
)

var preferredLoaders = []*regexp.Regexp{
	regexp.MustCompile(`(?i)forge`),
	regexp.MustCompile(`(?i)fabric`),
}

// PreferredInstaller picks the default loader installer: the first Forge
// installer, else the first Fabric one, else the first name.
func PreferredInstaller(names []string) string {
	for _, re := range preferredLoaders {
		for _, n := range names {
			if re.MatchString(n) {
				return n
			}
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// matchesInstaller reports whether a staged installer is the one the user
// selected. The selection may name the file or repeat its declared source.
func matchesInstaller(fm FileMeta, selected string) bool {
	if selected == "" {
		return false
	}
	candidates := []string{fm.Name}
	if fm.Original != nil {
		candidates = append(candidates, fm.Original.Label(), fm.Original.Source())
	}
	for _, c := range candidates {
		if c != "" && strings.EqualFold(c, selected) {
			return true
		}
	}
	return false
}

// AvailableInstallers lists the installers a user can choose from: the
// repository's installers folder when it has any, otherwise the installers
// declared by the version.
func (p *Pipeline) AvailableInstallers(ctx context.Context, manifestURL string, version *manifest.Version, creds *download.Credentials) []string {
	if p.lister != nil {
		if r, err := manifest.NewResolver(manifestURL); err == nil {
			if coords, ok := r.Coordinates(); ok {
				var names []string
				for _, e := range p.lister.ListFiles(ctx, coords.Owner, coords.Repo, coords.Ref, coords.Join(manifest.Installer.RepoFolder()), creds) {
					names = append(names, e.Name)
				}
				if len(names) > 0 {
					return names
				}
			}
		}
	}

	var names []string
	for _, f := range version.Installers() {
		names = append(names, f.Label())
	}
	return names
}

// LooksLikeGameDir reports whether dir appears to be an initialised game
// directory (the official launcher has run there at least once).
func LooksLikeGameDir(fs afero.Fs, dir string) bool {
	for _, marker := range []string{"launcher_profiles.json", "versions", "options.txt"} {
		if fsutil.Exists(fs, filepath.Join(dir, marker)) {
			return true
		}
	}
	return false
}
