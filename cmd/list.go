package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/multigameinc/launcher/internal/install"
	"github.com/multigameinc/launcher/internal/manifest"
	"github.com/multigameinc/launcher/internal/state"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listJSON bool

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "List the packs in the pack index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f := newFetcher()
		entries, indexURL, err := manifest.LoadIndex(ctx, f, cfg.Credentials(), cfg.Install.PackIndex)
		if err != nil {
			return err
		}
		store := openStateOrWarn()
		if store != nil {
			defer store.Close()
		}

		p := newPrinter(os.Stdout, listJSON, "name", "manifest", "installed")
		for _, e := range entries {
			u, err := e.ManifestURL(indexURL)
			if err != nil {
				log.Warn("skipping pack with an invalid manifest reference", zap.String("pack", e.Title()), zap.Error(err))
				continue
			}
			p.AppendRow(e.Title(), u, installedVersions(store, u))
		}
		return p.Render()
	},
}

var versionsFlags packFlags

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the versions of a pack",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f := newFetcher()
		manifestURL, err := resolveManifestURL(ctx, f, &versionsFlags, newPrompter(true), false)
		if err != nil {
			return err
		}
		m, used, err := loadManifest(ctx, f, cfg.Credentials(), manifestURL)
		if err != nil {
			return err
		}
		store := openStateOrWarn()
		if store != nil {
			defer store.Close()
		}

		p := newPrinter(os.Stdout, listJSON, "id", "name", "files", "recommended", "installed")
		for _, ver := range m.Versions {
			installed := ""
			if store != nil {
				if r, err := store.Get(used, ver.ID); err == nil {
					installed = r.InstallPath
				}
			}
			p.AppendRow(ver.ID, ver.Name, len(ver.Files), ver.ID == m.Recommended, installed)
		}
		return p.Render()
	},
}

var installersFlags packFlags

var installersCmd = &cobra.Command{
	Use:   "installers",
	Short: "List the installers available for a pack version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f := newFetcher()
		manifestURL, err := resolveManifestURL(ctx, f, &installersFlags, newPrompter(true), false)
		if err != nil {
			return err
		}
		m, used, err := loadManifest(ctx, f, cfg.Credentials(), manifestURL)
		if err != nil {
			return err
		}
		ver, err := m.SelectVersion(installersFlags.version)
		if err != nil {
			return err
		}
		names := newPipeline(f).AvailableInstallers(ctx, used, ver, cfg.Credentials())
		preferred := install.PreferredInstaller(names)

		p := newPrinter(os.Stdout, listJSON, "installer", "preferred")
		for _, n := range names {
			p.AppendRow(n, n == preferred)
		}
		return p.Render()
	},
}

// openStateOrWarn opens the install record store. Listing commands still work
// without it.
func openStateOrWarn() *state.Store {
	store, err := openState()
	if err != nil {
		log.Warn("install records unavailable", zap.Error(err))
		return nil
	}
	return store
}

func installedVersions(store *state.Store, manifestURL string) string {
	if store == nil {
		return ""
	}
	var ids []string
	for _, u := range manifest.CandidateURLs(manifestURL) {
		recs, err := store.List(u)
		if err != nil {
			continue
		}
		for _, r := range recs {
			ids = append(ids, fmt.Sprintf("%s (%s)", r.VersionID, r.InstalledAt.Format("2006-01-02")))
		}
	}
	return strings.Join(ids, ", ")
}

func init() {
	for _, c := range []*cobra.Command{packsCmd, versionsCmd, installersCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "Print JSON instead of a table.")
		Add(c)
	}
	versionsFlags.register(versionsCmd.Flags())
	installersFlags.register(installersCmd.Flags())
}
