package cmd

import (
	"errors"
	"fmt"

	"github.com/multigameinc/launcher/internal/prompt"
	"github.com/spf13/cobra"
)

// runMenu is what a double-clicked launcher does: a numbered menu over the
// main commands until the user exits.
func runMenu(cmd *cobra.Command, args []string) error {
	p := newPrompter(false)
	items := []prompt.MenuItem{
		{Label: "Install a modpack"},
		{Label: "Check for launcher updates"},
		{Label: "Start the game"},
	}
	for {
		var err error
		switch p.Menu("MultiGameInc Launcher", items, 0) {
		case 0:
			err = runInstall(cmd.Context(), installConfig{})
		case 1:
			selfUpdateCfg.yes = false
			err = runSelfUpdate(cmd.Context())
		case 2:
			err = launchCmd.RunE(cmd, nil)
		default:
			return nil
		}
		if cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
		if err != nil && !errors.Is(err, errNoSelection) {
			fmt.Println("Error:", err)
		}
		p.WaitForKey("Press Enter to continue...")
	}
}

func init() {
	rootCmd.RunE = runMenu
	rootCmd.Args = cobra.NoArgs
}
