// silenosctl is the operator tool for a Silenos server: it checks card
// catalogs and deck files, issues player tokens, inspects replays and runs
// scripted games.
//
// Usage:
//
//	silenosctl catalog validate <file>        - Parse a catalog and list its cards
//	silenosctl deck check --catalog --deck    - Check a deck file against the deck rules
//	silenosctl token issue --uid --name       - Sign a player token with the configured secret
//	silenosctl replay show <file>             - Summarize a saved replay
//	silenosctl simulate --catalog --seed      - Play scripted games with random decks
//	silenosctl admin hash-password <password> - Print a bcrypt hash for auth.admin_password_hash
//
// Global flags:
//
//	--config <path> - Server configuration (default: config/config.yaml)
package main

import (
	"fmt"
	"os"

	"github.com/silenos/silenos-server-go/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

// loadConfig reads the server configuration. An empty path uses defaults and
// SILENOS_* environment variables only.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "silenosctl",
		Short: "Operator tool for the Silenos card game server",
		Long: `silenosctl works on the same configuration, catalogs and replays as the
server.

Available commands:
  catalog   - Validate card catalogs
  deck      - Check deck files
  token     - Issue player tokens
  replay    - Inspect saved replays
  simulate  - Play scripted games
  admin     - Admin helpers

Examples:
  silenosctl catalog validate config/cards.yaml
  silenosctl deck check --catalog config/cards.yaml --deck my-deck.yaml
  silenosctl token issue --uid uid-alice --name Alice
  silenosctl simulate --catalog config/cards.yaml --seed 42 --games 10`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "Path to server configuration")

	root.AddCommand(newCatalogCmd())
	root.AddCommand(newDeckCmd())
	root.AddCommand(newTokenCmd(opts))
	root.AddCommand(newReplayCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newAdminCmd())

	return root
}
