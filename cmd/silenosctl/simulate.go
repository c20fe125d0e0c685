package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/silenos/silenos-server-go/internal/game/rules"
	"github.com/silenos/silenos-server-go/internal/simulate"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	catalogPath string
	seed        uint64
	games       int
	maxActions  int
	verbose     bool
}

func newSimulateCmd() *cobra.Command {
	opts := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play scripted games with random decks",
		Long: `Builds random legal decks from a catalog and lets two greedy players
play them out. Useful to check that a catalog produces games that end.

Examples:
  silenosctl simulate --catalog config/cards.yaml
  silenosctl simulate --catalog config/cards.yaml --seed 7 --games 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "config/cards.yaml", "Card catalog file")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "Seed for decks and shuffles")
	cmd.Flags().IntVar(&opts.games, "games", 1, "Number of games to play")
	cmd.Flags().IntVar(&opts.maxActions, "max-actions", simulate.DefaultMaxActions, "Abandon a game after this many actions")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print the game log of every game")
	return cmd
}

func runSimulate(cmd *cobra.Command, opts *simulateOptions) error {
	if opts.games <= 0 {
		return fmt.Errorf("--games must be positive, got %d", opts.games)
	}
	cat, err := catalog.LoadFile(opts.catalogPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	engine := game.NewEngine(rules.DefaultConfig(), nil)
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed))

	wins := map[string]int{}
	abandoned, totalTurns := 0, 0
	for i := 0; i < opts.games; i++ {
		d1, err := simulate.RandomDeck(cat, deck.DefaultRules(), rng)
		if err != nil {
			return err
		}
		d2, err := simulate.RandomDeck(cat, deck.DefaultRules(), rng)
		if err != nil {
			return err
		}

		res, err := simulate.Run(engine, cat,
			game.PlayerSetup{UID: "bot-1", DisplayName: "Bot 1", Deck: d1},
			game.PlayerSetup{UID: "bot-2", DisplayName: "Bot 2", Deck: d2},
			simulate.Options{Seed: rng.Uint64(), MaxActions: opts.maxActions},
		)
		if err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}

		totalTurns += res.Turns
		if res.Finished {
			wins[res.State.WinnerUID()]++
		} else {
			abandoned++
		}

		if opts.verbose {
			fmt.Fprintf(out, "Game %d\n", i+1)
			for _, line := range res.State.Log {
				fmt.Fprintf(out, "  %s\n", line)
			}
		}
		p1, p2 := res.State.Players.Player1, res.State.Players.Player2
		fmt.Fprintf(out, "game %d: winner=%s turns=%d actions=%d score=%d-%d\n",
			i+1, orDash(res.State.WinnerUID()), res.Turns, res.Actions, p1.Score, p2.Score)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "bot-1 wins: %d, bot-2 wins: %d, abandoned: %d, average turns: %.1f\n",
		wins["bot-1"], wins["bot-2"], abandoned, float64(totalTurns)/float64(opts.games))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
