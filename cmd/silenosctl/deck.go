package main

import (
	"errors"
	"fmt"

	"github.com/silenos/silenos-server-go/internal/deck"
	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/spf13/cobra"
)

type deckCheckOptions struct {
	catalogPath string
	deckPath    string
	rules       deck.Rules
}

func newDeckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Work with deck files",
	}

	opts := &deckCheckOptions{rules: deck.DefaultRules()}
	check := &cobra.Command{
		Use:   "check",
		Short: "Check a deck file against the deck rules",
		Long: `Reports every problem with a deck file: wrong size, too many copies of a
card, and cards missing from the catalog.

Examples:
  silenosctl deck check --catalog config/cards.yaml --deck aggro.yaml
  silenosctl deck check --catalog config/cards.yaml --deck draft.yaml --size 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeckCheck(cmd, opts)
		},
	}
	check.Flags().StringVar(&opts.catalogPath, "catalog", "config/cards.yaml", "Card catalog file")
	check.Flags().StringVar(&opts.deckPath, "deck", "", "Deck file (YAML)")
	check.Flags().IntVar(&opts.rules.Size, "size", opts.rules.Size, "Exact deck size")
	check.Flags().IntVar(&opts.rules.MaxCopies, "max-copies", opts.rules.MaxCopies, "Copies allowed per card")
	_ = check.MarkFlagRequired("deck")

	cmd.AddCommand(check)
	return cmd
}

func runDeckCheck(cmd *cobra.Command, opts *deckCheckOptions) error {
	cat, err := catalog.LoadFile(opts.catalogPath)
	if err != nil {
		return err
	}
	d, err := deck.LoadFile(opts.deckPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	name := d.Name
	if name == "" {
		name = opts.deckPath
	}

	if err := deck.Validate(d.Cards, cat, opts.rules); err != nil {
		fmt.Fprintf(out, "Deck %q is not legal:\n", name)
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				fmt.Fprintf(out, "  - %v\n", e)
			}
		} else {
			fmt.Fprintf(out, "  - %v\n", err)
		}
		return errors.New("deck check failed")
	}

	fmt.Fprintf(out, "Deck %q is legal: %d cards, %d distinct.\n", name, len(d.Cards), len(d.Counts()))
	return nil
}
