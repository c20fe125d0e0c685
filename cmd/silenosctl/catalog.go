package main

import (
	"fmt"
	"strings"

	"github.com/silenos/silenos-server-go/internal/game/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with card catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a catalog and list its cards",
		Long: `Loads a YAML or JSON catalog the way the server does and prints every
card with the abilities parsed from its text. Permanents without any
ability are flagged, since they can never be activated.

Examples:
  silenosctl catalog validate config/cards.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(cmd, args[0])
		},
	})

	return cmd
}

func runCatalogValidate(cmd *cobra.Command, path string) error {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cards := cat.All()

	maxIDLen := 2 // "ID" header
	for _, c := range cards {
		if len(c.ID) > maxIDLen {
			maxIDLen = len(c.ID)
		}
	}

	fmt.Fprintf(out, "  %-*s  %-9s  %4s  %5s  %s\n", maxIDLen, "ID", "Type", "Cost", "Power", "Abilities")
	fmt.Fprintf(out, "  %-*s  %-9s  %4s  %5s  %s\n", maxIDLen, "--", "----", "----", "-----", "---------")

	var inert []string
	for _, c := range cards {
		names := make([]string, len(c.Abilities))
		for i, ab := range c.Abilities {
			names[i] = ab.String()
		}
		kind := "PERMANENT"
		if c.IsAction() {
			kind = "ACTION"
		} else if len(names) == 0 {
			inert = append(inert, c.ID)
		}
		fmt.Fprintf(out, "  %-*s  %-9s  %4d  %5d  %s\n", maxIDLen, c.ID, kind, c.Cost, c.Power, strings.Join(names, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d cards loaded from %s\n", cat.Len(), path)
	if len(inert) > 0 {
		fmt.Fprintf(out, "warning: permanents without abilities: %s\n", strings.Join(inert, ", "))
	}
	return nil
}
