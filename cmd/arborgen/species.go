package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"arborgen/internal/config"
)

func newSpeciesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "species",
		Short: "Inspect the species catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List configured species",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			catalog, err := a.cfg.Catalog()
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title(fmt.Sprintf("%d species", catalog.Len()))
			for _, name := range catalog.Sorted() {
				t, err := catalog.Lookup(name)
				if err != nil {
					return err
				}
				p.field(name, fmt.Sprintf("%s  iterations=%d angle=%g leaves=%s",
					t.Grammar.Axiom, t.Grammar.Iterations, t.Turtle.Angle, t.Turtle.LeafPolicy))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one species as configuration YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			catalog, err := a.cfg.Catalog()
			if err != nil {
				return err
			}
			t, err := catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(config.SpeciesFromTemplate(t)); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
