package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"arborgen/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default configuration written to %s\n", args[0])
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath == "" {
				return fmt.Errorf("--config is required")
			}
			if _, err := config.Load(a.configPath); err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title(fmt.Sprintf("%s is valid", a.configPath))
			return nil
		},
	}

	cmd.AddCommand(initCmd, validate)
	return cmd
}
