package main

import (
	"github.com/spf13/cobra"

	"arborgen/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen string
		flat   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve trees and forest layouts over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			if listen != "" {
				a.cfg.Server.Listen = listen
			}
			height, err := a.height(flat)
			if err != nil {
				return err
			}
			gen, err := a.generator(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			srv, err := server.New(a.cfg, gen,
				server.WithHeight(height),
				server.WithGatherer(a.registry),
				server.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "override server.listen")
	cmd.Flags().BoolVar(&flat, "flat", false, "ignore terrain and place forests on flat ground")
	return cmd
}
