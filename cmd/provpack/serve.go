package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/infrastructure/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(deps *Deps) error {
				if addr == "" {
					addr = deps.Config.Server.Addr
				}
				srv := httpapi.NewServer(addr, httpapi.RouterConfig{
					Packets:      deps.Packets,
					Reviews:      deps.Reviews,
					Exports:      deps.Exports,
					Cases:        deps.Cases,
					Validator:    deps.Validator,
					Logger:       deps.Logger,
					AllowOrigins: deps.Config.Server.AllowOrigins,
				})
				deps.Logger.Info("serving review API", "addr", addr)
				return srv.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	return cmd
}
