package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, release, err := opts.setup()
			if err != nil {
				return err
			}
			defer release()

			if port > 0 {
				a.Config.Http.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides http.port)")
	return cmd
}
