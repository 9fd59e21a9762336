package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/hapaudit/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit HTTP API",
		Long: `Serve starts the HTTP API on the configured address. Graph documents are
uploaded to /graphs and audited with POST /audit; reports are kept in the
configured store, or in memory when the store backend is "none".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.config()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			runner, err := c.newRunner(ctx, false, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv, err := server.New(runner, cfg, c.Logger)
			if err != nil {
				return err
			}
			printInfo(cmd.ErrOrStderr(), "Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
			printDetail(cmd.ErrOrStderr(), "cache: %s · store: %s", cfg.Cache.Backend, cfg.Store.Backend)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
