package cli

import (
	"github.com/spf13/cobra"

	"github.com/skilltreelabs/skilltree/pkg/gateway"
)

// serveCommand creates the serve command running the HTTP gateway.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the graph gateway",
		Long: `Serve the scope-snapshot API over HTTP.

The gateway exposes the baseline and focus scopes, node creation, and the
admin reseed endpoint. Backend selection (memory or MongoDB) and snapshot
caching come from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			st, err := c.newStore(cfg)
			if err != nil {
				return err
			}
			snapCache, err := c.newCache(cfg)
			if err != nil {
				return err
			}
			defer snapCache.Close()

			srv, err := gateway.New(gateway.Options{
				Addr:     cfg.Server.Addr,
				Store:    st,
				Cache:    snapCache,
				CacheTTL: cfg.Cache.TTL.Std(),
				Logger:   c.Logger,
			})
			if err != nil {
				return err
			}

			c.Logger.Info("serving", "addr", cfg.Server.Addr, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
