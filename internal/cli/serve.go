package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ByLCY/textstamp/cache"
	"github.com/ByLCY/textstamp/renderer"
	"github.com/ByLCY/textstamp/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /render and /measure over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := loggerFromContext(ctx)
			cfg := configFromContext(ctx)
			if addr != "" {
				cfg.Server.Addr = addr
			}
			defaults, err := cfg.ImageDefaults()
			if err != nil {
				return err
			}

			store, err := cache.New(ctx, cfg.CacheOptions())
			if err != nil {
				return err
			}
			defer store.Close()
			logger.Debug("cache ready", "kind", cfg.Cache.Kind, "ttl", cfg.Cache.TTL)

			srv := server.New(server.Options{
				Defaults:   defaults,
				Cache:      store,
				TTL:        cfg.Cache.TTL,
				Logger:     logger,
				MaxTextLen: cfg.Server.MaxTextLen,
				MaxCanvas:  cfg.Server.MaxCanvas,
				Open:       renderer.CachingOpener(cfg.Render.MeasureCache),

				AllowFontPaths: cfg.Server.AllowFontPaths,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
