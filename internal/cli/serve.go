package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nestflow/nestflow/internal/server"
	"github.com/nestflow/nestflow/pkg/cache"
	"github.com/nestflow/nestflow/pkg/config"
	"github.com/nestflow/nestflow/pkg/pipeline"
	"github.com/nestflow/nestflow/pkg/store"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		mongoURI  string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the nestflow HTTP API",
		Long: `Run the nestflow HTTP API.

The server exposes layout computation at POST /v1/layout and, when a MongoDB
URI is configured, named layout persistence under /v1/layouts. Layout results
are cached in Redis when a Redis address is configured, otherwise in a local
file cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("mongo-uri") {
				cfg.Server.MongoURI = mongoURI
			}
			if cmd.Flags().Changed("redis-addr") {
				cfg.Server.RedisAddr = redisAddr
			}
			return c.runServe(cmd.Context(), cfg.Server, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI for the layout store (optional)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the layout cache (optional)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe wires the cache, store, and runner, then blocks on the server.
func (c *CLI) runServe(ctx context.Context, cfg config.Server, noCache bool) error {
	layoutCache, err := c.newServerCache(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(layoutCache, nil, c.Logger)
	defer runner.Close()

	var layoutStore *store.Store
	if cfg.MongoURI != "" {
		layoutStore, err = store.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return fmt.Errorf("connect layout store: %w", err)
		}
		defer layoutStore.Close(context.Background())
		c.Logger.Info("layout store connected")
	} else {
		c.Logger.Warn("no MongoDB URI configured, layout persistence disabled")
	}

	srv, err := server.New(server.Options{
		Addr:   cfg.Addr,
		Runner: runner,
		Store:  layoutStore,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}

	c.Logger.Info("serving", "addr", cfg.Addr)
	return srv.ListenAndServe(ctx)
}

// newServerCache picks the cache backend for server mode: Redis when
// configured, otherwise a file cache.
func (c *CLI) newServerCache(ctx context.Context, cfg config.Server, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using redis cache", "addr", cfg.RedisAddr)
		return rc, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}
