package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gregjones/httpcache"
	"github.com/wolfeidau/carebundle/internal/assets"
	"github.com/wolfeidau/carebundle/internal/devserver"
	"github.com/wolfeidau/carebundle/internal/logger"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the development loop: incremental rebuilds plus the dev server.
type ServeCmd struct {
	Project        ProjectFlags `embed:""`
	ProxyCache     bool         `help:"cache cacheable API responses from proxy targets in memory" env:"CAREBUNDLE_PROXY_CACHE"`
	AllowedOrigins []string     `help:"origins allowed to load development assets cross origin" env:"CAREBUNDLE_ALLOWED_ORIGINS"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	d, root, err := c.Project.Describe()
	if err != nil {
		return err
	}

	var opts []devserver.Option
	if c.ProxyCache {
		opts = append(opts, devserver.WithProxyTransport(httpcache.NewMemoryCacheTransport()))
	}
	if len(c.AllowedOrigins) > 0 {
		opts = append(opts, devserver.WithAllowedOrigins(c.AllowedOrigins...))
	}

	srv, err := devserver.FromDescription(d, log, opts...)
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Str("root", root).Str("addr", srv.Addr()).Msg("Starting development loop")

	pipeline := assets.New(assets.DefaultConfig(root, d))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := pipeline.Watch(gctx); err != nil {
			return fmt.Errorf("asset watcher stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(gctx); err != nil {
			return fmt.Errorf("dev server stopped: %w", err)
		}
		return nil
	})

	return g.Wait()
}
