package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/astviz/astviz/internal/server"
	"github.com/astviz/astviz/pkg/cache"
	"github.com/astviz/astviz/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string // listen address
	redisAddr string // redis address; empty uses the file cache
	cacheDir  string // file cache directory override
	noCache   bool   // disable caching entirely
	maxSource int    // request source size bound in bytes
	maxDepth  int    // tree depth bound per request
}

// newServeCmd creates the serve command exposing the render API over HTTP.
func newServeCmd() *cobra.Command {
	opts := serveOpts{
		addr:      ":8080",
		maxSource: pipeline.DefaultMaxSourceBytes,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Long: `Start an HTTP server exposing the render pipeline.

Endpoints:
  GET  /healthz       liveness probe
  POST /api/render    source in, graph artifact out (json, dot, svg, png)
  POST /api/bytecode  source in, instructions with node alignment out

Artifacts are cached in Redis when --redis is set, otherwise in the file
cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "redis address (e.g. localhost:6379)")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "cache directory (default: user cache dir)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().IntVar(&opts.maxSource, "max-source-bytes", opts.maxSource, "request source size bound")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "tree depth bound per request (0 = default)")

	return cmd
}

// runServe builds the cache backend and runs the HTTP server until the
// context is canceled, then shuts down gracefully.
func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	backend, err := serveCache(ctx, opts)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(backend, nil, logger)
	defer runner.Close()

	srv := server.New(server.Config{
		Runner:         runner,
		Logger:         logger,
		MaxSourceBytes: opts.maxSource,
		MaxDepth:       opts.maxDepth,
	})

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", opts.addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// serveCache selects the cache backend: Redis when configured, the file
// cache otherwise, or none at all with --no-cache.
func serveCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	logger := loggerFromContext(ctx)

	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisAddr != "" {
		c, err := cache.NewRedisCache(ctx, opts.redisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Infof("Caching artifacts in redis at %s", opts.redisAddr)
		return c, nil
	}

	dir := opts.cacheDir
	if dir == "" {
		var err error
		dir, err = defaultCacheDir()
		if err != nil {
			return nil, err
		}
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	logger.Debugf("Caching artifacts in %s", dir)
	return c, nil
}
