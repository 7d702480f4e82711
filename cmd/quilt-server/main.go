// Command quilt-server is the long-running HTTP front-end: it accepts
// connections on the configured fastcgi:socket and serves every
// request through a Pipeline bound to one configured engine, mirroring
// original_source/fcgi.c's accept loop generalised to plain HTTP (see
// adapter.Listen).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quiltlod/quilt/adapter"
	"github.com/quiltlod/quilt/config"
	"github.com/quiltlod/quilt/internal/wiring"
	"github.com/quiltlod/quilt/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "quilt-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Logger = cfg.NewLogger()

	reg, err := wiring.BuildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}

	srv := &adapter.Server{
		Pipeline:     pipeline.New(reg),
		EngineName:   cfg.Quilt.Engine,
		BaseURI:      cfg.Quilt.Base,
		DefaultLimit: cfg.Quilt.DefaultLimit,
		Logger:       cfg.Logger,
	}

	ln, err := adapter.Listen(cfg.FastCGI.Socket)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.FastCGI.Socket, err)
	}

	httpServer := &http.Server{Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		cfg.Logger.Info("quilt-server listening", "socket", cfg.FastCGI.Socket, "engine", cfg.Quilt.Engine)
		errCh <- httpServer.Serve(ln)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		cfg.Logger.Info("quilt-server shutting down")
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("QUILT_CONFIG"); path != "" {
		return config.Load(path)
	}
	return config.New(), nil
}
