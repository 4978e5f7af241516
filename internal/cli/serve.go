package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/dnslens/internal/api"
	"github.com/runnerr0/dnslens/internal/config"
	"github.com/runnerr0/dnslens/internal/engine"
	"github.com/runnerr0/dnslens/internal/logging"
	"github.com/runnerr0/dnslens/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, fmt.Sprint(cfg.Server.Port)))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.serve(ctx, cfg, store, ln)
}

// applyOverrides folds command-line flags into cfg.
func (c *ServeCommand) applyOverrides(cfg *config.Config) {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.globals != nil && c.globals.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// serve runs the daemon on ln until ctx is cancelled (for testing). ln is
// closed on every return path.
func (c *ServeCommand) serve(ctx context.Context, cfg *config.Config, store storage.Store, ln net.Listener) error {
	defer ln.Close()

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Logging, logPath, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting dnslens", "version", c.version, "addr", ln.Addr().String())

	srv := api.NewServer(cfg.Server, cfg.Metrics, engine.New(store, logger), logger)
	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	logger.Info("dnslens stopped")
	return nil
}
