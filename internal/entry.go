// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/alias"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/store"
	"github.com/starford/raido/internal/workspace"
)

// Run starts the application with the given options. It serves the
// session store and alias index over MCP stdio and keeps the search
// index in sync with the sessions directory until the context is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logs go to stderr; stdout belongs to the MCP
	// transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	ws, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("workspace_root", ws.Root()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := workspace.EnsureDir(ws.SessionsDir()); err != nil {
		return err
	}

	st := store.New(ws.SessionsDir(), logger)
	aliases := alias.New(ws.AliasesPath(), logger)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, st, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(st, aliases, db)

	logger.Info("Server starting...", slog.String("transport", "stdio"))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	// Keep the search index in sync with the sessions directory.
	g.Go(func() error {
		if err := index.Watch(gCtx, db, st, logger, nil); err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil
	})

	// Serve MCP over stdio.
	g.Go(func() error {
		if err := srv.Listen(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
