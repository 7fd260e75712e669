package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/alias"
	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/store"
	"github.com/starford/raido/internal/workspace"
	pkgconfig "github.com/starford/raido/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Workspace.Root = root
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func quietLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func preCompact(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := quietLogger(cfg)

	ws, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		return err
	}
	if err := workspace.EnsureDir(ws.SessionsDir()); err != nil {
		return err
	}

	st := store.New(ws.SessionsDir(), logger)
	hooks.PreCompact(st, ws, time.Now(), logger)
	return nil
}

func suggestCompact(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := quietLogger(cfg)

	advice := hooks.SuggestCompact(os.TempDir(), cmd.String("session-id"), cfg.Hooks.CompactThreshold, logger)
	if advice.Message != "" {
		fmt.Println(advice.Message)
	}
	return nil
}

func cleanup(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := quietLogger(cfg)

	ws, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		return err
	}

	st := store.New(ws.SessionsDir(), logger)
	aliases := alias.New(ws.AliasesPath(), logger)

	result := aliases.Cleanup(st.Exists)
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "root",
			Usage:   "Workspace root directory (overrides config)",
			Sources: cli.EnvVars("RAIDO_ROOT"),
		},
	}

	cmd := &cli.Command{
		Name:   "raido",
		Usage:  "Session record store with aliases, full-text search, and an MCP stdio server",
		Action: run,
		Flags:  flags,
		Commands: []*cli.Command{
			{
				Name:  "hook",
				Usage: "Agent lifecycle hooks",
				Commands: []*cli.Command{
					{
						Name:   "pre-compact",
						Usage:  "Log a compaction event and annotate the newest session",
						Action: preCompact,
						Flags:  flags,
					},
					{
						Name:   "suggest-compact",
						Usage:  "Count tool calls for a session and suggest compaction past the threshold",
						Action: suggestCompact,
						Flags: append([]cli.Flag{
							&cli.StringFlag{
								Name:     "session-id",
								Usage:    "Hosting agent session identifier",
								Required: true,
							},
						}, flags...),
					},
				},
			},
			{
				Name:   "cleanup",
				Usage:  "Remove aliases whose session files no longer exist",
				Action: cleanup,
				Flags:  flags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
