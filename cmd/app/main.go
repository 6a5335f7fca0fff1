package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/Voelzke/notehub/internal"
	"github.com/Voelzke/notehub/internal/index"
	"github.com/Voelzke/notehub/internal/mcpserver"
	"github.com/Voelzke/notehub/internal/noteservice"
	"github.com/Voelzke/notehub/internal/share"
	"github.com/Voelzke/notehub/internal/storage"
	pkgconfig "github.com/Voelzke/notehub/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// mcp runs an MCP stdio session acting for a single owner.
func mcp(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	owner := cmd.String("owner")
	if owner == "" {
		return fmt.Errorf("owner is required")
	}

	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := store.EnsureRoot(owner); err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	syncer := index.NewSyncer(db, store, logger)
	if err := syncer.EnsureSync(owner); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	svc := noteservice.NewService(store, db, syncer, share.NopManager{})

	return mcpserver.New(svc, owner).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "notehub",
		Usage:  "Markdown note and task server with per-owner storage, SQLite index and reminders",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Run an MCP stdio session for one owner",
				Action: mcp,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:    "owner",
						Usage:   "Owner whose notes the session acts on",
						Sources: cli.EnvVars("NOTEHUB_OWNER"),
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
