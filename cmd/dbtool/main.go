package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"niederschlag-server/internal/bootstrap"
	"niederschlag-server/internal/config"
	db "niederschlag-server/internal/db"
	"niederschlag-server/internal/migrate"
	"niederschlag-server/internal/modules/precipitation/repository"
)

const usage = `usage: %s <command>
  migrate  create the schema
  seed     create the schema and load the snapshot (SNAPSHOT_PATH, BOOTSTRAP_MODE)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(context.Background(), cfg, logger, os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, command string) error {
	switch command {
	case "migrate", "seed":
	default:
		return errors.New("unknown command")
	}

	conn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.Error("db close", "err", closeErr)
		}
	}()

	if err := migrate.Run(ctx, conn, logger); err != nil {
		return err
	}
	if command == "migrate" {
		fmt.Println("migrations applied")
		return nil
	}

	snapshot := bootstrap.EmbeddedSnapshot()
	if cfg.SnapshotPath != "" {
		snapshot = bootstrap.FileSnapshot(cfg.SnapshotPath)
	}
	res, err := bootstrap.NewLoader(repository.NewRepository(conn), snapshot, cfg.BootstrapMode, logger).Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d records from %s (skipped=%t)\n", res.Loaded, res.Source, res.Skipped)
	return nil
}
