package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"domainreg/internal/platform/config"
	"domainreg/internal/platform/logger"
	"domainreg/internal/platform/postgres"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "apply the database schema",
		Action: runMigrate,
		Description: `
Environment variables:
	DOMAINREG_POSTGRES_DSN  (required)
`,
	}
}

func runMigrate(ctx context.Context, _ *cli.Command) error {
	log := logger.FromContext(ctx)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.InfoContext(ctx, "schema is up to date")
	return nil
}
