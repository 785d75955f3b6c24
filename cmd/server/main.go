package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"domainreg/internal/platform/logger"
)

// main dispatches to the registry subcommands. Wiring lives in serve.go;
// business logic lives in the internal service packages.
func main() {
	cmd := &cli.Command{
		Name:  "domainreg",
		Usage: "domain name registry server and operator tooling",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.New("domainreg", os.Getenv("DOMAINREG_LOG_LEVEL"))
	ctx = logger.IntoContext(ctx, log)

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
