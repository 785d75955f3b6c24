package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	jwttoken "domainreg/internal/jwt_token"
	"domainreg/internal/platform/config"
	id "domainreg/pkg/domain"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "issue a registrar bearer token",
		Action: runToken,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "client-id",
				Usage:    "registrar client ID the token authenticates",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "superuser",
				Usage: "grant registry operator privileges",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "token lifetime",
				Value: 24 * time.Hour,
			},
		},
	}
}

func runToken(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	clientID, err := id.ParseClientID(cmd.String("client-id"))
	if err != nil {
		return err
	}
	svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	token, err := svc.IssueToken(clientID, cmd.Bool("superuser"), cmd.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, token)
	return err
}
