package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrebq/credbox/cmd/credbox/serve"
	"github.com/andrebq/credbox/cmd/credbox/users"
	"github.com/andrebq/credbox/internal/logutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	level := "info"
	pretty := false
	app := &cli.App{
		Name:  "credbox",
		Usage: "Credential store and the login pages in front of it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Minimum level to log (debug, info, warn, error)",
				EnvVars:     []string{"CREDBOX_LOG_LEVEL"},
				Value:       level,
				Destination: &level,
			},
			&cli.BoolFlag{
				Name:        "log-pretty",
				Usage:       "Human friendly logs instead of json",
				Destination: &pretty,
			},
		},
		Before: func(ctx *cli.Context) error {
			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return err
			}
			logger := zerolog.New(os.Stderr)
			if pretty {
				logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			}
			logger = logger.Level(lvl).With().Timestamp().Logger()
			log.Logger = logger
			ctx.Context = logutil.WithLogger(ctx.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
