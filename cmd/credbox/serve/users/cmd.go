package users

import (
	"time"

	"github.com/andrebq/credbox/credentials"
	"github.com/andrebq/credbox/credentials/api"
	"github.com/andrebq/credbox/internal/cmdflags"
	"github.com/andrebq/credbox/internal/httpserver"
	"github.com/andrebq/credbox/internal/logutil"
	"github.com/andrebq/credbox/internal/secrets"
	"github.com/andrebq/credbox/internal/storeurl"
	"github.com/urfave/cli/v2"
)

type (
	config struct {
		bind          string
		sslDir        string
		store         string
		authTimeout   time.Duration
		secretEnvVar  string
		strictSubject bool
		bcryptCost    int
	}
)

func Cmd() *cli.Command {
	bindAddr := ":8443"
	sslDir := "."
	var store, secretEnvVar string
	authTimeout := 300
	var strictSubject bool
	bcryptCost := credentials.DefaultCost
	return &cli.Command{
		Name:  "users",
		Usage: "Start the credential service",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.SSLDir(&sslDir),
			cmdflags.Store(&store),
			cmdflags.TokenSecretEnvVar(&secretEnvVar),
			&cli.IntFlag{
				Name:        "auth-timeout",
				Aliases:     []string{"t"},
				Usage:       "Lifetime of issued tokens in seconds",
				Value:       authTimeout,
				Destination: &authTimeout,
			},
			&cli.BoolFlag{
				Name:        "strict-subject",
				Usage:       "Only accept tokens issued to the user being fetched",
				Destination: &strictSubject,
			},
			&cli.IntFlag{
				Name:        "bcrypt-cost",
				Usage:       "Cost used to hash new passwords",
				Value:       bcryptCost,
				Destination: &bcryptCost,
			},
		},
		Action: func(ctx *cli.Context) error {
			return run(ctx, config{
				bind:          bindAddr,
				sslDir:        sslDir,
				store:         store,
				authTimeout:   time.Duration(authTimeout) * time.Second,
				secretEnvVar:  secretEnvVar,
				strictSubject: strictSubject,
				bcryptCost:    bcryptCost,
			})
		},
	}
}

func run(ctx *cli.Context, cfg config) error {
	log := logutil.GetOrDefault(ctx.Context)
	secret, err := secrets.FromEnv(cfg.secretEnvVar, nil, nil)
	if err != nil {
		return err
	}
	issuer, err := credentials.NewIssuer(secret, cfg.authTimeout)
	if err != nil {
		return err
	}
	store, err := storeurl.Open(ctx.Context, cfg.store)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := credentials.NewService(store, credentials.Hasher{Cost: cfg.bcryptCost}, issuer, credentials.Config{
		StrictSubject: cfg.strictSubject,
	})
	log.Info().
		Str("bind", cfg.bind).
		Str("ssl-dir", cfg.sslDir).
		Dur("auth-timeout", cfg.authTimeout).
		Bool("strict-subject", cfg.strictSubject).
		Msg("Starting credential service")
	handler := logutil.Middleware(ctx.Context, "credentials", api.AsHandler(ctx.Context, svc))
	return httpserver.Serve(ctx.Context, cfg.bind, handler, cfg.sslDir)
}
