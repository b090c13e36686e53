package proxy

import (
	"crypto/tls"
	"errors"
	"net/url"
	"time"

	"github.com/andrebq/credbox/credentials/client"
	"github.com/andrebq/credbox/internal/cmdflags"
	"github.com/andrebq/credbox/internal/httpserver"
	"github.com/andrebq/credbox/internal/logutil"
	"github.com/andrebq/credbox/internal/secrets"
	"github.com/andrebq/credbox/proxy"
	"github.com/andrebq/credbox/session"
	"github.com/urfave/cli/v2"
)

type (
	config struct {
		bind            string
		sslDir          string
		wsURL           *url.URL
		backendTimeout  time.Duration
		insecureBackend bool
		session         session.Options
		secretEnvVar    string
	}
)

func Cmd() *cli.Command {
	bindAddr := ":8080"
	sslDir := "."
	var wsURL, secretEnvVar string
	backendTimeout := client.DefaultTimeout
	var insecureBackend bool
	sessionDuration := session.DefaultDuration
	activeDuration := session.DefaultActiveDuration
	return &cli.Command{
		Name:  "proxy",
		Usage: "Start the login pages in front of the credential service",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.SSLDir(&sslDir),
			cmdflags.SessionSecretEnvVar(&secretEnvVar),
			&cli.StringFlag{
				Name:        "ws-url",
				Usage:       "Base url of the credential service",
				EnvVars:     []string{"CREDBOX_WS_URL"},
				Required:    true,
				Destination: &wsURL,
			},
			&cli.DurationFlag{
				Name:        "backend-timeout",
				Usage:       "Maximum time to wait for the credential service",
				Value:       backendTimeout,
				Destination: &backendTimeout,
			},
			&cli.BoolFlag{
				Name:        "insecure-backend",
				Usage:       "Accept any certificate from the credential service (self-signed deployments)",
				Destination: &insecureBackend,
			},
			&cli.DurationFlag{
				Name:        "session-duration",
				Usage:       "Lifetime of a new session cookie",
				Value:       sessionDuration,
				Destination: &sessionDuration,
			},
			&cli.DurationFlag{
				Name:        "session-active-duration",
				Usage:       "Sessions closer than this to expiring are extended on use",
				Value:       activeDuration,
				Destination: &activeDuration,
			},
		},
		Action: func(ctx *cli.Context) error {
			base, err := url.Parse(wsURL)
			if err != nil {
				return err
			}
			if base.Scheme != "http" && base.Scheme != "https" {
				return errors.New("ws-url must be an http or https url")
			}
			return run(ctx, config{
				bind:            bindAddr,
				sslDir:          sslDir,
				wsURL:           base,
				backendTimeout:  backendTimeout,
				insecureBackend: insecureBackend,
				secretEnvVar:    secretEnvVar,
				session: session.Options{
					Duration:       sessionDuration,
					ActiveDuration: activeDuration,
					Secure:         sslDir != "",
				},
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
	codec, err := session.NewCodec(secret, cfg.session)
	if err != nil {
		return err
	}
	opts := client.Options{Timeout: cfg.backendTimeout}
	if cfg.insecureBackend {
		log.Warn().Msg("Credential service certificate will not be verified")
		opts.TLS = &tls.Config{InsecureSkipVerify: true}
	}
	handler, err := proxy.AsHandler(ctx.Context, client.New(cfg.wsURL, opts), codec)
	if err != nil {
		return err
	}
	log.Info().
		Str("bind", cfg.bind).
		Str("ssl-dir", cfg.sslDir).
		Str("ws-url", cfg.wsURL.String()).
		Dur("backend-timeout", cfg.backendTimeout).
		Msg("Starting proxy")
	return httpserver.Serve(ctx.Context, cfg.bind, logutil.Middleware(ctx.Context, "proxy", handler), cfg.sslDir)
}
