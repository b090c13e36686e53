package cmdflags

import (
	"github.com/andrebq/credbox/internal/secrets"
	"github.com/urfave/cli/v2"
)

const (
	DefaultStore = "sqlite:./credbox-data"
)

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Aliases:     []string{"b"},
		Usage:       "Address to bind for incoming requests",
		Destination: out,
		Value:       *out,
	}
}

func SSLDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "ssl-dir",
		Aliases:     []string{"d"},
		Usage:       "Directory with cert.pem and key.pem, an empty value serves plain http",
		EnvVars:     []string{"CREDBOX_SSL_DIR"},
		Destination: out,
		Value:       *out,
	}
}

func Store(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = DefaultStore
	}
	return &cli.StringFlag{
		Name:        "store",
		Aliases:     []string{"s"},
		Usage:       "User store: memory:, sqlite:<dir> or a mongodb:// url",
		EnvVars:     []string{"CREDBOX_STORE"},
		Destination: out,
		Value:       *out,
	}
}

func TokenSecretEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = secrets.TokenSecretEnvVar
	}
	return &cli.StringFlag{
		Name:        "token-secret-envvar-name",
		Usage:       "Name of the environment variable that holds the token signing secret. The secret itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}

func SessionSecretEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = secrets.SessionSecretEnvVar
	}
	return &cli.StringFlag{
		Name:        "session-secret-envvar-name",
		Usage:       "Name of the environment variable that holds the session cookie secret. The secret itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}
