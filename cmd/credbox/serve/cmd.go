package serve

import (
	"github.com/andrebq/credbox/cmd/credbox/serve/proxy"
	"github.com/andrebq/credbox/cmd/credbox/serve/users"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Root command to start the credbox services",
		Subcommands: []*cli.Command{
			users.Cmd(),
			proxy.Cmd(),
		},
	}
}
