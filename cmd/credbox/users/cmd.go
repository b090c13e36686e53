package users

import (
	"encoding/json"
	"fmt"

	"github.com/andrebq/credbox/internal/cmdflags"
	"github.com/andrebq/credbox/internal/logutil"
	"github.com/andrebq/credbox/internal/storeurl"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var store string
	return &cli.Command{
		Name:  "users",
		Usage: "Maintenance commands that work directly against the user store",
		Flags: []cli.Flag{
			cmdflags.Store(&store),
		},
		Subcommands: []*cli.Command{
			getCmd(&store),
			deleteCmd(&store),
		},
	}
}

func getCmd(store *string) *cli.Command {
	var id string
	return &cli.Command{
		Name:  "get",
		Usage: "Print the profile of a user",
		Flags: []cli.Flag{idFlag(&id)},
		Action: func(ctx *cli.Context) error {
			s, err := storeurl.Open(ctx.Context, *store)
			if err != nil {
				return err
			}
			defer s.Close()
			rec, err := s.Find(ctx.Context, id)
			if err != nil {
				return err
			}
			out, err := json.Marshal(struct {
				ID      string          `json:"id"`
				Profile json.RawMessage `json:"body"`
			}{rec.ID, rec.Profile})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(ctx.App.Writer, string(out))
			return err
		},
	}
}

func deleteCmd(store *string) *cli.Command {
	var id string
	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Usage:   "Remove a user and its credentials",
		Flags:   []cli.Flag{idFlag(&id)},
		Action: func(ctx *cli.Context) error {
			s, err := storeurl.Open(ctx.Context, *store)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Delete(ctx.Context, id); err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Str("user", id).Msg("User removed")
			return nil
		},
	}
}

func idFlag(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "id",
		Usage:       "User id (usually an email)",
		Required:    true,
		Destination: out,
	}
}
