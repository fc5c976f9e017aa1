package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/client"
	"github.com/starford/curator/internal/models"
)

// defaultServer is the server root; the client adds the /api prefix.
const defaultServer = "http://localhost:8080"

func remoteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Usage:   "Base URL of the curator server",
			Value:   defaultServer,
			Sources: cli.EnvVars("CURATOR_SERVER"),
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Bearer token",
			Sources: cli.EnvVars("CURATOR_TOKEN"),
		},
	}
}

func newClient(cmd *cli.Command) *client.Client {
	var opts []client.Option
	if tok := cmd.String("token"); tok != "" {
		opts = append(opts, client.WithToken(tok))
	}
	return client.New(cmd.String("server"), opts...)
}

func reorderCommand() *cli.Command {
	return &cli.Command{
		Name:      "reorder",
		Usage:     "Move an item to a 1-based position and print the resulting order",
		ArgsUsage: "<kind> <id> <position>",
		Flags: append(remoteFlags(),
			&cli.StringFlag{Name: "scope", Usage: "Collection scope the item belongs to"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 3 {
				return fmt.Errorf("reorder: expected <kind> <id> <position>")
			}
			kind, id := args.Get(0), args.Get(1)
			if !models.ValidKind(kind) {
				return fmt.Errorf("reorder: unknown kind %q", kind)
			}
			pos, err := strconv.Atoi(args.Get(2))
			if err != nil || pos < 1 {
				return fmt.Errorf("reorder: position must be a positive integer")
			}

			items, err := newClient(cmd).Move(ctx, kind, id, models.MoveParams{
				Position: pos,
				Scope:    cmd.String("scope"),
			})
			if err != nil {
				return fmt.Errorf("reorder: %s", apperr.Message(err))
			}
			for _, it := range items {
				fmt.Fprintf(os.Stdout, "%d. %s (%s)\n", it.Position, it.Label, it.ID)
			}
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Query the option search of a collection",
		ArgsUsage: "<kind> [keyword]",
		Flags: append(remoteFlags(),
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Page to fetch"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Page size"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 1 {
				return fmt.Errorf("search: expected <kind> [keyword]")
			}
			kind := args.Get(0)
			if !models.ValidKind(kind) {
				return fmt.Errorf("search: unknown kind %q", kind)
			}

			page, err := newClient(cmd).Search(ctx, kind, args.Get(1), int(cmd.Int("page")), int(cmd.Int("limit")))
			if err != nil {
				return fmt.Errorf("search: %s", apperr.Message(err))
			}
			for _, n := range page.Nodes {
				fmt.Fprintf(os.Stdout, "%s\t%s\n", n.Value, n.Label)
			}
			more := ""
			if page.HasNextPage() {
				more = ", more available"
			}
			fmt.Fprintf(os.Stdout, "page %d, %d of %d%s\n", page.Page, len(page.Nodes), page.Total, more)
			return nil
		},
	}
}
