package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ai-masterbrain-be/internal/bootstrap"
	"ai-masterbrain-be/internal/config"
	"ai-masterbrain-be/internal/dto"
	"ai-masterbrain-be/internal/model"
	"ai-masterbrain-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// opener builds the dependency container for one command.
type opener func() (*bootstrap.Container, error)

func main() {
	app := newApp(func() (*bootstrap.Container, error) {
		return bootstrap.NewContainer(config.Load())
	}, os.Stdout)

	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "brainctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(open opener, out io.Writer) *cli.App {
	userFlag := &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Id of the user the command acts for",
		EnvVars:  []string{"BRAIN_USER_ID"},
		Required: true,
	}

	return &cli.App{
		Name:      "brainctl",
		Usage:     "Operate the Master Brain from the command line",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Ask the Master Brain a question",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					userFlag,
					&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Record the turn in this session"},
					&cli.StringSliceFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Restrict routing to these domains"},
					&cli.BoolFlag{Name: "no-rerank", Usage: "Skip LLM reranking"},
				},
				Action: func(c *cli.Context) error {
					return withContainer(open, func(ct *bootstrap.Container) error {
						return queryCommand(c, ct)
					})
				},
			},
			{
				Name:  "session",
				Usage: "Manage master sessions",
				Subcommands: []*cli.Command{
					{
						Name:  "create",
						Usage: "Create a session",
						Flags: []cli.Flag{
							userFlag,
							&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true},
							&cli.StringSliceFlag{Name: "domain", Aliases: []string{"d"}},
						},
						Action: func(c *cli.Context) error {
							return withContainer(open, func(ct *bootstrap.Container) error {
								return sessionCreateCommand(c, ct)
							})
						},
					},
					{
						Name:      "show",
						Usage:     "Show a session with its contexts and progress",
						ArgsUsage: "<session-id>",
						Flags:     []cli.Flag{userFlag},
						Action: func(c *cli.Context) error {
							return withContainer(open, func(ct *bootstrap.Container) error {
								return sessionShowCommand(c, ct)
							})
						},
					},
					{
						Name:      "end",
						Usage:     "End a session",
						ArgsUsage: "<session-id>",
						Flags: []cli.Flag{
							userFlag,
							&cli.IntFlag{Name: "rating", Usage: "Rating from 1 to 5"},
							&cli.StringFlag{Name: "feedback"},
						},
						Action: func(c *cli.Context) error {
							return withContainer(open, func(ct *bootstrap.Container) error {
								return sessionEndCommand(c, ct)
							})
						},
					},
					{
						Name:  "list",
						Usage: "List sessions, most recently active first",
						Flags: []cli.Flag{userFlag},
						Action: func(c *cli.Context) error {
							return withContainer(open, func(ct *bootstrap.Container) error {
								return sessionListCommand(c, ct)
							})
						},
					},
				},
			},
			{
				Name:  "migrate",
				Usage: "Create or update the database schema",
				Action: func(c *cli.Context) error {
					return withContainer(open, func(ct *bootstrap.Container) error {
						return migrateCommand(c, ct)
					})
				},
			},
		},
	}
}

func withContainer(open opener, fn func(*bootstrap.Container) error) error {
	ct, err := open()
	if err != nil {
		return err
	}
	defer ct.Close()
	return fn(ct)
}

func queryCommand(c *cli.Context, ct *bootstrap.Container) error {
	userId, err := parseID("user", c.String("user"))
	if err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	req := &dto.OrchestrateQueryRequest{Query: question}
	if raw := c.String("session"); raw != "" {
		sessionId, err := parseID("session", raw)
		if err != nil {
			return err
		}
		req.SessionId = &sessionId
	}
	if req.DomainIds, err = parseIDs(c.StringSlice("domain")); err != nil {
		return err
	}
	if c.Bool("no-rerank") {
		rerank := false
		req.Options = &dto.QueryOptionsDTO{Rerank: &rerank}
	}

	res, err := ct.BrainService.Query(c.Context, userId, req)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func sessionCreateCommand(c *cli.Context, ct *bootstrap.Container) error {
	userId, err := parseID("user", c.String("user"))
	if err != nil {
		return err
	}
	domainIds, err := parseIDs(c.StringSlice("domain"))
	if err != nil {
		return err
	}

	res, err := ct.BrainService.CreateSession(c.Context, userId, &dto.CreateMasterSessionRequest{
		Name:      c.String("name"),
		DomainIds: domainIds,
	})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func sessionShowCommand(c *cli.Context, ct *bootstrap.Container) error {
	userId, sessionId, err := userAndSession(c)
	if err != nil {
		return err
	}
	res, err := ct.BrainService.GetSession(c.Context, userId, sessionId)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func sessionEndCommand(c *cli.Context, ct *bootstrap.Container) error {
	userId, sessionId, err := userAndSession(c)
	if err != nil {
		return err
	}

	req := &dto.EndMasterSessionRequest{Feedback: c.String("feedback")}
	if c.IsSet("rating") {
		rating := c.Int("rating")
		req.Rating = &rating
	}

	if err := ct.BrainService.EndSession(c.Context, userId, sessionId, req); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "session %s ended\n", sessionId)
	return nil
}

func sessionListCommand(c *cli.Context, ct *bootstrap.Container) error {
	userId, err := parseID("user", c.String("user"))
	if err != nil {
		return err
	}
	res, err := ct.BrainService.ListSessions(c.Context, userId)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, res)
}

func migrateCommand(c *cli.Context, ct *bootstrap.Container) error {
	if ct.DB == nil {
		return errors.New("migrate needs DB_DRIVER=postgres")
	}
	result, err := database.Migrate(ct.DB, model.BrainModels()...)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "warn: %s\n", w)
	}
	fmt.Fprintf(c.App.Writer, "%d tables migrated\n", result.Tables)
	return nil
}

func userAndSession(c *cli.Context) (uuid.UUID, uuid.UUID, error) {
	userId, err := parseID("user", c.String("user"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionId, err := parseID("session", c.Args().First())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userId, sessionId, nil
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", name, raw)
	}
	return id, nil
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseID("domain", r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
