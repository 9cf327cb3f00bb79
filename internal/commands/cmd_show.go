package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/taskr"
	"github.com/colonyops/taskr/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *taskr.App

	jsonOutput bool
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags, app *taskr.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "show",
		Usage:         "Show every field of a task",
		UsageText:     "taskr show <id> [--json]",
		Description:   "Prints the task's fields. The id may be any unique prefix of the full id.",
		ShellComplete: TaskIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	ref, err := requireRef(c)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Get(ref)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		if err := iojson.WriteWith(out, c.Root().ErrWriter, t); err != nil {
			return fmt.Errorf("encode task: %w", err)
		}
		return nil
	}

	return writeDetail(out, t)
}

func requireRef(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one task id, got %d arguments", c.Args().Len())
	}
	return c.Args().First(), nil
}
