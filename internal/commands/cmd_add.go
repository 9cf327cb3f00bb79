package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type AddCmd struct {
	flags *Flags
	app   *taskr.App

	fields taskFieldFlags
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags, app *taskr.App) *AddCmd {
	return &AddCmd{flags: flags, app: app}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Add a new task",
		UsageText: "taskr add --title <title> --priority <priority> [--description <text>] [--due YYYY-MM-DD] [--status <status>]",
		Description: `Creates a task and persists it before it becomes visible.

New tasks are Pending unless --status is given. Every invalid field is
reported at once and nothing is created.`,
		Flags:  cmd.fields.flags(true),
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "add")
	p := printer.Ctx(ctx)

	t, err := cmd.app.Tasks.Create(ctx, cmd.fields.input())
	if err != nil {
		return err
	}

	p.Success("Task created", t.ID)
	return nil
}
