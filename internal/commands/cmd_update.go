package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type UpdateCmd struct {
	flags *Flags
	app   *taskr.App

	fields taskFieldFlags
}

// NewUpdateCmd creates a new update command
func NewUpdateCmd(flags *Flags, app *taskr.App) *UpdateCmd {
	return &UpdateCmd{flags: flags, app: app}
}

// Register adds the update command to the application
func (cmd *UpdateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "update",
		Aliases:   []string{"edit"},
		Usage:     "Change fields of an existing task",
		UsageText: "taskr update <id> [--title <title>] [--description <text>] [--due YYYY-MM-DD|none] [--priority <p>] [--status <s>]",
		Description: `Applies only the given fields. An empty --description clears the
description and --due none clears the due date.`,
		ShellComplete: TaskIDCompleter(cmd.app),
		Flags:         cmd.fields.flags(false),
		Action:        cmd.run,
	})

	return app
}

func (cmd *UpdateCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "update")
	p := printer.Ctx(ctx)

	ref, err := requireRef(c)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Update(ctx, ref, cmd.fields.patchInput(c.IsSet("description")))
	if err != nil {
		return err
	}

	p.Success("Task updated", t.ID)
	return nil
}
