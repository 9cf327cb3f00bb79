package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type CompleteCmd struct {
	flags *Flags
	app   *taskr.App
}

// NewCompleteCmd creates a new complete command
func NewCompleteCmd(flags *Flags, app *taskr.App) *CompleteCmd {
	return &CompleteCmd{flags: flags, app: app}
}

// Register adds the complete command to the application
func (cmd *CompleteCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "complete",
		Aliases:       []string{"done"},
		Usage:         "Mark a task as completed",
		UsageText:     "taskr complete <id>",
		ShellComplete: TaskIDCompleter(cmd.app),
		Action:        cmd.run,
	})

	return app
}

func (cmd *CompleteCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "complete")

	ref, err := requireRef(c)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Complete(ctx, ref)
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Successf("Completed %s %s", t.ShortID(), t.Title)
	return nil
}
