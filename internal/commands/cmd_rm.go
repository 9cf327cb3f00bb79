package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/styles"
	"github.com/colonyops/taskr/internal/core/task"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type RmCmd struct {
	flags *Flags
	app   *taskr.App

	yes bool
}

// NewRmCmd creates a new rm command
func NewRmCmd(flags *Flags, app *taskr.App) *RmCmd {
	return &RmCmd{flags: flags, app: app}
}

// Register adds the rm command to the application
func (cmd *RmCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:          "rm",
		Aliases:       []string{"delete"},
		Usage:         "Delete a task",
		UsageText:     "taskr rm <id> [--yes]",
		Description:   "Deletes the task after confirmation. Use --yes to skip the prompt.",
		ShellComplete: TaskIDCompleter(cmd.app),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RmCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "rm")
	p := printer.Ctx(ctx)

	ref, err := requireRef(c)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Get(ref)
	if err != nil {
		return err
	}

	if !cmd.yes {
		ok, err := confirmDelete(t)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			p.Infof("Deletion cancelled")
			return nil
		}
	}

	deleted, err := cmd.app.Tasks.Delete(ctx, t.ID)
	if err != nil {
		return err
	}

	p.Successf("Deleted %s %s", deleted.ShortID(), deleted.Title)
	return nil
}

func confirmDelete(t task.Task) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", t.Title)).
				Description(t.ID).
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).WithTheme(styles.FormTheme()).Run()
	return ok, err
}
