package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
	"github.com/colonyops/taskr/pkg/iojson"
)

type LsCmd struct {
	flags *Flags
	app   *taskr.App

	// flags
	sort       sortOptions
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *taskr.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Aliases:   []string{"list"},
		Usage:     "List all tasks",
		UsageText: "taskr ls [--sort <field>] [--desc] [--json]",
		Description: `Displays a table of every task with its short id, title, priority, status,
and due date. Tasks are ordered by creation time unless --sort is given.

Use --json for one JSON object per line.`,
		Flags: append(cmd.sort.flags(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		),
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	key, dir, err := cmd.sort.parse()
	if err != nil {
		return err
	}

	tasks := cmd.app.Tasks.List(key, dir)
	out := c.Root().Writer

	if cmd.jsonOutput {
		if err := iojson.WriteLines(out, tasks); err != nil {
			return fmt.Errorf("encode tasks: %w", err)
		}
		return nil
	}

	if len(tasks) == 0 {
		printer.Ctx(ctx).Infof("No tasks found")
		return nil
	}

	return writeTable(out, tasks)
}
