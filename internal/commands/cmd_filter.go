package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
	"github.com/colonyops/taskr/pkg/iojson"
)

type FilterCmd struct {
	flags *Flags
	app   *taskr.App

	// flags
	filter     filterOptions
	sort       sortOptions
	jsonOutput bool
}

// NewFilterCmd creates a new filter command
func NewFilterCmd(flags *Flags, app *taskr.App) *FilterCmd {
	return &FilterCmd{flags: flags, app: app}
}

// Register adds the filter command to the application
func (cmd *FilterCmd) Register(app *cli.Command) *cli.Command {
	flags := cmd.filter.flags()
	flags = append(flags, cmd.sort.flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON lines",
		Destination: &cmd.jsonOutput,
	})

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "filter",
		Usage:     "List tasks matching every given condition",
		UsageText: "taskr filter [--priority <p>] [--status <s>] [--due|--due-before|--due-after YYYY-MM-DD] [--title <glob>] [--sort <field>] [--desc] [--json]",
		Description: `Filters the working set. Conditions combine with AND; with none given every
task matches. Tasks without a due date never match a due date condition.

Examples:
  taskr filter --priority high --status pending
  taskr filter --due-before 2025-07-01 --sort due_date
  taskr filter --title 'release*'`,
		Flags:  flags,
		Action: cmd.run,
	})

	return app
}

func (cmd *FilterCmd) run(ctx context.Context, c *cli.Command) error {
	preds, err := cmd.filter.predicates()
	if err != nil {
		return err
	}
	key, dir, err := cmd.sort.parse()
	if err != nil {
		return err
	}

	tasks, err := cmd.app.Tasks.Filter(preds, key, dir)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		if err := iojson.WriteLines(out, tasks); err != nil {
			return fmt.Errorf("encode tasks: %w", err)
		}
		return nil
	}

	if len(tasks) == 0 {
		printer.Ctx(ctx).Infof("No matching tasks")
		return nil
	}

	return writeTable(out, tasks)
}
