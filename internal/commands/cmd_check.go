package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type CheckCmd struct {
	flags *Flags
	app   *taskr.App
}

// NewCheckCmd creates a new check command
func NewCheckCmd(flags *Flags, app *taskr.App) *CheckCmd {
	return &CheckCmd{flags: flags, app: app}
}

// Register adds the check command to the application
func (cmd *CheckCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "check",
		Usage:       "Verify the working set and database connection",
		UsageText:   "taskr check",
		Description: "Pings the database, checks that the in-memory lookup and ordered views hold the same tasks, and compares the count with the store.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *CheckCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	if err := cmd.app.DB.Ping(ctx); err != nil {
		p.Errorf("Database (%s): %v", cmd.app.DB.Driver(), err)
		return cli.Exit("", 1)
	}
	p.Successf("Database (%s) reachable", cmd.app.DB.Driver())

	n, err := cmd.app.Tasks.Check()
	if err != nil {
		p.Errorf("Working set: %v", err)
		return cli.Exit("", 1)
	}
	p.Successf("Working set consistent (%d tasks)", n)

	stored, err := cmd.app.Store.Count(ctx)
	if err != nil {
		p.Errorf("Store count: %v", err)
		return cli.Exit("", 1)
	}
	if stored != int64(n) {
		p.Errorf("Store holds %d tasks, working set holds %d", stored, n)
		return cli.Exit("", 1)
	}
	p.Successf("Store matches working set")

	return nil
}
