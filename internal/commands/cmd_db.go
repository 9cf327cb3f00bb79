package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/styles"
	"github.com/colonyops/taskr/internal/data/db"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type DBCmd struct {
	flags *Flags
	app   *taskr.App

	steps int
	yes   bool
}

// NewDBCmd creates a new db command
func NewDBCmd(flags *Flags, app *taskr.App) *DBCmd {
	return &DBCmd{flags: flags, app: app}
}

// Register adds the db command group to the application
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Database maintenance commands",
		Commands: []*cli.Command{
			{
				Name:        "status",
				Usage:       "Show schema migration state",
				UsageText:   "taskr db status",
				Description: "Lists every schema migration shipped with this build and whether it is applied.",
				Action:      cmd.runStatus,
			},
			{
				Name:      "down",
				Usage:     "Revert schema migrations",
				UsageText: "taskr db down [--steps N] [--yes]",
				Description: `Reverts the most recently applied migrations, newest first. Use this before
switching to an older taskr build. Reverting the first migration drops the
tasks table and every task in it.

Any later taskr command re-applies pending migrations on startup.`,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Aliases:     []string{"n"},
						Usage:       "number of migrations to revert",
						Value:       1,
						Destination: &cmd.steps,
					},
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.yes,
					},
				},
				Action: cmd.runDown,
			},
		},
	})

	return app
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	states, err := db.MigrationStatus(ctx, cmd.app.DB)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	fmt.Fprintf(out, "%s %s\n", styles.TextMuted.Render("driver:"), cmd.app.DB.Driver())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATE")
	for _, s := range states {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(w, "%04d\t%s\t%s\n", s.Version, s.Name, state)
	}
	return w.Flush()
}

func (cmd *DBCmd) runDown(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "db down")
	p := printer.Ctx(ctx)

	if cmd.steps < 1 {
		return fmt.Errorf("--steps must be at least 1, got %d", cmd.steps)
	}

	if !cmd.yes {
		ok, err := confirmMigrateDown(cmd.steps)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			p.Infof("Nothing reverted")
			return nil
		}
	}

	// Stop publishing statistics before the schema goes away underneath them.
	cmd.app.Stats.Stop()

	if err := db.MigrateDown(ctx, cmd.app.DB, cmd.steps); err != nil {
		return err
	}

	p.Success(
		fmt.Sprintf("Reverted %d migration(s)", cmd.steps),
		"Run any taskr command with this build to re-apply them",
	)
	return nil
}

func confirmMigrateDown(steps int) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Revert %d schema migration(s)?", steps)).
				Description("Reverting the first migration deletes all tasks.").
				Affirmative("Revert").
				Negative("Cancel").
				Value(&ok),
		),
	).WithTheme(styles.FormTheme()).Run()
	return ok, err
}
