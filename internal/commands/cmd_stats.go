package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/stats"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
	"github.com/colonyops/taskr/pkg/iojson"
)

type StatsCmd struct {
	flags *Flags
	app   *taskr.App

	jsonOutput bool
	wait       time.Duration
}

// NewStatsCmd creates a new stats command
func NewStatsCmd(flags *Flags, app *taskr.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats command to the application
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "stats",
		Usage:     "Show the latest background statistics",
		UsageText: "taskr stats [--wait <duration>] [--json]",
		Description: `Prints the summary most recently published by the background aggregator:
totals per status, high priority tasks still open, overdue tasks, and the
completion rate. The numbers may lag recent changes by up to one refresh
interval.

Use --wait to block until the first summary is available.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.DurationFlag{
				Name:        "wait",
				Usage:       "wait up to this long for the first summary",
				Value:       5 * time.Second,
				Destination: &cmd.wait,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *StatsCmd) run(ctx context.Context, c *cli.Command) error {
	st, err := cmd.latest(ctx)
	if err != nil {
		if errors.Is(err, taskr.ErrNoStatistics) || errors.Is(err, context.DeadlineExceeded) {
			printer.Ctx(ctx).Infof("Statistics have not been computed yet")
			return nil
		}
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		if err := iojson.WriteWith(out, c.Root().ErrWriter, st); err != nil {
			return fmt.Errorf("encode statistics: %w", err)
		}
		return nil
	}

	writeStats(out, st)
	return nil
}

func (cmd *StatsCmd) latest(ctx context.Context) (stats.Statistics, error) {
	if cmd.wait <= 0 {
		return cmd.app.Tasks.Statistics()
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.wait)
	defer cancel()
	return cmd.app.Tasks.WaitStatistics(ctx)
}
