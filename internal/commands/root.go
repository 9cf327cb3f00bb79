package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/taskr"
)

// NewRoot builds the taskr command tree with its global flags. Callers attach
// the Before, After, and default Action hooks.
func NewRoot(flags *Flags, app *taskr.App) *cli.Command {
	root := &cli.Command{
		Name:      "taskr",
		Usage:     "Manage tasks from the terminal",
		UsageText: "taskr [global options] command [command options]",
		Description: `Taskr keeps a working set of tasks in memory, persists every change to
SQLite (or MySQL) before it becomes visible, and refreshes summary statistics
in the background.

Run 'taskr' with no arguments in a terminal to open the interactive menu.`,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKR_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskr.log)",
				Sources:     cli.EnvVars("TASKR_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKR_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKR_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
	}

	root = NewAddCmd(flags, app).Register(root)
	root = NewLsCmd(flags, app).Register(root)
	root = NewFilterCmd(flags, app).Register(root)
	root = NewShowCmd(flags, app).Register(root)
	root = NewUpdateCmd(flags, app).Register(root)
	root = NewCompleteCmd(flags, app).Register(root)
	root = NewRmCmd(flags, app).Register(root)
	root = NewStatsCmd(flags, app).Register(root)
	root = NewImportCmd(flags, app).Register(root)
	root = NewCheckCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags, app).Register(root)
	root = NewDBCmd(flags, app).Register(root)

	return root
}
