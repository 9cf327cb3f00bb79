package commands

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/task"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
	"github.com/colonyops/taskr/pkg/iojson"
)

type ImportCmd struct {
	flags *Flags
	app   *taskr.App

	reader iojson.FileReader[task.Input]
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags, app *taskr.App) *ImportCmd {
	return &ImportCmd{flags: flags, app: app}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Create tasks from a JSON array or JSON lines",
		UsageText: "taskr import [-f tasks.json]",
		Description: `Reads tasks from a file or stdin, either as one JSON array or as one JSON
object per line. The output of "taskr ls --json" can be piped straight in.
Every entry is validated before any task is created; ids, created_at and
other unknown fields are ignored.

Example input:
  [{"title": "Write report", "priority": "high", "due_date": "2025-07-01"}]`,
		Flags:  []cli.Flag{cmd.reader.Flag()},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithCommand(ctx, "import")

	inputs, err := cmd.reader.ReadWith(stdinOf(c))
	if err != nil {
		return err
	}

	n, err := cmd.app.Tasks.Import(ctx, inputs)
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Successf("Imported %d task(s)", n)
	return nil
}

// stdinOf returns the root command's configured reader, falling back to
// os.Stdin.
func stdinOf(c *cli.Command) io.Reader {
	if r := c.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
