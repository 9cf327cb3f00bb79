package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/taskr"
)

// TaskIDCompleter returns a ShellCompleteFunc that suggests short task ids as
// positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TaskIDCompleter(app *taskr.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Tasks == nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range app.Tasks.List(query.SortCreatedAt, query.Ascending) {
			_, _ = fmt.Fprintf(w, "%s:%s\n", t.ShortID(), t.Title)
		}
	}
}
