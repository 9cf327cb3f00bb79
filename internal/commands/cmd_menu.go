package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/task"
	"github.com/colonyops/taskr/internal/printer"
	"github.com/colonyops/taskr/internal/taskr"
)

type menuAction string

const (
	actionAdd      menuAction = "add"
	actionList     menuAction = "list"
	actionFilter   menuAction = "filter"
	actionUpdate   menuAction = "update"
	actionComplete menuAction = "complete"
	actionDelete   menuAction = "delete"
	actionShow     menuAction = "show"
	actionStats    menuAction = "stats"
	actionExit     menuAction = "exit"
)

// MenuCmd is the interactive menu shown when taskr runs without a subcommand.
type MenuCmd struct {
	flags  *Flags
	app    *taskr.App
	prompt prompter
}

// NewMenuCmd creates the interactive menu.
func NewMenuCmd(flags *Flags, app *taskr.App) *MenuCmd {
	return &MenuCmd{flags: flags, app: app, prompt: huhPrompter{}}
}

// Run shows the menu until the user exits. It requires stdin to be a terminal.
func (cmd *MenuCmd) Run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() > 0 {
		return fmt.Errorf("unknown command %q. Run 'taskr --help' for usage", c.Args().First())
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("no command given and stdin is not a terminal. Run 'taskr --help' for usage")
	}

	return cmd.loop(logging.WithCommand(ctx, "menu"), c.Root().Writer)
}

// loop prompts for actions until the user exits. Errors from an action are
// printed and the menu is shown again.
func (cmd *MenuCmd) loop(ctx context.Context, out io.Writer) error {
	p := printer.Ctx(ctx)

	for {
		action, err := cmd.prompt.Action()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("menu: %w", err)
		}

		if action == actionExit {
			return nil
		}

		if err := cmd.dispatch(ctx, out, action); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			p.Errorf("%v", err)
		}
		_, _ = fmt.Fprintln(out)
	}
}

func (cmd *MenuCmd) dispatch(ctx context.Context, out io.Writer, action menuAction) error {
	p := printer.Ctx(ctx)
	svc := cmd.app.Tasks

	switch action {
	case actionAdd:
		var fields taskFieldFlags
		fields.priority = string(task.PriorityMedium)
		fields.status = string(task.StatusPending)
		if err := cmd.prompt.TaskFields(&fields); err != nil {
			return err
		}
		t, err := svc.Create(ctx, fields.input())
		if err != nil {
			return err
		}
		p.Success("Task created", t.ID)

	case actionList:
		key, dir, err := cmd.prompt.Sort()
		if err != nil {
			return err
		}
		return printTasks(ctx, out, svc.List(key, dir))

	case actionFilter:
		opts, err := cmd.prompt.Filter()
		if err != nil {
			return err
		}
		preds, err := opts.predicates()
		if err != nil {
			return err
		}
		key, dir, err := cmd.prompt.Sort()
		if err != nil {
			return err
		}
		tasks, err := svc.Filter(preds, key, dir)
		if err != nil {
			return err
		}
		return printTasks(ctx, out, tasks)

	case actionUpdate:
		current, err := cmd.pickTask("Task to update")
		if err != nil {
			return err
		}
		fields := fieldsOf(current)
		if err := cmd.prompt.TaskFields(&fields); err != nil {
			return err
		}
		t, err := svc.Update(ctx, current.ID, changedFields(current, fields))
		if err != nil {
			return err
		}
		p.Success("Task updated", t.ID)

	case actionComplete:
		current, err := cmd.pickTask("Task to mark completed")
		if err != nil {
			return err
		}
		t, err := svc.Complete(ctx, current.ID)
		if err != nil {
			return err
		}
		p.Successf("Completed %s %s", t.ShortID(), t.Title)

	case actionDelete:
		current, err := cmd.pickTask("Task to delete")
		if err != nil {
			return err
		}
		ok, err := cmd.prompt.ConfirmDelete(current)
		if err != nil {
			return err
		}
		if !ok {
			p.Infof("Deletion cancelled")
			return nil
		}
		t, err := svc.Delete(ctx, current.ID)
		if err != nil {
			return err
		}
		p.Successf("Deleted %s %s", t.ShortID(), t.Title)

	case actionShow:
		current, err := cmd.pickTask("Task to view")
		if err != nil {
			return err
		}
		return writeDetail(out, current)

	case actionStats:
		st, err := svc.Statistics()
		if errors.Is(err, taskr.ErrNoStatistics) {
			p.Infof("Statistics have not been computed yet")
			return nil
		}
		if err != nil {
			return err
		}
		writeStats(out, st)
	}

	return nil
}

func printTasks(ctx context.Context, out io.Writer, tasks []task.Task) error {
	if len(tasks) == 0 {
		printer.Ctx(ctx).Infof("No tasks found")
		return nil
	}
	return writeTable(out, tasks)
}

// pickTask lets the user choose a task from the working set.
func (cmd *MenuCmd) pickTask(title string) (task.Task, error) {
	tasks := cmd.app.Tasks.List(query.SortCreatedAt, query.Ascending)
	if len(tasks) == 0 {
		return task.Task{}, errors.New("there are no tasks yet")
	}

	id, err := cmd.prompt.PickTask(title, tasks)
	if err != nil {
		return task.Task{}, err
	}
	return cmd.app.Tasks.Get(id)
}

func validateOptionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := task.ParseDate(s)
	return err
}

// fieldsOf prefills the update form with the current values of t.
func fieldsOf(t task.Task) taskFieldFlags {
	return taskFieldFlags{
		title:       t.Title,
		description: t.Description,
		due:         dueValue(t.DueDate),
		priority:    t.Priority.String(),
		status:      t.Status.String(),
	}
}

func dueValue(d *task.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// changedFields turns an edited form into a patch holding only the fields
// that differ from current.
func changedFields(current task.Task, edited taskFieldFlags) task.PatchInput {
	var in task.PatchInput

	if strings.TrimSpace(edited.title) != current.Title {
		in.Title = edited.title
	}
	if desc := strings.TrimSpace(edited.description); desc != current.Description {
		in.Description = &desc
	}

	due := strings.TrimSpace(edited.due)
	switch {
	case due == "" && current.DueDate != nil:
		in.DueDate = task.ClearDue
	case due != "" && due != dueValue(current.DueDate):
		in.DueDate = due
	}

	if edited.priority != current.Priority.String() {
		in.Priority = edited.priority
	}
	if edited.status != current.Status.String() {
		in.Status = edited.status
	}
	return in
}
