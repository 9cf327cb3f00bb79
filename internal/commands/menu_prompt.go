package commands

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/styles"
	"github.com/colonyops/taskr/internal/core/task"
)

// prompter collects the interactive menu's input. Every method returns
// huh.ErrUserAborted when the user backs out.
type prompter interface {
	Action() (menuAction, error)
	TaskFields(fields *taskFieldFlags) error
	Sort() (query.SortKey, query.Direction, error)
	Filter() (filterOptions, error)
	PickTask(title string, tasks []task.Task) (string, error)
	ConfirmDelete(t task.Task) (bool, error)
}

// huhPrompter asks through huh forms on the terminal.
type huhPrompter struct{}

var menuOptions = []huh.Option[menuAction]{
	huh.NewOption("Add task", actionAdd),
	huh.NewOption("List tasks", actionList),
	huh.NewOption("Filter tasks", actionFilter),
	huh.NewOption("Update task", actionUpdate),
	huh.NewOption("Mark task completed", actionComplete),
	huh.NewOption("Delete task", actionDelete),
	huh.NewOption("View task details", actionShow),
	huh.NewOption("View background statistics", actionStats),
	huh.NewOption("Exit", actionExit),
}

// Action shows the main menu.
func (huhPrompter) Action() (menuAction, error) {
	var action menuAction
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[menuAction]().
				Title("Task manager").
				Options(menuOptions...).
				Value(&action),
		),
	).WithTheme(styles.FormTheme()).Run()
	return action, err
}

// ConfirmDelete asks before a task is deleted.
func (huhPrompter) ConfirmDelete(t task.Task) (bool, error) {
	return confirmDelete(t)
}

// PickTask shows tasks as a select and returns the chosen ID.
func (huhPrompter) PickTask(title string, tasks []task.Task) (string, error) {
	opts := make([]huh.Option[string], len(tasks))
	for i, t := range tasks {
		opts[i] = huh.NewOption(fmt.Sprintf("%s  %s %s", t.ShortID(), styles.StatusIcon(t.Status), t.Title), t.ID)
	}

	var id string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(opts...).
				Value(&id),
		),
	).WithTheme(styles.FormTheme()).Run()
	return id, err
}

// TaskFields edits fields in place with the task form.
func (huhPrompter) TaskFields(fields *taskFieldFlags) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(func(s string) error {
					_, err := task.ValidateTitle(s)
					return err
				}).
				Value(&fields.title),
			huh.NewText().
				Title("Description").
				Description("Markdown, optional").
				Value(&fields.description),
			huh.NewInput().
				Title("Due date").
				Description("YYYY-MM-DD, leave empty for none").
				Validate(validateOptionalDate).
				Value(&fields.due),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions()...).
				Value(&fields.priority),
			huh.NewSelect[string]().
				Title("Status").
				Options(statusOptions()...).
				Value(&fields.status),
		),
	).WithTheme(styles.FormTheme()).Run()
}

// Sort asks for a sort key and direction.
func (huhPrompter) Sort() (query.SortKey, query.Direction, error) {
	var (
		key  = query.SortCreatedAt
		desc bool
	)

	keyOpts := make([]huh.Option[query.SortKey], len(query.SortKeys))
	for i, k := range query.SortKeys {
		keyOpts[i] = huh.NewOption(string(k), k)
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[query.SortKey]().
				Title("Sort by").
				Options(keyOpts...).
				Value(&key),
			huh.NewConfirm().
				Title("Descending?").
				Value(&desc),
		),
	).WithTheme(styles.FormTheme()).Run()
	if err != nil {
		return "", query.Ascending, err
	}

	if desc {
		return key, query.Descending, nil
	}
	return key, query.Ascending, nil
}

// Filter asks for filter criteria. Empty answers match everything.
func (huhPrompter) Filter() (filterOptions, error) {
	var opts filterOptions
	anyOption := huh.NewOption("Any", "")

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Priority").
				Options(append([]huh.Option[string]{anyOption}, priorityOptions()...)...).
				Value(&opts.priority),
			huh.NewSelect[string]().
				Title("Status").
				Options(append([]huh.Option[string]{anyOption}, statusOptions()...)...).
				Value(&opts.status),
			huh.NewInput().
				Title("Due on").
				Description("YYYY-MM-DD, optional").
				Validate(validateOptionalDate).
				Value(&opts.due),
			huh.NewInput().
				Title("Due before").
				Description("YYYY-MM-DD, optional").
				Validate(validateOptionalDate).
				Value(&opts.dueBefore),
			huh.NewInput().
				Title("Due after").
				Description("YYYY-MM-DD, optional").
				Validate(validateOptionalDate).
				Value(&opts.dueAfter),
			huh.NewInput().
				Title("Title pattern").
				Description("Glob such as 'release*', optional").
				Value(&opts.title),
		),
	).WithTheme(styles.FormTheme()).Run()

	return opts, err
}

func priorityOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(task.Priorities))
	for i, p := range task.Priorities {
		opts[i] = huh.NewOption(p.String(), p.String())
	}
	return opts
}

func statusOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(task.Statuses))
	for i, s := range task.Statuses {
		opts[i] = huh.NewOption(s.String(), s.String())
	}
	return opts
}
