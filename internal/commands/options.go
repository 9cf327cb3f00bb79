package commands

import (
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/task"
)

// sortOptions holds the --sort and --desc flag values shared by ls and filter.
type sortOptions struct {
	field string
	desc  bool
}

func (o *sortOptions) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sort",
			Aliases:     []string{"s"},
			Usage:       "sort field (created_at, due_date, priority, status, title)",
			Value:       string(query.SortCreatedAt),
			Destination: &o.field,
		},
		&cli.BoolFlag{
			Name:        "desc",
			Usage:       "sort in descending order",
			Destination: &o.desc,
		},
	}
}

func (o sortOptions) parse() (query.SortKey, query.Direction, error) {
	key, err := query.ParseSortKey(o.field)
	if err != nil {
		return "", query.Ascending, criterio.NewFieldErrors("sort", err)
	}
	if o.desc {
		return key, query.Descending, nil
	}
	return key, query.Ascending, nil
}

// filterOptions holds raw filter flag values.
type filterOptions struct {
	priority  string
	status    string
	due       string
	dueBefore string
	dueAfter  string
	title     string
}

func (o *filterOptions) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "match priority (low, medium, high)", Destination: &o.priority},
		&cli.StringFlag{Name: "status", Usage: "match status (pending, in-progress, completed)", Destination: &o.status},
		&cli.StringFlag{Name: "due", Usage: "match due date (YYYY-MM-DD)", Destination: &o.due},
		&cli.StringFlag{Name: "due-before", Usage: "due strictly before date (YYYY-MM-DD)", Destination: &o.dueBefore},
		&cli.StringFlag{Name: "due-after", Usage: "due strictly after date (YYYY-MM-DD)", Destination: &o.dueAfter},
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "case-insensitive title glob, e.g. 'release*'", Destination: &o.title},
	}
}

// predicates validates every option and reports all invalid ones together.
func (o filterOptions) predicates() (query.Predicates, error) {
	var (
		errs criterio.FieldErrorsBuilder
		p    query.Predicates
	)

	if strings.TrimSpace(o.priority) != "" {
		v, err := task.ParsePriority(o.priority)
		if err != nil {
			errs = errs.Append("priority", err)
		} else {
			p.Priority = &v
		}
	}

	if strings.TrimSpace(o.status) != "" {
		v, err := task.ParseStatus(o.status)
		if err != nil {
			errs = errs.Append("status", err)
		} else {
			p.Status = &v
		}
	}

	dates := []struct {
		field string
		raw   string
		dst   **task.Date
	}{
		{"due", o.due, &p.DueOn},
		{"due-before", o.dueBefore, &p.DueBefore},
		{"due-after", o.dueAfter, &p.DueAfter},
	}
	for _, d := range dates {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := task.ParseDate(d.raw)
		if err != nil {
			errs = errs.Append(d.field, err)
			continue
		}
		*d.dst = &v
	}

	p.Title = strings.TrimSpace(o.title)
	if err := p.Validate(); err != nil {
		errs = errs.Append("title", err)
	}

	if err := errs.ToError(); err != nil {
		return query.Predicates{}, err
	}
	return p, nil
}

// taskFieldFlags binds the flags shared by add and update.
type taskFieldFlags struct {
	title       string
	description string
	due         string
	priority    string
	status      string
}

func (o *taskFieldFlags) flags(priorityRequired bool) []cli.Flag {
	priorityUsage := "priority (low, medium, high)"
	if priorityRequired {
		priorityUsage += "; required"
	}
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "task title", Destination: &o.title},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "task description (markdown)", Destination: &o.description},
		&cli.StringFlag{Name: "due", Usage: "due date (YYYY-MM-DD); 'none' clears it on update", Destination: &o.due},
		&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: priorityUsage, Destination: &o.priority},
		&cli.StringFlag{Name: "status", Usage: "status (pending, in-progress, completed)", Destination: &o.status},
	}
}

func (o taskFieldFlags) input() task.Input {
	return task.Input{
		Title:       o.title,
		Description: o.description,
		DueDate:     o.due,
		Priority:    o.priority,
		Status:      o.status,
	}
}

// patchInput builds an update. descriptionSet distinguishes an explicit empty
// description, which clears it, from an absent flag.
func (o taskFieldFlags) patchInput(descriptionSet bool) task.PatchInput {
	in := task.PatchInput{
		Title:    o.title,
		DueDate:  o.due,
		Priority: o.priority,
		Status:   o.status,
	}
	if descriptionSet {
		desc := o.description
		in.Description = &desc
	}
	return in
}
