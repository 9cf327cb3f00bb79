// Package query implements filtering and sorting over index snapshots. All
// functions are pure: they never modify their input and keep no state.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/taskr/internal/core/task"
)

// Predicates is a conjunction of optional constraints. A nil or empty field
// imposes no constraint.
type Predicates struct {
	Priority  *task.Priority
	Status    *task.Status
	DueOn     *task.Date
	DueBefore *task.Date
	DueAfter  *task.Date
	// Title is a case-insensitive glob such as "release*" or "{fix,bug}*".
	Title string
}

// IsEmpty reports whether no predicate is set.
func (p Predicates) IsEmpty() bool {
	return p.Priority == nil &&
		p.Status == nil &&
		p.DueOn == nil &&
		p.DueBefore == nil &&
		p.DueAfter == nil &&
		p.Title == ""
}

// Validate checks that the title glob is well formed.
func (p Predicates) Validate() error {
	if p.Title != "" && !doublestar.ValidatePattern(strings.ToLower(p.Title)) {
		return fmt.Errorf("invalid title pattern %q", p.Title)
	}
	return nil
}

// Match reports whether t satisfies every predicate. Tasks without a due date
// never satisfy a due date predicate.
func (p Predicates) Match(t task.Task) bool {
	if p.Priority != nil && t.Priority != *p.Priority {
		return false
	}
	if p.Status != nil && t.Status != *p.Status {
		return false
	}
	if p.DueOn != nil || p.DueBefore != nil || p.DueAfter != nil {
		if t.DueDate == nil {
			return false
		}
		if p.DueOn != nil && !t.DueDate.Equal(*p.DueOn) {
			return false
		}
		if p.DueBefore != nil && !t.DueDate.Before(*p.DueBefore) {
			return false
		}
		if p.DueAfter != nil && !t.DueDate.After(*p.DueAfter) {
			return false
		}
	}
	if p.Title != "" {
		ok, err := doublestar.Match(strings.ToLower(p.Title), strings.ToLower(t.Title))
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// Filter returns, in their original relative order, the tasks that satisfy
// every predicate. The result is never nil.
func Filter(snapshot []task.Task, p Predicates) []task.Task {
	out := make([]task.Task, 0, len(snapshot))
	for _, t := range snapshot {
		if p.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortKey selects the field tasks are ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortDueDate   SortKey = "due_date"
	SortPriority  SortKey = "priority"
	SortStatus    SortKey = "status"
	SortTitle     SortKey = "title"
)

// SortKeys lists every sort key in menu order.
var SortKeys = []SortKey{SortCreatedAt, SortDueDate, SortPriority, SortStatus, SortTitle}

// ParseSortKey accepts a sort key name; "created" and "due" are shorthands.
// An empty string selects created_at.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "created", "created_at":
		return SortCreatedAt, nil
	case "due", "due_date":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	case "status":
		return SortStatus, nil
	case "title":
		return SortTitle, nil
	}
	return "", fmt.Errorf("invalid sort field %q: must be one of created_at, due_date, priority, status, title", s)
}

// Direction is the sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Sort returns a new slice ordered by key. The sort is stable in both
// directions. Tasks without a due date always come last when sorting by due
// date, regardless of direction.
func Sort(snapshot []task.Task, key SortKey, dir Direction) []task.Task {
	out := slices.Clone(snapshot)
	if out == nil {
		out = []task.Task{}
	}

	cmp := comparator(key)
	slices.SortStableFunc(out, func(a, b task.Task) int {
		if key == SortDueDate {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
		}
		c := cmp(a, b)
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

func comparator(key SortKey) func(a, b task.Task) int {
	switch key {
	case SortDueDate:
		return func(a, b task.Task) int {
			return a.DueDate.Compare(*b.DueDate)
		}
	case SortPriority:
		return func(a, b task.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		}
	case SortStatus:
		return func(a, b task.Task) int {
			return a.Status.Rank() - b.Status.Rank()
		}
	case SortTitle:
		return func(a, b task.Task) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		return func(a, b task.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
}
