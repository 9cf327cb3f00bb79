// Package stats computes summary statistics over the task working set and
// publishes them from a periodic background aggregator.
package stats

import (
	"time"

	"github.com/colonyops/taskr/internal/core/task"
)

// Statistics is one published summary of the working set.
type Statistics struct {
	ComputedAt     time.Time `json:"computed_at"`
	Total          int       `json:"total"`
	Pending        int       `json:"pending"`
	InProgress     int       `json:"in_progress"`
	Completed      int       `json:"completed"`
	HighPending    int       `json:"high_priority_pending"`
	Overdue        int       `json:"overdue"`
	CompletionRate float64   `json:"completion_rate"`
}

// ByStatus returns the per-status counts keyed by status.
func (s Statistics) ByStatus() map[task.Status]int {
	return map[task.Status]int{
		task.StatusPending:    s.Pending,
		task.StatusInProgress: s.InProgress,
		task.StatusCompleted:  s.Completed,
	}
}

// Compute summarizes a snapshot as of now. A task is overdue when its due date
// is before today's date and it is not completed.
func Compute(snapshot []task.Task, now time.Time) Statistics {
	today := task.Today(now)
	st := Statistics{
		ComputedAt: now,
		Total:      len(snapshot),
	}

	for _, t := range snapshot {
		switch t.Status {
		case task.StatusPending:
			st.Pending++
		case task.StatusInProgress:
			st.InProgress++
		case task.StatusCompleted:
			st.Completed++
		}

		if t.Status == task.StatusCompleted {
			continue
		}
		if t.Priority == task.PriorityHigh {
			st.HighPending++
		}
		if t.DueDate != nil && t.DueDate.Before(today) {
			st.Overdue++
		}
	}

	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total)
	}
	return st
}
