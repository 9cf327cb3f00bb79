package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/taskr/internal/core/task"
	"github.com/colonyops/taskr/internal/data/db"
)

// TaskStore implements task.Store on top of the SQL database.
type TaskStore struct {
	db *db.DB
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates a new SQL-backed task store.
func NewTaskStore(db *db.DB) *TaskStore {
	return &TaskStore{db: db}
}

// LoadAll returns every persisted task ordered by creation time.
func (s *TaskStore) LoadAll(ctx context.Context) ([]task.Task, error) {
	rows, err := s.db.Queries().ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// Insert persists a new task. Returns ErrDuplicate if the ID is taken.
func (s *TaskStore) Insert(ctx context.Context, t task.Task) error {
	err := retryBusy(ctx, func() error {
		return s.db.Queries().CreateTask(ctx, db.CreateTaskParams{
			ID:          t.ID,
			Title:       t.Title,
			Description: toNullString(t.Description),
			DueDate:     toNullDate(t.DueDate),
			Priority:    string(t.Priority),
			Status:      string(t.Status),
			CreatedAt:   t.CreatedAt.UnixNano(),
		})
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("insert task %s: %w", t.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// Replace overwrites the mutable fields of the task with the given ID.
func (s *TaskStore) Replace(ctx context.Context, id string, t task.Task) error {
	return retryBusy(ctx, func() error {
		return s.replace(ctx, id, t)
	})
}

func (s *TaskStore) replace(ctx context.Context, id string, t task.Task) error {
	return s.db.WithTx(ctx, func(q *db.Queries) error {
		n, err := q.UpdateTask(ctx, db.UpdateTaskParams{
			Title:       t.Title,
			Description: toNullString(t.Description),
			DueDate:     toNullDate(t.DueDate),
			Priority:    string(t.Priority),
			Status:      string(t.Status),
			ID:          id,
		})
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if n > 0 {
			return nil
		}

		// MySQL reports zero affected rows for a no-op update, so confirm
		// the row is really missing before reporting it.
		if _, err := q.GetTask(ctx, id); err != nil {
			if IsNotFoundError(err) {
				return task.ErrNotFound
			}
			return fmt.Errorf("get task: %w", err)
		}
		return nil
	})
}

// Remove deletes the task with the given ID.
func (s *TaskStore) Remove(ctx context.Context, id string) error {
	var n int64
	err := retryBusy(ctx, func() error {
		var err error
		n, err = s.db.Queries().DeleteTask(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return task.ErrNotFound
	}
	return nil
}

// Count returns the number of persisted tasks.
func (s *TaskStore) Count(ctx context.Context) (int64, error) {
	count, err := s.db.Queries().CountTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func rowToTask(row db.Task) (task.Task, error) {
	priority := task.Priority(row.Priority)
	if !priority.IsValid() {
		return task.Task{}, fmt.Errorf("task %s: unknown priority %q", row.ID, row.Priority)
	}
	status := task.Status(row.Status)
	if !status.IsValid() {
		return task.Task{}, fmt.Errorf("task %s: unknown status %q", row.ID, row.Status)
	}

	return task.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: fromNullString(row.Description),
		DueDate:     fromNullDate(row.DueDate),
		Priority:    priority,
		Status:      status,
		CreatedAt:   time.Unix(0, row.CreatedAt),
	}, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// Due dates are stored as Unix seconds at midnight UTC.
func toNullDate(d *task.Date) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: d.Time().Unix(), Valid: true}
}

func fromNullDate(n sql.NullInt64) *task.Date {
	if !n.Valid {
		return nil
	}
	d := task.DateOf(time.Unix(n.Int64, 0).UTC())
	return &d
}

const (
	busyRetries = 3
	busyBackoff = 50 * time.Millisecond
)

// retryBusy runs fn again while SQLite reports the database as locked,
// backing off between attempts. Other errors are returned immediately.
func retryBusy(ctx context.Context, fn func() error) error {
	wait := busyBackoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsBusyError(err) || attempt == busyRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}
