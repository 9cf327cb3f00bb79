package db

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

// Task is one row of the tasks table. Dates are stored as integers so the
// same statements work on every supported driver.
type Task struct {
	ID          string
	Title       string
	Description sql.NullString
	DueDate     sql.NullInt64
	Priority    string
	Status      string
	CreatedAt   int64
}

const taskColumns = "id, title, description, due_date, priority, status, created_at"

func scanTask(row interface{ Scan(...interface{}) error }) (Task, error) {
	var i Task
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.DueDate,
		&i.Priority,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const listTasks = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`

func (q *Queries) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasks)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Task
	for rows.Next() {
		i, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTask = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

func (q *Queries) GetTask(ctx context.Context, id string) (Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTask, id))
}

const countTasks = `SELECT COUNT(*) FROM tasks`

func (q *Queries) CountTasks(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTasks).Scan(&count)
	return count, err
}

const createTask = `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreateTaskParams struct {
	ID          string
	Title       string
	Description sql.NullString
	DueDate     sql.NullInt64
	Priority    string
	Status      string
	CreatedAt   int64
}

func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) error {
	_, err := q.db.ExecContext(ctx, createTask,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.DueDate,
		arg.Priority,
		arg.Status,
		arg.CreatedAt,
	)
	return err
}

const updateTask = `UPDATE tasks
SET title = ?, description = ?, due_date = ?, priority = ?, status = ?
WHERE id = ?`

type UpdateTaskParams struct {
	Title       string
	Description sql.NullString
	DueDate     sql.NullInt64
	Priority    string
	Status      string
	ID          string
}

// UpdateTask rewrites the mutable columns of a task and reports how many rows
// matched. MySQL reports rows changed rather than matched unless the DSN sets
// clientFoundRows=true.
func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTask,
		arg.Title,
		arg.Description,
		arg.DueDate,
		arg.Priority,
		arg.Status,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTask = `DELETE FROM tasks WHERE id = ?`

func (q *Queries) DeleteTask(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTask, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
