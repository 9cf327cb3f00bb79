package taskr

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskr/internal/core/config"
	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/task"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvDatabaseDSN, "")

	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)
	return cfg
}

func openApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()

	app, err := Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestTaskService_CRUD(t *testing.T) {
	ctx := context.Background()
	app := openApp(t, testConfig(t))
	svc := app.Tasks

	created, err := svc.Create(ctx, task.Input{
		Title:    "Write report",
		DueDate:  "2025-03-01",
		Priority: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, created.Status)

	got, err := svc.Get(created.ShortID())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := svc.Update(ctx, created.ShortID(), task.PatchInput{Status: "in progress"})
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, updated.Status)
	assert.Equal(t, "Write report", updated.Title)

	completed, err := svc.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, completed.Status)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.Get(created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestTaskService_CreateInvalid(t *testing.T) {
	app := openApp(t, testConfig(t))

	_, err := app.Tasks.Create(context.Background(), task.Input{Title: "", Priority: "urgent"})
	require.Error(t, err)
	assert.True(t, task.IsValidationError(err))
	assert.Empty(t, app.Tasks.List(query.SortCreatedAt, query.Ascending))
}

func TestTaskService_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	app := openApp(t, testConfig(t))
	svc := app.Tasks

	for _, in := range []task.Input{
		{Title: "b", Priority: "low"},
		{Title: "a", Priority: "high"},
		{Title: "c", Priority: "high", Status: "done"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	titles := func(ts []task.Task) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = t.Title
		}
		return out
	}

	assert.Equal(t, []string{"b", "a", "c"}, titles(svc.List(query.SortCreatedAt, query.Ascending)))
	assert.Equal(t, []string{"a", "b", "c"}, titles(svc.List(query.SortTitle, query.Ascending)))

	high := task.PriorityHigh
	got, err := svc.Filter(query.Predicates{Priority: &high}, query.SortTitle, query.Descending)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, titles(got))

	_, err = svc.Filter(query.Predicates{Title: "[bad"}, query.SortCreatedAt, query.Ascending)
	assert.True(t, task.IsValidationError(err))
}

func TestTaskService_Persistence(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)

	created, err := app.Tasks.Create(ctx, task.Input{Title: "survives restart", Priority: "medium"})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	reopened := openApp(t, cfg)
	got, err := reopened.Tasks.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "survives restart", got.Title)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestTaskService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("validates everything first", func(t *testing.T) {
		app := openApp(t, testConfig(t))

		n, err := app.Tasks.Import(ctx, []task.Input{
			{Title: "ok", Priority: "low"},
			{Title: "", Priority: "low"},
			{Title: "bad prio", Priority: "urgent"},
		})
		assert.Zero(t, n)

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		require.Len(t, fieldErrs, 2)
		assert.Equal(t, "tasks[1].title", fieldErrs[0].Field)
		assert.Equal(t, "tasks[2].priority", fieldErrs[1].Field)

		assert.Empty(t, app.Tasks.List(query.SortCreatedAt, query.Ascending), "nothing created on validation failure")
	})

	t.Run("creates in order", func(t *testing.T) {
		app := openApp(t, testConfig(t))

		n, err := app.Tasks.Import(ctx, []task.Input{
			{Title: "first", Priority: "low"},
			{Title: "second", Priority: "high", DueDate: "2025-01-01"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		list := app.Tasks.List(query.SortCreatedAt, query.Ascending)
		require.Len(t, list, 2)
		assert.Equal(t, "first", list[0].Title)
		assert.Equal(t, "second", list[1].Title)
	})

	t.Run("empty", func(t *testing.T) {
		app := openApp(t, testConfig(t))
		_, err := app.Tasks.Import(ctx, nil)
		assert.True(t, task.IsValidationError(err))
	})
}

func TestTaskService_Statistics(t *testing.T) {
	ctx := context.Background()
	app := openApp(t, testConfig(t))

	_, err := app.Tasks.Statistics()
	require.ErrorIs(t, err, ErrNoStatistics)

	_, err = app.Tasks.Create(ctx, task.Input{Title: "a", Priority: "high"})
	require.NoError(t, err)

	app.Start(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	st, err := app.Tasks.WaitStatistics(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.HighPending)

	latest, err := app.Tasks.Statistics()
	require.NoError(t, err)
	assert.Equal(t, st.Total, latest.Total)
}

func TestTaskService_Check(t *testing.T) {
	ctx := context.Background()
	app := openApp(t, testConfig(t))

	_, err := app.Tasks.Create(ctx, task.Input{Title: "a", Priority: "low"})
	require.NoError(t, err)

	n, err := app.Tasks.Check()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_RecoversCorruptDatabase(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "taskr.db"), bytes.Repeat([]byte("garbage!"), 512), 0o644))

	app := openApp(t, cfg)
	assert.Empty(t, app.Tasks.List(query.SortCreatedAt, query.Ascending))

	backups, err := filepath.Glob(filepath.Join(cfg.DataDir, "taskr.db.corrupt.*"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestOpen_BadDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"
	cfg.Database.DSN = ""

	_, err := Open(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoStatistics))

	var ce *task.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "dsn is required")
}

func TestOpen_UnknownDriverIsConnectionError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "postgres"

	_, err := Open(context.Background(), cfg, zerolog.Nop())

	var ce *task.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
