// Package taskr wires the task working set, its Store, and the statistics
// aggregator into the App consumed by commands.
package taskr

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskr/internal/core/config"
	"github.com/colonyops/taskr/internal/core/index"
	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/stats"
	"github.com/colonyops/taskr/internal/core/task"
	"github.com/colonyops/taskr/internal/data/db"
	"github.com/colonyops/taskr/internal/data/stores"
)

// App is the central entry point for all taskr operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Tasks  *TaskService
	Stats  *stats.Aggregator
	Config *config.Config
	DB     *db.DB
	Store  *stores.TaskStore

	index *index.Index
	log   zerolog.Logger
}

// Open connects to the configured database, hydrates the working set, and
// prepares the aggregator. The aggregator is not started; call Start. Any
// failure to open, migrate, or load from the database is a
// *task.ConnectionError.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	database, err := openDB(cfg, log)
	if err != nil {
		return nil, &task.ConnectionError{Err: err}
	}

	store := stores.NewTaskStore(database)
	ix := index.New(store,
		index.WithLogger(logging.Child(log, "index")),
		index.WithStoreTimeout(cfg.Database.OpTimeout),
	)
	if err := ix.Hydrate(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}

	schedule, err := stats.ParseSchedule(cfg.Stats.Schedule)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	agg := stats.New(ix,
		stats.WithSchedule(schedule),
		stats.WithRunOnStart(cfg.Stats.ShouldRunOnStart()),
		stats.WithLogger(logging.Child(log, "aggregator")),
	)

	app := NewApp(ix, agg, cfg, database, log)
	app.Store = store
	return app, nil
}

// NewApp constructs an App from explicit dependencies.
func NewApp(ix *index.Index, agg *stats.Aggregator, cfg *config.Config, database *db.DB, log zerolog.Logger) *App {
	return &App{
		Tasks:  NewTaskService(ix, agg, log),
		Stats:  agg,
		Config: cfg,
		DB:     database,
		index:  ix,
		log:    log,
	}
}

// Start launches the background aggregator.
func (a *App) Start(ctx context.Context) {
	a.Stats.Start(ctx)
}

// Close stops the aggregator and then closes the database.
func (a *App) Close() error {
	a.Stats.Stop()
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDB(cfg *config.Config, log zerolog.Logger) (*db.DB, error) {
	opts := db.OpenOptions{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil {
		return database, nil
	}

	if opts.Driver != db.DriverSQLite || !stores.IsCorruptionError(err) {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database corrupted, moving it aside")
	if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
		return nil, fmt.Errorf("recover corrupted database: %w", rerr)
	}

	database, err = db.Open(cfg.DataDir, opts)
	if err != nil {
		return nil, fmt.Errorf("open database after recovery: %w", err)
	}
	return database, nil
}
