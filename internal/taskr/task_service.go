package taskr

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskr/internal/core/index"
	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/query"
	"github.com/colonyops/taskr/internal/core/stats"
	"github.com/colonyops/taskr/internal/core/task"
)

// StatsReader exposes the published statistics.
type StatsReader interface {
	Latest() (stats.Statistics, bool)
	WaitLatest(ctx context.Context) (stats.Statistics, error)
}

// ErrNoStatistics is returned when no statistics have been published yet.
var ErrNoStatistics = errors.New("statistics not computed yet")

// TaskService is the command-facing API over the index. It validates raw
// input, resolves short ID references, and runs queries on snapshots.
type TaskService struct {
	index *index.Index
	stats StatsReader
	log   zerolog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(ix *index.Index, sr StatsReader, log zerolog.Logger) *TaskService {
	return &TaskService{
		index: ix,
		stats: sr,
		log:   logging.Child(log, "task-service"),
	}
}

// Create validates in and adds the task.
func (s *TaskService) Create(ctx context.Context, in task.Input) (task.Task, error) {
	fields, err := in.Fields()
	if err != nil {
		return task.Task{}, err
	}

	t, err := s.index.Create(ctx, fields)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.log.Info().Ctx(logging.WithTaskID(ctx, t.ID)).Str("title", t.Title).Msg("task created")
	return t, nil
}

// Get resolves ref (a full ID or unique prefix) to a task.
func (s *TaskService) Get(ref string) (task.Task, error) {
	return s.index.Resolve(ref)
}

// List returns every task ordered by key.
func (s *TaskService) List(key query.SortKey, dir query.Direction) []task.Task {
	return query.Sort(s.index.Snapshot(), key, dir)
}

// Filter returns the tasks matching p ordered by key.
func (s *TaskService) Filter(p query.Predicates, key query.SortKey, dir query.Direction) ([]task.Task, error) {
	if err := p.Validate(); err != nil {
		return nil, criterio.NewFieldErrors("title", err)
	}
	return query.Sort(query.Filter(s.index.Snapshot(), p), key, dir), nil
}

// Update validates in and applies it to the task referenced by ref.
func (s *TaskService) Update(ctx context.Context, ref string, in task.PatchInput) (task.Task, error) {
	patch, err := in.Patch()
	if err != nil {
		return task.Task{}, err
	}
	return s.apply(ctx, ref, patch)
}

// Complete marks the task referenced by ref as Completed.
func (s *TaskService) Complete(ctx context.Context, ref string) (task.Task, error) {
	return s.apply(ctx, ref, task.CompletePatch())
}

func (s *TaskService) apply(ctx context.Context, ref string, patch task.Patch) (task.Task, error) {
	current, err := s.index.Resolve(ref)
	if err != nil {
		return task.Task{}, err
	}

	t, err := s.index.Update(ctx, current.ID, patch)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %s: %w", current.ShortID(), err)
	}

	s.log.Info().Ctx(logging.WithTaskID(ctx, t.ID)).Str("status", string(t.Status)).Msg("task updated")
	return t, nil
}

// Delete removes the task referenced by ref and returns it.
func (s *TaskService) Delete(ctx context.Context, ref string) (task.Task, error) {
	current, err := s.index.Resolve(ref)
	if err != nil {
		return task.Task{}, err
	}

	existed, err := s.index.Delete(ctx, current.ID)
	if err != nil {
		return task.Task{}, fmt.Errorf("delete task %s: %w", current.ShortID(), err)
	}
	if !existed {
		// Removed concurrently between Resolve and Delete.
		return task.Task{}, task.ErrNotFound
	}

	s.log.Info().Ctx(logging.WithTaskID(ctx, current.ID)).Msg("task deleted")
	return current, nil
}

// Import validates every input before creating any task, then creates them
// in order. It stops at the first failure and reports how many were created.
func (s *TaskService) Import(ctx context.Context, inputs []task.Input) (int, error) {
	if len(inputs) == 0 {
		return 0, criterio.NewFieldErrors("tasks", errors.New("array is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	fields := make([]task.Fields, len(inputs))
	for i, in := range inputs {
		f, err := in.Fields()
		if err != nil {
			var fieldErrs criterio.FieldErrors
			if !errors.As(err, &fieldErrs) {
				return 0, err
			}
			for _, fe := range fieldErrs {
				errs = errs.Append(fmt.Sprintf("tasks[%d].%s", i, fe.Field), fe.Err)
			}
			continue
		}
		fields[i] = f
	}
	if err := errs.ToError(); err != nil {
		return 0, err
	}

	for i, f := range fields {
		if _, err := s.index.Create(ctx, f); err != nil {
			return i, fmt.Errorf("import stopped after %d of %d tasks: %w", i, len(fields), err)
		}
	}

	s.log.Info().Int("count", len(fields)).Msg("tasks imported")
	return len(fields), nil
}

// Statistics returns the most recently published statistics without waiting.
func (s *TaskService) Statistics() (stats.Statistics, error) {
	st, ok := s.stats.Latest()
	if !ok {
		return stats.Statistics{}, ErrNoStatistics
	}
	return st, nil
}

// WaitStatistics blocks until statistics have been published or ctx is done.
func (s *TaskService) WaitStatistics(ctx context.Context) (stats.Statistics, error) {
	return s.stats.WaitLatest(ctx)
}

// Check verifies the consistency of the working set.
func (s *TaskService) Check() (int, error) {
	return s.index.Len(), s.index.Check()
}
