// Package index holds the authoritative in-process working set of tasks.
//
// The Index keeps two structures in lock-step: a map from ID to record for
// point operations and a slice of the same records in insertion order for
// iteration. Both are guarded together by a single lock, so every reader sees
// them in the same state. Store calls are made outside that lock; a slow
// Store delays only the calling writer, never a concurrent Snapshot.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/task"
)

// Index is the in-memory working set backed by a task.Store.
type Index struct {
	store task.Store
	log   zerolog.Logger

	newID        func() string
	now          func() time.Time
	storeTimeout time.Duration

	// writeMu serializes mutations across their Store round trip.
	writeMu sync.Mutex

	// mu guards byID and order together.
	mu    sync.RWMutex
	byID  map[string]*task.Task
	order []*task.Task
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for mutation events.
func WithLogger(l zerolog.Logger) Option {
	return func(ix *Index) { ix.log = l }
}

// WithIDFunc overrides ID generation (defaults to random UUIDs).
func WithIDFunc(fn func() string) Option {
	return func(ix *Index) { ix.newID = fn }
}

// WithClock overrides the time source used for created_at.
func WithClock(fn func() time.Time) Option {
	return func(ix *Index) { ix.now = fn }
}

// WithStoreTimeout bounds every Store call. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(ix *Index) { ix.storeTimeout = d }
}

// New creates an empty Index. Call Hydrate before handing it to other
// goroutines.
func New(store task.Store, opts ...Option) *Index {
	ix := &Index{
		store: store,
		log:   zerolog.Nop(),
		newID: uuid.NewString,
		now:   time.Now,
		byID:  make(map[string]*task.Task),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Hydrate replaces the working set with the Store's contents. On failure the
// Index is left untouched and a *task.ConnectionError is returned.
func (ix *Index) Hydrate(ctx context.Context) error {
	ctx, cancel := ix.storeContext(ctx)
	defer cancel()

	records, err := ix.store.LoadAll(ctx)
	if err != nil {
		return &task.ConnectionError{Err: err}
	}

	if err := ix.Load(records); err != nil {
		return &task.ConnectionError{Err: err}
	}

	ix.log.Info().Int("count", len(records)).Msg("hydrated working set")
	return nil
}

// Load replaces the working set with records, preserving their order. It is
// meant for startup, before any concurrent readers or writers exist.
func (ix *Index) Load(records []task.Task) error {
	byID := make(map[string]*task.Task, len(records))
	order := make([]*task.Task, 0, len(records))

	for _, r := range records {
		if r.ID == "" {
			return errors.New("record with empty id")
		}
		if _, dup := byID[r.ID]; dup {
			return fmt.Errorf("duplicate record id %q", r.ID)
		}
		rec := r.Clone()
		byID[rec.ID] = &rec
		order = append(order, &rec)
	}

	ix.mu.Lock()
	ix.byID = byID
	ix.order = order
	ix.mu.Unlock()

	return nil
}

// Create builds a new task from fields, persists it, and only then adds it to
// the working set.
func (ix *Index) Create(ctx context.Context, fields task.Fields) (task.Task, error) {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	status := fields.Status
	if status == "" {
		status = task.StatusPending
	}

	rec := task.Task{
		ID:          ix.newID(),
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    fields.Priority,
		Status:      status,
		CreatedAt:   ix.now(),
	}
	if fields.DueDate != nil {
		d := *fields.DueDate
		rec.DueDate = &d
	}

	ctx = logging.WithOp(logging.WithTaskID(ctx, rec.ID), "create")
	if err := ix.persist(ctx, "insert", rec.ID, func(ctx context.Context) error {
		return ix.store.Insert(ctx, rec.Clone())
	}); err != nil {
		return task.Task{}, err
	}

	stored := rec.Clone()
	ix.mu.Lock()
	ix.byID[stored.ID] = &stored
	ix.order = append(ix.order, &stored)
	ix.mu.Unlock()

	ix.log.Debug().Ctx(ctx).Msg("task created")
	return rec, nil
}

// Get returns a copy of the task with the exact ID.
func (ix *Index) Get(id string) (task.Task, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.byID[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return rec.Clone(), nil
}

// Resolve looks a task up by its full ID or by a unique, case-insensitive ID
// prefix such as the 8 characters shown in listings.
func (ix *Index) Resolve(ref string) (task.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, task.ErrNotFound
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if rec, ok := ix.byID[ref]; ok {
		return rec.Clone(), nil
	}

	var match *task.Task
	for _, rec := range ix.order {
		if !rec.HasID(ref) {
			continue
		}
		if match != nil {
			return task.Task{}, fmt.Errorf("%w: %q", task.ErrAmbiguousID, ref)
		}
		match = rec
	}
	if match == nil {
		return task.Task{}, task.ErrNotFound
	}
	return match.Clone(), nil
}

// Update applies patch to the task with the given ID. The merged record is
// persisted first; the in-memory record changes only if the Store accepts it.
func (ix *Index) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	current, err := ix.Get(id)
	if err != nil {
		return task.Task{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	merged := patch.Apply(current)

	ctx = logging.WithOp(logging.WithTaskID(ctx, id), "update")
	err = ix.persist(ctx, "replace", id, func(ctx context.Context) error {
		return ix.store.Replace(ctx, id, merged.Clone())
	})
	if errors.Is(err, task.ErrNotFound) {
		// The Store no longer has the record; follow it.
		ix.drop(id)
		ix.log.Warn().Ctx(ctx).Msg("task missing from store on update, dropped from working set")
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, err
	}

	ix.mu.Lock()
	if rec, ok := ix.byID[id]; ok {
		*rec = merged.Clone()
	}
	ix.mu.Unlock()

	ix.log.Debug().Ctx(ctx).Msg("task updated")
	return merged, nil
}

// Delete removes the task with the given ID from the Store and then from the
// working set. It reports whether the task existed. A missing ID is not an
// error and does not touch the Store.
func (ix *Index) Delete(ctx context.Context, id string) (bool, error) {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	ix.mu.RLock()
	_, ok := ix.byID[id]
	ix.mu.RUnlock()
	if !ok {
		return false, nil
	}

	ctx = logging.WithOp(logging.WithTaskID(ctx, id), "delete")
	err := ix.persist(ctx, "remove", id, func(ctx context.Context) error {
		return ix.store.Remove(ctx, id)
	})
	if err != nil && !errors.Is(err, task.ErrNotFound) {
		return false, err
	}

	ix.drop(id)
	ix.log.Debug().Ctx(ctx).Msg("task deleted")
	return true, nil
}

// Snapshot returns value copies of every task in insertion order. The copy is
// taken under the lock, so it never mixes states of the two structures.
func (ix *Index) Snapshot() []task.Task {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]task.Task, len(ix.order))
	for i, rec := range ix.order {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of tasks in the working set.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.order)
}

// Check verifies that the map and the ordered slice hold exactly the same
// records, each once.
func (ix *Index) Check() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.byID) != len(ix.order) {
		return fmt.Errorf("index out of sync: %d ids mapped, %d in order", len(ix.byID), len(ix.order))
	}

	seen := make(map[string]struct{}, len(ix.order))
	for i, rec := range ix.order {
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("index out of sync: id %q appears twice in order", rec.ID)
		}
		seen[rec.ID] = struct{}{}

		mapped, ok := ix.byID[rec.ID]
		if !ok {
			return fmt.Errorf("index out of sync: order[%d] id %q not mapped", i, rec.ID)
		}
		if mapped != rec {
			return fmt.Errorf("index out of sync: id %q maps to a different record", rec.ID)
		}
	}
	return nil
}

// drop removes id from both structures in one critical section.
func (ix *Index) drop(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.byID[id]; !ok {
		return
	}
	delete(ix.byID, id)
	for i, rec := range ix.order {
		if rec.ID == id {
			ix.order = append(ix.order[:i:i], ix.order[i+1:]...)
			break
		}
	}
}

// persist runs a Store call with the configured timeout. task.ErrNotFound is
// returned as is; every other failure becomes a *task.PersistenceError.
func (ix *Index) persist(ctx context.Context, op, id string, fn func(context.Context) error) error {
	ctx, cancel := ix.storeContext(logging.WithOp(ctx, op))
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, task.ErrNotFound):
		return task.ErrNotFound
	default:
		ix.log.Error().Ctx(ctx).Err(err).Msg("store call failed")
		return &task.PersistenceError{Op: op, ID: id, Err: err}
	}
}

func (ix *Index) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ix.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, ix.storeTimeout)
}
