package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskr/internal/core/logging"
	"github.com/colonyops/taskr/internal/core/task"
)

// fakeStore is an in-memory task.Store with failure injection.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]task.Task
	order   []string
	calls   map[string]int
	failOn  map[string]error
	loadErr error

	// insertGate, when set, blocks Insert until it is closed.
	insertGate  chan struct{}
	insertEnter chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:   make(map[string]task.Task),
		calls:  make(map[string]int),
		failOn: make(map[string]error),
	}
}

func (s *fakeStore) called(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *fakeStore) fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[op] = err
}

func (s *fakeStore) LoadAll(_ context.Context) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["load"]++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

func (s *fakeStore) Insert(ctx context.Context, t task.Task) error {
	if s.insertGate != nil {
		if s.insertEnter != nil {
			close(s.insertEnter)
		}
		select {
		case <-s.insertGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["insert"]++
	if err := s.failOn["insert"]; err != nil {
		return err
	}
	if _, ok := s.rows[t.ID]; ok {
		return fmt.Errorf("duplicate %s", t.ID)
	}
	s.rows[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *fakeStore) Replace(_ context.Context, id string, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["replace"]++
	if err := s.failOn["replace"]; err != nil {
		return err
	}
	if _, ok := s.rows[id]; !ok {
		return task.ErrNotFound
	}
	s.rows[id] = t
	return nil
}

func (s *fakeStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["remove"]++
	if err := s.failOn["remove"]; err != nil {
		return err
	}
	if _, ok := s.rows[id]; !ok {
		return task.ErrNotFound
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestIndex(t *testing.T, store *fakeStore) *Index {
	t.Helper()
	clock := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	ix := New(store,
		WithIDFunc(seqIDs()),
		WithClock(func() time.Time { return clock }),
	)
	require.NoError(t, ix.Hydrate(context.Background()))
	return ix
}

func fields(title string) task.Fields {
	return task.Fields{Title: title, Priority: task.PriorityMedium}
}

func TestIndex_Create(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	due := task.NewDate(2025, time.February, 1)
	got, err := ix.Create(ctx, task.Fields{
		Title:    "Write report",
		DueDate:  &due,
		Priority: task.PriorityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, "id-001", got.ID)
	assert.Equal(t, task.StatusPending, got.Status, "status defaults to pending")
	assert.False(t, got.CreatedAt.IsZero())

	fetched, err := ix.Get(got.ID)
	require.NoError(t, err)
	assert.Equal(t, got, fetched)
	assert.Equal(t, 1, store.called("insert"))
	assert.Equal(t, 1, ix.Len())
	require.NoError(t, ix.Check())
}

func TestIndex_CreateStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)
	store.fail("insert", errors.New("disk full"))

	_, err := ix.Create(ctx, fields("a"))
	require.Error(t, err)
	assert.True(t, task.IsPersistenceError(err))

	var pe *task.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "insert", pe.Op)

	assert.Zero(t, ix.Len(), "failed create must not reach the working set")
	require.NoError(t, ix.Check())
}

func TestIndex_StoreFailureLogsOp(t *testing.T) {
	var buf bytes.Buffer
	store := newFakeStore()
	ix := New(store,
		WithIDFunc(seqIDs()),
		WithLogger(zerolog.New(&buf).Hook(logging.ContextHook{})),
	)
	require.NoError(t, ix.Hydrate(context.Background()))
	buf.Reset()
	store.fail("insert", errors.New("disk full"))

	_, err := ix.Create(context.Background(), fields("a"))
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store call failed", entry["message"])
	assert.Equal(t, "insert", entry["op"])
	assert.Equal(t, "id-001", entry["task_id"])
}

func TestIndex_Hydrate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	seed := New(store, WithIDFunc(seqIDs()))
	for _, title := range []string{"a", "b", "c"} {
		_, err := seed.Create(ctx, fields(title))
		require.NoError(t, err)
	}

	ix := New(store)
	require.NoError(t, ix.Hydrate(ctx))

	assert.Equal(t, seed.Snapshot(), ix.Snapshot(), "round trip through the store preserves records and order")
	require.NoError(t, ix.Check())
}

func TestIndex_HydrateFailure(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("connection refused")

	ix := New(store)
	err := ix.Hydrate(context.Background())

	var ce *task.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Zero(t, ix.Len())
}

func TestIndex_Load(t *testing.T) {
	ix := New(newFakeStore())

	err := ix.Load([]task.Task{{ID: "a"}, {ID: "a"}})
	require.Error(t, err)

	err = ix.Load([]task.Task{{ID: ""}})
	require.Error(t, err)

	require.NoError(t, ix.Load([]task.Task{{ID: "b"}, {ID: "a"}}))
	snap := ix.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].ID)
	assert.Equal(t, "a", snap[1].ID)
}

func TestIndex_Resolve(t *testing.T) {
	ix := New(newFakeStore())
	require.NoError(t, ix.Load([]task.Task{
		{ID: "abc123"},
		{ID: "abd456"},
		{ID: "xyz789"},
	}))

	got, err := ix.Resolve("xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz789", got.ID)

	got, err = ix.Resolve("ABC")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.ID)

	_, err = ix.Resolve("ab")
	require.ErrorIs(t, err, task.ErrAmbiguousID)

	_, err = ix.Resolve("nope")
	require.ErrorIs(t, err, task.ErrNotFound)

	_, err = ix.Resolve("  ")
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestIndex_Update(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	created, err := ix.Create(ctx, fields("old"))
	require.NoError(t, err)

	title := "new"
	status := task.StatusInProgress
	got, err := ix.Update(ctx, created.ID, task.Patch{Title: &title, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, "new", got.Title)
	assert.Equal(t, task.StatusInProgress, got.Status)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	fetched, err := ix.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, got, fetched)

	store.mu.Lock()
	assert.Equal(t, "new", store.rows[created.ID].Title)
	store.mu.Unlock()
}

func TestIndex_UpdateEmptyPatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	created, err := ix.Create(ctx, fields("a"))
	require.NoError(t, err)

	got, err := ix.Update(ctx, created.ID, task.Patch{})
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Zero(t, store.called("replace"), "empty patch must not reach the store")
}

func TestIndex_UpdateMissing(t *testing.T) {
	ix := newTestIndex(t, newFakeStore())

	title := "x"
	_, err := ix.Update(context.Background(), "nope", task.Patch{Title: &title})
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestIndex_UpdateStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	created, err := ix.Create(ctx, fields("old"))
	require.NoError(t, err)

	store.fail("replace", errors.New("timeout"))

	title := "new"
	_, err = ix.Update(ctx, created.ID, task.Patch{Title: &title})
	require.Error(t, err)
	assert.True(t, task.IsPersistenceError(err))

	fetched, err := ix.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched, "failed update leaves the record unchanged")
}

func TestIndex_UpdateGoneFromStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	created, err := ix.Create(ctx, fields("a"))
	require.NoError(t, err)

	// Remove behind the index's back.
	require.NoError(t, store.Remove(ctx, created.ID))

	title := "b"
	_, err = ix.Update(ctx, created.ID, task.Patch{Title: &title})
	require.ErrorIs(t, err, task.ErrNotFound)

	_, err = ix.Get(created.ID)
	require.ErrorIs(t, err, task.ErrNotFound)
	require.NoError(t, ix.Check())
}

func TestIndex_Delete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	a, err := ix.Create(ctx, fields("a"))
	require.NoError(t, err)
	b, err := ix.Create(ctx, fields("b"))
	require.NoError(t, err)
	c, err := ix.Create(ctx, fields("c"))
	require.NoError(t, err)

	existed, err := ix.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	snap := ix.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, a.ID, snap[0].ID)
	assert.Equal(t, c.ID, snap[1].ID)
	require.NoError(t, ix.Check())

	t.Run("idempotent", func(t *testing.T) {
		before := store.called("remove")

		existed, err := ix.Delete(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, existed)
		assert.Equal(t, before, store.called("remove"), "absent id must not reach the store")
	})
}

func TestIndex_DeleteStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	created, err := ix.Create(ctx, fields("a"))
	require.NoError(t, err)

	store.fail("remove", errors.New("locked"))

	existed, err := ix.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.False(t, existed)
	assert.True(t, task.IsPersistenceError(err))
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_DeleteGoneFromStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	created, err := ix.Create(ctx, fields("a"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, created.ID))

	existed, err := ix.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Zero(t, ix.Len())
}

func TestIndex_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, newFakeStore())

	due := task.NewDate(2025, time.March, 1)
	created, err := ix.Create(ctx, task.Fields{Title: "a", DueDate: &due, Priority: task.PriorityLow})
	require.NoError(t, err)

	snap := ix.Snapshot()
	snap[0].Title = "mutated"
	snap[0].DueDate.Day = 28

	fetched, err := ix.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", fetched.Title)
	assert.Equal(t, 1, fetched.DueDate.Day)
}

func TestIndex_StoreTimeout(t *testing.T) {
	store := newFakeStore()
	store.insertGate = make(chan struct{})
	defer close(store.insertGate)

	ix := New(store, WithStoreTimeout(20*time.Millisecond))

	_, err := ix.Create(context.Background(), fields("slow"))
	require.Error(t, err)
	assert.True(t, task.IsPersistenceError(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, ix.Len())
}

func TestIndex_SnapshotDuringSlowWrite(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	ix := newTestIndex(t, store)

	_, err := ix.Create(ctx, fields("existing"))
	require.NoError(t, err)

	store.insertGate = make(chan struct{})
	store.insertEnter = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := ix.Create(ctx, fields("slow"))
		done <- err
	}()

	<-store.insertEnter

	// The writer is parked inside the store; readers must not wait for it.
	snap := ix.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, 1, ix.Len())

	close(store.insertGate)
	require.NoError(t, <-done)
	assert.Equal(t, 2, ix.Len())
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, newFakeStore())

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				created, err := ix.Create(ctx, fields(fmt.Sprintf("w%d-%d", w, i)))
				if !assert.NoError(t, err) {
					return
				}
				if i%3 == 0 {
					_, err = ix.Delete(ctx, created.ID)
					assert.NoError(t, err)
				} else if i%3 == 1 {
					s := task.StatusCompleted
					_, err = ix.Update(ctx, created.ID, task.Patch{Status: &s})
					assert.NoError(t, err)
				}
			}
		}(w)
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := ix.Snapshot()
				seen := make(map[string]bool, len(snap))
				for _, rec := range snap {
					assert.False(t, seen[rec.ID], "snapshot contains %s twice", rec.ID)
					seen[rec.ID] = true
				}
				assert.NoError(t, ix.Check())
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	deletedPerWriter := (perWriter + 2) / 3
	assert.Equal(t, writers*(perWriter-deletedPerWriter), ix.Len())
	require.NoError(t, ix.Check())
}
