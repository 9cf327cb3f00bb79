package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskr/internal/core/task"
)

// DefaultInterval is the time between aggregation cycles when no schedule is configured.
const DefaultInterval = 10 * time.Second

// scheduleParser accepts 5-field cron expressions and descriptors such as
// "@every 10s" or "@hourly".
var scheduleParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses an aggregation schedule expression.
func ParseSchedule(spec string) (cronlib.Schedule, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Source provides consistent snapshots of the working set.
type Source interface {
	Snapshot() []task.Task
}

// State is the aggregator's position in its cycle.
type State int32

const (
	StateIdle State = iota
	StateComputing
	StatePublishing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputing:
		return "computing"
	case StatePublishing:
		return "publishing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Aggregator periodically snapshots a Source, computes Statistics, and
// publishes them with a single atomic swap. Readers see either the previous
// complete result or the new one.
type Aggregator struct {
	source     Source
	schedule   cronlib.Schedule
	log        zerolog.Logger
	now        func() time.Time
	runOnStart bool
	observer   func(Statistics)

	state  atomic.Int32
	latest atomic.Pointer[Statistics]

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSchedule sets when cycles run.
func WithSchedule(s cronlib.Schedule) Option {
	return func(a *Aggregator) { a.schedule = s }
}

// WithLogger sets the logger used for cycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Aggregator) { a.log = l }
}

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(a *Aggregator) { a.now = fn }
}

// WithRunOnStart runs one cycle as soon as the aggregator starts instead of
// waiting for the first scheduled time.
func WithRunOnStart(v bool) Option {
	return func(a *Aggregator) { a.runOnStart = v }
}

// WithObserver registers a callback invoked after each publication.
func WithObserver(fn func(Statistics)) Option {
	return func(a *Aggregator) { a.observer = fn }
}

// New creates an idle Aggregator over source.
func New(source Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:   source,
		schedule: cronlib.Every(DefaultInterval),
		log:      zerolog.Nop(),
		now:      time.Now,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.state.Store(int32(StateIdle))
	return a
}

// Start launches the background goroutine. It returns immediately; calling it
// again, or after Stop, does nothing.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started || a.stopped {
		return
	}
	a.started = true

	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go a.loop(ctx)
	a.log.Info().Msg("aggregator started")
}

// Stop asks the goroutine to exit after its current cycle and waits for it.
// It is idempotent and safe to call before Start.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		a.wg.Wait()
		return
	}
	a.stopped = true
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()
	a.state.Store(int32(StateStopped))
	a.log.Info().Msg("aggregator stopped")
}

// State returns the current cycle state.
func (a *Aggregator) State() State {
	return State(a.state.Load())
}

// Latest returns the most recently published statistics. The boolean is
// false until the first cycle has published.
func (a *Aggregator) Latest() (Statistics, bool) {
	st := a.latest.Load()
	if st == nil {
		return Statistics{}, false
	}
	return *st, true
}

// WaitLatest returns the latest statistics, blocking until the first
// publication or until ctx is done.
func (a *Aggregator) WaitLatest(ctx context.Context) (Statistics, error) {
	select {
	case <-a.ready:
		st, _ := a.Latest()
		return st, nil
	case <-ctx.Done():
		return Statistics{}, ctx.Err()
	}
}

func (a *Aggregator) loop(ctx context.Context) {
	defer a.wg.Done()

	if a.runOnStart {
		a.cycle()
	}

	for {
		now := a.now()
		next := a.schedule.Next(now)
		if next.IsZero() {
			a.log.Warn().Msg("schedule has no next run, aggregator idle until stopped")
			<-ctx.Done()
			return
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if ctx.Err() != nil {
			return
		}
		a.cycle()
	}
}

// cycle runs one Idle -> Computing -> Publishing -> Idle pass. A failed
// computation is logged and skipped; the previous result stays published.
func (a *Aggregator) cycle() {
	a.state.Store(int32(StateComputing))
	defer a.state.Store(int32(StateIdle))

	st, err := a.compute()
	if err != nil {
		a.log.Error().Err(err).Msg("aggregation cycle skipped")
		return
	}

	a.state.Store(int32(StatePublishing))
	a.latest.Store(&st)
	a.readyOnce.Do(func() { close(a.ready) })

	a.log.Debug().
		Int("total", st.Total).
		Int("overdue", st.Overdue).
		Int("high_pending", st.HighPending).
		Msg("statistics published")

	a.notify(st)
}

func (a *Aggregator) compute() (st Statistics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("aggregation panicked: %v", r)
		}
	}()
	return Compute(a.source.Snapshot(), a.now()), nil
}

func (a *Aggregator) notify(st Statistics) {
	if a.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("statistics observer panicked")
		}
	}()
	a.observer(st)
}
