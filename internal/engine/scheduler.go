package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/observability"
	"github.com/IshaanNene/napwatch/internal/types"
)

// runKey is the singleflight key shared by every trigger.
const runKey = "harvest"

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMetrics records coalesced triggers.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Scheduler fires runs on a fixed interval and on demand. Overlapping
// triggers coalesce: a trigger arriving during a run waits for that run and
// shares its result instead of starting another.
type Scheduler struct {
	runner     Runner
	enabled    bool
	interval   time.Duration
	runOnStart bool

	cron    *cron.Cron
	entryID cron.EntryID
	group   singleflight.Group
	state   atomic.Int32

	// ctx bounds every run; callers only bound their wait.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	started  bool
	inflight sync.WaitGroup

	statusMu     sync.RWMutex
	lastResult   *types.RunResult
	lastErr      error
	lastFinished time.Time
	runs         int64
	failures     int64
	coalesced    int64

	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewScheduler creates a scheduler for runner. It does nothing until Start.
func NewScheduler(runner Runner, cfg config.ScheduleConfig, logger *slog.Logger, opts ...Option) *Scheduler {
	logger = logger.With("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		runner:     runner,
		enabled:    cfg.Enabled,
		interval:   cfg.Interval,
		runOnStart: cfg.RunOnStart,
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins interval scheduling and, if configured, fires a startup run.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSchedulerClosed
	}
	if s.started {
		return nil
	}
	s.started = true

	if s.enabled {
		s.entryID = s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.tick))
		s.cron.Start()
		s.logger.Info("scheduler started", "interval", s.interval)
	} else {
		s.logger.Info("interval scheduling disabled, manual triggers only")
	}

	if s.runOnStart {
		go func() {
			if _, _, err := s.Trigger(s.ctx, types.TriggerStartup); err != nil {
				s.logger.Error("startup run failed", "error", err)
			}
		}()
	}
	return nil
}

func (s *Scheduler) tick() {
	_, shared, err := s.Trigger(s.ctx, types.TriggerSchedule)
	switch {
	case shared:
		s.logger.Info("scheduled tick joined a run already in progress")
	case err != nil:
		s.logger.Error("scheduled run failed", "error", err)
	}
}

// Trigger starts a run, or joins the one in progress. shared reports whether
// the result came from a run started by another trigger. If ctx ends first
// Trigger returns ctx.Err() and the run carries on.
func (s *Scheduler) Trigger(ctx context.Context, trigger types.Trigger) (result *types.RunResult, shared bool, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false, types.ErrSchedulerClosed
	}
	s.mu.Unlock()

	var leader atomic.Bool
	ch := s.group.DoChan(runKey, func() (any, error) {
		leader.Store(true)
		return s.execute(trigger)
	})

	select {
	case res := <-ch:
		shared = !leader.Load()
		if shared {
			s.noteCoalesced(trigger)
		}
		if res.Err != nil {
			return nil, shared, res.Err
		}
		return res.Val.(*types.RunResult), shared, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// execute runs the pipeline on the scheduler's own context and converts a
// panic into ErrRunPanicked.
func (s *Scheduler) execute(trigger types.Trigger) (result *types.RunResult, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, types.ErrSchedulerClosed
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	s.state.Store(int32(StateRunning))
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("run panicked", "trigger", trigger, "panic", r, "stack", string(debug.Stack()))
			result = nil
			err = fmt.Errorf("%w: %v", types.ErrRunPanicked, r)
		}
		s.state.Store(int32(StateIdle))
		s.recordRun(result, err)
	}()

	return s.runner.Run(s.ctx, trigger)
}

func (s *Scheduler) recordRun(result *types.RunResult, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.runs++
	s.lastFinished = time.Now().UTC()
	s.lastErr = err
	if err != nil {
		s.failures++
		return
	}
	s.lastResult = result
}

func (s *Scheduler) noteCoalesced(trigger types.Trigger) {
	s.statusMu.Lock()
	s.coalesced++
	s.statusMu.Unlock()
	s.metrics.TriggerCoalesced()
	s.logger.Debug("trigger coalesced", "trigger", trigger)
}

// State returns whether a run is active.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Status returns the scheduler's current status.
func (s *Scheduler) Status() Status {
	st := Status{
		State:     s.State().String(),
		Scheduled: s.enabled,
	}
	if s.enabled {
		st.Interval = s.interval.String()
		s.mu.Lock()
		entryID := s.entryID
		s.mu.Unlock()
		if entryID != 0 {
			if next := s.cron.Entry(entryID).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
	}

	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st.LastResult = s.lastResult
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if !s.lastFinished.IsZero() {
		finished := s.lastFinished
		st.LastFinished = &finished
	}
	st.Runs = s.runs
	st.Failures = s.failures
	st.Coalesced = s.coalesced
	return st
}

// Stop halts scheduling, cancels the active run and waits for it to return
// or for ctx to end. This is the only path that cancels a run; triggers
// and callers giving up never do. A run cancelled here fails with the
// context error and the previous snapshot stays current.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if started && s.enabled {
		s.cron.Stop()
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("scheduler stop timed out waiting for active run"), ctx.Err())
	}
}
