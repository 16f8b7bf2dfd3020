package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// blockingRunner holds each run open until release is closed.
type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
	panic   any
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context, trigger types.Trigger) (*types.RunResult, error) {
	n := r.calls.Add(1)
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.panic != nil {
		panic(r.panic)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &types.RunResult{RunID: "run-" + string(rune('0'+n)), Trigger: trigger, Records: 5}, nil
}

func manualOnly() config.ScheduleConfig {
	return config.ScheduleConfig{Enabled: false}
}

func TestTriggerRunsPipeline(t *testing.T) {
	r := newBlockingRunner()
	close(r.release)
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	res, shared, err := s.Trigger(context.Background(), types.TriggerManual)
	require.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, StateIdle, s.State())

	st := s.Status()
	assert.Equal(t, "idle", st.State)
	assert.EqualValues(t, 1, st.Runs)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 5, st.LastResult.Records)
	assert.NotNil(t, st.LastFinished)
}

func TestConcurrentTriggersCoalesce(t *testing.T) {
	r := newBlockingRunner()
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	type outcome struct {
		res    *types.RunResult
		shared bool
		err    error
	}
	const callers = 5
	results := make(chan outcome, callers)

	go func() {
		res, shared, err := s.Trigger(context.Background(), types.TriggerManual)
		results <- outcome{res, shared, err}
	}()
	<-r.started
	assert.Equal(t, StateRunning, s.State())

	var wg sync.WaitGroup
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, shared, err := s.Trigger(context.Background(), types.TriggerManual)
			results <- outcome{res, shared, err}
		}()
	}
	// Give the joiners time to attach to the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(r.release)
	wg.Wait()

	sharedCount := 0
	for i := 0; i < callers; i++ {
		o := <-results
		require.NoError(t, o.err)
		assert.Equal(t, "run-1", o.res.RunID)
		if o.shared {
			sharedCount++
		}
	}
	assert.EqualValues(t, 1, r.calls.Load(), "only one pipeline run executes")
	assert.Equal(t, callers-1, sharedCount)
	assert.EqualValues(t, callers-1, s.Status().Coalesced)
	assert.Equal(t, StateIdle, s.State())
}

func TestTriggerAfterRunStartsNewRun(t *testing.T) {
	r := newBlockingRunner()
	close(r.release)
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	first, _, err := s.Trigger(context.Background(), types.TriggerManual)
	require.NoError(t, err)
	second, _, err := s.Trigger(context.Background(), types.TriggerManual)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestPanicReturnsToIdle(t *testing.T) {
	r := newBlockingRunner()
	r.panic = "nil map write"
	close(r.release)
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	_, _, err := s.Trigger(context.Background(), types.TriggerManual)
	assert.ErrorIs(t, err, types.ErrRunPanicked)
	assert.Equal(t, StateIdle, s.State())

	st := s.Status()
	assert.EqualValues(t, 1, st.Failures)
	assert.Contains(t, st.LastError, "nil map write")

	// The gate is usable again.
	r.panic = nil
	_, _, err = s.Trigger(context.Background(), types.TriggerManual)
	assert.NoError(t, err)
}

func TestFailedRunKeepsLastResult(t *testing.T) {
	r := newBlockingRunner()
	close(r.release)
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	_, _, err := s.Trigger(context.Background(), types.TriggerManual)
	require.NoError(t, err)

	r.err = errors.New("landing page unreachable")
	_, _, err = s.Trigger(context.Background(), types.TriggerManual)
	require.Error(t, err)

	st := s.Status()
	require.NotNil(t, st.LastResult)
	assert.Equal(t, "run-1", st.LastResult.RunID)
	assert.Equal(t, "landing page unreachable", st.LastError)
}

func TestCallerCancellationDoesNotCancelRun(t *testing.T) {
	r := newBlockingRunner()
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := s.Trigger(ctx, types.TriggerManual)
		errCh <- err
	}()
	<-r.started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, StateRunning, s.State(), "run continues after the caller gives up")

	close(r.release)
	require.Eventually(t, func() bool { return s.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 0, s.Status().Failures)
}

func TestIntervalScheduling(t *testing.T) {
	r := newBlockingRunner()
	close(r.release)
	s := NewScheduler(r, config.ScheduleConfig{Enabled: true, Interval: time.Second}, testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	st := s.Status()
	assert.True(t, st.Scheduled)
	assert.Equal(t, "1s", st.Interval)

	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.Status().NextRun != nil }, time.Second, 10*time.Millisecond)
}

func TestRunOnStart(t *testing.T) {
	r := newBlockingRunner()
	close(r.release)
	s := NewScheduler(r, config.ScheduleConfig{RunOnStart: true}, testLogger)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return s.Status().Runs == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, types.TriggerStartup, s.Status().LastResult.Trigger)
}

func TestStopCancelsActiveRun(t *testing.T) {
	r := newBlockingRunner()
	s := NewScheduler(r, manualOnly(), testLogger)
	require.NoError(t, s.Start())

	errCh := make(chan error, 1)
	go func() {
		_, _, err := s.Trigger(context.Background(), types.TriggerManual)
		errCh <- err
	}()
	<-r.started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.ErrorIs(t, <-errCh, context.Canceled)

	_, _, err := s.Trigger(context.Background(), types.TriggerManual)
	assert.ErrorIs(t, err, types.ErrSchedulerClosed)
	assert.ErrorIs(t, s.Start(), types.ErrSchedulerClosed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "unknown", State(9).String())
}
