// Package engine schedules harvest runs and guarantees at most one runs at a time.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/IshaanNene/napwatch/internal/types"
)

// State represents the scheduler's run state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Runner executes one harvest.
type Runner interface {
	Run(ctx context.Context, trigger types.Trigger) (*types.RunResult, error)
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State        string           `json:"state"`
	Scheduled    bool             `json:"scheduled"`
	Interval     string           `json:"interval,omitempty"`
	NextRun      *time.Time       `json:"next_run,omitempty"`
	LastResult   *types.RunResult `json:"last_result,omitempty"`
	LastError    string           `json:"last_error,omitempty"`
	LastFinished *time.Time       `json:"last_finished,omitempty"`
	Runs         int64            `json:"runs"`
	Failures     int64            `json:"failures"`
	Coalesced    int64            `json:"coalesced"`
}

// cronLogger routes robfig/cron logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
