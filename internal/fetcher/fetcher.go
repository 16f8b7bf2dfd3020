package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/napwatch/internal/types"
)

// Element is a single node found on the current page.
type Element interface {
	// Text returns the rendered text of the element, trimmed.
	Text() (string, error)

	// Attr returns an attribute value and whether it was present.
	Attr(name string) (string, bool, error)
}

// Session is one scoped page-engine handle. A Session is used by a single run
// and is not safe for concurrent use.
type Session interface {
	// Navigate loads url and blocks until the load event. Callers apply their
	// own fixed settle delay afterwards with Settle.
	Navigate(ctx context.Context, url string) error

	// Elements returns every element matching sel on the current page without
	// waiting for it to appear. No match yields an empty slice, not an error.
	Elements(ctx context.Context, sel types.Selector) ([]Element, error)

	// URL returns the address of the current page.
	URL() string

	// Close releases the underlying engine resources.
	Close() error
}

// Launcher starts new sessions.
type Launcher interface {
	// Launch starts a session. Launch failures are not retried.
	Launch(ctx context.Context) (Session, error)

	// Type returns the engine identifier.
	Type() string
}

// WithSession launches a session, runs fn with it and always closes it,
// including when fn returns an error or panics. A close error is joined with
// fn's error.
func WithSession(ctx context.Context, l Launcher, logger *slog.Logger, fn func(Session) error) (err error) {
	logger = logger.With("component", "session_manager", "engine", l.Type())

	sess, err := l.Launch(ctx)
	if err != nil {
		var sessErr *types.SessionError
		if errors.As(err, &sessErr) {
			return err
		}
		return &types.SessionError{Engine: l.Type(), Err: err}
	}
	logger.Debug("session acquired")

	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("session release failed", "error", cerr)
			err = errors.Join(err, fmt.Errorf("release session: %w", cerr))
			return
		}
		logger.Debug("session released")
	}()

	return fn(sess)
}

// Settle waits a fixed delay for late scripts to render, or until ctx is done.
func Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
