package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrNoPage          = errors.New("no page loaded")
	ErrRunPanicked     = errors.New("run panicked")
	ErrSchedulerClosed = errors.New("scheduler has been stopped")
	ErrEmptyRunID      = errors.New("snapshot has no run id")
	ErrBodyTooLarge    = errors.New("response body exceeds size limit")
)

// SessionError wraps failures to launch or connect the browser.
type SessionError struct {
	Engine string
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session error (%s): %v", e.Engine, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// FetchError wraps errors that occur while loading a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError wraps non-recoverable errors during element lookup.
type ExtractError struct {
	URL      string
	Field    string
	Selector Selector
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for %s (field=%s selector=%q): %v", e.URL, e.Field, e.Selector.Expr, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// TagError wraps recognizer failures.
type TagError struct {
	Recognizer string
	Err        error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tag error (%s): %v", e.Recognizer, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur in a storage backend.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RunError wraps the failure that aborted a run.
type RunError struct {
	RunID string
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s failed at stage %q: %v", e.RunID, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
