package syncer

import (
	"errors"
	"sync"
	"time"
)

// ErrNoBrandFoundation is returned when a sync is attempted on a project
// that has not been initialized yet.
var ErrNoBrandFoundation = errors.New("project has no brand foundation")

// Status is the auto-save indicator state.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// StatusTracker holds the current auto-save status and notifies an optional
// observer on every transition. After a failure the status shows error for
// idleDelay before falling back to idle, unless another transition happens
// first.
type StatusTracker struct {
	mu        sync.Mutex
	status    Status
	idleDelay time.Duration
	pending   *time.Timer
	onChange  func(Status)
}

func NewStatusTracker(idleDelay time.Duration) *StatusTracker {
	return &StatusTracker{status: StatusIdle, idleDelay: idleDelay}
}

// OnChange registers a transition observer. The callback runs with the
// tracker's lock released.
func (t *StatusTracker) OnChange(fn func(Status)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Current returns the status as of now.
func (t *StatusTracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Set moves to the given status and cancels any pending fall-back to idle.
func (t *StatusTracker) Set(status Status) {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.status = status
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(status)
	}
}

// Fail moves to error and schedules the fall-back to idle. If a new sync
// starts before the delay elapses the fall-back is cancelled by Set.
func (t *StatusTracker) Fail() {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
	}
	t.status = StatusError
	fn := t.onChange
	t.pending = time.AfterFunc(t.idleDelay, t.fallIdle)
	t.mu.Unlock()
	if fn != nil {
		fn(StatusError)
	}
}

func (t *StatusTracker) fallIdle() {
	t.mu.Lock()
	if t.status != StatusError {
		t.mu.Unlock()
		return
	}
	t.status = StatusIdle
	t.pending = nil
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(StatusIdle)
	}
}
