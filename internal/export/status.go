package export

import (
	"errors"
	"sync"
	"time"
)

// ErrExportInProgress is returned when an export starts while another runs.
var ErrExportInProgress = errors.New("an export is already running")

// Status is the externally visible export state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// State is a point-in-time copy of a Tracker.
type State struct {
	Status     Status     `json:"status"`
	Format     Format     `json:"format,omitempty"`
	Error      string     `json:"error,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Tracker serializes exports and remembers how the last one ended. The zero
// value is idle and ready to use.
type Tracker struct {
	mu    sync.Mutex
	state State
	now   func() time.Time
}

// Begin moves the tracker to running. It fails with ErrExportInProgress if
// an export is already running.
func (t *Tracker) Begin(f Format) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Status == StatusRunning {
		return ErrExportInProgress
	}
	t.state = State{Status: StatusRunning, Format: f}
	return nil
}

// Finish ends the running export. A nil err returns the tracker to idle;
// otherwise it is failed and keeps the message.
func (t *Tracker) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now
	if t.now != nil {
		now = t.now
	}
	finished := now()
	t.state.FinishedAt = &finished
	if err != nil {
		t.state.Status = StatusFailed
		t.state.Error = err.Error()
		return
	}
	t.state.Status = StatusIdle
	t.state.Error = ""
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state
	if s.Status == "" {
		s.Status = StatusIdle
	}
	return s
}
