// Package progress tracks the state of the single in-flight export run.
// Snapshots are polled by outside observers; only the run itself writes.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

// Tracker is a process-wide single-run progress store. At most one export
// may be in flight; Begin enforces that precondition.
type Tracker struct {
	mu       sync.Mutex
	active   bool
	snapshot *models.Progress
	now      func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Begin marks a run as in flight. A second concurrent Begin is rejected.
// Any retained error snapshot from a previous run is cleared.
func (t *Tracker) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return fmt.Errorf("an export is already in progress")
	}
	t.active = true
	t.snapshot = &models.Progress{Status: models.StatusStarting, UpdatedAt: t.now()}
	return nil
}

// Set updates the snapshot after a unit of work.
func (t *Tracker) Set(status models.Status, current, total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshot = &models.Progress{
		Status:    status,
		Current:   current,
		Total:     total,
		Message:   message,
		UpdatedAt: t.now(),
	}
}

// Done clears the snapshot after a successful run.
func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.snapshot = nil
}

// Fail retains an error snapshot so a late observer can see the failure
// reason, and releases the in-flight flag.
func (t *Tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	var current, total int
	if t.snapshot != nil {
		current, total = t.snapshot.Current, t.snapshot.Total
	}
	t.snapshot = &models.Progress{
		Status:    models.StatusError,
		Current:   current,
		Total:     total,
		Message:   message,
		UpdatedAt: t.now(),
	}
}

// Snapshot returns the current progress, if any. A snapshot left behind by
// a torn-down process keeps its last UpdatedAt; staleness interpretation is
// the observer's job.
func (t *Tracker) Snapshot() (models.Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot == nil {
		return models.Progress{}, false
	}
	return *t.snapshot, true
}
