package progress

import (
	"testing"
	"time"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

func TestBeginRejectsConcurrentRun(t *testing.T) {
	tracker := NewTracker()

	if err := tracker.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := tracker.Begin(); err == nil {
		t.Error("second Begin() = nil, want error while a run is in flight")
	}

	tracker.Done()
	if err := tracker.Begin(); err != nil {
		t.Errorf("Begin() after Done() error = %v", err)
	}
}

func TestSetUpdatesSnapshot(t *testing.T) {
	tracker := NewTracker()
	if err := tracker.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	snap, ok := tracker.Snapshot()
	if !ok {
		t.Fatal("Snapshot() after Begin() reported no progress")
	}
	if snap.Status != models.StatusStarting {
		t.Errorf("Status = %s, want %s", snap.Status, models.StatusStarting)
	}

	tracker.Set(models.StatusSummarizing, 3, 10, "summarizing turn 3")
	snap, ok = tracker.Snapshot()
	if !ok {
		t.Fatal("Snapshot() after Set() reported no progress")
	}
	if snap.Status != models.StatusSummarizing || snap.Current != 3 || snap.Total != 10 {
		t.Errorf("Snapshot() = %+v, want summarizing 3/10", snap)
	}
	if snap.Message != "summarizing turn 3" {
		t.Errorf("Message = %q, want %q", snap.Message, "summarizing turn 3")
	}
}

func TestDoneClearsSnapshot(t *testing.T) {
	tracker := NewTracker()
	if err := tracker.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	tracker.Set(models.StatusCreating, 5, 5, "writing blocks")
	tracker.Done()

	if _, ok := tracker.Snapshot(); ok {
		t.Error("Snapshot() after Done() = ok, want no progress")
	}
}

func TestFailRetainsErrorSnapshot(t *testing.T) {
	tracker := NewTracker()
	if err := tracker.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	tracker.Set(models.StatusSummarizing, 4, 10, "summarizing turn 4")
	tracker.Fail("destination rejected the skeleton")

	snap, ok := tracker.Snapshot()
	if !ok {
		t.Fatal("Snapshot() after Fail() reported no progress, want retained error")
	}
	if snap.Status != models.StatusError {
		t.Errorf("Status = %s, want %s", snap.Status, models.StatusError)
	}
	if snap.Current != 4 || snap.Total != 10 {
		t.Errorf("Current/Total = %d/%d, want 4/10 preserved from the failed run", snap.Current, snap.Total)
	}
	if snap.Message != "destination rejected the skeleton" {
		t.Errorf("Message = %q, want failure reason", snap.Message)
	}

	// The flag is released, and the next Begin replaces the error snapshot.
	if err := tracker.Begin(); err != nil {
		t.Fatalf("Begin() after Fail() error = %v", err)
	}
	snap, _ = tracker.Snapshot()
	if snap.Status != models.StatusStarting {
		t.Errorf("Status after new Begin() = %s, want %s", snap.Status, models.StatusStarting)
	}
}

func TestSnapshotKeepsUpdatedAt(t *testing.T) {
	tracker := NewTracker()
	stamp := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return stamp }

	if err := tracker.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	snap, _ := tracker.Snapshot()
	if !snap.UpdatedAt.Equal(stamp) {
		t.Errorf("UpdatedAt = %v, want %v", snap.UpdatedAt, stamp)
	}
}
