package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestGetAbsentReturnsNil(t *testing.T) {
	l := openTestLedger(t)

	record, err := l.Get("conv-missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record != nil {
		t.Errorf("Get() = %+v, want nil for unknown conversation", record)
	}
}

func TestPutAndGetRoundTrip(t *testing.T) {
	l := openTestLedger(t)

	want := models.ExportRecord{
		ConversationID: "conv-1",
		Title:          "Planning a trip",
		ExportedAt:     time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
		TurnCount:      7,
		PageID:         "page-1",
		ContainerID:    "block-9",
	}
	if err := l.Put(want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := l.Get("conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want record")
	}
	if *got != want {
		t.Errorf("Get() = %+v, want %+v", *got, want)
	}
}

func TestPutOverwritesExistingRecord(t *testing.T) {
	l := openTestLedger(t)

	first := models.ExportRecord{
		ConversationID: "conv-1",
		Title:          "Planning a trip",
		ExportedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TurnCount:      3,
		PageID:         "page-1",
		ContainerID:    "block-1",
	}
	if err := l.Put(first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	second := first
	second.TurnCount = 9
	second.ExportedAt = time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	if err := l.Put(second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := l.Get("conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.TurnCount != 9 {
		t.Errorf("TurnCount = %d, want 9", got.TurnCount)
	}
	if !got.ExportedAt.Equal(second.ExportedAt) {
		t.Errorf("ExportedAt = %v, want %v", got.ExportedAt, second.ExportedAt)
	}

	records, err := l.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("List() returned %d records, want 1", len(records))
	}
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	l := openTestLedger(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"conv-a", "conv-b", "conv-c"} {
		record := models.ExportRecord{
			ConversationID: id,
			Title:          id,
			ExportedAt:     base.Add(time.Duration(i) * time.Hour),
			TurnCount:      1,
			PageID:         "page-1",
			ContainerID:    "block-1",
		}
		if err := l.Put(record); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	records, err := l.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	wantOrder := []string{"conv-c", "conv-b", "conv-a"}
	if len(records) != len(wantOrder) {
		t.Fatalf("List() returned %d records, want %d", len(records), len(wantOrder))
	}
	for i, want := range wantOrder {
		if records[i].ConversationID != want {
			t.Errorf("records[%d].ConversationID = %s, want %s", i, records[i].ConversationID, want)
		}
	}

	limited, err := l.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d records, want 2", len(limited))
	}
	if limited[0].ConversationID != "conv-c" {
		t.Errorf("limited[0].ConversationID = %s, want conv-c", limited[0].ConversationID)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	record := models.ExportRecord{
		ConversationID: "conv-1",
		Title:          "Persisted",
		ExportedAt:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		TurnCount:      2,
		PageID:         "page-1",
		ContainerID:    "block-1",
	}
	if err := l.Put(record); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() second time error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get("conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Title != "Persisted" {
		t.Errorf("Get() after reopen = %+v, want persisted record", got)
	}
}
