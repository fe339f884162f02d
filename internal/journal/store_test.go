package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) (*Store, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "journal.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath() error = %v", err)
	}

	cleanup := func() {
		store.Close()
	}
	return store, cleanup
}

func TestNewStoreWithPath(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()

	if store == nil {
		t.Error("NewStoreWithPath() returned nil")
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{ID: "a", Provider: "flux", PromptChars: 10, Status: StatusOK, ImageBytes: 1000, Duration: 2 * time.Second, CreatedAt: base},
		{ID: "b", Provider: "flux", PromptChars: 4, Status: StatusError, ErrorKind: "upstream", Duration: time.Second, CreatedAt: base.Add(time.Minute)},
		{ID: "c", Provider: "gemini", Model: "gemini-2.5-flash-image", Status: StatusOK, ImageBytes: 500, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s) error = %v", e.ID, err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("Recent() order = [%s %s], want [c b]", got[0].ID, got[1].ID)
	}
	if got[0].Model != "gemini-2.5-flash-image" {
		t.Errorf("Model = %q", got[0].Model)
	}
	if got[1].ErrorKind != "upstream" {
		t.Errorf("ErrorKind = %q, want upstream", got[1].ErrorKind)
	}
	if got[1].Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", got[1].Duration)
	}
}

func TestStore_RecordDuplicateID(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	e := &Entry{ID: "dup", Provider: "flux", Status: StatusOK}
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Record(ctx, e); err == nil {
		t.Error("Record() with duplicate id should fail")
	}
}

func TestStore_Summary(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	empty, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if empty.Total != 0 || empty.AvgDuration != 0 {
		t.Errorf("Summary() on empty store = %+v", empty)
	}

	for _, e := range []*Entry{
		{ID: "1", Provider: "flux", Status: StatusOK, ImageBytes: 300, Duration: 100 * time.Millisecond},
		{ID: "2", Provider: "flux", Status: StatusOK, ImageBytes: 700, Duration: 300 * time.Millisecond},
		{ID: "3", Provider: "flux", Status: StatusError, ErrorKind: "transport"},
	} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("Summary() counts = %+v", summary)
	}
	if summary.ImageBytes != 1000 {
		t.Errorf("ImageBytes = %d, want 1000", summary.ImageBytes)
	}
	if summary.AvgDuration <= 0 {
		t.Errorf("AvgDuration = %v, want > 0", summary.AvgDuration)
	}
}

func TestStore_CountByKindAndProvider(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, e := range []*Entry{
		{ID: "1", Provider: "flux", Status: StatusError, ErrorKind: "upstream"},
		{ID: "2", Provider: "flux", Status: StatusError, ErrorKind: "upstream"},
		{ID: "3", Provider: "gemini", Status: StatusError, ErrorKind: "transport"},
		{ID: "4", Provider: "gemini", Status: StatusOK, ImageBytes: 10},
	} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	kinds, err := store.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("CountByKind() returned %d rows, want 2", len(kinds))
	}
	if kinds[0].Kind != "transport" || kinds[0].Count != 1 {
		t.Errorf("kinds[0] = %+v", kinds[0])
	}
	if kinds[1].Kind != "upstream" || kinds[1].Count != 2 {
		t.Errorf("kinds[1] = %+v", kinds[1])
	}

	providers, err := store.ByProvider(ctx)
	if err != nil {
		t.Fatalf("ByProvider() error = %v", err)
	}
	if len(providers) != 2 || providers[0].Provider != "flux" || providers[1].ImageBytes != 10 {
		t.Errorf("ByProvider() = %+v", providers)
	}
}
