package deadletter_test

import (
	"context"
	"path/filepath"
	"testing"

	"logship/internal/backend"
	"logship/internal/deadletter"
)

func openStore(t *testing.T) *deadletter.Store {
	t.Helper()
	store, err := deadletter.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndReadBack(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	docs := []backend.Document{
		{Index: "ml_api_operation", Source: map[string]any{"message": "first"}},
		{Index: "ml_api_operation", Source: map[string]any{"message": "second"}},
	}
	if err := store.Record(ctx, "operation", docs, "retry budget exhausted"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("Count = %d, want 2", count)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Document["message"] != "second" {
		t.Fatalf("newest entry = %v", entries[0].Document)
	}
	if entries[0].Category != "operation" || entries[0].TargetIndex != "ml_api_operation" {
		t.Fatalf("entry identity = %+v", entries[0])
	}
	if entries[0].Reason != "retry budget exhausted" {
		t.Fatalf("reason = %q", entries[0].Reason)
	}
	if entries[0].DiscardedAt.IsZero() {
		t.Fatal("discarded_at not recorded")
	}
}

func TestRecordEmptyBatchIsNoop(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, "operation", nil, "nothing"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("Count = %d, want 0", count)
	}
}

func TestRecentLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	var docs []backend.Document
	for i := 0; i < 5; i++ {
		docs = append(docs, backend.Document{Index: "i", Source: map[string]any{"n": i}})
	}
	if err := store.Record(ctx, "result", docs, "test"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	entries, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(entries))
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *deadletter.Store
	ctx := context.Background()

	if err := store.Record(ctx, "operation", []backend.Document{{Index: "i"}}, "r"); err != nil {
		t.Fatalf("nil Record returned error: %v", err)
	}
	if count, err := store.Count(ctx); err != nil || count != 0 {
		t.Fatalf("nil Count = (%d, %v)", count, err)
	}
	if entries, err := store.Recent(ctx, 1); err != nil || entries != nil {
		t.Fatalf("nil Recent = (%v, %v)", entries, err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("nil Close returned error: %v", err)
	}
}

func TestOpenReusesExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	first, err := deadletter.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := first.Record(ctx, "metadata", []backend.Document{{Index: "i", Source: map[string]any{"k": "v"}}}, "r"); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	second, err := deadletter.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer second.Close()

	count, err := second.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("Count after reopen = %d, want 1", count)
	}
}
