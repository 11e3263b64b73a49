package sqlite

import (
	"context"
	"path/filepath"
	"slowpoke/pkg/domain"
	"testing"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.Path() != path || store.DB() == nil {
		t.Fatalf("unexpected store handles")
	}
	if _, err := store.CreateRun(ctx, domain.Run{ID: "run-1", Workflow: "golden_gate", Status: domain.RunPlanned}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if _, err := store.UpdateRun(ctx, "run-1", func(r *domain.Run) error {
		r.Status = domain.RunCompleted
		r.Executed = 12
		return nil
	}); err != nil {
		t.Fatalf("update run: %v", err)
	}
	if err := store.AppendEvent(ctx, domain.RunEvent{RunID: "run-1", Seq: 3, Type: domain.EventCheckpoint, Message: "seal plate"}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	run, ok, err := reopened.GetRun(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("expected persisted run, ok=%v err=%v", ok, err)
	}
	if run.Status != domain.RunCompleted || run.Executed != 12 {
		t.Fatalf("unexpected persisted run %+v", run)
	}
	events, _ := reopened.ListEvents(ctx, "run-1")
	if len(events) != 1 || events[0].Message != "seal plate" {
		t.Fatalf("unexpected persisted events %+v", events)
	}
}

func TestStoreSkipsPersistOnFailure(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.AppendEvent(context.Background(), domain.RunEvent{RunID: "missing"}); err == nil {
		t.Fatalf("expected error for unknown run")
	}
	var n int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no snapshot rows, got %d", n)
	}
}
