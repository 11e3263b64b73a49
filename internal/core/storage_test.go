package core

import (
	"context"
	"path/filepath"
	"slowpoke/internal/infra/persistence/memory"
	"slowpoke/internal/infra/persistence/sqlite"
	"slowpoke/pkg/domain"
	"testing"
)

func TestOpenJournal_DefaultMemory(t *testing.T) {
	store, err := OpenJournal(context.Background(), JournalOptions{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenJournal_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := OpenJournal(context.Background(), JournalOptions{Driver: StorageSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = store.Close() }()
	sq, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	if sq.Path() != path {
		t.Fatalf("expected path %s, got %s", path, sq.Path())
	}
	if _, err := store.CreateRun(context.Background(), domain.Run{ID: "r1", Status: domain.RunPlanned}); err != nil {
		t.Fatalf("create run: %v", err)
	}
}

func TestOpenJournal_UnknownDriver(t *testing.T) {
	if _, err := OpenJournal(context.Background(), JournalOptions{Driver: "gibberish"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
