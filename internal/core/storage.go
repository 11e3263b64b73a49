package core

import (
	"context"
	"fmt"
	"slowpoke/internal/infra/persistence/memory"
	"slowpoke/internal/infra/persistence/postgres"
	"slowpoke/internal/infra/persistence/sqlite"
	"slowpoke/pkg/domain"
)

// StorageDriver identifies a concrete run journal implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / dry runs)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// JournalOptions locate the journal backend.
type JournalOptions struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenJournal selects a journal backend. An empty driver means memory.
func OpenJournal(ctx context.Context, opts JournalOptions) (domain.JournalStore, error) {
	switch opts.Driver {
	case "", StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(opts.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", opts.Driver)
	}
}
