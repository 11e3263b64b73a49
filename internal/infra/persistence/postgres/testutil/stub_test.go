package testutil

import (
	"context"
	"testing"
)

func TestStateDBUpsertsPerBucket(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	upsert := `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`
	for _, payload := range []string{`[1]`, `[2]`} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := tx.ExecContext(ctx, upsert, "runs", []byte(payload)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	if len(conn.Buckets) != 1 || string(conn.Buckets["runs"]) != `[2]` {
		t.Fatalf("expected the second payload to replace the first, got %q", conn.Buckets)
	}

	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		t.Fatalf("expected one row: %v", rows.Err())
	}
	var bucket string
	var payload []byte
	if err := rows.Scan(&bucket, &payload); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if bucket != "runs" || string(payload) != `[2]` {
		t.Fatalf("unexpected row %s=%s", bucket, payload)
	}
}

func TestStateDBDropsFailedCommits(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	conn.FailCommit = true

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2)`, "events", []byte(`[]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatalf("expected commit failure")
	}
	if len(conn.Buckets) != 0 {
		t.Fatalf("failed commit must not persist, got %q", conn.Buckets)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM state`); err == nil {
		t.Fatalf("expected statements the journal never issues to be rejected")
	}
}
