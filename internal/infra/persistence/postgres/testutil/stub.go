// Package testutil provides a database/sql driver that stands in for the
// Postgres journal table in store tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
)

var registered atomic.Int64

// StateConn fakes the journal's state table: one JSON payload per bucket.
// Only the DDL, the bucket upsert and the full-table select are understood.
type StateConn struct {
	Execs   []string
	Buckets map[string][]byte

	FailPing   bool
	FailUpsert bool
	FailCommit bool
	RowsErr    error

	pending map[string][]byte
}

// NewStateDB registers a sql.DB whose only connection is a fresh StateConn.
func NewStateDB() (*sql.DB, *StateConn) {
	conn := &StateConn{Buckets: make(map[string][]byte)}
	name := fmt.Sprintf("slowpoke-state-%d", registered.Add(1))
	sql.Register(name, stateDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stateDriver struct{ conn *StateConn }

func (d stateDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *StateConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported: %s", query)
}

func (c *StateConn) Close() error { return nil }

func (c *StateConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StateConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.pending = make(map[string][]byte)
	return stateTx{conn: c}, nil
}

func (c *StateConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("connection refused")
	}
	return nil
}

func (c *StateConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	q := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(q, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(q, "INSERT INTO STATE"):
		if c.FailUpsert {
			return nil, fmt.Errorf("upsert rejected")
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("upsert wants bucket and payload, got %d args", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket must be text, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload must be bytes, got %T", args[1].Value)
		}
		payload = append([]byte(nil), payload...)
		if c.pending != nil {
			c.pending[bucket] = payload
		} else {
			c.Buckets[bucket] = payload
		}
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("unexpected statement: %s", query)
}

func (c *StateConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT BUCKET, PAYLOAD FROM STATE") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	names := make([]string, 0, len(c.Buckets))
	for name := range c.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]driver.Value, len(names))
	for i, name := range names {
		rows[i] = []driver.Value{name, c.Buckets[name]}
	}
	return &stateRows{rows: rows, err: c.RowsErr}, nil
}

type stateTx struct{ conn *StateConn }

// Commit applies the upserts staged since BeginTx.
func (t stateTx) Commit() error {
	pending := t.conn.pending
	t.conn.pending = nil
	if t.conn.FailCommit {
		return fmt.Errorf("commit aborted")
	}
	for bucket, payload := range pending {
		t.conn.Buckets[bucket] = payload
	}
	return nil
}

func (t stateTx) Rollback() error {
	t.conn.pending = nil
	return nil
}

type stateRows struct {
	rows [][]driver.Value
	idx  int
	err  error
}

func (*stateRows) Columns() []string { return []string{"bucket", "payload"} }
func (*stateRows) Close() error      { return nil }

func (r *stateRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
