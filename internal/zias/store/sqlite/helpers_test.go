package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/zias-project/zias/server/internal/db"
)

// newTestConn opens a throwaway in-memory database carrying the full
// production schema and PRAGMA set, so claim and append semantics run
// against the real tables. Cleaned up when the test ends.
func newTestConn(t *testing.T) *sql.DB {
	t.Helper()

	// mode=memory with a shared cache keeps the database around even if
	// the pool recycles its underlying connection; keying the name on
	// the test keeps databases isolated from each other.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// One connection, same as the production pool.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		t.Fatalf("ping test db: %v", err)
	}
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

// newTestWorker wraps conn in the single-writer queue every store write
// goes through. Cleaned up when the test ends.
func newTestWorker(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}
