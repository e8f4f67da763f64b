// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C
// compiler installed and cross-compilation becomes painful. modernc.org/sqlite
// is a pure Go translation of the SQLite C code — no C compiler needed, works
// everywhere Go works.
//
// All three tables live in one file. The snippets table never stores an
// upvote count — every read derives it from snippet_votes, so the count can't
// drift from the ledger. The UNIQUE(snippet_id, user_id) constraint on
// snippet_votes is load-bearing: it is the actual at-most-one-vote guarantee
// that backs the vote toggle (see vote.go).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import. The sqlite
	// package's init() registers itself with database/sql as a driver named
	// "sqlite"; after this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"

	"github.com/sakif/snippetshare/internal/apperror"
)

// queryTimeout bounds every store round-trip. A hung database surfaces as a
// Timeout error the caller can retry with backoff, instead of a request that
// hangs indefinitely.
const queryTimeout = 5 * time.Second

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/snippetshare.db" → file-based database (persistent)
//   - ":memory:"             → in-memory database (great for tests)
//
// sql.Open() does NOT actually open a connection — it just creates a pool
// manager. We call Ping() to force an immediate connection and verify it
// works, so a bad path surfaces here instead of on the first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection, always. SQLite allows a single writer at a time, and
	// PRAGMAs apply per-connection — with a pool, a query could land on a
	// connection that never saw them. A ":memory:" database is even stricter:
	// every new connection would get its own empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening — default
	// SQLite locks the entire database during writes, which is a problem for
	// a web server with simultaneous users.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We rely on them for votes → snippets and snippets → users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this wherever New
// is called — it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent, so
// this is safe to run on every startup.
func (db *DB) migrate() error {
	// users: one row per authenticated identity. user_id is the opaque ID
	// issued at sign-up (or minted for anonymous sessions) and is immutable.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id       TEXT PRIMARY KEY,
			author        TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			provider      TEXT NOT NULL DEFAULT 'password',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// snippets: tags are stored as a JSON array in a TEXT column and queried
	// with json_each (see feed.go). No upvotes column on purpose.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippets (
			snippet_id  TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(user_id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			code        TEXT NOT NULL,
			tags        TEXT NOT NULL DEFAULT '[]',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_id ON snippets(user_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating snippets table: %w", err)
	}

	// snippet_votes: the UNIQUE(snippet_id, user_id) constraint is the
	// at-most-one-vote backstop. Two concurrent toggles can both observe "no
	// vote" and both try to insert; the second insert fails here rather than
	// producing a duplicate row.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS snippet_votes (
			vote_id    TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(snippet_id),
			user_id    TEXT NOT NULL REFERENCES users(user_id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(snippet_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_votes_snippet ON snippet_votes(snippet_id);
	`)
	if err != nil {
		return fmt.Errorf("creating snippet_votes table: %w", err)
	}

	return nil
}

// opContext derives a bounded context for one store round-trip.
func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// storeErr wraps a driver error, translating deadline expiry into the
// Timeout class so callers can distinguish "retry later" from everything
// else. Other driver failures keep their detail via %w.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Timeout("sqlite: " + op)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}
