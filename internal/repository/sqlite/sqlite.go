// Package sqlite implements the repository interfaces on an embedded SQLite
// database. modernc.org/sqlite is a pure-Go translation of SQLite, so the
// binary builds without a C toolchain and tests can run against ":memory:".
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements MemoryRepository and
// LoreRepository. The server owns its lifecycle and closes it on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an ephemeral database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time, and a ":memory:" database exists
	// per connection, so the pool must stay at a single connection.
	conn.SetMaxOpenConns(1)

	// Surface a bad path or permissions problem now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress, which a web
	// server needs.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

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

// Close closes the connection pool. Callers defer this right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
//
// The slug column carries the UNIQUE constraint: slug uniqueness is a store
// guarantee, not an application-level pre-check (two concurrent creates with
// the same title race; the store decides the winner).
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id                TEXT PRIMARY KEY,
			title             TEXT NOT NULL,
			slug              TEXT NOT NULL UNIQUE,
			creator_names     TEXT NOT NULL DEFAULT '',
			short_description TEXT NOT NULL DEFAULT '',
			content           TEXT NOT NULL DEFAULT '{"type":"doc"}',
			thumbnail_url     TEXT NOT NULL DEFAULT '',
			media_keys        TEXT NOT NULL DEFAULT '[]',
			spotify_id        TEXT NOT NULL DEFAULT '',
			spotify_kind      TEXT NOT NULL DEFAULT '',
			password_hash     TEXT NOT NULL DEFAULT '',
			memory_date       DATETIME,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating memories table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS lores (
			id          TEXT PRIMARY KEY,
			content     TEXT NOT NULL,
			is_approved INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_lores_approved_created
			ON lores(is_approved, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating lores table: %w", err)
	}

	return nil
}
