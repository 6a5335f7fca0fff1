// Package index provides the SQLite-backed secondary index over managed
// documents and the synchronization protocols that keep it consistent with
// the document store.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT    NOT NULL,
	file_id       INTEGER NOT NULL UNIQUE,
	title         TEXT    NOT NULL DEFAULT '',
	path          TEXT    NOT NULL DEFAULT '',
	type          TEXT    NOT NULL DEFAULT 'note',
	status        TEXT    NOT NULL DEFAULT '',
	due           TEXT    NOT NULL DEFAULT '',
	priority      INTEGER NOT NULL DEFAULT 0,
	tags          TEXT    NOT NULL DEFAULT '[]',
	remind        TEXT    NOT NULL DEFAULT '',
	reminded      INTEGER NOT NULL DEFAULT 0,
	person        TEXT    NOT NULL DEFAULT '',
	start         TEXT    NOT NULL DEFAULT '',
	template      INTEGER NOT NULL DEFAULT 0,
	template_name TEXT    NOT NULL DEFAULT '',
	shared        INTEGER NOT NULL DEFAULT 0,
	modified      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);
CREATE INDEX IF NOT EXISTS idx_notes_user_type ON notes(user_id, type);
CREATE INDEX IF NOT EXISTS idx_notes_user_template ON notes(user_id, template);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
