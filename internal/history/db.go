// Package history keeps a local log of the user changes the session store
// observed. It is never used to restore a session.
package history

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite history database.
type DB struct {
	db *sql.DB
}

// Open creates or opens the history database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session_history (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			event TEXT,
			user_id TEXT,
			email TEXT,
			at_unix_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_history_at ON session_history(at_unix_ms)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
