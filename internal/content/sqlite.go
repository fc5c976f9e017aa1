package content

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	scope      TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '{}',
	checksum   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_collection ON items(kind, scope, position);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(kind, created_at);
`

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database file and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("content: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("content: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("content: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("content: apply fts schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

const itemColumns = `id, kind, scope, position, label, payload, checksum, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}
