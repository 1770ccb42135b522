package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/japaniel/lexindex/pkg/config"
)

// Supported driver names.
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	author           TEXT NOT NULL DEFAULT '',
	origin           TEXT NOT NULL DEFAULT '',
	language         TEXT NOT NULL,
	target_language  TEXT NOT NULL DEFAULT 'en',
	content          TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'processing', 'completed', 'failed')),
	total_words      INTEGER NOT NULL DEFAULT 0,
	unique_lemmas    INTEGER NOT NULL DEFAULT 0,
	total_lemmas     INTEGER NOT NULL DEFAULT 0,
	processed_lemmas INTEGER NOT NULL DEFAULT 0,
	error            TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	completed_at     TEXT
);

CREATE TABLE IF NOT EXISTS lemmas (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	lemma       TEXT NOT NULL,
	language    TEXT NOT NULL,
	pos         TEXT NOT NULL DEFAULT '',
	translation TEXT NOT NULL DEFAULT '',
	definition  TEXT NOT NULL DEFAULT '',
	grammar     TEXT NOT NULL DEFAULT '{}',
	frequency   INTEGER NOT NULL DEFAULT 0,
	difficulty  INTEGER NOT NULL DEFAULT 0,
	source      TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	UNIQUE (lemma, language)
);

CREATE TABLE IF NOT EXISTS document_lemmas (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	lemma_id    INTEGER NOT NULL REFERENCES lemmas(id) ON DELETE CASCADE,
	display     TEXT NOT NULL DEFAULT '',
	frequency   INTEGER NOT NULL DEFAULT 0,
	forms       TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (document_id, lemma_id)
);

CREATE INDEX IF NOT EXISTS idx_document_lemmas_freq ON document_lemmas(document_id, frequency DESC);

CREATE TABLE IF NOT EXISTS occurrences (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	lemma_id    INTEGER NOT NULL REFERENCES lemmas(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	chapter     INTEGER NOT NULL DEFAULT 0,
	surface     TEXT NOT NULL,
	context     TEXT NOT NULL DEFAULT '',
	UNIQUE (document_id, lemma_id, position)
);

CREATE INDEX IF NOT EXISTS idx_occurrences_lemma ON occurrences(lemma_id);

CREATE TABLE IF NOT EXISTS lemma_status (
	lemma_id   INTEGER PRIMARY KEY REFERENCES lemmas(id) ON DELETE CASCADE,
	status     TEXT NOT NULL CHECK (status IN ('new', 'learning', 'known', 'ignored')),
	updated_at TEXT NOT NULL
)
`

// InitDB creates the schema on the given connection.
func InitDB(db *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// DSN builds the data source name for driver with foreign keys and a busy
// timeout enabled. File databases also use WAL.
func DSN(driver, path string) string {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")
	var params []string
	switch driver {
	case DriverModernc:
		params = append(params, "_pragma=foreign_keys(on)", "_pragma=busy_timeout(5000)")
		if !memory {
			params = append(params, "_pragma=journal_mode(wal)")
		}
	default:
		params = append(params, "_foreign_keys=on", "_busy_timeout=5000")
		if !memory {
			params = append(params, "_journal_mode=WAL")
		}
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Open opens the configured database and applies the schema. SQLite
// allows one writer at a time, so the pool is limited to one connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}
	conn, err := sql.Open(cfg.Driver, DSN(cfg.Driver, cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
