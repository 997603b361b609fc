// Package index provides an optional SQLite-backed search index over
// resolved content records.
//
// The index is a rebuildable cache, never the store of record: it is
// repopulated wholesale from a source snapshot whenever the watcher sees
// the tree change. Search semantics match the in-memory matcher in the
// aggregate package: case-insensitive substring, ranked title first,
// then description, then body-only.
package index

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/sowilo/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	source      TEXT NOT NULL,
	slug        TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (source, slug)
);

CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);
`

// DB wraps a sql.DB with search-index operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
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

// ReplaceSource atomically swaps the indexed rows for one source with
// the published records of a fresh snapshot. Unpublished records are
// never indexed, so they cannot surface in search results.
func (db *DB) ReplaceSource(source string, records []models.ContentRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM records WHERE source = ?`, source); err != nil {
		return fmt.Errorf("index: clear source: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (source, slug, title, description, body)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if !r.Published {
			continue
		}
		if _, err := stmt.Exec(source, r.Slug, r.Title, r.Description, r.Body); err != nil {
			return fmt.Errorf("index: insert %s: %w", r.Slug, err)
		}
	}

	return tx.Commit()
}

// Hit is one search index match.
type Hit struct {
	Slug        string
	Title       string
	Description string
}

// Search performs a LIKE-based substring search over one source, ranked
// in the same tiers as the in-memory matcher. Rows within a tier come
// back in insertion order, which is snapshot order.
func (db *DB) Search(source, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT slug, title, description
		FROM records
		WHERE source = ?
		  AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')
		ORDER BY
			CASE
				WHEN title LIKE ? ESCAPE '\' THEN 0
				WHEN description LIKE ? ESCAPE '\' THEN 1
				ELSE 2
			END,
			rowid
		LIMIT ?
	`, source, like, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Slug, &h.Title, &h.Description); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// escapeLike neutralizes LIKE wildcards in user input so the query is a
// literal substring match.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
