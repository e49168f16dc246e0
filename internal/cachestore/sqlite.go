package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS stores (
	name       TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
	store     TEXT NOT NULL REFERENCES stores(name) ON DELETE CASCADE,
	key       TEXT NOT NULL,
	method    TEXT NOT NULL,
	url       TEXT NOT NULL,
	status    INTEGER NOT NULL,
	header    TEXT NOT NULL DEFAULT '{}',
	body      BLOB NOT NULL,
	stored_at DATETIME NOT NULL,
	PRIMARY KEY (store, key)
);
`

const upsertEntrySQL = `
	INSERT INTO entries (store, key, method, url, status, header, body, stored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(store, key) DO UPDATE SET
		method    = excluded.method,
		url       = excluded.url,
		status    = excluded.status,
		header    = excluded.header,
		body      = excluded.body,
		stored_at = excluded.stored_at
`

// SQLite is a Storage persisted in a SQLite database file.
type SQLite struct {
	conn *sql.DB
}

// Verify *SQLite satisfies Storage at compile time.
var _ Storage = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("cachestore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cachestore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cachestore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) Open(ctx context.Context, name string) (Store, error) {
	if _, err := db.conn.ExecContext(ctx, `INSERT OR IGNORE INTO stores (name) VALUES (?)`, name); err != nil {
		return nil, fmt.Errorf("cachestore: open %q: %w", name, err)
	}
	return &sqliteStore{db: db, name: name}, nil
}

func (db *SQLite) Names(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name FROM stores ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("cachestore: names: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Delete removes the store row; entries go with it through ON DELETE CASCADE.
func (db *SQLite) Delete(ctx context.Context, name string) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM stores WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("cachestore: delete %q: %w", name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type sqliteStore struct {
	db   *SQLite
	name string
}

func (s *sqliteStore) Name() string { return s.name }

func (s *sqliteStore) Match(ctx context.Context, key string) (*Entry, bool, error) {
	var (
		e      Entry
		header string
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT method, url, status, header, body, stored_at
		FROM entries WHERE store = ? AND key = ?
	`, s.name, key).Scan(&e.Method, &e.URL, &e.Status, &header, &e.Body, &e.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cachestore: match: %w", err)
	}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, false, fmt.Errorf("cachestore: decode header: %w", err)
	}
	if e.Header == nil {
		e.Header = make(http.Header)
	}
	return &e, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, e Entry) error {
	return s.PutAll(ctx, []Entry{e})
}

// PutAll writes entries in one transaction.
func (s *sqliteStore) PutAll(ctx context.Context, entries []Entry) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cachestore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM stores WHERE name = ?`, s.name).Scan(&exists); err != nil {
		return fmt.Errorf("cachestore: check store: %w", err)
	}
	if exists == 0 {
		return storeGone(s.name)
	}

	stmt, err := tx.PrepareContext(ctx, upsertEntrySQL)
	if err != nil {
		return fmt.Errorf("cachestore: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		header, _ := json.Marshal(e.Header)
		e = stamped(e)
		body := e.Body
		if body == nil {
			body = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, s.name, e.Key(), e.Method, e.URL, e.Status, string(header), body, e.StoredAt); err != nil {
			return fmt.Errorf("cachestore: upsert %q: %w", e.Key(), err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT key FROM entries WHERE store = ? ORDER BY key`, s.name)
	if err != nil {
		return nil, fmt.Errorf("cachestore: keys: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
