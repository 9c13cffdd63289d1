package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQL is a KV implementation backed by a single kv table. It works
// against SQLite for local single-file deployments and Postgres for
// server ones; the key layout is identical in both.
type SQL struct {
	db         *sql.DB
	driverName string
}

// OpenSQL opens the database, verifies connectivity, and ensures the
// kv table exists. driverName is "sqlite3" or "postgres".
func OpenSQL(driverName, dataSourceName string) (*SQL, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQL{db: db, driverName: driverName}, nil
}

// NewSQL wraps an existing database handle. The schema is assumed to
// be in place.
func NewSQL(db *sql.DB, driverName string) *SQL {
	return &SQL{db: db, driverName: driverName}
}

// Close releases the underlying database handle.
func (s *SQL) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func (s *SQL) rebind(query string) string {
	if s.driverName == "postgres" {
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	query := s.rebind(`SELECT value FROM kv WHERE key = ?`)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	query := s.rebind(`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	_, err := s.db.ExecContext(ctx, query, key, string(value))
	return err
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	query := s.rebind(`DELETE FROM kv WHERE key = ?`)
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}
