// Package sqlite provides a SQLite implementation of credential.Store for
// single-node deployments. It uses the pure-Go modernc.org/sqlite driver
// through database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pinepods/pinegate/pkg/credential"
	"github.com/pinepods/pinegate/pkg/debug"
	"github.com/pinepods/pinegate/pkg/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS api_keys (
    api_key_id TEXT PRIMARY KEY,
    api_key TEXT NOT NULL,
    created DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

const listQuery = `SELECT CAST(api_key_id AS TEXT), api_key FROM api_keys`

const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// Store is a SQLite-backed credential.Store.
type Store struct {
	db *sql.DB
}

// Ensure Store implements credential.Store at compile time.
var _ credential.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

// dsn appends the connection pragmas to path, keeping any query the path
// already carries (file:keys.db?mode=rwc).
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

// ListCredentials reads every row of the api_keys table.
func (s *Store) ListCredentials(ctx context.Context) ([]credential.Record, error) {
	start := time.Now()
	defer func() {
		observability.CredentialStoreLatency.WithLabelValues("sqlite").Observe(time.Since(start).Seconds())
	}()

	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, credential.Unavailable("querying credentials", err)
	}
	defer rows.Close()

	var records []credential.Record
	for rows.Next() {
		var r credential.Record
		if err := rows.Scan(&r.ID, &r.HashedSecret); err != nil {
			return nil, credential.Unavailable("scanning credential", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, credential.Unavailable("reading credentials", err)
	}

	debug.Log("store", "credentials listed", "backend", "sqlite", "count", len(records))
	return records, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return credential.Unavailable("pinging database", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
