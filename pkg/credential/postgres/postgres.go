// Package postgres provides a PostgreSQL implementation of credential.Store.
// It uses pgx/v5 for connection pooling and reads the whole key table on
// every call.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pinepods/pinegate/pkg/credential"
	"github.com/pinepods/pinegate/pkg/debug"
	"github.com/pinepods/pinegate/pkg/observability"
)

// Store is a PostgreSQL-backed credential.Store.
type Store struct {
	pool      *pgxpool.Pool
	listQuery string
}

// Ensure Store implements credential.Store at compile time.
var _ credential.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		pool:      pool,
		listQuery: listQuery(cfg.Table, cfg.IDColumn, cfg.SecretColumn),
	}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// listQuery builds the snapshot query with safely quoted identifiers. The
// identifier is cast to text so integer key columns read the same way.
func listQuery(table, idColumn, secretColumn string) string {
	return fmt.Sprintf("SELECT %s::text, %s FROM %s",
		pgx.Identifier{idColumn}.Sanitize(),
		pgx.Identifier{secretColumn}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
	)
}

// ListCredentials reads every row of the key table.
func (s *Store) ListCredentials(ctx context.Context) ([]credential.Record, error) {
	start := time.Now()
	defer func() {
		observability.CredentialStoreLatency.WithLabelValues("postgres").Observe(time.Since(start).Seconds())
	}()

	rows, err := s.pool.Query(ctx, s.listQuery)
	if err != nil {
		return nil, credential.Unavailable("querying credentials", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (credential.Record, error) {
		var r credential.Record
		err := row.Scan(&r.ID, &r.HashedSecret)
		return r, err
	})
	if err != nil {
		return nil, credential.Unavailable("reading credentials", err)
	}

	debug.Log("store", "credentials listed", "backend", "postgres", "count", len(records))
	return records, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return credential.Unavailable("pinging database", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
