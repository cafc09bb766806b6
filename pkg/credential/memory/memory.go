// Package memory provides an in-memory implementation of credential.Store
// for testing and lightweight deployments. Records come from configuration
// and are lost when the process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/pinepods/pinegate/pkg/credential"
)

// Store is an in-memory credential.Store.
type Store struct {
	mu      sync.RWMutex
	records []credential.Record
}

// Ensure Store implements credential.Store at compile time.
var _ credential.Store = (*Store)(nil)

// New creates a store holding a copy of records.
func New(records []credential.Record) *Store {
	s := &Store{records: make([]credential.Record, len(records))}
	copy(s.records, records)
	return s
}

// ListCredentials returns a copy of the current records. Callers may modify
// the returned slice freely.
func (s *Store) ListCredentials(ctx context.Context) ([]credential.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, credential.Unavailable("listing credentials", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]credential.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Remove deletes the record with the given ID, the in-memory equivalent of
// revoking a key in a relational backend. Reports whether a record was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
