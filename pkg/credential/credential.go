package credential

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the backing store cannot be reached or the
// query fails. It is an infrastructure failure, never a verdict on a token.
var ErrUnavailable = errors.New("credential store unavailable")

// Record is one provisioned caller: an opaque identifier and the one-way
// hash of its secret. Identifiers are unique across a snapshot.
type Record struct {
	ID           string
	HashedSecret string
}

// Store exposes the current set of credential records.
type Store interface {
	// ListCredentials returns every record currently registered, in no
	// particular order. Errors satisfy errors.Is(err, ErrUnavailable).
	ListCredentials(ctx context.Context) ([]Record, error)

	// HealthCheck reports whether the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Unavailable wraps err so that it matches ErrUnavailable while keeping the
// underlying cause for logs.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
