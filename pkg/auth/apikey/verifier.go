package apikey

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pinepods/pinegate/pkg/auth"
	"github.com/pinepods/pinegate/pkg/credential"
	"github.com/pinepods/pinegate/pkg/debug"
	"github.com/pinepods/pinegate/pkg/observability"
)

// DefaultStoreTimeout bounds a single credential snapshot fetch.
const DefaultStoreTimeout = 5 * time.Second

// MaxTokenLength is the number of token bytes bcrypt hashes. Longer tokens
// are truncated before comparison, matching how passlib hashed legacy keys.
const MaxTokenLength = 72

// CompareFunc checks a presented token against one stored hash. It returns
// nil on a match and bcrypt.ErrMismatchedHashAndPassword on a clean miss;
// any other error marks the stored hash as unusable.
type CompareFunc func(hashedSecret, token []byte) error

// Verifier checks presented tokens against a fresh snapshot of the
// credential store on every call. It holds no state between calls and is
// safe for concurrent use.
type Verifier struct {
	store        credential.Store
	storeTimeout time.Duration
	compare      CompareFunc
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithStoreTimeout sets the deadline applied to each snapshot fetch.
// Non-positive values keep the default.
func WithStoreTimeout(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.storeTimeout = d
		}
	}
}

// WithCompare replaces the hash comparison. Defaults to
// bcrypt.CompareHashAndPassword.
func WithCompare(fn CompareFunc) VerifierOption {
	return func(v *Verifier) {
		if fn != nil {
			v.compare = fn
		}
	}
}

// NewVerifier creates a Verifier reading credentials from store.
func NewVerifier(store credential.Store, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		store:        store,
		storeTimeout: DefaultStoreTimeout,
		compare:      bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify resolves token to the identifier of the credential record whose
// hash it matches.
//
// Errors:
//   - auth.ErrMissingToken when token is blank; the store is not consulted.
//   - credential.ErrUnavailable (wrapped) when the snapshot cannot be fetched.
//   - auth.ErrInvalidToken when no record matches.
//
// Every record in the snapshot is compared, even after a match, so
// accepted and rejected tokens cost the same. When several records match,
// the first one in snapshot order wins.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", auth.ErrMissingToken
	}

	start := time.Now()
	defer func() {
		observability.VerifyDuration.Observe(time.Since(start).Seconds())
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, v.storeTimeout)
	records, err := v.store.ListCredentials(fetchCtx)
	cancel()
	if err != nil {
		if !errors.Is(err, credential.ErrUnavailable) {
			err = credential.Unavailable("listing credentials", err)
		}
		return "", err
	}

	presented := []byte(token)
	if len(presented) > MaxTokenLength {
		presented = presented[:MaxTokenLength]
	}
	var matched string
	found := false
	for _, rec := range records {
		err := v.compare([]byte(rec.HashedSecret), presented)
		switch {
		case err == nil:
			if !found {
				matched, found = rec.ID, true
			}
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		default:
			slog.Warn("skipping credential with unusable hash",
				"credential_id", rec.ID,
				"error", err,
			)
		}
	}

	debug.Log("auth", "token verified against snapshot",
		"records", len(records),
		"matched", found,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !found {
		return "", auth.ErrInvalidToken
	}
	return matched, nil
}
