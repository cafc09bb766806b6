// Package apikey provides the API key authenticator. Tokens arrive in a
// single request header and are verified against bcrypt hashes held in a
// credential store.
package apikey

import (
	"context"
	"net/http"
	"strings"

	"github.com/pinepods/pinegate/pkg/auth"
)

// DefaultHeader is the request header carrying the API key.
const DefaultHeader = "pinepods_api"

// TokenVerifier resolves a presented token to a credential identifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Authenticator reads the API key header and votes on the request.
type Authenticator struct {
	verifier TokenVerifier
	header   string
}

// New creates an API key authenticator. An empty header selects
// DefaultHeader.
func New(verifier TokenVerifier, header string) *Authenticator {
	if header == "" {
		header = DefaultHeader
	}
	return &Authenticator{verifier: verifier, header: header}
}

// Authenticate extracts the token and verifies it.
// Returns Yes with the matched identifier, or No with ErrMissingToken,
// ErrInvalidToken, or a wrapped credential.ErrUnavailable. It never
// abstains: requests without the header are rejected.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	token := r.Header.Get(a.header)
	if strings.TrimSpace(token) == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrMissingToken}
	}

	id, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err}
	}

	return auth.AuthResult{Decision: auth.Yes, Identity: &auth.Identity{Subject: id}}
}
