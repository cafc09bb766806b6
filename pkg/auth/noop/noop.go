// Package noop provides a no-op authenticator that accepts all requests.
// Used for local development when no credential store is configured.
package noop

import (
	"context"
	"net/http"

	"github.com/pinepods/pinegate/pkg/auth"
)

// Subject is the identifier attached to every request.
const Subject = "anonymous"

// Authenticator always returns Yes with the anonymous identity.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: Subject},
	}
}
