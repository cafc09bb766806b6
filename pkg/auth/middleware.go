package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pinepods/pinegate/pkg/api"
	"github.com/pinepods/pinegate/pkg/credential"
	"github.com/pinepods/pinegate/pkg/observability"
	"github.com/pinepods/pinegate/pkg/transport"
)

// Middleware creates the request gate from an AuthChain. It checks the
// bypass list, runs authentication, and either injects the resolved
// identity into the request context or rejects the request before the
// next handler runs.
func Middleware(chain *AuthChain, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Decision != Yes || result.Identity == nil {
				reject(w, r, result.Err)
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
				return
			}

			observability.AuthAttemptsTotal.WithLabelValues(observability.AuthAccepted).Inc()
			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"path", r.URL.Path,
				"request_id", transport.RequestIDFromContext(r.Context()),
			)

			ctx := SetIdentity(r.Context(), result.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject writes the response for a failed authentication. Store failures
// become 503; every credential failure becomes the same 401 body.
func reject(w http.ResponseWriter, r *http.Request, err error) {
	requestID := transport.RequestIDFromContext(r.Context())

	if errors.Is(err, credential.ErrUnavailable) {
		observability.AuthAttemptsTotal.WithLabelValues(observability.AuthStoreUnavailable).Inc()
		slog.Error("credential store unavailable",
			"path", r.URL.Path,
			"request_id", requestID,
			"error", err,
		)
		transport.WriteAPIError(w, api.NewServiceUnavailableError("credential store unavailable"))
		return
	}

	outcome := observability.AuthInvalidToken
	if errors.Is(err, ErrMissingToken) {
		outcome = observability.AuthMissingToken
	}
	observability.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
	slog.Warn("authentication failed",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"request_id", requestID,
		"reason", outcome,
	)
	transport.WriteAPIError(w, api.NewUnauthorizedError())
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}
