package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pinepods/pinegate/pkg/api"
	"github.com/pinepods/pinegate/pkg/auth"
	"github.com/pinepods/pinegate/pkg/credential"
	"github.com/pinepods/pinegate/pkg/search"
	"github.com/pinepods/pinegate/pkg/transport"
)

// Searcher forwards a query to the search backend.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.Result, error)
}

// Adapter serves the gateway API over HTTP. Every route except the health,
// readiness and metrics endpoints sits behind the request gate.
type Adapter struct {
	chain    *auth.AuthChain
	store    credential.Store // nil means always ready
	searcher Searcher         // nil disables /api/search
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// MetricsPath is where Prometheus metrics are served. Empty disables it.
	MetricsPath string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MetricsPath: "/metrics",
	}
}

// NewAdapter creates an HTTP adapter. The chain decides which requests
// reach the protected routes.
func NewAdapter(chain *auth.AuthChain, store credential.Store, searcher Searcher, cfg Config) *Adapter {
	a := &Adapter{
		chain:    chain,
		store:    store,
		searcher: searcher,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("GET /api/data", a.handleData)
	a.mux.HandleFunc("GET /api/data/get_user", a.handleGetUser)
	a.mux.HandleFunc("GET /api/search", a.handleSearch)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter with the request gate
// applied. Use this to integrate with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	bypass := []string{"/healthz", "/readyz"}
	if a.config.MetricsPath != "" {
		bypass = append(bypass, a.config.MetricsPath)
	}
	return auth.Middleware(a.chain, bypass)(a.mux)
}

// handleData handles GET /api/data.
func (a *Adapter) handleData(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, api.DataResponse{
		Status:   api.StatusSuccess,
		Data:     "Your data",
		ClientID: subject(r),
	})
}

// handleGetUser handles GET /api/data/get_user.
func (a *Adapter) handleGetUser(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, api.UserResponse{
		Status:      api.StatusSuccess,
		RetrievedID: subject(r),
	})
}

// handleSearch handles GET /api/search?query=...
func (a *Adapter) handleSearch(w http.ResponseWriter, r *http.Request) {
	if a.searcher == nil {
		transport.WriteAPIError(w, api.NewServiceUnavailableError("search is not configured"))
		return
	}

	result, err := a.searcher.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		slog.Warn("search backend request failed",
			"request_id", transport.RequestIDFromContext(r.Context()),
			"error", err,
		)
		transport.WriteAPIError(w, api.NewUpstreamError("search backend unreachable"))
		return
	}

	if !result.Parsed() {
		transport.WriteJSON(w, http.StatusBadGateway, api.UpstreamStatusResponse{StatusCode: result.StatusCode})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	w.Write(result.Payload)
}

// handleHealthz reports process liveness.
func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleReadyz reports whether the credential store can serve requests.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.store != nil {
		if err := a.store.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "error", err)
			transport.WriteAPIError(w, api.NewServiceUnavailableError("credential store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready\n"))
}

// subject returns the identifier attached by the request gate.
func subject(r *http.Request) string {
	if id := auth.IdentityFromContext(r.Context()); id != nil {
		return id.Subject
	}
	return ""
}
