// Package integration provides integration tests for the pinegate gateway.
//
// Tests run against a real gateway HTTP server backed by a SQLite credential
// store and a mock search backend, both started in-process using
// net/http/httptest.
package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/pinepods/pinegate/pkg/auth"
	"github.com/pinepods/pinegate/pkg/auth/apikey"
	"github.com/pinepods/pinegate/pkg/credential/sqlite"
	"github.com/pinepods/pinegate/pkg/search"
	transporthttp "github.com/pinepods/pinegate/pkg/transport/http"
)

// Seeded credentials. Plaintext keys exist only on the client side.
const (
	aliceKey = "pp-alice-5f2c8e"
	aliceID  = "1"
	bobKey   = "pp-bob-91d3aa"
	bobID    = "2"
)

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the gateway server and mock search backend.
type TestEnvironment struct {
	GatewayServer *httptest.Server
	MockSearch    *httptest.Server
	DB            *sql.DB
	Store         *sqlite.Store
	SearchCalls   atomic.Int32

	dir string
}

// TestMain starts the mock search backend and the gateway before running tests.
func TestMain(m *testing.M) {
	env, err := setupTestEnvironment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up test environment: %v\n", err)
		os.Exit(1)
	}
	testEnv = env
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment creates a seeded SQLite store, a mock search backend
// and a gateway server wired to both.
func setupTestEnvironment() (*TestEnvironment, error) {
	dir, err := os.MkdirTemp("", "pinegate-integration-*")
	if err != nil {
		return nil, err
	}
	env := &TestEnvironment{dir: dir}

	dbPath := filepath.Join(dir, "keys.db")
	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	env.Store = store

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening seed connection: %w", err)
	}
	env.DB = db

	for id, key := range map[string]string{aliceID: aliceKey, bobID: bobKey} {
		if err := env.insertKey(id, key); err != nil {
			return nil, err
		}
	}

	env.MockSearch = httptest.NewServer(http.HandlerFunc(env.handleMockSearch))

	searcher, err := search.New(search.Config{URL: env.MockSearch.URL + "/api/search"})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	chain := &auth.AuthChain{
		Authenticators:  []auth.Authenticator{apikey.New(apikey.NewVerifier(store), apikey.DefaultHeader)},
		DefaultDecision: auth.No,
	}
	adapter := transporthttp.NewAdapter(chain, store, searcher, transporthttp.DefaultConfig())
	srv := transporthttp.NewServer(adapter)

	env.GatewayServer = httptest.NewServer(srv.Handler())

	return env, nil
}

// insertKey stores a bcrypt hash of key under id.
func (env *TestEnvironment) insertKey(id, key string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		return err
	}
	_, err = env.DB.Exec("INSERT INTO api_keys (api_key_id, api_key) VALUES (?, ?)", id, string(h))
	return err
}

// Teardown stops both servers and removes the database.
func (env *TestEnvironment) Teardown() {
	if env.GatewayServer != nil {
		env.GatewayServer.Close()
	}
	if env.MockSearch != nil {
		env.MockSearch.Close()
	}
	if env.DB != nil {
		env.DB.Close()
	}
	if env.Store != nil {
		env.Store.Close()
	}
	os.RemoveAll(env.dir)
}

// BaseURL returns the gateway base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.GatewayServer.URL
}

// handleMockSearch mimics the PinePods search service. The query selects
// the response shape.
func (env *TestEnvironment) handleMockSearch(w http.ResponseWriter, r *http.Request) {
	env.SearchCalls.Add(1)

	if r.URL.Path != "/api/search" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query().Get("query")
	switch query {
	case "":
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "query parameter is required")
	case "html-error":
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<html><body>Internal Server Error</body></html>")
	case "not-found":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"no podcasts found"}`)
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"query":  query,
			"feeds": []map[string]string{
				{"title": "Go Time", "url": "https://changelog.com/gotime/feed"},
			},
		})
	}
}

// --- HTTP helpers ---

// getWithKey sends a GET request, setting the API key header when key is non-empty.
func getWithKey(t *testing.T, url, key string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if key != "" {
		req.Header.Set(apikey.DefaultHeader, key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// getURL sends an unauthenticated GET request.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	return getWithKey(t, url, "")
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

// decodeJSON decodes the response body into target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}
