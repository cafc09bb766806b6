package integration

import (
	"net/http"
	"testing"

	"github.com/pinepods/pinegate/pkg/api"
)

func TestUnknownPathWithValidKey(t *testing.T) {
	resp := getWithKey(t, testEnv.BaseURL()+"/api/nope", aliceKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUnknownPathWithoutKey(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/nope")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/api/data", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("pinepods_api", aliceKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestUnauthorizedEnvelope(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/data")
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var errResp api.ErrorResponse
	decodeJSON(t, resp, &errResp)
	if errResp.Error == nil {
		t.Fatal("error object is nil")
	}
	if errResp.Error.Type != api.ErrorTypeUnauthorized {
		t.Errorf("error.type = %q, want %q", errResp.Error.Type, api.ErrorTypeUnauthorized)
	}
	if errResp.Error.Message != "authentication required" {
		t.Errorf("error.message = %q", errResp.Error.Message)
	}
}
