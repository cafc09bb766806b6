package integration

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/pinepods/pinegate/pkg/api"
)

func TestGetUserWithValidKey(t *testing.T) {
	tests := []struct {
		key    string
		wantID string
	}{
		{aliceKey, aliceID},
		{bobKey, bobID},
	}

	for _, tt := range tests {
		t.Run(tt.wantID, func(t *testing.T) {
			resp := getWithKey(t, testEnv.BaseURL()+"/api/data/get_user", tt.key)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp))
			}

			var got api.UserResponse
			decodeJSON(t, resp, &got)
			if got.Status != "success" || got.RetrievedID != tt.wantID {
				t.Errorf("body = %+v, want retrieved_id %q", got, tt.wantID)
			}
		})
	}
}

func TestDataWithValidKey(t *testing.T) {
	resp := getWithKey(t, testEnv.BaseURL()+"/api/data", aliceKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got api.DataResponse
	decodeJSON(t, resp, &got)
	if got.Status != "success" || got.Data != "Your data" || got.ClientID != aliceID {
		t.Errorf("body = %+v", got)
	}
}

func TestRejectedKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing header", ""},
		{"wrong key", "pp-mallory-000000"},
		{"key prefix", aliceKey[:len(aliceKey)-1]},
		{"key with suffix", aliceKey + "x"},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := getWithKey(t, testEnv.BaseURL()+"/api/data/get_user", tt.key)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
			body := readBody(t, resp)
			if strings.Contains(body, "retrieved_id") {
				t.Errorf("rejected request reached handler: %s", body)
			}
			bodies = append(bodies, body)
		})
	}

	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("401 bodies differ:\n%s\n%s", bodies[0], bodies[i])
		}
	}
}

func TestRequestIDOnRejection(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, testEnv.BaseURL()+"/api/data", nil)
	req.Header.Set("X-Request-ID", "integration-req-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "integration-req-1" {
		t.Errorf("X-Request-ID = %q, want echoed value", got)
	}
}

func TestKeyAddedAndRevokedWithoutRestart(t *testing.T) {
	const (
		carolKey = "pp-carol-77ab01"
		carolID  = "3"
	)

	resp := getWithKey(t, testEnv.BaseURL()+"/api/data/get_user", carolKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("before insert: expected 401, got %d", resp.StatusCode)
	}

	if err := testEnv.insertKey(carolID, carolKey); err != nil {
		t.Fatalf("inserting key: %v", err)
	}

	resp = getWithKey(t, testEnv.BaseURL()+"/api/data/get_user", carolKey)
	var got api.UserResponse
	decodeJSON(t, resp, &got)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || got.RetrievedID != carolID {
		t.Fatalf("after insert: status %d, body %+v", resp.StatusCode, got)
	}

	if _, err := testEnv.DB.Exec("DELETE FROM api_keys WHERE api_key_id = ?", carolID); err != nil {
		t.Fatalf("deleting key: %v", err)
	}

	resp = getWithKey(t, testEnv.BaseURL()+"/api/data/get_user", carolKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("after revocation: expected 401, got %d", resp.StatusCode)
	}
}

func TestConcurrentClients(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan string, 20)

	for i := 0; i < 10; i++ {
		for key, id := range map[string]string{aliceKey: aliceID, bobKey: bobID} {
			wg.Add(1)
			go func(key, id string) {
				defer wg.Done()
				req, _ := http.NewRequest(http.MethodGet, testEnv.BaseURL()+"/api/data/get_user", nil)
				req.Header.Set("pinepods_api", key)
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					errs <- err.Error()
					return
				}
				defer resp.Body.Close()
				var got api.UserResponse
				if resp.StatusCode != http.StatusOK {
					errs <- resp.Status
					return
				}
				if err := json.NewDecoder(resp.Body).Decode(&got); err != nil || got.RetrievedID != id {
					errs <- "wrong identity for " + id + ": " + got.RetrievedID
				}
			}(key, id)
		}
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}
