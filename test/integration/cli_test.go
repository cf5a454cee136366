//go:build integration

package integration_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/uwbd/uwbd/internal/api"
)

// addTestSession opens a FIRA session over the admin HTTP API, the
// in-process equivalent of running `uwbctl session create`.
func addTestSession(t *testing.T, srvURL string, sessionID uint32, chipID string) api.SessionResponse {
	t.Helper()

	var created api.SessionResponse
	resp := doJSON(t, http.MethodPost, srvURL+"/sessions", api.OpenSessionRequest{
		SessionID:   sessionID,
		SessionType: "FIRA_RANGING",
		ChipID:      chipID,
		Foreground:  true,
		Fira:        &api.FiraParamsDTO{UCIVersion: "2", RangingIntervalMs: 200},
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session %d: expected status %d, got %d", sessionID, http.StatusCreated, resp.StatusCode)
	}
	return created
}

// TestCLISessionCreateListShowDelete exercises the full session lifecycle
// through the admin HTTP API, the in-process equivalent of running uwbctl's
// session create/list/show/delete subcommands against a live daemon.
func TestCLISessionCreateListShowDelete(t *testing.T) {
	srv := newTestServer(t)

	created := addTestSession(t, srv.URL, 7, "chip0")

	var sessions []api.SessionResponse
	resp := doJSON(t, http.MethodGet, srv.URL+"/sessions", nil, &sessions)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sessions: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if len(sessions) != 1 {
		t.Fatalf("list sessions count = %d, want 1", len(sessions))
	}
	if sessions[0].Handle != created.Handle {
		t.Errorf("listed handle = %d, want %d", sessions[0].Handle, created.Handle)
	}

	path := srv.URL + "/sessions/" + handlePathSegment(created.Handle)

	var fetched api.SessionResponse
	resp = doJSON(t, http.MethodGet, path, nil, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get session: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if fetched.Priority == "" {
		t.Error("get session returned empty priority")
	}

	resp = doJSON(t, http.MethodDelete, path, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete session: expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/sessions", nil, &sessions)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sessions after delete: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if len(sessions) != 0 {
		t.Fatalf("list sessions after delete count = %d, want 0", len(sessions))
	}
}

// TestCLIMultipleSessions verifies that opening multiple sessions and
// listing them returns every one, and that closing one leaves the rest.
func TestCLIMultipleSessions(t *testing.T) {
	srv := newTestServer(t)

	s1 := addTestSession(t, srv.URL, 1, "chip0")
	s2 := addTestSession(t, srv.URL, 2, "chip0")
	s3 := addTestSession(t, srv.URL, 3, "chip0")

	var sessions []api.SessionResponse
	resp := doJSON(t, http.MethodGet, srv.URL+"/sessions", nil, &sessions)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sessions: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if len(sessions) != 3 {
		t.Fatalf("list sessions count = %d, want 3", len(sessions))
	}

	handles := make(map[uint64]bool, 3)
	for _, s := range sessions {
		handles[s.Handle] = true
	}
	for _, want := range []uint64{s1.Handle, s2.Handle, s3.Handle} {
		if !handles[want] {
			t.Errorf("list sessions missing handle %d", want)
		}
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/sessions/"+handlePathSegment(s2.Handle), nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete session %d: expected status %d, got %d", s2.Handle, http.StatusNoContent, resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/sessions", nil, &sessions)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sessions after delete: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if len(sessions) != 2 {
		t.Fatalf("list sessions after delete count = %d, want 2", len(sessions))
	}
}

// buildSessionView creates a map-like view of a session for format testing,
// independent of uwbctl's own unexported formatting helpers.
func buildSessionView(s api.SessionResponse) map[string]any {
	return map[string]any{
		"session_id":   s.SessionID,
		"handle":       s.Handle,
		"session_type": s.SessionType,
		"chip_id":      s.ChipID,
		"state":        s.State,
		"priority":     s.Priority,
		"controlees":   s.Controlees,
	}
}

// TestCLIOutputFormats verifies that session data can be rendered in both
// JSON and YAML, the two encodings the daemon and CLI exchange over the
// wire and present to operators respectively.
func TestCLIOutputFormats(t *testing.T) {
	srv := newTestServer(t)

	addTestSession(t, srv.URL, 9, "chip0")

	var sessions []api.SessionResponse
	resp := doJSON(t, http.MethodGet, srv.URL+"/sessions", nil, &sessions)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list sessions: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if len(sessions) != 1 {
		t.Fatalf("list sessions count = %d, want 1", len(sessions))
	}
	sess := sessions[0]

	t.Run("json_single", func(t *testing.T) {
		data, err := json.MarshalIndent(buildSessionView(sess), "", "  ")
		if err != nil {
			t.Fatalf("JSON marshal: %v", err)
		}

		out := string(data)
		if !strings.Contains(out, "chip0") {
			t.Errorf("JSON output missing chip id: %s", out)
		}
		if !strings.Contains(out, "session_type") {
			t.Errorf("JSON output missing field name: %s", out)
		}
	})

	t.Run("yaml_single", func(t *testing.T) {
		data, err := yaml.Marshal(buildSessionView(sess))
		if err != nil {
			t.Fatalf("YAML marshal: %v", err)
		}

		out := string(data)
		if !strings.Contains(out, "chip0") {
			t.Errorf("YAML output missing chip id: %s", out)
		}
	})

	t.Run("json_list", func(t *testing.T) {
		views := make([]map[string]any, len(sessions))
		for i, s := range sessions {
			views[i] = buildSessionView(s)
		}

		data, err := json.Marshal(views)
		if err != nil {
			t.Fatalf("JSON marshal: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("JSON unmarshal: %v", err)
		}
		if len(decoded) != 1 {
			t.Fatalf("decoded list length = %d, want 1", len(decoded))
		}
	})
}
