package e2e

import (
	"net/http"
	"testing"
)

func TestSpynSessionLifecycle(t *testing.T) {
	ta := setupApp(t)
	user := "lifecycle-dj"

	// Start a session (mock venue fallback, no Places key configured)
	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/start",
		`{"displayName":"Friday Set","latitude":41.0,"longitude":29.0}`, user)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	body := parseJSON(t, resp)
	if body["state"] != "active" {
		t.Errorf("expected state 'active', got %v", body["state"])
	}
	sessionID, _ := body["sessionId"].(string)
	if sessionID == "" {
		t.Fatal("expected a sessionId in start response")
	}

	// Starting again while active conflicts
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/start", "", user)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	// Feed a sample ("audio" base64-encoded)
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/sample",
		`{"audio_base64":"YXVkaW8="}`, user)
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	// Snapshot
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/spyn/session", "", user)
	if err != nil {
		t.Fatalf("session failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	snap := parseJSON(t, resp)
	if snap["state"] != "active" {
		t.Errorf("expected state 'active', got %v", snap["state"])
	}
	if snap["online"] != true {
		t.Errorf("expected online true, got %v", snap["online"])
	}

	// End: no tracks recognized, so no reward
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/end", "", user)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	end := parseJSON(t, resp)
	if end["state"] != "ended" {
		t.Errorf("expected state 'ended', got %v", end["state"])
	}
	if end["rewardGranted"] != false {
		t.Errorf("expected rewardGranted false, got %v", end["rewardGranted"])
	}

	// Ending twice conflicts
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/end", "", user)
	if err != nil {
		t.Fatalf("second end failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)

	// Snapshot was persisted under the session ID
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/spyn/session/"+sessionID, "", user)
	if err != nil {
		t.Fatalf("stored session failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	// Reset back to idle, then a fresh start succeeds
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/reset", "", user)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/start", "", user)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)
}

func TestSpynResetRequiresEndedSession(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/reset", "", "reset-dj")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
}

func TestSpynNetworkToggle(t *testing.T) {
	ta := setupApp(t)
	user := "network-dj"

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/start", "", user)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/network",
		`{"online":false}`, user)
	if err != nil {
		t.Fatalf("network failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	snap := parseJSON(t, resp)
	if snap["online"] != false {
		t.Errorf("expected online false, got %v", snap["online"])
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/network",
		`{"online":true}`, user)
	if err != nil {
		t.Fatalf("network failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	snap = parseJSON(t, resp)
	if snap["online"] != true {
		t.Errorf("expected online true, got %v", snap["online"])
	}
}

func TestSpynNetworkValidation(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/network", `{}`, "network-dj")
	if err != nil {
		t.Fatalf("network failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestSpynPendingAndSyncEmpty(t *testing.T) {
	ta := setupApp(t)
	user := "sync-dj"

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/spyn/offline/pending", "", user)
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["pending"] != float64(0) {
		t.Errorf("expected pending 0, got %v", body["pending"])
	}

	// Nothing queued, so sync is a no-op and returns 200 (not 202)
	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/spyn/sync", "", user)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body = parseJSON(t, resp)
	if body["queued"] != false {
		t.Errorf("expected queued false, got %v", body["queued"])
	}
}
