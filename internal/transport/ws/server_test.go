package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voltaudit/internal/domain/audit"
	"voltaudit/internal/infrastructure/bus"
)

func newTestServer(t *testing.T) (*Server, *bus.PresenceTracker) {
	t.Helper()

	hub := bus.NewHub()
	t.Cleanup(hub.Close)
	tracker := bus.NewPresenceTracker(time.Minute)
	return NewServer(hub, tracker), tracker
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestActiveUsersEndpoint(t *testing.T) {
	t.Parallel()

	server, tracker := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	env, err := audit.NewEnvelope(audit.EventUserPresence, "audit-1", "u1", audit.PresencePayload{
		UserID: "u1", UserName: "Ana", Status: "editing",
	})
	if err != nil {
		t.Fatalf("NewEnvelope() error = %v", err)
	}
	tracker.Apply(context.Background(), env)

	resp, err := http.Get(ts.URL + "/audits/audit-1/active-users")
	if err != nil {
		t.Fatalf("GET active-users error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var reply activeUsersReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Type != string(audit.EventGetActiveUsers) || reply.AuditID != "audit-1" {
		t.Fatalf("reply header = %+v", reply)
	}
	if len(reply.Users) != 1 || reply.Users[0].UserID != "u1" {
		t.Fatalf("users = %+v, want u1", reply.Users)
	}
}

func TestWebSocketRequiresUserID(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws/audits/audit-1")
	if err != nil {
		t.Fatalf("GET /ws error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without userId", resp.StatusCode)
	}
}
