package audit

import (
	"encoding/json"
	"testing"
)

func TestCategoryOfCoversEveryEventType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		eventType EventType
		want      EventCategory
	}{
		{EventAuditCreated, CategoryAudit},
		{EventAuditUpdated, CategoryAudit},
		{EventAuditDeleted, CategoryAudit},
		{EventFindingCreated, CategoryFinding},
		{EventFindingUpdated, CategoryFinding},
		{EventFindingDeleted, CategoryFinding},
		{EventCommentAdded, CategoryFinding},
		{EventSyncStarted, CategorySync},
		{EventSyncCompleted, CategorySync},
		{EventUserPresence, CategoryPresence},
		{EventUserDisconnected, CategoryPresence},
		{EventGetActiveUsers, CategoryControl},
		{EventReminderDue, CategoryFinding},
		{EventEscalationDue, CategoryFinding},
		{EventConflictDetected, CategoryConflict},
		{EventConflictResolved, CategoryConflict},
	}
	for _, tc := range cases {
		if got := CategoryOf(tc.eventType); got != tc.want {
			t.Fatalf("CategoryOf(%q) = %d, want %d", tc.eventType, got, tc.want)
		}
	}

	if got := CategoryOf(EventType("somethingNew")); got != CategoryOther {
		t.Fatalf("unknown type category = %d, want CategoryOther", got)
	}
}

func TestNewEnvelope(t *testing.T) {
	t.Parallel()

	env, err := NewEnvelope(EventUserPresence, "audit-1", "user-1", PresencePayload{
		UserID: "user-1",
		Status: string(PresenceEditing),
	})
	if err != nil {
		t.Fatalf("NewEnvelope() error = %v", err)
	}
	if env.Type != EventUserPresence || env.AuditID != "audit-1" || env.UserID != "user-1" {
		t.Fatalf("envelope header = %+v", env)
	}
	if env.Timestamp.IsZero() {
		t.Fatalf("timestamp not stamped")
	}

	var payload PresencePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Status != string(PresenceEditing) {
		t.Fatalf("payload status = %q, want editing", payload.Status)
	}

	empty, err := NewEnvelope(EventSyncStarted, "audit-1", "", nil)
	if err != nil {
		t.Fatalf("NewEnvelope(nil payload) error = %v", err)
	}
	if len(empty.Data) != 0 {
		t.Fatalf("nil payload must leave Data empty, got %s", empty.Data)
	}
}

func TestNormalizePresenceStatus(t *testing.T) {
	t.Parallel()

	status, err := NormalizePresenceStatus(" Editing ")
	if err != nil {
		t.Fatalf("NormalizePresenceStatus() error = %v", err)
	}
	if status != PresenceEditing {
		t.Fatalf("status = %q, want editing", status)
	}

	if _, err := NormalizePresenceStatus("sleeping"); err == nil {
		t.Fatalf("unknown presence status must be rejected")
	}
}
