package audit

import (
	"encoding/json"
	"time"
)

// EventType identifies one kind of cross-client notification.
type EventType string

const (
	EventAuditCreated     EventType = "auditCreated"
	EventAuditUpdated     EventType = "auditUpdated"
	EventAuditDeleted     EventType = "auditDeleted"
	EventFindingCreated   EventType = "findingCreated"
	EventFindingUpdated   EventType = "findingUpdated"
	EventFindingDeleted   EventType = "findingDeleted"
	EventCommentAdded     EventType = "commentAdded"
	EventSyncStarted      EventType = "syncStarted"
	EventSyncCompleted    EventType = "syncCompleted"
	EventUserPresence     EventType = "userPresence"
	EventUserDisconnected EventType = "userDisconnected"
	EventGetActiveUsers   EventType = "getActiveUsers"
	EventReminderDue      EventType = "reminderDue"
	EventEscalationDue    EventType = "escalationDue"
	EventConflictDetected EventType = "conflictDetected"
	EventConflictResolved EventType = "conflictResolved"
)

// EventCategory groups event types for subscription filtering. Categories are
// an explicit dispatch table rather than substring matching on type strings.
type EventCategory int

const (
	CategoryOther EventCategory = iota
	CategoryAudit
	CategoryFinding
	CategorySync
	CategoryPresence
	CategoryConflict
	CategoryControl
)

var categoryOf = map[EventType]EventCategory{
	EventAuditCreated:     CategoryAudit,
	EventAuditUpdated:     CategoryAudit,
	EventAuditDeleted:     CategoryAudit,
	EventFindingCreated:   CategoryFinding,
	EventFindingUpdated:   CategoryFinding,
	EventFindingDeleted:   CategoryFinding,
	EventCommentAdded:     CategoryFinding,
	EventSyncStarted:      CategorySync,
	EventSyncCompleted:    CategorySync,
	EventUserPresence:     CategoryPresence,
	EventUserDisconnected: CategoryPresence,
	EventGetActiveUsers:   CategoryControl,
	EventReminderDue:      CategoryFinding,
	EventEscalationDue:    CategoryFinding,
	EventConflictDetected: CategoryConflict,
	EventConflictResolved: CategoryConflict,
}

// CategoryOf maps an event type to its category. Unknown types fall into
// CategoryOther, the catch-all bucket.
func CategoryOf(t EventType) EventCategory {
	if cat, ok := categoryOf[t]; ok {
		return cat
	}
	return CategoryOther
}

// Envelope is the wire shape of every bus event. It is immutable once
// published; the bus never rewrites a received envelope.
//
// Seq is a per-audit monotonic counter stamped by the hub at publish time.
// It orders events from the hub's perspective only; there is no global order
// across independently connected nodes.
type Envelope struct {
	Type      EventType       `json:"type"`
	AuditID   string          `json:"auditId"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    string          `json:"userId,omitempty"`
	Seq       uint64          `json:"seq,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an envelope with a marshalled payload. A nil payload
// leaves Data empty.
func NewEnvelope(t EventType, auditID string, userID string, payload any) (Envelope, error) {
	env := Envelope{
		Type:      t,
		AuditID:   auditID,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		env.Data = raw
	}

	return env, nil
}

// PresencePayload is the Data shape of userPresence/userDisconnected events.
type PresencePayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Status   string `json:"status,omitempty"`
}
