package audit

import (
	"fmt"
	"strings"
	"time"
)

// PresenceStatus is what a tracked user is currently doing in an audit view.
type PresenceStatus string

const (
	PresenceViewing PresenceStatus = "viewing"
	PresenceEditing PresenceStatus = "editing"
	PresenceIdle    PresenceStatus = "idle"
)

var allowedPresenceStatuses = map[PresenceStatus]struct{}{
	PresenceViewing: {},
	PresenceEditing: {},
	PresenceIdle:    {},
}

func NormalizePresenceStatus(raw string) (PresenceStatus, error) {
	status := PresenceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedPresenceStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPresenceStatus, raw)
	}
	return status, nil
}

// PresenceRecord is one tracked user within one audit. Keyed by UserID;
// last event wins, removal is unconditional on disconnect.
type PresenceRecord struct {
	UserID     string         `json:"userId"`
	UserName   string         `json:"userName"`
	Status     PresenceStatus `json:"status"`
	LastActive time.Time      `json:"lastActive"`
	Color      string         `json:"color"`
}
