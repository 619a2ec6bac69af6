package ports

import (
	"context"

	"voltaudit/internal/domain/audit"
)

// Notification is a user-facing message emitted by the workflow core or the
// reminder sweep. De-duplication of repeated notifications is the sink's
// concern, not the emitter's.
type Notification struct {
	Severity  audit.NotificationSeverity
	Title     string
	Message   string
	AuditID   string
	FindingID string
	UserID    string
}

// NotificationSink is an injected capability, never a package-level
// singleton. Implementations are best-effort: callers log failures and
// continue.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}
