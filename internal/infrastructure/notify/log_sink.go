// Package notify provides the default NotificationSink. Production
// deployments replace it with an adapter for their paging/inbox system; the
// core only requires the capability, not the delivery mechanism.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/ports"
)

type LogSink struct{}

var _ ports.NotificationSink = (*LogSink)(nil)

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Notify(ctx context.Context, n ports.Notification) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logging.Info(ctx, "notification",
		slog.String("component", "notify.log"),
		slog.String("severity", string(n.Severity)),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
		slog.String("audit_id", n.AuditID),
		slog.String("finding_id", n.FindingID),
		slog.String("user_id", n.UserID),
	)
	return nil
}
