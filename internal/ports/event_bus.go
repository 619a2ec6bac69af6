package ports

import (
	"context"

	"voltaudit/internal/domain/audit"
)

// EventSubscription is one receiver on an audit channel. Close is idempotent
// and releases the subscription's slot in the bus.
type EventSubscription interface {
	C() <-chan audit.Envelope
	Close()
}

// EventBus is the typed pub/sub channel carrying all cross-client
// notifications. Delivery is at-most-once per subscription; ordering is
// preserved per publisher only. Subscribing with no categories receives
// every event for the audit.
type EventBus interface {
	Publish(ctx context.Context, env audit.Envelope) error
	Subscribe(auditID string, categories ...audit.EventCategory) (EventSubscription, error)
}
