// Package bus is the in-process broadcast fan-out behind ports.EventBus.
//
// Delivery is at-most-once per subscription: a subscriber that cannot keep up
// has events dropped for it alone, and a misbehaving subscriber can never
// block delivery to the others because no subscriber code runs inside the
// hub. Ordering is per-publisher FIFO; there is no global order across nodes.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

const defaultSubscriptionBuffer = 64

var (
	ErrEventTypeRequired = errors.New("event type is required")
	ErrAuditIDRequired   = errors.New("event audit id is required")
)

type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	seq    map[string]uint64
	buffer int
	closed bool
}

var _ ports.EventBus = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[*subscription]struct{}),
		seq:    make(map[string]uint64),
		buffer: defaultSubscriptionBuffer,
	}
}

// Publish stamps the per-audit sequence number and fans the envelope out to
// every matching subscription. A full subscriber drops this event; the drop
// is logged and delivery to the remaining subscribers continues.
func (h *Hub) Publish(ctx context.Context, env audit.Envelope) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if strings.TrimSpace(string(env.Type)) == "" {
		return ErrEventTypeRequired
	}
	if strings.TrimSpace(env.AuditID) == "" {
		return ErrAuditIDRequired
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errors.New("hub is closed")
	}
	h.seq[env.AuditID]++
	env.Seq = h.seq[env.AuditID]

	receivers := make([]*subscription, 0, len(h.subs))
	for sub := range h.subs {
		if sub.matches(env) {
			receivers = append(receivers, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range receivers {
		select {
		case sub.ch <- env:
		default:
			logging.Warn(ctx, "subscriber full, event dropped",
				slog.String("component", "bus.hub"),
				slog.String("event_type", string(env.Type)),
				slog.String("audit_id", env.AuditID),
			)
		}
	}

	return nil
}

// Subscribe registers a receiver for one audit's events, or for every audit
// when auditID is empty (used by the cross-node relay). No categories means
// all categories.
func (h *Hub) Subscribe(auditID string, categories ...audit.EventCategory) (ports.EventSubscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("hub is closed")
	}

	sub := &subscription{
		hub:     h,
		auditID: strings.TrimSpace(auditID),
		ch:      make(chan audit.Envelope, h.buffer),
	}
	if len(categories) > 0 {
		sub.categories = make(map[audit.EventCategory]struct{}, len(categories))
		for _, cat := range categories {
			sub.categories[cat] = struct{}{}
		}
	}

	h.subs[sub] = struct{}{}
	return sub, nil
}

// Close drops all subscriptions and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.closeChannel()
	}
	h.subs = make(map[*subscription]struct{})
}

type subscription struct {
	hub        *Hub
	auditID    string
	categories map[audit.EventCategory]struct{}
	ch         chan audit.Envelope
	closeOnce  sync.Once
}

func (s *subscription) matches(env audit.Envelope) bool {
	if s.auditID != "" && s.auditID != env.AuditID {
		return false
	}
	if s.categories == nil {
		return true
	}
	_, ok := s.categories[audit.CategoryOf(env.Type)]
	return ok
}

func (s *subscription) C() <-chan audit.Envelope {
	return s.ch
}

func (s *subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
	s.closeChannel()
}

func (s *subscription) closeChannel() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// DecodeEnvelope parses a wire payload. Malformed payloads are an error for
// the caller to log and drop; decoding never panics the bus.
func DecodeEnvelope(raw []byte) (audit.Envelope, error) {
	var env audit.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return audit.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(string(env.Type)) == "" {
		return audit.Envelope{}, ErrEventTypeRequired
	}
	if strings.TrimSpace(env.AuditID) == "" {
		return audit.Envelope{}, ErrAuditIDRequired
	}
	return env, nil
}
