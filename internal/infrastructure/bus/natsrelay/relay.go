// Package natsrelay bridges the in-process hub to NATS so several nodes can
// serve the same audits. The relay preserves the bus contract: at-most-once,
// per-publisher FIFO, no replay. When NATS is unreachable the node degrades
// to local-only delivery and the client library retries in the background.
package natsrelay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

const subjectPrefix = "voltaudit.audit."

// wireMessage wraps an envelope with the publishing node's identity so a
// relay never re-forwards its own traffic.
type wireMessage struct {
	Origin   string         `json:"origin"`
	Envelope audit.Envelope `json:"envelope"`
}

type Relay struct {
	nc       *nats.Conn
	hub      ports.EventBus
	originID string

	mu       sync.Mutex
	injected map[string]struct{}
}

// New connects to NATS. originID must be unique per node.
func New(url string, originID string, hub ports.EventBus) (*Relay, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if originID == "" {
		return nil, errors.New("origin id is required")
	}
	if hub == nil {
		return nil, errors.New("event bus is required")
	}

	nc, err := nats.Connect(url,
		nats.Name("voltaudit-relay-"+originID),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	return &Relay{
		nc:       nc,
		hub:      hub,
		originID: originID,
		injected: make(map[string]struct{}),
	}, nil
}

// Start forwards local envelopes to NATS and injects remote ones into the
// local hub until ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bus.natsrelay"))

	remoteSub, err := r.nc.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		r.handleRemote(logCtx, msg.Data)
	})
	if err != nil {
		return err
	}

	localSub, err := r.hub.Subscribe("")
	if err != nil {
		_ = remoteSub.Unsubscribe()
		return err
	}

	go func() {
		defer func() {
			_ = remoteSub.Unsubscribe()
			localSub.Close()
			r.nc.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-localSub.C():
				if !ok {
					return
				}
				r.forwardLocal(logCtx, env)
			}
		}
	}()

	logging.Info(logCtx, "nats relay started", slog.String("origin", r.originID))
	return nil
}

func (r *Relay) forwardLocal(ctx context.Context, env audit.Envelope) {
	if r.consumeInjected(envelopeKey(env)) {
		return
	}

	raw, err := json.Marshal(wireMessage{Origin: r.originID, Envelope: env})
	if err != nil {
		logging.Warn(ctx, "envelope not relayed", slog.String("event_type", string(env.Type)))
		return
	}

	if err := r.nc.Publish(subjectPrefix+env.AuditID, raw); err != nil {
		// Transient: local delivery already happened, remote nodes refresh.
		logging.Warn(ctx, "nats publish failed",
			slog.String("audit_id", env.AuditID),
			slog.String("event_type", string(env.Type)),
		)
	}
}

func (r *Relay) handleRemote(ctx context.Context, raw []byte) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logging.Warn(ctx, "malformed relay message dropped")
		return
	}
	if msg.Origin == r.originID {
		return
	}

	r.markInjected(envelopeKey(msg.Envelope))
	if err := r.hub.Publish(ctx, msg.Envelope); err != nil {
		logging.Warn(ctx, "remote envelope rejected by hub",
			slog.String("event_type", string(msg.Envelope.Type)),
		)
	}
}

func (r *Relay) markInjected(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Bounded: injected keys are consumed on the next local pass; cap guards
	// against a relay whose local subscription stalled.
	if len(r.injected) > 4096 {
		r.injected = make(map[string]struct{})
	}
	r.injected[key] = struct{}{}
}

func (r *Relay) consumeInjected(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.injected[key]; ok {
		delete(r.injected, key)
		return true
	}
	return false
}

func envelopeKey(env audit.Envelope) string {
	return env.AuditID + "|" + string(env.Type) + "|" + env.UserID + "|" + env.Timestamp.String()
}
