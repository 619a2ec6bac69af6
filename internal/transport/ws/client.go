package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/domain/audit"
	"voltaudit/internal/errs"
	"voltaudit/internal/infrastructure/bus"
	"voltaudit/internal/ports"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// client is one websocket connection bound to one audit channel.
type client struct {
	conn    *websocket.Conn
	sub     ports.EventSubscription
	hub     ports.EventBus
	tracker *bus.PresenceTracker

	auditID  string
	userID   string
	userName string

	// direct carries replies (getActiveUsers) that bypass the bus.
	direct chan any
	done   chan struct{}
}

// run services the connection until either pump exits. On the way out the
// client's departure is broadcast so every other viewer drops its presence
// record; activity entries already written are untouched.
func (c *client) run(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)

	close(c.done)
	c.sub.Close()

	c.announce(ctx, audit.EventUserDisconnected, "")
	_ = c.conn.Close()
}

func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(64 << 10)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn(ctx, "websocket closed unexpectedly", slog.Any("err", errs.Loggable(err)))
			}
			return
		}

		env, err := bus.DecodeEnvelope(raw)
		if err != nil {
			// Malformed payloads are dropped; the connection and the other
			// subscribers keep working.
			logging.Warn(ctx, "malformed event dropped", slog.Any("err", errs.Loggable(err)))
			continue
		}

		// Clients only speak for their own audit channel.
		env.AuditID = c.auditID
		if env.UserID == "" {
			env.UserID = c.userID
		}

		if env.Type == audit.EventGetActiveUsers {
			c.reply(activeUsersReply{
				Type:    string(audit.EventGetActiveUsers),
				AuditID: c.auditID,
				Users:   c.tracker.ActiveUsers(c.auditID),
			})
			continue
		}

		if err := c.hub.Publish(ctx, env); err != nil {
			logging.Warn(ctx, "inbound event rejected", slog.Any("err", errs.Loggable(err)))
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case env, ok := <-c.sub.C():
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeJSON(env); err != nil {
				return
			}
		case payload := <-c.direct:
			if err := c.writeJSON(payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) reply(payload any) {
	select {
	case c.direct <- payload:
	case <-c.done:
	}
}

func (c *client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) writeJSON(payload any) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(payload)
}

// announce publishes this client's own presence transition.
func (c *client) announce(ctx context.Context, eventType audit.EventType, status audit.PresenceStatus) {
	env, err := audit.NewEnvelope(eventType, c.auditID, c.userID, audit.PresencePayload{
		UserID:   c.userID,
		UserName: c.userName,
		Status:   string(status),
	})
	if err != nil {
		return
	}
	if err := c.hub.Publish(ctx, env); err != nil {
		logging.Warn(ctx, "presence announce failed", slog.Any("err", errs.Loggable(err)))
	}
}

type activeUsersReply struct {
	Type    string                 `json:"type"`
	AuditID string                 `json:"auditId"`
	Users   []audit.PresenceRecord `json:"users"`
}
