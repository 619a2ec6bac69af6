package bus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

// presencePalette is the pool of display colors handed to newly tracked
// users. Assignment cycles through the pool per audit.
var presencePalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#46f0f0", "#f032e6",
}

// PresenceTracker derives the set of users currently in each audit from
// presence events on the bus. Records are last-writer-wins and fully owned
// by the bus side; the workflow engine never touches them.
type PresenceTracker struct {
	mu      sync.RWMutex
	records map[string]map[string]audit.PresenceRecord
	colors  map[string]int
	timeout time.Duration
	clock   func() time.Time
}

func NewPresenceTracker(timeout time.Duration) *PresenceTracker {
	return &PresenceTracker{
		records: make(map[string]map[string]audit.PresenceRecord),
		colors:  make(map[string]int),
		timeout: timeout,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Run consumes presence events until ctx is done, evicting stale records on
// every reaper tick. Heartbeats older than the timeout count as departed.
func (t *PresenceTracker) Run(ctx context.Context, eventBus ports.EventBus) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if eventBus == nil {
		return errors.New("event bus is required")
	}

	sub, err := eventBus.Subscribe("", audit.CategoryPresence)
	if err != nil {
		return err
	}
	defer sub.Close()

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bus.presence"))
	reaper := time.NewTicker(t.timeout / 2)
	defer reaper.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-sub.C():
			if !ok {
				return nil
			}
			t.Apply(logCtx, env)
		case <-reaper.C:
			t.evictStale(logCtx)
		}
	}
}

// Apply folds one presence event into the tracked state. Malformed payloads
// are logged and dropped.
func (t *PresenceTracker) Apply(ctx context.Context, env audit.Envelope) {
	var payload audit.PresencePayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			logging.Warn(ctx, "malformed presence payload dropped",
				slog.String("event_type", string(env.Type)),
				slog.String("audit_id", env.AuditID),
			)
			return
		}
	}
	if payload.UserID == "" {
		payload.UserID = env.UserID
	}
	if payload.UserID == "" {
		return
	}

	switch env.Type {
	case audit.EventUserPresence:
		status, err := audit.NormalizePresenceStatus(payload.Status)
		if err != nil {
			status = audit.PresenceViewing
		}
		t.upsert(env.AuditID, payload.UserID, payload.UserName, status)
	case audit.EventUserDisconnected:
		t.remove(env.AuditID, payload.UserID)
	}
}

func (t *PresenceTracker) upsert(auditID, userID, userName string, status audit.PresenceStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byUser, ok := t.records[auditID]
	if !ok {
		byUser = make(map[string]audit.PresenceRecord)
		t.records[auditID] = byUser
	}

	record, tracked := byUser[userID]
	if !tracked {
		record = audit.PresenceRecord{
			UserID: userID,
			Color:  t.nextColorLocked(auditID),
		}
	}
	if userName != "" {
		record.UserName = userName
	}
	record.Status = status
	record.LastActive = t.clock()
	byUser[userID] = record
}

func (t *PresenceTracker) remove(auditID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if byUser, ok := t.records[auditID]; ok {
		delete(byUser, userID)
		if len(byUser) == 0 {
			delete(t.records, auditID)
		}
	}
}

func (t *PresenceTracker) nextColorLocked(auditID string) string {
	idx := t.colors[auditID]
	t.colors[auditID] = idx + 1
	return presencePalette[idx%len(presencePalette)]
}

func (t *PresenceTracker) evictStale(ctx context.Context) {
	cutoff := t.clock().Add(-t.timeout)

	t.mu.Lock()
	defer t.mu.Unlock()

	for auditID, byUser := range t.records {
		for userID, record := range byUser {
			if record.LastActive.Before(cutoff) {
				delete(byUser, userID)
				logging.Info(ctx, "presence record expired",
					slog.String("audit_id", auditID),
					slog.String("user_id", userID),
				)
			}
		}
		if len(byUser) == 0 {
			delete(t.records, auditID)
		}
	}
}

// ActiveUsers snapshots the tracked users of one audit, ordered by user id.
func (t *PresenceTracker) ActiveUsers(auditID string) []audit.PresenceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byUser := t.records[auditID]
	out := make([]audit.PresenceRecord, 0, len(byUser))
	for _, record := range byUser {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
