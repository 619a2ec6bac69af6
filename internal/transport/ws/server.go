// Package ws exposes the audit event bus to browsers over websockets. One
// connection joins exactly one audit channel; identity arrives from the
// external role provider as forwarded parameters and is not verified here.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/domain/audit"
	"voltaudit/internal/infrastructure/bus"
	"voltaudit/internal/ports"
)

type Server struct {
	hub      ports.EventBus
	tracker  *bus.PresenceTracker
	upgrader websocket.Upgrader
}

func NewServer(hub ports.EventBus, tracker *bus.PresenceTracker) *Server {
	return &Server{
		hub:     hub,
		tracker: tracker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin checks belong to the deployment's proxy layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router mounts the websocket endpoint and the read-only HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/ws/audits/{auditID}", s.handleWebSocket)
	r.Get("/audits/{auditID}/active-users", s.handleActiveUsers)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleActiveUsers(w http.ResponseWriter, r *http.Request) {
	auditID := chi.URLParam(r, "auditID")
	if strings.TrimSpace(auditID) == "" {
		http.Error(w, "audit id is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(activeUsersReply{
		Type:    string(audit.EventGetActiveUsers),
		AuditID: auditID,
		Users:   s.tracker.ActiveUsers(auditID),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	auditID := strings.TrimSpace(chi.URLParam(r, "auditID"))
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	userName := strings.TrimSpace(r.URL.Query().Get("userName"))
	if auditID == "" || userID == "" {
		http.Error(w, "audit id and user id are required", http.StatusBadRequest)
		return
	}

	sub, err := s.hub.Subscribe(auditID)
	if err != nil {
		http.Error(w, "bus unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		return
	}

	ctx := logging.WithAttrs(r.Context(),
		slog.String("component", "transport.ws"),
		slog.String("audit_id", auditID),
		slog.String("user_id", userID),
	)

	c := &client{
		conn:     conn,
		sub:      sub,
		hub:      s.hub,
		tracker:  s.tracker,
		auditID:  auditID,
		userID:   userID,
		userName: userName,
		direct:   make(chan any, 4),
		done:     make(chan struct{}),
	}

	// A freshly connected client is immediately visible to everyone else.
	c.announce(ctx, audit.EventUserPresence, audit.PresenceViewing)

	logging.Info(ctx, "client connected")
	c.run(ctx)
	logging.Info(ctx, "client disconnected")
}
