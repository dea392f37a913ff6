// Package realtime pushes server-side confirmations to connected clients
// over websockets. Delivery is best-effort: a user with no open session
// simply misses the push and reconciles on next load.
package realtime

import (
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
)

// EventActivated confirms a subscription activation applied server-side.
const EventActivated = "subscription_activated"

const writeTimeout = 5 * time.Second

// Event is a push message delivered to a single user's sessions.
type Event struct {
	Name      string    `json:"event"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// session wraps one websocket connection. Gorilla connections allow only
// one concurrent writer, so every write holds the lock.
type session struct {
	conn     *gorilla.Conn
	connLock sync.Mutex
}

func (s *session) send(event Event) error {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(event)
}

func (s *session) close() {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	_ = s.conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
	_ = s.conn.Close()
}

// Hub tracks open sessions keyed by user id. A user may hold several
// sessions (multiple tabs); events go to all of them and never to anyone
// else.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*session]struct{})}
}

func (h *Hub) add(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[*session]struct{})
		h.sessions[userID] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) remove(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, userID)
	}
}

// Publish delivers an event to every open session of one user. Write
// failures drop the session; they never propagate to the caller.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[userID]))
	for s := range h.sessions[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.send(event); err != nil {
			telemetry.Info("realtime.send_failed", map[string]any{
				"user_id": userID,
				"event":   event.Name,
				"error":   err.Error(),
			})
			h.remove(userID, s)
			_ = s.conn.Close()
			continue
		}
		metrics.IncRealtimeDelivered()
	}
}

// SessionCount reports open sessions for a user.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Shutdown closes every open session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	all := h.sessions
	h.sessions = make(map[string]map[*session]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for s := range set {
			s.close()
		}
	}
}
