package realtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
)

// Handler upgrades authenticated requests to websocket sessions and
// registers them with the hub.
type Handler struct {
	Hub      *Hub
	upgrader gorilla.Upgrader
}

// NewHandler constructs a Handler. allowedOrigins is the browser origin
// allow-list (the CORS origins); requests without an Origin header are
// non-browser clients and pass.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.ToLower(strings.TrimSpace(o))] = struct{}{}
	}
	return &Handler{
		Hub: hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := origins["*"]; ok {
					return true
				}
				_, ok := origins[strings.ToLower(origin)]
				return ok
			},
		},
	}
}

// RegisterRoutes attaches the websocket join route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.join)
}

func (h *Handler) join(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		telemetry.Error("realtime.upgrade_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	s := &session{conn: conn}
	h.Hub.add(userID, s)
	telemetry.Info("realtime.session_opened", map[string]any{"user_id": userID})

	// The channel is push-only. The read loop exists to observe close
	// frames and tear the session down.
	go func() {
		defer func() {
			h.Hub.remove(userID, s)
			_ = conn.Close()
			telemetry.Info("realtime.session_closed", map[string]any{"user_id": userID})
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
