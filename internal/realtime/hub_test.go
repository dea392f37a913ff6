package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"resume-builder/internal/shared/server/middleware"
)

func setupRealtimeServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	handler := NewHandler(hub, []string{"http://localhost:5173"})

	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Shutdown)
	return srv, hub
}

func dialSession(t *testing.T, srv *httptest.Server, guestID string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	header := http.Header{"X-Guest-Id": []string{guestID}}
	conn, resp, err := gorilla.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSessions(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SessionCount(userID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s: session count never reached %d (have %d)", userID, want, hub.SessionCount(userID))
}

func TestHubDeliversOnlyToTargetUser(t *testing.T) {
	srv, hub := setupRealtimeServer(t)

	alphaConn := dialSession(t, srv, "alpha")
	betaConn := dialSession(t, srv, "beta")
	waitForSessions(t, hub, "guest:alpha", 1)
	waitForSessions(t, hub, "guest:beta", 1)

	sent := Event{Name: EventActivated, Success: true, Timestamp: time.Now().UTC()}
	hub.Publish("guest:alpha", sent)

	var got Event
	_ = alphaConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := alphaConn.ReadJSON(&got); err != nil {
		t.Fatalf("target session did not receive event: %v", err)
	}
	if got.Name != EventActivated || !got.Success {
		t.Fatalf("unexpected payload: %+v", got)
	}

	_ = betaConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := betaConn.ReadMessage(); err == nil {
		t.Fatalf("event leaked to a different user's session")
	}
}

func TestHubFansOutToAllSessionsOfOneUser(t *testing.T) {
	srv, hub := setupRealtimeServer(t)

	first := dialSession(t, srv, "alpha")
	second := dialSession(t, srv, "alpha")
	waitForSessions(t, hub, "guest:alpha", 2)

	hub.Publish("guest:alpha", Event{Name: EventActivated, Success: true, Timestamp: time.Now().UTC()})

	for i, conn := range []*gorilla.Conn{first, second} {
		var got Event
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("session %d missed the event: %v", i, err)
		}
	}
}

func TestHubPublishWithoutSessionsIsNoOp(t *testing.T) {
	hub := NewHub()
	// Nobody is connected; the push is dropped, not queued.
	hub.Publish("guest:nobody", Event{Name: EventActivated, Success: true, Timestamp: time.Now().UTC()})
	if hub.SessionCount("guest:nobody") != 0 {
		t.Fatalf("publish must not create sessions")
	}
}

func TestHubDropsSessionOnClientDisconnect(t *testing.T) {
	srv, hub := setupRealtimeServer(t)

	conn := dialSession(t, srv, "alpha")
	waitForSessions(t, hub, "guest:alpha", 1)

	_ = conn.Close()
	waitForSessions(t, hub, "guest:alpha", 0)
}

func TestHubShutdownClosesSessions(t *testing.T) {
	srv, hub := setupRealtimeServer(t)

	conn := dialSession(t, srv, "alpha")
	waitForSessions(t, hub, "guest:alpha", 1)

	hub.Shutdown()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected read to fail after shutdown")
	}
	if hub.SessionCount("guest:alpha") != 0 {
		t.Fatalf("shutdown left sessions registered")
	}
}

func TestRealtimeJoinChecksOrigin(t *testing.T) {
	srv, hub := setupRealtimeServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"

	// A browser origin outside the allow-list is refused at the handshake.
	header := http.Header{
		"X-Guest-Id": []string{"alpha"},
		"Origin":     []string{"http://evil.example"},
	}
	_, resp, err := gorilla.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatalf("expected handshake failure for disallowed origin")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	}

	// An allowed origin connects normally.
	header = http.Header{
		"X-Guest-Id": []string{"alpha"},
		"Origin":     []string{"http://localhost:5173"},
	}
	conn, resp2, err := gorilla.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial with allowed origin: %v", err)
	}
	if resp2 != nil {
		_ = resp2.Body.Close()
	}
	defer conn.Close()
	waitForSessions(t, hub, "guest:alpha", 1)
}

func TestRealtimeJoinRequiresIdentity(t *testing.T) {
	srv, _ := setupRealtimeServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure without identity")
	}
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	}
}
