package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/entitlements"
	"resume-builder/internal/realtime"
	"resume-builder/internal/shared/server/middleware"
)

const testSecret = "webhook-test-secret"

type notifierStub struct {
	mu     sync.Mutex
	events map[string][]realtime.Event
}

func newNotifierStub() *notifierStub {
	return &notifierStub{events: make(map[string][]realtime.Event)}
}

func (n *notifierStub) Publish(userID string, event realtime.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[userID] = append(n.events[userID], event)
}

func (n *notifierStub) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events[userID])
}

func setupBillingRouter(t *testing.T) (*gin.Engine, *entitlements.Service, *notifierStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	entSvc := entitlements.NewService(entitlements.NewMemoryRepo(), entitlements.NewGate(3))
	notifier := newNotifierStub()
	handler := NewHandler(entSvc, nil, notifier, testSecret)

	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	handler.RegisterWebhook(api)

	return router, entSvc, notifier
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func activationBody(t *testing.T, userID string) []byte {
	t.Helper()
	body, err := json.Marshal(Event{
		ID:             "evt-1",
		Type:           EventSubscriptionActivated,
		UserID:         userID,
		SubscriptionID: "sub-1",
		PeriodEnd:      time.Now().Add(30 * 24 * time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router, entSvc, notifier := setupBillingRouter(t)
	body := activationBody(t, "user-1")

	tests := []struct {
		name      string
		signature string
	}{
		{name: "missing", signature: ""},
		{name: "not hex", signature: "zzzz"},
		{name: "wrong secret", signature: Sign(body, []byte("other-secret"))},
		{name: "signature of different body", signature: Sign([]byte(`{}`), []byte(testSecret))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := postWebhook(router, body, tt.signature)
			if resp.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}

	// Nothing may change on rejected deliveries.
	ent, err := entSvc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ent.EffectiveTier() != entitlements.TierFree {
		t.Fatalf("rejected webhook mutated entitlement: %+v", ent)
	}
	if notifier.count("user-1") != 0 {
		t.Fatalf("rejected webhook pushed a notification")
	}
}

func TestWebhookActivationAppliesAndNotifiesOnce(t *testing.T) {
	router, entSvc, notifier := setupBillingRouter(t)
	body := activationBody(t, "user-1")

	resp := postWebhook(router, body, Sign(body, []byte(testSecret)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	ent, err := entSvc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ent.EffectiveTier() != entitlements.TierPremium {
		t.Fatalf("activation did not grant premium: %+v", ent)
	}
	if ent.SubscriptionID != "sub-1" {
		t.Fatalf("subscription id not recorded: %q", ent.SubscriptionID)
	}

	if got := notifier.count("user-1"); got != 1 {
		t.Fatalf("expected exactly one confirmation push, got %d", got)
	}
	if got := notifier.count("user-2"); got != 0 {
		t.Fatalf("confirmation leaked to another user")
	}
	notifier.mu.Lock()
	event := notifier.events["user-1"][0]
	notifier.mu.Unlock()
	if event.Name != realtime.EventActivated || !event.Success {
		t.Fatalf("unexpected confirmation payload: %+v", event)
	}
}

func TestWebhookCancellation(t *testing.T) {
	router, entSvc, notifier := setupBillingRouter(t)

	body := activationBody(t, "user-1")
	resp := postWebhook(router, body, Sign(body, []byte(testSecret)))
	if resp.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d", resp.Code)
	}

	cancelBody, err := json.Marshal(Event{ID: "evt-2", Type: EventSubscriptionCancelled, UserID: "user-1"})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	resp = postWebhook(router, cancelBody, Sign(cancelBody, []byte(testSecret)))
	if resp.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	ent, err := entSvc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ent.Status != entitlements.StatusCancelled || ent.EffectiveTier() != entitlements.TierFree {
		t.Fatalf("cancellation not applied: %+v", ent)
	}
	if got := notifier.count("user-1"); got != 1 {
		t.Fatalf("cancellation must not push activation confirmations, got %d", got)
	}
}

func TestWebhookCancellationForUnknownUserAcks(t *testing.T) {
	router, _, _ := setupBillingRouter(t)

	body, err := json.Marshal(Event{ID: "evt-3", Type: EventSubscriptionCancelled, UserID: "nobody"})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	resp := postWebhook(router, body, Sign(body, []byte(testSecret)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown user cancel, got %d", resp.Code)
	}
}

func TestWebhookIgnoresUnknownEventTypes(t *testing.T) {
	router, entSvc, notifier := setupBillingRouter(t)

	body, err := json.Marshal(Event{ID: "evt-4", Type: "invoice.paid", UserID: "user-1"})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	resp := postWebhook(router, body, Sign(body, []byte(testSecret)))
	if resp.Code != http.StatusOK {
		t.Fatalf("unknown event types must still ack, got %d", resp.Code)
	}

	ent, _ := entSvc.Get(context.Background(), "user-1")
	if ent.EffectiveTier() != entitlements.TierFree {
		t.Fatalf("ignored event mutated entitlement: %+v", ent)
	}
	if notifier.count("user-1") != 0 {
		t.Fatalf("ignored event pushed a notification")
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	router, _, _ := setupBillingRouter(t)

	body := []byte("{not json")
	resp := postWebhook(router, body, Sign(body, []byte(testSecret)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.Code)
	}
}

func TestEntitlementEndpointDefaultsToFree(t *testing.T) {
	router, _, _ := setupBillingRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/entitlement", nil)
	req.Header.Set("X-Guest-Id", "guest-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Tier   string `json:"tier"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Tier != "free" || out.Status != "active" {
		t.Fatalf("expected free/active default, got %s/%s", out.Tier, out.Status)
	}
}

func TestPauseWithoutSubscriptionReturnsNotFound(t *testing.T) {
	router, _, _ := setupBillingRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/pause", nil)
	req.Header.Set("X-Guest-Id", "guest-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	body := []byte(`{"type":"subscription.activated"}`)
	secret := []byte("s3cret")

	if err := VerifySignature(body, Sign(body, secret), secret); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := VerifySignature(body, Sign(body, []byte("other")), secret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if err := VerifySignature(body, Sign(body, secret), nil); err == nil {
		t.Fatalf("missing secret must fail verification")
	}
}
