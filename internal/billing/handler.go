package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/entitlements"
	"resume-builder/internal/realtime"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
)

const signatureHeader = "X-Webhook-Signature"
const maxWebhookBodySize = 64 << 10

// Notifier pushes an activation confirmation to a waiting client session.
type Notifier interface {
	Publish(userID string, event realtime.Event)
}

// Handler exposes billing routes: entitlement read, checkout initiation,
// subscription actions, and the provider webhook.
type Handler struct {
	Entitlements  *entitlements.Service
	Checkout      *CheckoutClient
	Notifier      Notifier
	WebhookSecret []byte
}

// NewHandler constructs a Handler.
func NewHandler(ents *entitlements.Service, checkout *CheckoutClient, notifier Notifier, webhookSecret string) *Handler {
	return &Handler{
		Entitlements:  ents,
		Checkout:      checkout,
		Notifier:      notifier,
		WebhookSecret: []byte(webhookSecret),
	}
}

// RegisterRoutes attaches the authenticated billing routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/billing/entitlement", h.entitlement)
	rg.POST("/billing/checkout", h.checkout)
	rg.POST("/billing/pause", h.pause)
	rg.POST("/billing/resume", h.resume)
	rg.POST("/billing/cancel", h.cancel)
}

// RegisterWebhook attaches the unauthenticated, signature-verified webhook.
func (h *Handler) RegisterWebhook(rg *gin.RouterGroup) {
	rg.POST("/billing/webhook", h.webhook)
}

func (h *Handler) entitlement(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ent, err := h.Entitlements.Get(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load entitlement", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"tier":          ent.EffectiveTier(),
		"status":        ent.Status,
		"periodEnd":     ent.PeriodEnd,
		"cancelPending": ent.CancelPending,
	})
}

func (h *Handler) checkout(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if h.Checkout == nil {
		respond.Error(c, http.StatusServiceUnavailable, "billing_not_configured", "billing is not configured", nil)
		return
	}
	url, err := h.Checkout.CreateSession(userID)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "checkout_failed", "failed to start checkout", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"checkoutUrl": url})
}

func (h *Handler) pause(c *gin.Context) {
	h.subscriptionAction(c, h.Entitlements.Pause)
}

func (h *Handler) resume(c *gin.Context) {
	h.subscriptionAction(c, h.Entitlements.Resume)
}

func (h *Handler) cancel(c *gin.Context) {
	h.subscriptionAction(c, h.Entitlements.Cancel)
}

func (h *Handler) subscriptionAction(c *gin.Context, action func(ctx context.Context, userID string) (entitlements.Entitlement, error)) {
	userID := middleware.UserIDFromContext(c)

	ent, err := action(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, entitlements.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no subscription on file", nil)
		case errors.Is(err, entitlements.ErrInvalidTransition):
			respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update subscription", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"tier": ent.EffectiveTier(), "status": ent.Status})
}

// webhook verifies and applies a provider event. Signature failures reject
// with no state change; intentionally ignored event types still ack 200.
func (h *Handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "unable to read body", nil)
		return
	}

	if err := VerifySignature(body, c.GetHeader(signatureHeader), h.WebhookSecret); err != nil {
		metrics.IncWebhookRejected()
		respond.Error(c, http.StatusUnauthorized, "invalid_signature", "webhook signature verification failed", nil)
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "malformed event", nil)
		return
	}

	switch event.Type {
	case EventSubscriptionActivated:
		periodEnd := time.Unix(event.PeriodEnd, 0).UTC()
		if _, err := h.Entitlements.Activate(c.Request.Context(), event.UserID, event.SubscriptionID, periodEnd, event.CancelAtPeriodEnd); err != nil {
			telemetry.Error("billing.webhook_apply_failed", map[string]any{
				"event_id": event.ID,
				"type":     event.Type,
				"error":    err.Error(),
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to apply event", nil)
			return
		}
		// Exactly one confirmation per activation event.
		if h.Notifier != nil {
			h.Notifier.Publish(event.UserID, realtime.Event{
				Name:      realtime.EventActivated,
				Success:   true,
				Timestamp: time.Now().UTC(),
			})
		}
		metrics.IncWebhookApplied()
	case EventSubscriptionCancelled:
		if _, err := h.Entitlements.Cancel(c.Request.Context(), event.UserID); err != nil && !errors.Is(err, entitlements.ErrNotFound) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to apply event", nil)
			return
		}
		metrics.IncWebhookApplied()
	default:
		telemetry.Info("billing.webhook_ignored", map[string]any{
			"event_id": event.ID,
			"type":     event.Type,
		})
	}

	respond.JSON(c, http.StatusOK, gin.H{"received": true})
}
