// Package billing receives payment-provider lifecycle events, reconciles
// them into entitlement snapshots, and initiates checkout sessions.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Event types the reconciler acts on. Anything else is acknowledged and
// ignored.
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// Event is a payment-provider webhook payload.
type Event struct {
	ID                string `json:"id"`
	Type              string `json:"type"`
	UserID            string `json:"userId"`
	SubscriptionID    string `json:"subscriptionId"`
	PeriodEnd         int64  `json:"periodEnd"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
}

// ErrBadSignature indicates the webhook body failed authentication.
var ErrBadSignature = errors.New("webhook signature mismatch")

// VerifySignature checks a hex-encoded HMAC-SHA256 of the raw request body
// against the shared secret. Nothing in the body may be trusted before this
// passes.
func VerifySignature(body []byte, signature string, secret []byte) error {
	if len(secret) == 0 {
		return errors.New("webhook secret not configured")
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of a body. Used by tests and by the
// local event simulator.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
