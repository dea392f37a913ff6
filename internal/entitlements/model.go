package entitlements

import "time"

// Tier is the effective plan level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Status is the subscription lifecycle status.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
)

// Entitlement is the per-user subscription snapshot. It is written by the
// payment webhook reconciler and by explicit pause/resume/cancel actions,
// and read by the gate. It is never hard-deleted, only transitioned.
type Entitlement struct {
	UserID         string    `json:"userId"`
	Tier           Tier      `json:"tier"`
	Status         Status    `json:"status"`
	SubscriptionID string    `json:"subscriptionId,omitempty"`
	PeriodEnd      time.Time `json:"periodEnd,omitempty"`
	CancelPending  bool      `json:"cancelPending"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// EffectiveTier resolves the tier used for gating. Only an active premium
// subscription grants premium features; paused and cancelled degrade to free
// while preserving the snapshot.
func (e Entitlement) EffectiveTier() Tier {
	if e.Tier == TierPremium && e.Status == StatusActive {
		return TierPremium
	}
	return TierFree
}

func defaultEntitlement(userID string) Entitlement {
	return Entitlement{
		UserID:    userID,
		Tier:      TierFree,
		Status:    StatusActive,
		UpdatedAt: time.Now().UTC(),
	}
}
