package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service manages entitlement snapshots. Reads default to the free tier so
// every user has an effective entitlement without provisioning.
type Service struct {
	Repo Repo
	Gate Gate
}

// NewService constructs a Service.
func NewService(repo Repo, gate Gate) *Service {
	return &Service{Repo: repo, Gate: gate}
}

// Get returns the user's snapshot, defaulting to free tier if none exists.
func (s *Service) Get(ctx context.Context, userID string) (Entitlement, error) {
	ent, err := s.Repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return defaultEntitlement(userID), nil
		}
		return Entitlement{}, err
	}
	return ent, nil
}

// CanCreate evaluates the creation quota for a user holding currentCount
// documents. Satisfies the persistence gateway's gate dependency.
func (s *Service) CanCreate(ctx context.Context, userID string, currentCount int) (bool, error) {
	ent, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.Gate.CanCreate(ent.EffectiveTier(), currentCount), nil
}

// CanCustomize evaluates premium customization access for a user.
func (s *Service) CanCustomize(ctx context.Context, userID string) (bool, error) {
	ent, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.Gate.CanCustomize(ent.EffectiveTier()), nil
}

// CanUseGeneration evaluates AI-assisted generation access for a user.
func (s *Service) CanUseGeneration(ctx context.Context, userID string) (bool, error) {
	ent, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.Gate.CanUseGeneration(ent.EffectiveTier()), nil
}

// Activate upserts the snapshot from a verified activation event. It is the
// only path that grants the premium tier.
func (s *Service) Activate(ctx context.Context, userID, subscriptionID string, periodEnd time.Time, cancelAtPeriodEnd bool) (Entitlement, error) {
	ent := Entitlement{
		UserID:         userID,
		Tier:           TierPremium,
		Status:         StatusActive,
		SubscriptionID: subscriptionID,
		PeriodEnd:      periodEnd,
		CancelPending:  cancelAtPeriodEnd,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.Repo.Upsert(ctx, ent); err != nil {
		return Entitlement{}, fmt.Errorf("upsert entitlement: %w", err)
	}
	return ent, nil
}

// Cancel transitions the snapshot to cancelled. Snapshots are never
// deleted, so a later activation event restores premium cleanly.
func (s *Service) Cancel(ctx context.Context, userID string) (Entitlement, error) {
	return s.transition(ctx, userID, func(ent *Entitlement) error {
		ent.Status = StatusCancelled
		ent.CancelPending = false
		return nil
	})
}

// Pause suspends premium features without discarding the subscription.
func (s *Service) Pause(ctx context.Context, userID string) (Entitlement, error) {
	return s.transition(ctx, userID, func(ent *Entitlement) error {
		if ent.Tier != TierPremium || ent.Status != StatusActive {
			return ErrInvalidTransition
		}
		ent.Status = StatusPaused
		return nil
	})
}

// Resume reinstates a paused subscription.
func (s *Service) Resume(ctx context.Context, userID string) (Entitlement, error) {
	return s.transition(ctx, userID, func(ent *Entitlement) error {
		if ent.Status != StatusPaused {
			return ErrInvalidTransition
		}
		ent.Status = StatusActive
		return nil
	})
}

func (s *Service) transition(ctx context.Context, userID string, mutate func(*Entitlement) error) (Entitlement, error) {
	ent, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if err := mutate(&ent); err != nil {
		return Entitlement{}, err
	}
	ent.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Upsert(ctx, ent); err != nil {
		return Entitlement{}, fmt.Errorf("upsert entitlement: %w", err)
	}
	return ent, nil
}
