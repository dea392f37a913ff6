package entitlements

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService() *Service {
	return NewService(NewMemoryRepo(), NewGate(3))
}

func TestGetDefaultsToFreeTier(t *testing.T) {
	svc := newTestService()

	ent, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ent.Tier != TierFree || ent.Status != StatusActive {
		t.Fatalf("expected active free default, got %s/%s", ent.Tier, ent.Status)
	}

	ok, err := svc.CanCreate(context.Background(), "user-1", 0)
	if err != nil || !ok {
		t.Fatalf("expected free user to create below limit, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CanCreate(context.Background(), "user-1", 3)
	if err != nil || ok {
		t.Fatalf("expected free user blocked at limit, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CanCustomize(context.Background(), "user-1")
	if err != nil || ok {
		t.Fatalf("expected free user blocked from customization, ok=%v err=%v", ok, err)
	}
}

func TestActivateGrantsPremium(t *testing.T) {
	svc := newTestService()
	periodEnd := time.Now().Add(30 * 24 * time.Hour).UTC()

	ent, err := svc.Activate(context.Background(), "user-1", "sub-1", periodEnd, false)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if ent.EffectiveTier() != TierPremium {
		t.Fatalf("expected premium after activation, got %s", ent.EffectiveTier())
	}
	if ent.SubscriptionID != "sub-1" {
		t.Fatalf("subscription id not stored: %q", ent.SubscriptionID)
	}

	ok, err := svc.CanCreate(context.Background(), "user-1", 50)
	if err != nil || !ok {
		t.Fatalf("premium create should be unlimited, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CanCustomize(context.Background(), "user-1")
	if err != nil || !ok {
		t.Fatalf("premium customize should pass, ok=%v err=%v", ok, err)
	}
	ok, err = svc.CanUseGeneration(context.Background(), "user-1")
	if err != nil || !ok {
		t.Fatalf("premium generation should pass, ok=%v err=%v", ok, err)
	}
}

func TestCancelDegradesToFree(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Activate(context.Background(), "user-1", "sub-1", time.Now(), false); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	ent, err := svc.Cancel(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if ent.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", ent.Status)
	}
	if ent.EffectiveTier() != TierFree {
		t.Fatalf("cancelled subscription must gate as free")
	}

	// A later activation restores premium on the same snapshot.
	ent, err = svc.Activate(context.Background(), "user-1", "sub-2", time.Now(), false)
	if err != nil {
		t.Fatalf("re-Activate: %v", err)
	}
	if ent.EffectiveTier() != TierPremium || ent.SubscriptionID != "sub-2" {
		t.Fatalf("re-activation failed: %+v", ent)
	}
}

func TestPauseResumeTransitions(t *testing.T) {
	svc := newTestService()

	// Pausing without a subscription on file is invalid.
	if _, err := svc.Pause(context.Background(), "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Activate(context.Background(), "user-1", "sub-1", time.Now(), false); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	ent, err := svc.Pause(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if ent.Status != StatusPaused || ent.EffectiveTier() != TierFree {
		t.Fatalf("paused subscription must gate as free: %+v", ent)
	}

	// Pausing twice is invalid.
	if _, err := svc.Pause(context.Background(), "user-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	ent, err = svc.Resume(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if ent.Status != StatusActive || ent.EffectiveTier() != TierPremium {
		t.Fatalf("resumed subscription must gate as premium: %+v", ent)
	}

	// Resuming an active subscription is invalid.
	if _, err := svc.Resume(context.Background(), "user-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
