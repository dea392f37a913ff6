package entitlements

import "testing"

func TestGateCanCreateFreeTierLimit(t *testing.T) {
	gate := NewGate(3)

	tests := []struct {
		name  string
		tier  Tier
		count int
		want  bool
	}{
		{name: "free under limit", tier: TierFree, count: 0, want: true},
		{name: "free one below limit", tier: TierFree, count: 2, want: true},
		{name: "free at limit", tier: TierFree, count: 3, want: false},
		{name: "free over limit", tier: TierFree, count: 10, want: false},
		{name: "premium at limit", tier: TierPremium, count: 3, want: true},
		{name: "premium far over limit", tier: TierPremium, count: 100, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.CanCreate(tt.tier, tt.count); got != tt.want {
				t.Fatalf("CanCreate(%s, %d) = %v, want %v", tt.tier, tt.count, got, tt.want)
			}
		})
	}
}

func TestGateCustomizeAndGeneration(t *testing.T) {
	gate := NewGate(0)

	if gate.CanCustomize(TierFree) {
		t.Fatalf("free tier may not customize")
	}
	if !gate.CanCustomize(TierPremium) {
		t.Fatalf("premium tier must customize")
	}
	if gate.CanUseGeneration(TierFree) {
		t.Fatalf("free tier may not use generation")
	}
	if !gate.CanUseGeneration(TierPremium) {
		t.Fatalf("premium tier must use generation")
	}
}

func TestNewGateDefaultsLimit(t *testing.T) {
	gate := NewGate(0)
	if gate.FreeLimit != DefaultFreeLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultFreeLimit, gate.FreeLimit)
	}
}

func TestEffectiveTierRequiresActiveStatus(t *testing.T) {
	tests := []struct {
		name string
		ent  Entitlement
		want Tier
	}{
		{name: "active premium", ent: Entitlement{Tier: TierPremium, Status: StatusActive}, want: TierPremium},
		{name: "paused premium", ent: Entitlement{Tier: TierPremium, Status: StatusPaused}, want: TierFree},
		{name: "cancelled premium", ent: Entitlement{Tier: TierPremium, Status: StatusCancelled}, want: TierFree},
		{name: "active free", ent: Entitlement{Tier: TierFree, Status: StatusActive}, want: TierFree},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ent.EffectiveTier(); got != tt.want {
				t.Fatalf("EffectiveTier() = %s, want %s", got, tt.want)
			}
		})
	}
}
