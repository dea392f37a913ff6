package entitlements

// DefaultFreeLimit caps how many resumes a free-tier user may hold.
const DefaultFreeLimit = 3

// Gate evaluates plan permissions for specific actions. It is consulted
// server-side at the moment of persistence; client-side checks are
// advisory only.
type Gate struct {
	FreeLimit int
}

// NewGate constructs a Gate, falling back to the default free-tier limit.
func NewGate(freeLimit int) Gate {
	if freeLimit <= 0 {
		freeLimit = DefaultFreeLimit
	}
	return Gate{FreeLimit: freeLimit}
}

// CanCreate reports whether a user on the given tier may create another
// document given how many they currently hold.
func (g Gate) CanCreate(tier Tier, currentCount int) bool {
	if tier == TierPremium {
		return true
	}
	return currentCount < g.FreeLimit
}

// CanCustomize reports whether premium customizations are unlocked.
func (g Gate) CanCustomize(tier Tier) bool {
	return tier == TierPremium
}

// CanUseGeneration reports whether AI-assisted generation is unlocked.
func (g Gate) CanUseGeneration(tier Tier) bool {
	return tier == TierPremium
}
