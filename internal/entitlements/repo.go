package entitlements

import "context"

// Repo defines persistence operations for entitlement snapshots.
type Repo interface {
	Get(ctx context.Context, userID string) (Entitlement, error)
	Upsert(ctx context.Context, ent Entitlement) error
}
