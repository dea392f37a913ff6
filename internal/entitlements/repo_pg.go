package entitlements

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the snapshot for a user.
func (r *PGRepo) Get(ctx context.Context, userID string) (Entitlement, error) {
	const query = `
SELECT user_id, tier, status, subscription_id, period_end, cancel_pending, updated_at
FROM entitlements
WHERE user_id = $1
LIMIT 1`
	var ent Entitlement
	var subscriptionID sql.NullString
	var periodEnd sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&ent.UserID,
		&ent.Tier,
		&ent.Status,
		&subscriptionID,
		&periodEnd,
		&ent.CancelPending,
		&ent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entitlement{}, ErrNotFound
		}
		return Entitlement{}, err
	}
	if subscriptionID.Valid {
		ent.SubscriptionID = subscriptionID.String
	}
	if periodEnd.Valid {
		ent.PeriodEnd = periodEnd.Time
	}
	return ent, nil
}

// Upsert stores the snapshot keyed by user id.
func (r *PGRepo) Upsert(ctx context.Context, ent Entitlement) error {
	const query = `
INSERT INTO entitlements (user_id, tier, status, subscription_id, period_end, cancel_pending, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO UPDATE SET
  tier = EXCLUDED.tier,
  status = EXCLUDED.status,
  subscription_id = EXCLUDED.subscription_id,
  period_end = EXCLUDED.period_end,
  cancel_pending = EXCLUDED.cancel_pending,
  updated_at = EXCLUDED.updated_at`
	var subscriptionID any
	if ent.SubscriptionID != "" {
		subscriptionID = ent.SubscriptionID
	}
	var periodEnd any
	if !ent.PeriodEnd.IsZero() {
		periodEnd = ent.PeriodEnd
	}
	_, err := r.DB.ExecContext(ctx, query,
		ent.UserID,
		string(ent.Tier),
		string(ent.Status),
		subscriptionID,
		periodEnd,
		ent.CancelPending,
		ent.UpdatedAt,
	)
	return err
}

var _ Repo = (*PGRepo)(nil)
