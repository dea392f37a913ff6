package entitlements

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Entitlement
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Entitlement)}
}

// Get returns the snapshot for a user.
func (r *MemoryRepo) Get(ctx context.Context, userID string) (Entitlement, error) {
	if err := ctx.Err(); err != nil {
		return Entitlement{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.data[userID]
	if !ok {
		return Entitlement{}, ErrNotFound
	}
	return ent, nil
}

// Upsert stores the snapshot keyed by user id.
func (r *MemoryRepo) Upsert(ctx context.Context, ent Entitlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[ent.UserID] = ent
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
