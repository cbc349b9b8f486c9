package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/sladmit/RPA2/internal/domain"
)

// PendingAuthRepo persists in-flight login handshakes under auth:<token>.
type PendingAuthRepo struct {
	store *Store
	ttl   time.Duration
}

// NewPendingAuthRepo creates the repo. ttl is the full handshake window,
// measured from PendingAuth.CreatedAt.
func NewPendingAuthRepo(store *Store, ttl time.Duration) *PendingAuthRepo {
	return &PendingAuthRepo{store: store, ttl: ttl}
}

// Put stores the record with whatever remains of its 30-minute window.
// Re-persisting after a step advance therefore never extends the window.
func (r *PendingAuthRepo) Put(ctx context.Context, p *domain.PendingAuth) error {
	remaining := r.ttl - time.Since(p.CreatedAt)
	if remaining <= 0 {
		return domain.ErrSessionExpired
	}
	return r.store.Put(ctx, prefixPendingAuth+p.Token, p, remaining)
}

// Get returns the pending handshake for token, or domain.ErrSessionExpired
// when the token is unknown or aged out.
func (r *PendingAuthRepo) Get(ctx context.Context, authToken string) (*domain.PendingAuth, error) {
	var p domain.PendingAuth
	if err := r.store.Get(ctx, prefixPendingAuth+authToken, &p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}
	// Redis TTL already bounds the record, but the creation time is the
	// authoritative clock for the fixed window.
	if time.Since(p.CreatedAt) >= r.ttl {
		_ = r.store.Delete(ctx, prefixPendingAuth+authToken)
		return nil, domain.ErrSessionExpired
	}
	return &p, nil
}

// Delete consumes the token.
func (r *PendingAuthRepo) Delete(ctx context.Context, authToken string) error {
	return r.store.Delete(ctx, prefixPendingAuth+authToken)
}
