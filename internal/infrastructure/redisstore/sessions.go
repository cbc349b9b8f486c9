package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/sladmit/RPA2/internal/domain"
)

// SessionRepo persists authenticated user sessions under session:<id>.
type SessionRepo struct {
	store *Store
	ttl   time.Duration
}

// NewSessionRepo creates the repo. ttl is the fixed session lifetime; reads
// never refresh it.
func NewSessionRepo(store *Store, ttl time.Duration) *SessionRepo {
	return &SessionRepo{store: store, ttl: ttl}
}

// Put stores a freshly created session for the full lifetime.
func (r *SessionRepo) Put(ctx context.Context, sess *domain.UserSession) error {
	return r.store.Put(ctx, prefixSession+sess.SessionID, sess, r.ttl)
}

// Get resolves a session id. Unknown or expired ids surface as
// domain.ErrSessionExpired.
func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.UserSession, error) {
	var sess domain.UserSession
	if err := r.store.Get(ctx, prefixSession+sessionID, &sess); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}
	return &sess, nil
}

// CountActive returns the number of live sessions. Scan-based; reporting only.
func (r *SessionRepo) CountActive(ctx context.Context) (int, error) {
	keys, err := r.store.ScanPrefix(ctx, prefixSession)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
