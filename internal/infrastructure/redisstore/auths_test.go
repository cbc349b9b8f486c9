package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladmit/RPA2/internal/domain"
)

func pending(token string) *domain.PendingAuth {
	return &domain.PendingAuth{
		Token:         token,
		Phone:         "+15550001111",
		Step:          domain.StepAwaitingCode,
		SessionHandle: "handle-1",
		CodeHash:      "hash-1",
		CreatedAt:     time.Now(),
	}
}

func TestPendingAuthRepo_RoundTrip(t *testing.T) {
	_, _, store := newTestStore(t)
	repo := NewPendingAuthRepo(store, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, pending("tok1")))

	got, err := repo.Get(ctx, "tok1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepAwaitingCode, got.Step)
	assert.Equal(t, "handle-1", got.SessionHandle)
}

func TestPendingAuthRepo_UnknownTokenExpired(t *testing.T) {
	_, _, store := newTestStore(t)
	repo := NewPendingAuthRepo(store, 30*time.Minute)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestPendingAuthRepo_ExpiresAfterWindow(t *testing.T) {
	mr, _, store := newTestStore(t)
	repo := NewPendingAuthRepo(store, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, pending("tok1")))
	mr.FastForward(31 * time.Minute)

	_, err := repo.Get(ctx, "tok1")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestPendingAuthRepo_StepAdvanceKeepsWindow(t *testing.T) {
	_, _, store := newTestStore(t)
	repo := NewPendingAuthRepo(store, 30*time.Minute)
	ctx := context.Background()

	p := pending("tok1")
	p.CreatedAt = time.Now().Add(-29 * time.Minute)
	require.NoError(t, repo.Put(ctx, p))

	// Advancing the step re-persists the record; the window stays anchored
	// to CreatedAt instead of resetting to a fresh 30 minutes.
	p.Step = domain.StepAwaitingSecondFactor
	require.NoError(t, repo.Put(ctx, p))

	p.CreatedAt = time.Now().Add(-31 * time.Minute)
	assert.ErrorIs(t, repo.Put(ctx, p), domain.ErrSessionExpired)
}

func TestPendingAuthRepo_DeleteConsumesToken(t *testing.T) {
	_, _, store := newTestStore(t)
	repo := NewPendingAuthRepo(store, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, pending("tok1")))
	require.NoError(t, repo.Delete(ctx, "tok1"))

	_, err := repo.Get(ctx, "tok1")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}
