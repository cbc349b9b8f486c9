package redisstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVoteRepo(t *testing.T) (*VoteRepo, func(d time.Duration)) {
	t.Helper()
	mr, rdb, store := newTestStore(t)
	return NewVoteRepo(rdb, store, 30*24*time.Hour), mr.FastForward
}

func TestRegisterVote_FirstVoteWins(t *testing.T) {
	repo, _ := newTestVoteRepo(t)
	ctx := context.Background()

	won, count, err := repo.RegisterVote(ctx, "work-42", "+15550001111")
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, int64(1), count)

	voted, err := repo.HasVoted(ctx, "work-42", "+15550001111")
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestRegisterVote_DuplicateLoses(t *testing.T) {
	repo, _ := newTestVoteRepo(t)
	ctx := context.Background()

	_, _, err := repo.RegisterVote(ctx, "work-42", "+15550001111")
	require.NoError(t, err)

	won, count, err := repo.RegisterVote(ctx, "work-42", "+15550001111")
	require.NoError(t, err)
	assert.False(t, won)
	assert.Equal(t, int64(1), count, "losing call must not increment")

	n, err := repo.Count(ctx, "work-42")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegisterVote_DistinctPhonesBothCount(t *testing.T) {
	repo, _ := newTestVoteRepo(t)
	ctx := context.Background()

	won1, _, err := repo.RegisterVote(ctx, "work-42", "+15550001111")
	require.NoError(t, err)
	won2, count, err := repo.RegisterVote(ctx, "work-42", "+15550002222")
	require.NoError(t, err)

	assert.True(t, won1)
	assert.True(t, won2)
	assert.Equal(t, int64(2), count)
}

// The race-closing property: N concurrent registrations for the same
// (work, phone) yield exactly one winner and a counter increase of exactly 1.
func TestRegisterVote_ConcurrentDuplicates(t *testing.T) {
	repo, _ := newTestVoteRepo(t)
	ctx := context.Background()

	const workers = 32
	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, _, err := repo.RegisterVote(ctx, "work-7", "+15550001111")
			if err != nil {
				t.Error(err)
				return
			}
			if won {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
	count, err := repo.Count(ctx, "work-7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRegisterVote_MarkerExpiryAllowsRevote(t *testing.T) {
	repo, fastForward := newTestVoteRepo(t)
	ctx := context.Background()

	_, _, err := repo.RegisterVote(ctx, "work-42", "+15550001111")
	require.NoError(t, err)

	fastForward(30*24*time.Hour + time.Minute)

	voted, err := repo.HasVoted(ctx, "work-42", "+15550001111")
	require.NoError(t, err)
	assert.False(t, voted, "marker expires after retention window")

	// Accepted retention policy: the counter outlives the marker, so the
	// re-vote lands on top of the historical count.
	won, count, err := repo.RegisterVote(ctx, "work-42", "+15550001111")
	require.NoError(t, err)
	assert.True(t, won)
	assert.Equal(t, int64(2), count)
}

func TestCount_UnknownWorkIsZero(t *testing.T) {
	repo, _ := newTestVoteRepo(t)

	n, err := repo.Count(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLeaderboard_OrderAndTieBreak(t *testing.T) {
	repo, _ := newTestVoteRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := repo.RegisterVote(ctx, "work-b", fmt.Sprintf("+1555000%04d", i))
		require.NoError(t, err)
	}
	for i := 0; i < 1; i++ {
		_, _, err := repo.RegisterVote(ctx, "work-c", fmt.Sprintf("+1555111%04d", i))
		require.NoError(t, err)
	}
	_, _, err := repo.RegisterVote(ctx, "work-a", "+15552220000")
	require.NoError(t, err)

	entries, err := repo.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "work-b", entries[0].WorkID)
	assert.Equal(t, int64(3), entries[0].Votes)
	// work-a and work-c are tied at 1; ties order by work id ascending.
	assert.Equal(t, "work-a", entries[1].WorkID)
	assert.Equal(t, "work-c", entries[2].WorkID)
}

func TestTotals(t *testing.T) {
	repo, _ := newTestVoteRepo(t)
	ctx := context.Background()

	_, _, err := repo.RegisterVote(ctx, "work-a", "+15550001111")
	require.NoError(t, err)
	_, _, err = repo.RegisterVote(ctx, "work-a", "+15550002222")
	require.NoError(t, err)
	_, _, err = repo.RegisterVote(ctx, "work-b", "+15550001111")
	require.NoError(t, err)

	works, votes, err := repo.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, works)
	assert.Equal(t, int64(3), votes)
}
