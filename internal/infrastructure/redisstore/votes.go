package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sladmit/RPA2/internal/domain"
)

// registerVoteScript is the single atomic operation behind vote registration:
// claim the per-(work, phone) marker and, only when the claim wins, increment
// the per-work counter. Two concurrent calls for the same pair can never both
// win, so the counter cannot double-count.
const registerVoteScript = `
if redis.call("SET", KEYS[1], "1", "NX", "PX", ARGV[1]) then
  return {1, redis.call("INCR", KEYS[2])}
end
return {0, tonumber(redis.call("GET", KEYS[2]) or "0")}
`

var registerVoteLua = redis.NewScript(registerVoteScript)

// VoteRepo owns vote markers (vote:<workID>:<phone>, expiring) and per-work
// counters (votes:<workID>, persistent).
type VoteRepo struct {
	rdb redis.UniversalClient
	// store handles the non-atomic read paths.
	store     *Store
	markerTTL time.Duration
}

// NewVoteRepo creates the repo. markerTTL is the vote retention window; after
// it a phone may vote for the same work again while the counter persists.
func NewVoteRepo(rdb redis.UniversalClient, store *Store, markerTTL time.Duration) *VoteRepo {
	return &VoteRepo{rdb: rdb, store: store, markerTTL: markerTTL}
}

func markerKey(workID, phone string) string {
	return prefixVoteMarker + workID + ":" + phone
}

// RegisterVote atomically claims the (workID, phone) marker and increments the
// work's counter. Returns won=false with the current count when the phone
// already voted within the retention window.
func (r *VoteRepo) RegisterVote(ctx context.Context, workID, phone string) (won bool, count int64, err error) {
	res, err := registerVoteLua.Run(ctx, r.rdb,
		[]string{markerKey(workID, phone), prefixVoteCounter + workID},
		r.markerTTL.Milliseconds(),
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("register vote %s: %v: %w", workID, err, domain.ErrStoreUnavailable)
	}
	parts, ok := res.([]interface{})
	if !ok || len(parts) != 2 {
		return false, 0, fmt.Errorf("register vote %s: bad script reply: %w", workID, domain.ErrStoreUnavailable)
	}
	wonFlag, ok1 := parts[0].(int64)
	total, ok2 := parts[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, fmt.Errorf("register vote %s: bad script reply: %w", workID, domain.ErrStoreUnavailable)
	}
	return wonFlag == 1, total, nil
}

// HasVoted reports whether phone holds a live marker for workID.
func (r *VoteRepo) HasVoted(ctx context.Context, workID, phone string) (bool, error) {
	return r.store.Exists(ctx, markerKey(workID, phone))
}

// Count returns the vote counter for workID, 0 when no one has voted.
func (r *VoteRepo) Count(ctx context.Context, workID string) (int64, error) {
	return r.store.GetInt(ctx, prefixVoteCounter+workID)
}

// Leaderboard returns every work with a counter, ordered by votes descending.
// Ties break by work id ascending so the order is stable across calls.
func (r *VoteRepo) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	keys, err := r.store.ScanPrefix(ctx, prefixVoteCounter)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(keys))
	if len(keys) > 0 {
		pipe := r.rdb.Pipeline()
		cmds := make([]*redis.StringCmd, len(keys))
		for i, key := range keys {
			cmds[i] = pipe.Get(ctx, key)
		}
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("leaderboard: %v: %w", err, domain.ErrStoreUnavailable)
		}
		for i, cmd := range cmds {
			raw, cmdErr := cmd.Result()
			if errors.Is(cmdErr, redis.Nil) {
				continue // counter vanished between SCAN and GET
			}
			if cmdErr != nil {
				return nil, fmt.Errorf("leaderboard: %v: %w", cmdErr, domain.ErrStoreUnavailable)
			}
			votes, parseErr := strconv.ParseInt(raw, 10, 64)
			if parseErr != nil {
				continue
			}
			entries = append(entries, domain.LeaderboardEntry{
				WorkID: strings.TrimPrefix(keys[i], prefixVoteCounter),
				Votes:  votes,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Votes != entries[j].Votes {
			return entries[i].Votes > entries[j].Votes
		}
		return entries[i].WorkID < entries[j].WorkID
	})
	return entries, nil
}

// Totals returns the number of works with votes and the vote sum across them.
func (r *VoteRepo) Totals(ctx context.Context) (works int, votes int64, err error) {
	entries, err := r.Leaderboard(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		votes += e.Votes
	}
	return len(entries), votes, nil
}
