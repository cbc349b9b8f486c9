package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sladmit/RPA2/internal/domain"
)

// Key namespaces. No other system reads this store, so the prefixes are an
// internal layout choice.
const (
	prefixPendingAuth = "auth:"
	prefixSession     = "session:"
	prefixVoteMarker  = "vote:"
	prefixVoteCounter = "votes:"
)

// Store wraps a Redis client with the generic expiring key-value contract the
// application layer builds on: JSON put/get with TTL, delete, existence,
// counters, and prefix enumeration. Absent keys surface as domain.ErrNotFound;
// infrastructure failures as domain.ErrStoreUnavailable.
type Store struct {
	rdb redis.UniversalClient
}

// NewStore wraps the given Redis client.
func NewStore(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// Put marshals v as JSON and stores it under key with the given TTL.
// A zero TTL stores the key without expiry.
func (s *Store) Put(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %v: %w", key, err, domain.ErrStoreUnavailable)
	}
	return nil
}

// Get unmarshals the value stored under key into v.
func (s *Store) Get(ctx context.Context, key string, v any) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("get %s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("get %s: %v: %w", key, err, domain.ErrStoreUnavailable)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %v: %w", key, err, domain.ErrStoreUnavailable)
	}
	return nil
}

// Exists reports whether key is present and not expired.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %v: %w", key, err, domain.ErrStoreUnavailable)
	}
	return n > 0, nil
}

// GetInt returns the integer stored under key, or 0 when the key is absent.
func (s *Store) GetInt(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s: %v: %w", key, err, domain.ErrStoreUnavailable)
	}
	return n, nil
}

// ScanPrefix returns all keys starting with prefix. SCAN-based and therefore
// eventually consistent; used only for read-only reporting, never in the
// voting hot path.
func (s *Store) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %v: %w", prefix, err, domain.ErrStoreUnavailable)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// Ping checks store availability at startup.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}
