// Package redisstore implements the expiring key-value store that holds all
// cross-request state: pending login handshakes, user sessions, vote markers,
// and per-work vote counters. Nothing is ever kept in process memory across
// requests, so any number of stateless workers can share one Redis.
package redisstore

import (
	"github.com/redis/go-redis/v9"

	"github.com/sladmit/RPA2/internal/config"
)

// NewClient builds the Redis client from configuration.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
