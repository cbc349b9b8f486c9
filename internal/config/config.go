package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sladmit/RPA2/internal/domain"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	RedisHost     string
	RedisPort     string
	RedisDB       int
	RedisPassword string

	TelegramAPIID      int
	TelegramAPIHash    string
	TelegramGatewayURL string
	ProviderTimeout    time.Duration // per handshake step
	ProviderMaxCalls   int64         // concurrent outbound provider calls

	Proxy domain.ProxyDescriptor

	ExternalEndpoint string // mirror sink base URL, empty disables mirroring
	ExternalAPIKey   string
	MirrorTimeout    time.Duration

	PendingAuthTTL  time.Duration
	UserSessionTTL  time.Duration
	VoteTTL         time.Duration
	MaxCodeAttempts int // 0 = unlimited

	LeaderboardLimit int
	AllowedOrigins   []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "5000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		RedisHost:     getEnv("REDIS_HOST", "redis"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		TelegramAPIID:      getEnvInt("TELEGRAM_API_ID", 0),
		TelegramAPIHash:    getEnv("TELEGRAM_API_HASH", ""),
		TelegramGatewayURL: getEnv("TELEGRAM_GATEWAY_URL", "http://localhost:8089"),
		ProviderTimeout:    getEnvDuration("PROVIDER_TIMEOUT", 60*time.Second),
		ProviderMaxCalls:   int64(getEnvInt("PROVIDER_MAX_CALLS", 8)),

		Proxy: domain.ProxyDescriptor{
			Enabled:  getEnvBool("PROXY_ENABLED", false),
			Type:     getEnv("PROXY_TYPE", "socks5"),
			Host:     getEnv("PROXY_HOST", ""),
			Port:     getEnvInt("PROXY_PORT", 1080),
			Username: getEnv("PROXY_USERNAME", ""),
			Password: getEnv("PROXY_PASSWORD", ""),
		},

		ExternalEndpoint: getEnv("EXTERNAL_ENDPOINT", ""),
		ExternalAPIKey:   getEnv("EXTERNAL_API_KEY", ""),
		MirrorTimeout:    getEnvDuration("MIRROR_TIMEOUT", 10*time.Second),

		PendingAuthTTL:  getEnvDuration("PENDING_AUTH_TTL", 30*time.Minute),
		UserSessionTTL:  getEnvDuration("USER_SESSION_TTL", 30*24*time.Hour),
		VoteTTL:         getEnvDuration("VOTE_TTL", 30*24*time.Hour),
		MaxCodeAttempts: getEnvInt("MAX_CODE_ATTEMPTS", 0),

		LeaderboardLimit: getEnvInt("LEADERBOARD_LIMIT", 100),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// RedisAddr returns the host:port address for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
