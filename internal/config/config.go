package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache driver constants
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string // also the JWT issuer
	Audience   string

	// JWT key settings
	JWTKeyFile            string
	RequirePersistentKeys bool

	// Token lifetimes
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Cache (revocation fast path and OAuth2 state)
	CacheDriver        string // "memory" or "redis"
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RevocationCacheTTL time.Duration

	// Revocation blacklist maintenance
	RevocationPruneInterval time.Duration

	// Password hashing
	BcryptCost int

	// Metrics
	MetricsEnabled bool

	// OAuth settings
	// Google OAuth
	GoogleOAuthEnabled bool
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleScopes       []string

	// GitHub OAuth
	GitHubOAuthEnabled bool
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string
	GitHubScopes       []string

	// Twitter OAuth
	TwitterOAuthEnabled bool
	TwitterClientID     string
	TwitterClientSecret string
	TwitterRedirectURL  string
	TwitterScopes       []string

	// OAuth2 state parameter lifetime
	OAuthStateTTL time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "authlink.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		BaseURL:    baseURL,
		Audience:   getEnv("TOKEN_AUDIENCE", "authlink"),

		JWTKeyFile:            getEnv("JWT_KEY_FILE", "jwt-signing.pem"),
		RequirePersistentKeys: getEnvBool("REQUIRE_PERSISTENT_KEYS", false),

		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", time.Hour),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 168*time.Hour),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		CacheDriver:        getEnv("CACHE_DRIVER", CacheDriverMemory),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RevocationCacheTTL: getEnvDuration("REVOCATION_CACHE_TTL", 30*time.Second),

		RevocationPruneInterval: getEnvDuration("REVOCATION_PRUNE_INTERVAL", time.Hour),

		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		// Google OAuth
		GoogleOAuthEnabled: getEnvBool("GOOGLE_OAUTH_ENABLED", false),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL: getEnv(
			"GOOGLE_REDIRECT_URL",
			baseURL+"/api/auth/oauth2/google/callback",
		),
		GoogleScopes: getEnvSlice("GOOGLE_SCOPES", []string{"openid", "email", "profile"}),

		// GitHub OAuth
		GitHubOAuthEnabled: getEnvBool("GITHUB_OAUTH_ENABLED", false),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubRedirectURL: getEnv(
			"GITHUB_REDIRECT_URL",
			baseURL+"/api/auth/oauth2/github/callback",
		),
		GitHubScopes: getEnvSlice("GITHUB_SCOPES", []string{"read:user", "user:email"}),

		// Twitter OAuth
		TwitterOAuthEnabled: getEnvBool("TWITTER_OAUTH_ENABLED", false),
		TwitterClientID:     getEnv("TWITTER_CLIENT_ID", ""),
		TwitterClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
		TwitterRedirectURL: getEnv(
			"TWITTER_REDIRECT_URL",
			baseURL+"/api/auth/oauth2/twitter/callback",
		),
		TwitterScopes: getEnvSlice("TWITTER_SCOPES", []string{"users.read", "tweet.read"}),

		OAuthStateTTL: getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := splitAndTrim(value, ",")
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
