package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Redis    RedisConfig
	S3       S3Config
	Scan     ScanConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	TrustedPlatform string   // "cloudflare", "google" or a header name such as X-Real-IP
	TrustedProxies  []string // CIDRs allowed to set X-Forwarded-For; empty means the socket address
}

// IsProduction reports whether diagnostic endpoints must stay disabled.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Pool sizing per API instance. Keep MaxOpenConns times the replica
	// count under the server's max_connections.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

// Enabled reports whether QR images are uploaded to object storage.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// ScanConfig holds the scan-to-review policy knobs.
type ScanConfig struct {
	DedupWindow            time.Duration // cool-down during which repeat scans reuse a check
	AnonymousUserEmail     string        // system identity that owns anonymous reviews
	PublicBaseURL          string        // prefix encoded in printed QR codes
	RateLimit              int           // scans per RateWindow per client IP
	RateWindow             time.Duration
	LockTTL                time.Duration
	StatsReconcileSchedule string
}

type CacheConfig struct {
	CategoryTTL time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			TrustedPlatform: getEnv("TRUSTED_PLATFORM", ""),
			TrustedProxies:  parseSlice(getEnv("TRUSTED_PROXIES", "")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "scanreview"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-west-3"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Scan: ScanConfig{
			DedupWindow:            parseDuration(getEnv("SCAN_DEDUP_WINDOW", "1h"), time.Hour),
			AnonymousUserEmail:     getEnv("ANONYMOUS_USER_EMAIL", "anonymous@system.local"),
			PublicBaseURL:          strings.TrimRight(getEnv("SCAN_PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			RateLimit:              parseInt(getEnv("SCAN_RATE_LIMIT", "30"), 30),
			RateWindow:             parseDuration(getEnv("SCAN_RATE_WINDOW", "1m"), time.Minute),
			LockTTL:                parseDuration(getEnv("SCAN_LOCK_TTL", "5s"), 5*time.Second),
			StatsReconcileSchedule: getEnv("STATS_RECONCILE_SCHEDULE", "0 * * * *"),
		},
		Cache: CacheConfig{
			CategoryTTL: parseDuration(getEnv("CATEGORY_CACHE_TTL", "3h"), 3*time.Hour),
		},
	}

	if config.Scan.AnonymousUserEmail == "" {
		return nil, fmt.Errorf("ANONYMOUS_USER_EMAIL must not be empty")
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
