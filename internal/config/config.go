package config

import (
	"os"
	"strconv"
	"time"
)

// Storage backend selectors.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config captures the runtime configuration for the fanvid backend service.
type Config struct {
	AppPort     int
	Environment string
	LogLevel    string

	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	StorageBackend string
	UploadDir      string
	MaxUploadBytes int64
	ObjectStore    ObjectStoreConfig

	YTDLPPath        string
	YTDLPTimeout     time.Duration
	MetadataCacheTTL time.Duration

	SeedFile string
}

// ObjectStoreConfig describes the optional S3-compatible blob backend.
type ObjectStoreConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	PublicBaseURL string
}

// Production reports whether the service runs with production hardening
// (secure cookies, suppressed error detail).
func (c Config) Production() bool {
	return c.Environment == "production"
}

// Load reads configuration from environment variables, applying sensible defaults
// for local development while allowing overrides through environment variables.
func Load() (Config, error) {
	cfg := Config{
		AppPort:     getInt("FANVID_PORT", 8080),
		Environment: getString("FANVID_ENV", "development"),
		LogLevel:    getString("FANVID_LOG_LEVEL", "info"),

		JWTAccessSecret:  getString("FANVID_JWT_SECRET", "dev-secret-change-in-production"),
		JWTRefreshSecret: getString("FANVID_JWT_REFRESH_SECRET", "dev-refresh-secret-change-in-production"),
		AccessTokenTTL:   getDuration("FANVID_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getDuration("FANVID_REFRESH_TOKEN_TTL", 7*24*time.Hour),

		StorageBackend: getString("FANVID_STORAGE", StorageLocal),
		UploadDir:      getString("FANVID_UPLOAD_DIR", "uploads/videos"),
		MaxUploadBytes: getInt64("FANVID_MAX_UPLOAD_BYTES", 500*1024*1024),
		ObjectStore: ObjectStoreConfig{
			Endpoint:      getString("FANVID_S3_ENDPOINT", ""),
			Region:        getString("FANVID_S3_REGION", "us-east-1"),
			Bucket:        getString("FANVID_S3_BUCKET", ""),
			PublicBaseURL: getString("FANVID_S3_PUBLIC_URL", ""),
		},

		YTDLPPath:        getString("FANVID_YTDLP_PATH", "yt-dlp"),
		YTDLPTimeout:     getDuration("FANVID_YTDLP_TIMEOUT", 30*time.Second),
		MetadataCacheTTL: getDuration("FANVID_METADATA_CACHE_TTL", 15*time.Minute),

		SeedFile: getString("FANVID_SEED_FILE", ""),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
