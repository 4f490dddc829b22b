package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/moodquest/pkg/database"
	"anoa.com/moodquest/pkg/storage"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	Database database.Config
	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	Cloudinary storage.CloudinaryConfig

	JWTSecret string
	JWTTTL    time.Duration

	NotificationTTL    time.Duration
	SessionIdleTTL     time.Duration
	RateLimitEntry     time.Duration
	RecentEntriesLimit int
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "moodquest"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		Cloudinary: storage.CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_UPLOAD_FOLDER", "moodquest"),
		},

		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(getEnv("JWT_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.NotificationTTL, err = parseDuration(getEnv("NOTIFICATION_TTL", "5s")); err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_TTL: %w", err)
	}
	if cfg.SessionIdleTTL, err = parseDuration(getEnv("SESSION_IDLE_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE_TTL: %w", err)
	}
	if cfg.RateLimitEntry, err = parseDuration(getEnv("RATE_LIMIT_ENTRY", "5s")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_ENTRY: %w", err)
	}

	cfg.RecentEntriesLimit, err = strconv.Atoi(getEnv("RECENT_ENTRIES_LIMIT", "10"))
	if err != nil || cfg.RecentEntriesLimit < 1 {
		return nil, fmt.Errorf("invalid RECENT_ENTRIES_LIMIT: %q", os.Getenv("RECENT_ENTRIES_LIMIT"))
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.JWTSecret = "change-me"
	}

	if cfg.MeiliSearchHost != "" && !strings.HasPrefix(cfg.MeiliSearchHost, "http") {
		cfg.MeiliSearchHost = "http://" + cfg.MeiliSearchHost + ":7700"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
