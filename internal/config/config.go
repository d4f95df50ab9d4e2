package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	MuxTokenID     string
	MuxTokenSecret string
	MuxBaseURL     string
	JWTSecret      string
	JWTTTL         time.Duration
	DailyPostLimit int
	PollInterval   time.Duration
	RabbitMQURL    string
	S3Bucket       string
	AWSRegion      string
	S3Endpoint     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Default().Warn("loading .env failed", "error", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MuxTokenID:     getEnv("MUX_TOKEN_ID", ""),
		MuxTokenSecret: getEnv("MUX_TOKEN_SECRET", ""),
		MuxBaseURL:     getEnv("MUX_BASE_URL", "https://api.mux.com"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:         getDuration("JWT_TTL", 24*time.Hour),
		DailyPostLimit: getInt("DAILY_POST_LIMIT", 1),
		PollInterval:   getDuration("POLL_INTERVAL", 30*time.Second),
		RabbitMQURL:    getEnv("RABBITMQ_URL", ""),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Default().Warn("invalid integer env value, using fallback", "key", key)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Default().Warn("invalid duration env value, using fallback", "key", key)
	}
	return fallback
}
