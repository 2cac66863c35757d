package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	SessionTTL      time.Duration
	WaitPerCustomer time.Duration

	ReservationGrace         time.Duration
	ReservationSweepInterval time.Duration
	ReservationSweepBatch    int

	PollInterval time.Duration
	BatchSize    int

	NotifyInterval    time.Duration
	NotifyMaxAttempts int

	RateLimitPerMinute         int
	RateLimitBurst             int
	BusinessRateLimitPerMinute int
	BusinessRateLimitBurst     int
}

func Load() Config {
	// .env is a local-development convenience; absence is fine.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:        port,
		DatabaseURL: os.Getenv("DB_DSN"),

		SessionTTL:      readDurationHours("SESSION_TTL_HOURS", 12),
		WaitPerCustomer: readDurationMinutes("WAIT_MINUTES_PER_CUSTOMER", 15),

		ReservationGrace:         readDurationMinutes("RESERVATION_GRACE_MINUTES", 30),
		ReservationSweepInterval: readDurationSeconds("RESERVATION_SWEEP_INTERVAL_SECONDS", 60),
		ReservationSweepBatch:    readInt("RESERVATION_SWEEP_BATCH_SIZE", 100),

		PollInterval: readDurationMillis("POLL_INTERVAL_MS", 1000),
		BatchSize:    readInt("BATCH_SIZE", 100),

		NotifyInterval:    readDurationSeconds("NOTIFY_INTERVAL_SECONDS", 5),
		NotifyMaxAttempts: readInt("NOTIFY_MAX_ATTEMPTS", 3),

		RateLimitPerMinute:         readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:             readInt("RATE_LIMIT_BURST", 30),
		BusinessRateLimitPerMinute: readInt("BUSINESS_RATE_LIMIT_PER_MIN", 600),
		BusinessRateLimitBurst:     readInt("BUSINESS_RATE_LIMIT_BURST", 120),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readDurationMinutes(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Minute
}

func readDurationHours(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Hour
}

func readDurationMillis(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Millisecond
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
