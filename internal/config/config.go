package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env                string
	HTTPPort           string
	DatabaseURL        string
	RedisAddr          string
	SessionSecret      string
	JWTIssuer          string
	SessionTTL         time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	AttendanceWindow   time.Duration
	QueueBackend       string
	RateLimitPerMin    int
}

// Load returns application config populated from environment variables.
// Secrets and connection strings have no defaults: a missing required
// variable fails startup with an error naming everything that is absent.
func Load() (App, error) {
	cfg := App{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		JWTIssuer:          getEnv("JWT_ISSUER", "classcall"),
		SessionTTL:         durationEnv("SESSION_TTL", 12*time.Hour),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		AttendanceWindow:   time.Duration(intEnv("ATTENDANCE_WINDOW_MS", 600000)) * time.Millisecond,
		QueueBackend:       getEnv("QUEUE_BACKEND", "redis"),
		RateLimitPerMin:    intEnv("RATE_LIMIT_PER_MIN", 120),
	}

	var missing []string
	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"SESSION_SECRET", cfg.SessionSecret},
		{"GOOGLE_CLIENT_ID", cfg.GoogleClientID},
		{"GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret},
		{"GOOGLE_CALLBACK_URL", cfg.GoogleCallbackURL},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return App{}, errors.New("missing required config: " + strings.Join(missing, ", "))
	}
	if cfg.AttendanceWindow <= 0 {
		return App{}, errors.New("ATTENDANCE_WINDOW_MS must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
