package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	PostgresConnStr         string
	JWTSecret               string
	FirebaseCredentialsPath string

	AIServerURL    string
	AIPollInterval time.Duration
	AITimeout      time.Duration

	RedisURL             string
	RealtimeChannel      string
	RealtimeQueueSize    int
	RealtimeClientBuffer int
	RealtimeHeartbeat    time.Duration
}

// Load reads the configuration from the environment, after loading a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		AIServerURL:             getEnv("AI_SERVER_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		RealtimeChannel:         getEnv("REALTIME_CHANNEL", "tipbox:realtime"),
	}
	cfg.AIPollInterval = getDuration("AI_POLL_INTERVAL", 2*time.Second, &errs)
	cfg.AITimeout = getDuration("AI_TIMEOUT", 120*time.Second, &errs)
	cfg.RealtimeQueueSize = getInt("REALTIME_QUEUE_SIZE", 1024, &errs)
	cfg.RealtimeClientBuffer = getInt("REALTIME_CLIENT_BUFFER", 64, &errs)
	cfg.RealtimeHeartbeat = getDuration("REALTIME_HEARTBEAT", 30*time.Second, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case "development", "test", "production":
	default:
		errs = append(errs, fmt.Errorf("ENV must be development, test or production, got %q", c.Env))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}

	if c.PostgresConnStr == "" {
		errs = append(errs, errors.New("POSTGRES_CONN_STR is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AIServerURL == "" {
		errs = append(errs, errors.New("AI_SERVER_URL is required"))
	}
	if c.AIPollInterval <= 0 || c.AITimeout <= 0 {
		errs = append(errs, errors.New("AI_POLL_INTERVAL and AI_TIMEOUT must be positive"))
	} else if c.AIPollInterval > c.AITimeout {
		errs = append(errs, errors.New("AI_POLL_INTERVAL must not exceed AI_TIMEOUT"))
	}
	if c.RealtimeQueueSize <= 0 || c.RealtimeClientBuffer <= 0 {
		errs = append(errs, errors.New("REALTIME_QUEUE_SIZE and REALTIME_CLIENT_BUFFER must be positive"))
	}
	if c.RealtimeHeartbeat <= 0 {
		errs = append(errs, errors.New("REALTIME_HEARTBEAT must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}
