package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig aggregates runtime configuration, injected through environment
// variables so nothing is hard-coded into the binary.
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka cluster (comma separated), the notifications topic, and the
	// delivery worker's consumer group.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox (placement appends atomically, the relay moves
	// entries to Kafka asynchronously).
	NotifyStream   string
	NotifyGroup    string
	NotifyConsumer string

	// Buy endpoint throttling.
	BuyRateLimit  int
	BuyRateWindow time.Duration
}

// Load reads and validates configuration, falling back to defaults for
// anything unset.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DBPath:         getEnv("DB_PATH", "storefront.db"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        0,
		KafkaBrokers:   splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "storefront-order-notifications"),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "storefront-notification-worker"),
		NotifyStream:   getEnv("NOTIFY_STREAM", "storefront:notify_events"),
		NotifyGroup:    getEnv("NOTIFY_GROUP", "storefront-relay-group"),
		NotifyConsumer: getEnv("NOTIFY_CONSUMER", "storefront-relay-1"),
		BuyRateLimit:   100,
		BuyRateWindow:  time.Second,
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	rateLimit, err := getEnvInt("BUY_RATE_LIMIT", cfg.BuyRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BUY_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("BUY_RATE_LIMIT must be > 0")
	}
	cfg.BuyRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("BUY_RATE_WINDOW_SEC", int(cfg.BuyRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BUY_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("BUY_RATE_WINDOW_SEC must be > 0")
	}
	cfg.BuyRateWindow = time.Duration(rateWindowSec) * time.Second

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.NotifyStream == "" {
		return AppConfig{}, fmt.Errorf("NOTIFY_STREAM must not be empty")
	}
	if cfg.NotifyGroup == "" {
		return AppConfig{}, fmt.Errorf("NOTIFY_GROUP must not be empty")
	}
	if cfg.NotifyConsumer == "" {
		return AppConfig{}, fmt.Errorf("NOTIFY_CONSUMER must not be empty")
	}

	return cfg, nil
}

// getEnv reads a string env var, falling back when unset or blank.
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer env var, falling back when unset or blank.
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV parses a comma-separated string into a slice.
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
