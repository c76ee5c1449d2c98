package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (snapshot + position fan-out)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Pricing
	BasePricePerPassenger string

	// Tracking configuration
	FerrySpeedKnots    float64
	PositionUpdate     time.Duration
	SnapshotBufferSize int

	// External telemetry feed (optional; simulator runs when unset)
	FeedSubscribeKey string
	FeedChannel      string
	FeedUUID         string

	// Rate limiting
	RequestsPerMinute int

	// Circuit breaker guarding PubNub publishes
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64

	// Monitoring / ops
	EnableMetrics   bool
	MetricsPort     string
	OpsUser         string
	OpsPasswordHash string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Pricing
		BasePricePerPassenger: getEnv("BASE_PRICE_PER_PASSENGER", "50"),

		// Tracking
		FerrySpeedKnots:    getEnvAsFloat("FERRY_SPEED_KNOTS", 25),
		PositionUpdate:     getEnvAsDuration("POSITION_UPDATE", "5s"),
		SnapshotBufferSize: getEnvAsInt("SNAPSHOT_BUFFER_SIZE", 1),

		// Telemetry feed
		FeedSubscribeKey: getEnv("FEED_SUBSCRIBE_KEY", ""),
		FeedChannel:      getEnv("FEED_CHANNEL", ""),
		FeedUUID:         getEnv("FEED_UUID", "ferry-system"),

		// Rate limiting
		RequestsPerMinute: getEnvAsInt("REQUESTS_PER_MINUTE", 30),

		// Circuit breaker
		BreakerTimeout:      getEnvAsDuration("BREAKER_TIMEOUT", "60s"),
		BreakerFailureRatio: getEnvAsFloat("BREAKER_FAILURE_RATIO", 0.6),

		// Monitoring
		EnableMetrics:   getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		OpsUser:         getEnv("OPS_USER", "ops"),
		OpsPasswordHash: getEnv("OPS_PASSWORD_HASH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
