package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API      APIConfig
	Realtime RealtimeConfig
	Session  SessionConfig
	Broker   BrokerConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RealtimeConfig struct {
	BrokerURL            string
	HeartbeatInterval    time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	TypingPerSecond      int
}

type SessionConfig struct {
	File string
}

type BrokerConfig struct {
	Port              string
	Env               string
	JWTSecret         string
	JWTExpiryHours    int
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	MessagesPerSecond int
	AllowedOrigins    []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:8080/api"),
			Timeout: getEnvDuration("API_TIMEOUT", 10*time.Second),
		},
		Realtime: RealtimeConfig{
			BrokerURL:            getEnv("WS_BROKER_URL", "ws://localhost:8080/ws"),
			HeartbeatInterval:    getEnvDuration("WS_HEARTBEAT_INTERVAL", 4*time.Second),
			ReconnectInterval:    getEnvDuration("WS_RECONNECT_INTERVAL", 3*time.Second),
			MaxReconnectAttempts: getEnvInt("WS_MAX_RECONNECT_ATTEMPTS", 5),
			TypingPerSecond:      getEnvInt("WS_TYPING_PER_SECOND", 4),
		},
		Session: SessionConfig{
			File: getEnv("SESSION_FILE", defaultSessionFile()),
		},
		Broker: BrokerConfig{
			Port:              getEnv("PORT", "8080"),
			Env:               getEnv("ENV", "development"),
			JWTSecret:         getEnv("JWT_SECRET", "change-this-secret-key"),
			JWTExpiryHours:    getEnvInt("JWT_EXPIRY_HOURS", 168),
			RedisAddr:         getEnv("REDIS_HOST", "localhost") + ":" + getEnv("REDIS_PORT", "6379"),
			RedisPassword:     getEnv("REDIS_PASSWORD", ""),
			RedisDB:           getEnvInt("REDIS_DB", 0),
			MessagesPerSecond: getEnvInt("RATE_LIMIT_MESSAGES_PER_SECOND", 10),
			AllowedOrigins:    origins,
		},
	}

	// Validate required fields
	if cfg.Broker.JWTSecret == "change-this-secret-key" && cfg.Broker.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studyhub-session.json"
	}
	return filepath.Join(home, ".studyhub", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return value
}
