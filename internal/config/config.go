package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Session store backends.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Console ConsoleConfig
	Session SessionConfig
	Kafka   KafkaConfig
	Breaker BreakerConfig
	Mock    MockConfig
	Logging LoggingConfig
}

type ConsoleConfig struct {
	Port          string
	ShopAPIURL    string
	SessionKey    string
	SecureCookies bool
	CSRF          bool
	IdleTimeout   time.Duration
	MaxSessions   int
}

type SessionConfig struct {
	Store       string
	File        string
	RedisURL    string
	DatabaseURL string
	// ClientName keys the shared redis and postgres stores.
	ClientName string
}

type KafkaConfig struct {
	// Brokers is a comma separated list. Empty disables the activity feed.
	Brokers       string
	ActivityTopic string
	GroupID       string
}

type BreakerConfig struct {
	// MaxFailures of 0 disables the breaker.
	MaxFailures int
	Timeout     time.Duration
}

type MockConfig struct {
	Port string
	Seed bool
}

type LoggingConfig struct {
	Level string
}

// Load reads the environment, after loading a .env file when one exists.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		Console: ConsoleConfig{
			Port:          getEnv("CONSOLE_PORT", "8080"),
			ShopAPIURL:    getEnv("SHOP_API_URL", "http://localhost:8082"),
			SessionKey:    getEnv("SESSION_KEY", ""),
			SecureCookies: getEnvAsBool("SECURE_COOKIES", false),
			CSRF:          getEnvAsBool("CONSOLE_CSRF", true),
			IdleTimeout:   getEnvAsDuration("CONSOLE_IDLE_TIMEOUT", 30*time.Minute),
			MaxSessions:   getEnvAsInt("CONSOLE_MAX_SESSIONS", 1000),
		},
		Session: SessionConfig{
			Store:       getEnv("SESSION_STORE", StoreFile),
			File:        getEnv("SESSION_FILE", ""),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
			DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/shop_console?sslmode=disable"),
			ClientName:  getEnv("SESSION_CLIENT", "default"),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnv("KAFKA_BROKERS", ""),
			ActivityTopic: getEnv("ACTIVITY_TOPIC", "console.activity"),
			GroupID:       getEnv("ACTIVITY_GROUP", "activity-monitor-group"),
		},
		Breaker: BreakerConfig{
			MaxFailures: getEnvAsInt("CONSOLE_BREAKER_FAILURES", 5),
			Timeout:     getEnvAsDuration("CONSOLE_BREAKER_TIMEOUT", 30*time.Second),
		},
		Mock: MockConfig{
			Port: getEnv("SHOP_MOCK_PORT", "8082"),
			Seed: getEnvAsBool("SHOP_MOCK_SEED", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Session.Store {
	case StoreFile, StoreRedis, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be one of file, redis, postgres, memory; got %q", c.Session.Store)
	}

	if c.Console.ShopAPIURL == "" {
		return fmt.Errorf("SHOP_API_URL is required")
	}
	if c.Console.SessionKey != "" && len(c.Console.SessionKey) < 32 {
		return fmt.Errorf("SESSION_KEY must be at least 32 characters long")
	}
	if c.Console.IdleTimeout <= 0 {
		return fmt.Errorf("CONSOLE_IDLE_TIMEOUT must be positive")
	}
	if c.Console.MaxSessions <= 0 {
		return fmt.Errorf("CONSOLE_MAX_SESSIONS must be positive")
	}
	if c.Breaker.MaxFailures < 0 {
		return fmt.Errorf("CONSOLE_BREAKER_FAILURES must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// KafkaEnabled reports whether an activity feed is configured.
func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.Kafka.Brokers) != ""
}

// NewLogger returns the JSON logger every command uses.
func NewLogger(cfg LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
