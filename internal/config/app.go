package config

import (
	"codecalm/internal/logger"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Chat      ChatConfig
	Providers *ProvidersConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port          string
	AllowedOrigin string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AuthConfig holds session and password hashing settings
type AuthConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

// RateLimitConfig bounds chat requests per client
type RateLimitConfig struct {
	RequestsPerMinute int
	MaxClients        int
	ClientTTL         time.Duration
}

// ChatConfig holds routing and tutoring knobs
type ChatConfig struct {
	HistoryWindow        int
	TeachingThreshold    int
	MotivationalFactRate float64
	// RecentReasons caps the routing reasons kept per provider for the stats endpoint
	RecentReasons int
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{}

	config.Server = ServerConfig{
		Port:          getEnvOrDefault("SERVER_PORT", "8080"),
		AllowedOrigin: getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),
	}

	config.Database = DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "postgres"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:     getEnvOrDefault("DB_NAME", "codecalm"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	config.Auth = AuthConfig{
		SessionTTL: getEnvAsDuration("SESSION_TTL", 30*24*time.Hour),
		BcryptCost: getEnvAsInt("BCRYPT_COST", 12),
	}
	if config.Auth.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive (got %s)", config.Auth.SessionTTL)
	}
	if config.Auth.BcryptCost < 4 || config.Auth.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31 (got %d)", config.Auth.BcryptCost)
	}

	config.RateLimit = RateLimitConfig{
		RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		MaxClients:        getEnvAsInt("RATE_LIMIT_MAX_CLIENTS", 1000),
		ClientTTL:         getEnvAsDuration("RATE_LIMIT_CLIENT_TTL", 5*time.Minute),
	}

	config.Chat = ChatConfig{
		HistoryWindow:        getEnvAsInt("CHAT_HISTORY_WINDOW", 10),
		TeachingThreshold:    getEnvAsInt("CHAT_TEACHING_THRESHOLD", 3),
		MotivationalFactRate: getEnvAsFloat("CHAT_MOTIVATIONAL_FACT_RATE", 0.3),
		RecentReasons:        getEnvAsInt("CHAT_RECENT_REASONS", 20),
	}

	providers, err := NewProvidersConfig(os.Getenv("PROVIDERS_CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("failed to load providers config: %w", err)
	}
	for _, p := range providers.Providers {
		if p.APIKeyEnv != "" && p.APIKey == "" {
			logger.Log.WithFields(logrus.Fields{"provider": p.Name, "env": p.APIKeyEnv}).Warn("Provider API key not set")
		}
	}
	config.Providers = providers

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}
