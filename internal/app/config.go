package app

import (
	"codecalm/internal/config"
	"codecalm/internal/repository/db"
	"codecalm/internal/service/analytics"
	"codecalm/internal/service/llm"
	"time"
)

// Config holds all application dependencies and configuration. It is built once at
// startup and shared by reference with every handler.
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Centralized application configuration
	AppConfig *config.AppConfig
	// Providers resolves LLM providers by name
	Providers *llm.Registry
	// Analytics is the process-wide routing aggregate
	Analytics *analytics.Aggregator
	// Now is the clock used for session validity and latency
	Now func() time.Time
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, appConfig *config.AppConfig, providers *llm.Registry, aggregator *analytics.Aggregator) *Config {
	return &Config{
		DB:        database,
		AppConfig: appConfig,
		Providers: providers,
		Analytics: aggregator,
		Now:       time.Now,
	}
}
