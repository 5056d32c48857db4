package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server configuration
	Port string

	// ChatOps (Mattermost-compatible) configuration
	ChatOpsHost             string
	ChatOpsAuthToken        string
	ChatOpsCSRFToken        string
	ChatOpsTeamID           string
	ChatOpsDefaultChannelID string
	ChatOpsTimeout          time.Duration

	// Tag identifiers may carry a cosmetic org suffix (e.g. "khoa-runsystem.net")
	TagSuffix string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// Best effort; real deployments set env vars directly
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        os.Getenv("PORT"),

		ChatOpsHost:             os.Getenv("CHATOPS_HOST"),
		ChatOpsAuthToken:        os.Getenv("CHATOPS_AUTH_TOKEN"),
		ChatOpsCSRFToken:        os.Getenv("CHATOPS_CSRF_TOKEN"),
		ChatOpsTeamID:           os.Getenv("CHATOPS_TEAM_ID"),
		ChatOpsDefaultChannelID: os.Getenv("CHATOPS_DEFAULT_CHANNEL_ID"),
		ChatOpsTimeout:          10 * time.Second,

		TagSuffix: os.Getenv("TAG_SUFFIX"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.Port == "" {
		config.Port = "8080"
	}
	if config.TagSuffix == "" {
		config.TagSuffix = "-runsystem.net"
	}
	if timeout := os.Getenv("CHATOPS_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			config.ChatOpsTimeout = parsed
		}
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.ChatOpsHost == "" {
			return nil, fmt.Errorf("CHATOPS_HOST is required")
		}
		if config.ChatOpsAuthToken == "" {
			return nil, fmt.Errorf("CHATOPS_AUTH_TOKEN is required")
		}
	}

	return config, nil
}
