package vk

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the settings for the VK API client.
type Config struct {
	// API Authentication
	AccessToken string

	// API Endpoints
	BaseURL          string
	Version          string
	WallEndpoint     string
	CommentsEndpoint string

	// Paging
	WallPageSize     int
	CommentsPageSize int

	// Network retry (backoff for transport flakiness, never for
	// API-level rate-limit responses)
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// RequestTimeout bounds a single HTTP round trip (connect + read)
	RequestTimeout time.Duration

	// General Config
	Logger *logrus.Logger
}

// NewConfig builds a Config from environment variables, loading an
// optional .env file first.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	retryAttempts, _ := strconv.Atoi(getEnvOrDefault("VK_RETRY_ATTEMPTS", "3"))
	requestTimeout, _ := strconv.Atoi(getEnvOrDefault("VK_REQUEST_TIMEOUT_SECONDS", "30"))

	config := &Config{
		AccessToken: os.Getenv("VK_ACCESS_TOKEN"),

		BaseURL:          getEnvOrDefault("VK_API_BASE_URL", "https://api.vk.com/method"),
		Version:          getEnvOrDefault("VK_API_VERSION", "5.199"),
		WallEndpoint:     "/wall.get",
		CommentsEndpoint: "/wall.getComments",

		WallPageSize:     100,
		CommentsPageSize: 100,

		RetryAttempts:  retryAttempts,
		RetryBaseDelay: 500 * time.Millisecond,
		RequestTimeout: time.Duration(requestTimeout) * time.Second,

		Logger: func() *logrus.Logger {
			log := logrus.New()
			if level := os.Getenv("LOG_LEVEL"); level != "" {
				if parsedLevel, err := logrus.ParseLevel(level); err == nil {
					log.SetLevel(parsedLevel)
				}
			}
			return log
		}(),
	}

	config.Logger.WithFields(logrus.Fields{
		"access_token_exists": config.AccessToken != "",
		"base_url":            config.BaseURL,
		"api_version":         config.Version,
		"retry_attempts":      config.RetryAttempts,
	}).Debug("VK config initialized")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.WallPageSize < 1 || c.CommentsPageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.BaseURL == "" {
		c.BaseURL = "https://api.vk.com/method"
	}
	if c.Version == "" {
		c.Version = "5.199"
	}
	if c.WallEndpoint == "" {
		c.WallEndpoint = "/wall.get"
	}
	if c.CommentsEndpoint == "" {
		c.CommentsEndpoint = "/wall.getComments"
	}

	return nil
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
