package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Persistence tuning
	WriteQueueSize  int
	WriteRetryLimit int

	// Rate limiting (requests per minute; 0 disables the layer)
	IPRateLimit        int
	CommunityRateLimit int

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool

	// Optional YAML file with domain tuning overrides, hot-reloaded when set
	OverridesFile string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "sage-intelligence")),
		EventBusName:  getEnv("EVENT_BUS_NAME", "sage-alerts"),

		WriteQueueSize:  getEnvInt("WRITE_QUEUE_SIZE", 1024),
		WriteRetryLimit: getEnvInt("WRITE_RETRY_LIMIT", 3),

		IPRateLimit:        getEnvInt("IP_RATE_LIMIT", 600),
		CommunityRateLimit: getEnvInt("COMMUNITY_RATE_LIMIT", 300),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		OverridesFile: getEnv("DOMAIN_OVERRIDES_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required in production")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required in production")
		}
	}
	if c.WriteQueueSize <= 0 {
		return fmt.Errorf("WRITE_QUEUE_SIZE must be positive, got %d", c.WriteQueueSize)
	}
	if c.IPRateLimit < 0 || c.CommunityRateLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
