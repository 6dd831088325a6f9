package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load loads configuration from environment variables with fallback to defaults
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
		fmt.Println("Continuing with environment variables...")
	}

	config := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "localhost"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:    getEnvInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout:   getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:    getEnvInt("SERVER_IDLE_TIMEOUT", 120),
			GracefulStop:   getEnvInt("SERVER_GRACEFUL_STOP", 30),
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "travelbuddy.db"),
			Username:        getEnv("DB_USERNAME", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
			SeedDemo:        getEnvBool("DB_SEED_DEMO", false),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
		},
		Security: SecurityConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			JWTExpirationHours:  getEnvInt("JWT_EXPIRATION_HOURS", 24),
			SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "travelbuddy_session"),
			SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", true),
			BcryptCost:          getEnvInt("BCRYPT_COST", 10),
			RateLimitEnabled:    getEnvBool("RATE_LIMIT_ENABLED", true),
			RateLimitDriver:     getEnv("RATE_LIMIT_DRIVER", "memory"),
			RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
			RateLimitBurstSize:  getEnvInt("RATE_LIMIT_BURST_SIZE", 20),
			RedisURL:            getEnv("REDIS_URL", ""),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/travelbuddy.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Polling: PollingConfig{
			ConversationSeconds: getEnvInt("POLL_CONVERSATION_SECONDS", 5),
			BadgeSeconds:        getEnvInt("POLL_BADGE_SECONDS", 60),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	// Validate required fields
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks required configuration fields
func Validate(config *Config) error {
	if config.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(config.Security.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes: Given Length: %v", len(config.Security.JWTSecret))
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", config.Database.Driver)
	}

	if config.Security.RateLimitEnabled {
		switch config.Security.RateLimitDriver {
		case "memory":
		case "redis":
			if config.Security.RedisURL == "" {
				return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_DRIVER is redis")
			}
		default:
			return fmt.Errorf("unsupported RATE_LIMIT_DRIVER: %s", config.Security.RateLimitDriver)
		}
	}

	if config.Polling.ConversationSeconds <= 0 || config.Polling.BadgeSeconds <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	case "sqlite":
		return c.Database
	default:
		return ""
	}
}

// GetServerAddr returns the server address string
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
