package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Sales    SalesConfig
	Mollie   MollieConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	URL      string // Full database URL; takes precedence over components
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

// SalesConfig holds the inventory and lifecycle limits for ticket sales
type SalesConfig struct {
	// OrderTicketLimit is the maximum number of tickets in one order.
	OrderTicketLimit int
	// EventTicketLimit caps tickets across all types; 0 means unlimited.
	EventTicketLimit int
	// OrderKeepAlive is how long an unpaid order may sit before the
	// expiry sweep reclaims it.
	OrderKeepAlive time.Duration
	// SweepInterval is how often the expiry sweep runs.
	SweepInterval time.Duration
}

type MollieConfig struct {
	APIKey      string
	BaseURL     string
	RedirectURL string
	WebhookURL  string
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "ticketshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		},
		Sales: SalesConfig{
			OrderTicketLimit: getEnvAsInt("ORDER_TICKET_LIMIT", 5),
			EventTicketLimit: getEnvAsInt("EVENT_TICKET_LIMIT", 0),
			OrderKeepAlive:   time.Duration(getEnvAsInt("ORDER_KEEPALIVE_MINUTES", 15)) * time.Minute,
			SweepInterval:    time.Duration(getEnvAsInt("EXPIRY_SWEEP_SECONDS", 60)) * time.Second,
		},
		Mollie: MollieConfig{
			APIKey:      getEnv("MOLLIE_API_KEY", ""),
			BaseURL:     getEnv("MOLLIE_BASE_URL", "https://api.mollie.com/v2"),
			RedirectURL: getEnv("MOLLIE_REDIRECT_URL", "http://localhost:8080/orders/return"),
			WebhookURL:  getEnv("MOLLIE_WEBHOOK_URL", "http://localhost:8080/orders/status"),
		},
	}

	return config, nil
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
