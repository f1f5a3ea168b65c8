package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort int

	DBConfig struct {
		DBHost     string `env:"COMMERCE_DB_HOST"`
		DBPort     string `env:"COMMERCE_DB_PORT"`
		DBUser     string `env:"COMMERCE_DB_USER"`
		DBPassword string `env:"COMMERCE_DB_PASSWORD"`
		DBName     string `env:"COMMERCE_DB_NAME"`
		DBSSLMode  string `env:"COMMERCE_DB_SSLMODE"`
	}

	PayPal struct {
		ClientID     string `env:"PAYPAL_CLIENT_ID"`
		ClientSecret string `env:"PAYPAL_CLIENT_SECRET"`
		WebhookID    string `env:"PAYPAL_WEBHOOK_ID"`
		Live         bool   `env:"PAYPAL_LIVE"`
		ReturnURL    string `env:"PAYPAL_RETURN_URL"`
		CancelURL    string `env:"PAYPAL_CANCEL_URL"`
	}

	KafkaURL         string `env:"KAFKA_BROKER_URL"`
	OrderEventsTopic string `env:"KAFKA_ORDER_EVENTS_TOPIC"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	portStr := getEnvOrDefault("COMMERCE_HTTP_PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid COMMERCE_HTTP_PORT: %w", err)
	}
	cfg.HTTPPort = port

	cfg.DBConfig.DBHost = getEnvOrDefault("COMMERCE_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("COMMERCE_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("COMMERCE_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("COMMERCE_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("COMMERCE_DB_NAME", "commerce_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("COMMERCE_DB_SSLMODE", "disable")

	cfg.PayPal.ClientID = os.Getenv("PAYPAL_CLIENT_ID")
	cfg.PayPal.ClientSecret = os.Getenv("PAYPAL_CLIENT_SECRET")
	cfg.PayPal.WebhookID = os.Getenv("PAYPAL_WEBHOOK_ID")
	cfg.PayPal.Live = getEnvOrDefault("PAYPAL_LIVE", "false") == "true"
	cfg.PayPal.ReturnURL = getEnvOrDefault("PAYPAL_RETURN_URL", "http://localhost:5173/tienda/pago/exito")
	cfg.PayPal.CancelURL = getEnvOrDefault("PAYPAL_CANCEL_URL", "http://localhost:5173/tienda/pago/cancelado")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.OrderEventsTopic = getEnvOrDefault("KAFKA_ORDER_EVENTS_TOPIC", "commerce_order_events")

	outboxPollIntervalStr := getEnvOrDefault("OUTBOX_POLL_INTERVAL", "5s")
	interval, err := time.ParseDuration(outboxPollIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	cfg.OutboxPollInterval = interval

	outboxPollTimeoutStr := getEnvOrDefault("OUTBOX_POLL_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(outboxPollTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_TIMEOUT: %w", err)
	}
	cfg.OutboxPollTimeout = timeout

	origins := getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	cfg.AllowedOrigins = strings.Split(origins, ",")

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
