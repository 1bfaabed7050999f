package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	HTTPPort       int
	MigrationsPath string

	KafkaBrokerURL     string
	NotificationsTopic string

	OutboxPollInterval time.Duration

	FeeSchedulePath string

	SettlementGatewayURL     string
	SettlementRequestTimeout time.Duration
	SettlementPollInterval   time.Duration
	// SettlementGrace delays the first settlement attempt so the phase-one
	// commit is visible; SettlementStaleAfter is the age past which a
	// still-PROCESSING transfer is compensated as REVERSED.
	SettlementGrace      time.Duration
	SettlementStaleAfter time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.Host = getEnvOrDefault("LEDGER_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("LEDGER_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("LEDGER_DB_USER", "sacco")
	cfg.DBConfig.Password = getEnvOrDefault("LEDGER_DB_PASSWORD", "sacco")
	cfg.DBConfig.Name = getEnvOrDefault("LEDGER_DB_NAME", "sacco_ledger")
	cfg.DBConfig.SSLMode = getEnvOrDefault("LEDGER_DB_SSLMODE", "disable")

	cfg.HTTPPort = getEnvAsInt("LEDGER_HTTP_PORT", 8080)
	cfg.MigrationsPath = getEnvOrDefault("LEDGER_MIGRATIONS_PATH", "file://migrations")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.NotificationsTopic = getEnvOrDefault("NOTIFICATIONS_TOPIC", "member_notifications")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)

	cfg.FeeSchedulePath = getEnvOrDefault("FEE_SCHEDULE_PATH", "")

	cfg.SettlementGatewayURL = getEnvOrDefault("SETTLEMENT_GATEWAY_URL", "http://localhost:9090")
	cfg.SettlementRequestTimeout = getEnvAsDuration("SETTLEMENT_REQUEST_TIMEOUT", 10*time.Second)
	cfg.SettlementPollInterval = getEnvAsDuration("SETTLEMENT_POLL_INTERVAL", 2*time.Second)
	cfg.SettlementGrace = getEnvAsDuration("SETTLEMENT_GRACE", 1*time.Second)
	cfg.SettlementStaleAfter = getEnvAsDuration("SETTLEMENT_STALE_AFTER", 15*time.Minute)

	return cfg, nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password,
		c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port,
		c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
