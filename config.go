package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopswift/storefront/database"
)

// Config holds all configuration for the storefront.
type Config struct {
	Port     string
	Postgres database.PostgresConfig
	RedisURL string
	CartTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	PaymentGatewayURL string
	PaymentGatewayKey string
	Currency          string

	TaxRate               float64
	ShippingFlatRate      float64
	FreeShippingThreshold float64
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Dhaka"),
		},
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
		CartTTL:  time.Hour * 24 * 7,

		KafkaTopic: getEnv("KAFKA_TOPIC", "order.events"),

		PaymentGatewayURL: os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentGatewayKey: os.Getenv("PAYMENT_GATEWAY_KEY"),
		Currency:          getEnv("CURRENCY", "BDT"),

		TaxRate:               getEnvFloat("TAX_RATE", 0.10),
		ShippingFlatRate:      getEnvFloat("SHIPPING_FLAT_RATE", 60),
		FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", 1000),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DB == "" || cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}
