package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	SSLMode    string
	RedisHost  string
	RedisPort  string
	NatsHost   string
	NatsPort   string
	ApiPort    string
	ApiEnabled string
	// Owner is the identity holding the ledger's administrative
	// capability (voicereset, reset, del).
	Owner string
}

// New loads and validates configuration from environment variables.
// The HTTP API is optional: if VOICE_API_ENABLED != "true", ApiAddr()
// returns an error and the HTTP server simply won't start.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:     os.Getenv("VOICE_POSTGRES_USER"),
		DBPass:     os.Getenv("VOICE_POSTGRES_PASSWORD"),
		DBHost:     os.Getenv("VOICE_POSTGRES_HOST"),
		DBPort:     os.Getenv("VOICE_POSTGRES_PORT"),
		DBName:     os.Getenv("VOICE_POSTGRES_DB"),
		SSLMode:    os.Getenv("VOICE_POSTGRES_SSLMODE"),
		RedisHost:  os.Getenv("VOICE_REDIS_HOST"),
		RedisPort:  os.Getenv("VOICE_REDIS_PORT"),
		NatsHost:   os.Getenv("VOICE_NATS_HOST"),
		NatsPort:   os.Getenv("VOICE_NATS_PORT"),
		ApiPort:    os.Getenv("VOICE_API_PORT"),
		ApiEnabled: os.Getenv("VOICE_API_ENABLED"),
		Owner:      os.Getenv("VOICE_OWNER"),
	}

	// Required: database
	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" || cfg.SSLMode == "" {
		return nil, fmt.Errorf("missing required env for database: VOICE_POSTGRES_USER/HOST/DB/SSLMODE")
	}

	// Required: redis
	if cfg.RedisHost == "" || cfg.RedisPort == "" {
		return nil, fmt.Errorf("missing required env for redis: VOICE_REDIS_HOST/PORT")
	}

	// Required: nats
	if cfg.NatsHost == "" || cfg.NatsPort == "" {
		return nil, fmt.Errorf("missing required env for nats: VOICE_NATS_HOST/PORT")
	}

	// Required: the administrative identity
	if cfg.Owner == "" {
		return nil, fmt.Errorf("missing required env: VOICE_OWNER")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

// ApiAddr returns the HTTP listen address if the API is enabled.
// Returns an error if VOICE_API_ENABLED != "true" — callers should skip
// starting the HTTP server.
func (c *Config) ApiAddr() (string, error) {
	if c.ApiEnabled == "true" {
		if c.ApiPort == "" {
			return "", fmt.Errorf("VOICE_API_PORT is required when VOICE_API_ENABLED=true")
		}
		return ":" + c.ApiPort, nil
	}
	return "", fmt.Errorf("HTTP API is disabled (VOICE_API_ENABLED != true)")
}
