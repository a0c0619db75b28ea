package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Env             string
	InputDir        string
	CallbackURL     string
	MaxRetries      int
	CallbackTimeout time.Duration
	CallbackBackoff time.Duration
}

// Load reads configuration from the environment, after loading an optional
// .env file. Unset or malformed values fall back to their defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("SERVICE_PORT", "8093"),
		Env:             getEnv("ENV", "development"),
		InputDir:        getEnv("INPUT_DIR", "/data/input"),
		CallbackURL:     getEnv("CALLBACK_URL", ""),
		MaxRetries:      getEnvAsInt("MAX_RETRIES", 3),
		CallbackTimeout: time.Duration(getEnvAsInt("CALLBACK_TIMEOUT", 30)) * time.Second,
		CallbackBackoff: time.Duration(getEnvAsInt("CALLBACK_BACKOFF", 2)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
