package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the daemon needs at startup. Values come
// from the environment, optionally seeded from a .env file.
type Config struct {
	ListenAddr string // viewer websocket endpoint
	StorePath  string // sqlite database file
	LogLevel   string
}

// Load reads .env when one exists, then the environment, applying
// defaults for anything unset.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr: getenv("FRONTSEAT_ADDR", ":3000"),
		StorePath:  getenv("FRONTSEAT_DB", "frontseat.db"),
		LogLevel:   getenv("FRONTSEAT_LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
