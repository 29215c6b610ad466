package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings shared by the client and
// relay binaries. The CLI flags (--host, --port, FILE) cover the per-run
// knobs; everything else lives here.
type Config struct {
	Environment string

	// Simulation
	FrameInterval time.Duration

	// Networking
	DefaultRelayPort int

	// Adapter surfaces; empty disables the listener.
	SnapshotAddr string // client: websocket snapshot stream
	StatusAddr   string // relay: HTTP status API

	// Board file fallback for the client.
	DefaultBoardFile string
}

// Load reads the configuration from the environment after loading a .env file
// when one exists; variables already set in the environment win over the file.
func Load() *Config {
	godotenv.Load()

	return &Config{
		Environment:      getEnv("APP_ENV", "development"),
		FrameInterval:    getEnvDuration("FRAME_INTERVAL", 20*time.Millisecond),
		DefaultRelayPort: getEnvInt("RELAY_PORT", 10987),
		SnapshotAddr:     getEnv("SNAPSHOT_ADDR", ""),
		StatusAddr:       getEnv("STATUS_ADDR", ""),
		DefaultBoardFile: getEnv("BOARD_FILE", "boards/default.fb"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
