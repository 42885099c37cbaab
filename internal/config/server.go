package config

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// GetServerAddr returns the listen address for the HTTP server
func GetServerAddr() string {
	return GetEnvOrDefault("SERVER_ADDR", ":8080")
}

// GetShutdownTimeout returns how long the server waits for in-flight
// requests during graceful shutdown
func GetShutdownTimeout() time.Duration {
	raw := GetEnvOrDefault("SHUTDOWN_TIMEOUT_SECONDS", "10")
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Warn().Str("value", raw).Msg("Invalid SHUTDOWN_TIMEOUT_SECONDS, using default")
		return 10 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
