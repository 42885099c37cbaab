package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

// GetJWTSecret returns the signing key for access tokens
func GetJWTSecret() []byte {
	value := GetEnvOrDefault("JWT_SECRET", "")
	if value == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}
	return []byte(value)
}

// GetTokenLifetime returns how long issued access tokens remain valid
func GetTokenLifetime() time.Duration {
	return 15 * time.Minute
}
