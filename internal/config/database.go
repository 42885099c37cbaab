package config

import "github.com/rs/zerolog/log"

// GetDatabaseURL returns the Postgres DSN used for the visit counter
func GetDatabaseURL() string {
	value := GetEnvOrDefault("DATABASE_URL", "")
	if value == "" {
		log.Warn().Msg("DATABASE_URL not set - visit counter will be unavailable")
	}
	return value
}
