package config

import "github.com/rs/zerolog/log"

func GetRedisURL() string {
	value := GetEnvOrDefault("REDIS_URL", "")
	if value == "" {
		log.Warn().Msg("REDIS_URL not set - conversation history will use the in-memory store")
	}
	return value
}

func GetRedisPassword() string {
	return GetEnvOrDefault("REDIS_PASSWORD", "")
}
