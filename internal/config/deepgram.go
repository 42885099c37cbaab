package config

import "github.com/rs/zerolog/log"

func GetDeepgramAPIKey() string {
	value := GetEnvOrDefault("DEEPGRAM_API_KEY", "")
	if value == "" {
		log.Warn().Msg("DEEPGRAM_API_KEY not set - text-to-speech will be unavailable")
	}
	return value
}

func GetDeepgramBaseURL() string {
	return GetEnvOrDefault("DEEPGRAM_BASE_URL", "https://api.deepgram.com")
}
