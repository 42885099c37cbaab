package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. The level comes from the
// LOG_LEVEL environment variable; PRETTY_LOGS switches to the console writer
// for local development.
func Setup() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := parseLevel(os.Getenv("LOG_LEVEL"))
	zerolog.SetGlobalLevel(level)

	if os.Getenv("PRETTY_LOGS") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	log.Debug().Str("level", level.String()).Msg("Logger configured")
}

func parseLevel(raw string) zerolog.Level {
	switch strings.ToLower(raw) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
