package config

import (
	"strconv"
	"time"
)

// GetVideoPollInterval returns the delay between video job status checks
func GetVideoPollInterval() time.Duration {
	raw := GetEnvOrDefault("VIDEO_POLL_INTERVAL_MS", "2000")
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 2 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

// GetVideoPollMaxAttempts returns the status-check budget before a video
// job is reported as timed out
func GetVideoPollMaxAttempts() int {
	raw := GetEnvOrDefault("VIDEO_POLL_MAX_ATTEMPTS", "30")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 30
	}
	return n
}
