package config

import (
	"strconv"
	"time"
)

// GetHistoryTTL returns how long a persisted conversation survives
// without activity
func GetHistoryTTL() time.Duration {
	raw := GetEnvOrDefault("HISTORY_TTL_HOURS", "168")
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

// GetHistoryLimit returns the maximum number of messages kept per
// conversation; older messages are dropped from the persisted snapshot
func GetHistoryLimit() int {
	raw := GetEnvOrDefault("HISTORY_LIMIT", "200")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 200
	}
	return n
}
