package config

import (
	"strconv"
	"time"
)

// GetBlogDir returns the directory holding markdown blog posts
func GetBlogDir() string {
	return GetEnvOrDefault("BLOG_DIR", "content/posts")
}

// GetBlogCacheTTL returns how long the in-memory post index is served
// before being reloaded from disk
func GetBlogCacheTTL() time.Duration {
	raw := GetEnvOrDefault("BLOG_CACHE_TTL_SECONDS", "300")
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}
