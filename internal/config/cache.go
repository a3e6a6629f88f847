package config

import (
	"strings"
	"time"
)

// CacheConfig configures the Redis response cache. Show listings are
// annotated per requesting identity, so the default key strategy folds
// the username into the cache key; a strategy without "user" must only
// be used for identity-independent routes. The cache defaults to off
// because watch state changes on every POST/DELETE and the cache has no
// write-through invalidation, only the TTL.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	methods := make(map[string]bool)
	for _, m := range strings.Split(envStr("CACHE_METHODS", "GET"), ",") {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			methods[m] = true
		}
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", false),
		Methods:      methods,
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "user_route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
