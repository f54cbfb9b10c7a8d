package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware. The cache
// sits in front of static downloads like the import template, where the body
// never depends on seating state. When Enabled is false or no Redis client is
// configured, caching is disabled entirely. Methods lists the HTTP methods to
// cache. KeyStrategy determines which parts of the request contribute to the
// cache key. MaxBodyBytes caps the size of responses worth storing.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// The cached routes are static, so the TTL only bounds Redis memory,
// not data freshness.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 10*time.Minute),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "path_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
