package config

import (
	"strings"
	"time"
)

// CacheConfig contains result cache configuration (Redis-based).
// The cache is disabled when RedisAddr is empty.
type CacheConfig struct {
	RedisAddr     string `env:"REDIS_ADDR"     envDefault:""`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	// KeyPrefix namespaces cache keys.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"secureops:results:"`

	// ResultsTTL is how long completed job results are cached.
	ResultsTTL time.Duration `env:"CACHE_RESULTS_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	if c.ResultsTTL <= 0 {
		c.ResultsTTL = time.Hour
	}
	if c.RedisDB < 0 {
		c.RedisDB = 0
	}
}

// Enabled reports whether a Redis address is configured.
func (c *CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}
