package redis

// Package redis provides Redis-based adapters for the client.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/secureops/secureops-client/internal/domain/job"
	"github.com/secureops/secureops-client/internal/ports"
)

const (
	defaultPrefix = "secureops:results:"
	defaultTTL    = time.Hour
)

// ResultCache stores result bundles of completed jobs.
// Entries expire after the configured TTL; results of a completed job never
// change, so there is no invalidation path.
type ResultCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.ResultCache = (*ResultCache)(nil)

// ResultCacheOptions configures NewResultCache.
type ResultCacheOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewResultCache creates a Redis-backed result cache.
func NewResultCache(client redis.UniversalClient, opts ResultCacheOptions) *ResultCache {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached bundle for jobID. A miss is reported as ok=false with no error.
func (c *ResultCache) Get(ctx context.Context, jobID string) (job.Results, bool, error) {
	if jobID == "" {
		return job.Results{}, false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return job.Results{}, false, nil
		}
		return job.Results{}, false, fmt.Errorf("redis get: %w", err)
	}

	var res job.Results
	if unmarshalErr := json.Unmarshal(data, &res); unmarshalErr != nil {
		return job.Results{}, false, fmt.Errorf("unmarshal results: %w", unmarshalErr)
	}
	return res, true, nil
}

// Set stores results under its JobID.
func (c *ResultCache) Set(ctx context.Context, res job.Results) error {
	if res.JobID == "" {
		return errors.New("results job ID cannot be empty")
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return c.client.Set(ctx, c.prefix+res.JobID, data, c.ttl).Err()
}

// Delete removes a cached bundle.
func (c *ResultCache) Delete(ctx context.Context, jobID string) error {
	if jobID == "" {
		return nil
	}
	return c.client.Del(ctx, c.prefix+jobID).Err()
}
