package caching

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtnitsch/blog-pulse/pkg/clock"
)

// Cache categories and their lifetimes.
const (
	ContentPathsKey = "views:content-paths"
	SummaryKey      = "views:summary"

	ContentPathsTTL = 24 * time.Hour
	SummaryTTL      = 10 * time.Minute
	// StaleWindow is how old a summary may be when it is the only thing left to show.
	StaleWindow = 24 * time.Hour
)

// TTLCache stores JSON-encoded values in a Store and reads them back only
// while they are younger than the caller's ttl. Store failures and undecodable
// values are reported as misses.
type TTLCache struct {
	store  Store
	clock  clock.Clock
	logger zerolog.Logger
}

func NewTTLCache(store Store, clk clock.Clock, logger zerolog.Logger) *TTLCache {
	if clk == nil {
		clk = clock.Real{}
	}
	return &TTLCache{
		store:  store,
		clock:  clk,
		logger: logger.With().Str("component", "ttl_cache").Logger(),
	}
}

// Get decodes the entry for key into dst when now - writtenAt < ttl.
func (c *TTLCache) Get(key string, ttl time.Duration, dst any) bool {
	if c == nil || c.store == nil {
		return false
	}
	value, writtenAt, ok, err := c.store.Load(key)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
		return false
	}
	if !ok {
		return false
	}
	if c.clock.Now().Sub(writtenAt) >= ttl {
		return false
	}
	if err := json.Unmarshal(value, dst); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Corrupt cache entry, treating as miss")
		return false
	}
	return true
}

// Set encodes v and writes it stamped with the current time. Failures are logged and dropped.
func (c *TTLCache) Set(key string, v any) {
	if c == nil || c.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := c.store.Save(key, data, c.clock.Now()); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Invalidate removes key.
func (c *TTLCache) Invalidate(key string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(key); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Cache delete failed")
	}
}
