// Package cache fronts Redis for summary and robots.txt bodies.
//
// Keys follow the shared summaly fingerprint scheme
//
//	[prefix:]nokogiri:<category>:<xxh64(url)>[:<lang|"none">]
//
// so entries interoperate with other implementations pointed at the same
// store. A nil *Cache is valid and behaves as an always-miss store, which
// is how a disabled cache is represented.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const (
	categorySummarize = "summarize"
	categoryRobots    = "robotstxt"

	// NullValue marks a negative summarize entry.
	NullValue = "null"

	// NegativeTTL is the expiry for negative summarize entries.
	NegativeTTL = 300 * time.Second

	minSummarizeTTL = 300 * time.Second
	maxSummarizeTTL = 86400 * time.Second

	robotsTTL = 24 * time.Hour
)

// Cache stores summaries and robots.txt bodies in Redis. Runtime store
// failures degrade to misses and dropped writes; only the startup
// connectivity probe (done by the caller) is fatal.
type Cache struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

func New(rdb *redis.Client, prefix string, log zerolog.Logger) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, log: log}
}

func (c *Cache) key(category, url, lang string) string {
	var b strings.Builder
	if c.prefix != "" {
		b.WriteString(c.prefix)
		b.WriteByte(':')
	}
	b.WriteString("nokogiri:")
	b.WriteString(category)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(xxhash.Sum64String(url), 10))
	if category == categorySummarize {
		b.WriteByte(':')
		if lang == "" {
			b.WriteString("none")
		} else {
			b.WriteString(lang)
		}
	}
	return b.String()
}

// GetSummarize returns the cached summary JSON (or NullValue) for the
// given URL and language.
func (c *Cache) GetSummarize(ctx context.Context, url, lang string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.get(ctx, c.key(categorySummarize, url, lang))
}

// SetSummarize stores a summary JSON (or NullValue) with the given TTL,
// clamped to [300s, 86400s].
func (c *Cache) SetSummarize(ctx context.Context, url, lang, value string, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl < minSummarizeTTL {
		ttl = minSummarizeTTL
	} else if ttl > maxSummarizeTTL {
		ttl = maxSummarizeTTL
	}
	c.set(ctx, c.key(categorySummarize, url, lang), value, ttl)
}

// GetRobots returns the cached robots.txt body for a host. An empty body
// is a valid hit.
func (c *Cache) GetRobots(ctx context.Context, host string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.get(ctx, c.key(categoryRobots, host, ""))
}

// SetRobots caches a robots.txt body (possibly empty) for 24 hours.
func (c *Cache) SetRobots(ctx context.Context, host, body string) {
	if c == nil {
		return
	}
	c.set(ctx, c.key(categoryRobots, host, ""), body, robotsTTL)
}

func (c *Cache) get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug().Err(err).Str("key", key).Msg("cache get failed")
		}
		return "", false
	}
	return val, true
}

func (c *Cache) set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}
