package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default cache settings.
const (
	DefaultCacheTTL  = time.Hour
	DefaultCacheSize = 500
)

// responseCache maps hash(provider, model, prompt) to response text.
// Entries expire after the TTL; on overflow the oldest entry is evicted.
type responseCache struct {
	lru *expirable.LRU[string, string]
}

func newResponseCache(size int, ttl time.Duration) *responseCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &responseCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *responseCache) get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	return c.lru.Get(key)
}

func (c *responseCache) add(key, text string) {
	if c == nil {
		return
	}
	c.lru.Add(key, text)
}

func (c *responseCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// cacheKey hashes everything that determines the model's answer to a prompt.
func cacheKey(provider, model string, req Request) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(req.System))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	return hex.EncodeToString(h.Sum(nil))
}
