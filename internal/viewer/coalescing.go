package viewer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cache collapses concurrent queries for the same credentials into one
// upstream call and remembers successful results for a while.
type Cache struct {
	group   singleflight.Group
	results *expirable.LRU[string, Result]
}

// NewCache returns a cache holding up to size results for ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 16
	}
	return &Cache{results: expirable.NewLRU[string, Result](size, nil, ttl)}
}

// CacheKey derives a cache key from the server and credentials.
func CacheKey(baseURL, apiKey string) string {
	sum := sha256.Sum256([]byte(baseURL + "\x00" + apiKey))
	return hex.EncodeToString(sum[:])
}

// Wrap returns a Querier that answers from the cache when it can and
// otherwise shares one upstream call between concurrent callers.
func (c *Cache) Wrap(key string, upstream Querier) Querier {
	return QuerierFunc(func(ctx context.Context) (Result, error) {
		if cached, ok := c.results.Get(key); ok {
			return cached.clone(), nil
		}

		ch := c.group.DoChan(key, func() (any, error) {
			// The shared call outlives any single caller's cancellation.
			result, err := upstream.Query(context.WithoutCancel(ctx))
			if err != nil {
				return Result{}, err
			}
			c.results.Add(key, result.clone())
			return result, nil
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				return Result{}, res.Err
			}
			return res.Val.(Result).clone(), nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	})
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.results.Purge()
}

// Len reports how many results are cached.
func (c *Cache) Len() int {
	return c.results.Len()
}
