package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cesargomez89/resonate/internal/domain"
)

type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

// Cached memoizes lookups in the store cache table. A broken cache never
// fails a lookup.
type Cached struct {
	remote   Remote
	cache    Cache
	cacheTTL time.Duration
}

func NewCached(remote Remote, cache Cache, cacheTTL time.Duration) *Cached {
	return &Cached{
		remote:   remote,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (c *Cached) Lookup(ctx context.Context, query string) ([]domain.Song, error) {
	cacheKey := fmt.Sprintf("lookup:%s", strings.ToLower(strings.TrimSpace(query)))

	if data, err := c.cache.GetCache(cacheKey); err == nil && data != nil {
		var songs []domain.Song
		if err := json.Unmarshal(data, &songs); err == nil {
			return songs, nil
		}
	}

	songs, err := c.remote.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(songs); err == nil {
		_ = c.cache.SetCache(cacheKey, data, c.cacheTTL)
	}

	return songs, nil
}

var _ Remote = (*Cached)(nil)
