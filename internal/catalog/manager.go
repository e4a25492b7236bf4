package catalog

import (
	"time"

	"github.com/cesargomez89/resonate/internal/store"
)

// Options configures the production remote chain.
type Options struct {
	RatePerSecond float64
	CacheTTL      time.Duration
	Limit         int
}

// NewRemote builds YouTube Music lookups behind the store cache and a rate
// limiter. Cache hits do not consume rate budget.
func NewRemote(db *store.DB, opts Options) Remote {
	var remote Remote = NewLimited(NewYTMusic(opts.Limit), opts.RatePerSecond)
	if db != nil {
		remote = NewCached(remote, &storeCache{store: db}, opts.CacheTTL)
	}
	return remote
}

type storeCache struct {
	store *store.DB
}

func (s *storeCache) GetCache(key string) ([]byte, error) {
	return s.store.GetCache(key)
}

func (s *storeCache) SetCache(key string, data []byte, ttl time.Duration) error {
	return s.store.SetCache(key, data, ttl)
}

var _ Cache = (*storeCache)(nil)
