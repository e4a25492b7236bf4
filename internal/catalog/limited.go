package catalog

import (
	"context"

	"github.com/cesargomez89/resonate/internal/domain"
	"golang.org/x/time/rate"
)

// Limited spaces out lookups against a remote that throttles aggressive
// clients.
type Limited struct {
	remote  Remote
	limiter *rate.Limiter
}

// NewLimited allows perSecond lookups with a burst of one. A non-positive rate
// disables limiting.
func NewLimited(remote Remote, perSecond float64) *Limited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Limited{
		remote:  remote,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (l *Limited) Lookup(ctx context.Context, query string) ([]domain.Song, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.remote.Lookup(ctx, query)
}

var _ Remote = (*Limited)(nil)
