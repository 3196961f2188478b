package rates

import (
	"context"
	"sync"
	"time"
)

// cachingProvider decorates a Provider with a snapshot cache bounded by a
// staleness window. It is concurrency safe. There is no background
// refresh; staleness is checked on each call, so the cache does no work
// between requests.
type cachingProvider struct {
	next Provider
	ttl  time.Duration

	lock     sync.RWMutex
	snapshot Snapshot
	hasValue bool
}

// NewCachingProvider decorates next with a cache that refreshes once the
// held snapshot is older than ttl. If a refresh fails while a stale
// snapshot is held, the stale snapshot is served rather than failing the
// request; callers that cannot tolerate staleness should use next
// directly.
func NewCachingProvider(ttl time.Duration, next Provider) Provider {
	return &cachingProvider{
		next: next,
		ttl:  ttl,
	}
}

func (p *cachingProvider) Rates(ctx context.Context) (Snapshot, error) {
	p.lock.RLock()
	snapshot, ok := p.snapshot, p.hasValue
	p.lock.RUnlock()

	if ok && time.Since(snapshot.FetchedAt) < p.ttl {
		return snapshot, nil
	}

	// Concurrent callers past an expired snapshot may all refresh; the
	// last write wins and each gets a valid snapshot.
	fresh, err := p.next.Rates(ctx)
	if err != nil {
		if ok {
			return snapshot, nil
		}
		return Snapshot{}, err
	}

	p.lock.Lock()
	p.snapshot = fresh
	p.hasValue = true
	p.lock.Unlock()

	return fresh, nil
}
