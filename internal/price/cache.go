package price

import (
	"context"
	"sync"
)

// Quoter is the price lookup this cache wraps.
type Quoter interface {
	PriceOf(ctx context.Context, mint string) (float64, error)
}

// CycleCache memoizes quotes for the duration of one analysis cycle.
// Misses are cached too: a mint Birdeye does not know stays unknown for
// the rest of the cycle instead of producing one request per consumer.
// Reset is called at cycle start.
type CycleCache struct {
	quoter Quoter

	mu      sync.Mutex
	entries map[string]cachedQuote
}

type cachedQuote struct {
	price float64
	err   error
}

// NewCycleCache wraps a Quoter with per-cycle memoization.
func NewCycleCache(quoter Quoter) *CycleCache {
	return &CycleCache{
		quoter:  quoter,
		entries: make(map[string]cachedQuote),
	}
}

// PriceOf returns the cached quote, fetching on first use per cycle.
func (c *CycleCache) PriceOf(ctx context.Context, mint string) (float64, error) {
	c.mu.Lock()
	if q, ok := c.entries[mint]; ok {
		c.mu.Unlock()
		return q.price, q.err
	}
	c.mu.Unlock()

	price, err := c.quoter.PriceOf(ctx, mint)
	if err != nil && ctx.Err() != nil {
		// Do not poison the cache with cancellation errors.
		return 0, err
	}

	c.mu.Lock()
	c.entries[mint] = cachedQuote{price: price, err: err}
	c.mu.Unlock()

	return price, err
}

// Reset clears all cached quotes.
func (c *CycleCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]cachedQuote)
	c.mu.Unlock()
}
