package neo

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
	"github.com/skyfall-io/impact-sim-service/internal/observability"
)

// CachedFeed wraps an AsteroidFeed with an in-memory LRU cache. The cache
// key includes the current date, so entries naturally miss when the trailing
// window moves to a new day.
type CachedFeed struct {
	inner   domain.AsteroidFeed
	cache   *lruCache
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedFeed creates a cache decorator around a feed.
func NewCachedFeed(inner domain.AsteroidFeed, maxEntries int, metrics *observability.Metrics) *CachedFeed {
	return &CachedFeed{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
	}
}

func (c *CachedFeed) FetchRecent(ctx context.Context, windowDays int) ([]domain.ImpactScenario, error) {
	key := fmt.Sprintf("window:%d:%s", ClampWindow(windowDays), c.clock.Now().UTC().Format(dateLayout))
	if scenarios, ok := c.cache.get(key); ok {
		c.metrics.NeoCache.WithLabelValues("hit").Inc()
		return scenarios, nil
	}
	c.metrics.NeoCache.WithLabelValues("miss").Inc()

	scenarios, err := c.inner.FetchRecent(ctx, windowDays)
	if err != nil {
		return scenarios, err
	}
	// Only cache non-empty results so transient empty responses can be retried.
	if len(scenarios) > 0 {
		c.cache.put(key, scenarios)
	}
	return scenarios, nil
}

// lruCache is a simple thread-safe LRU cache for feed results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.ImpactScenario
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.ImpactScenario, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.ImpactScenario) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
