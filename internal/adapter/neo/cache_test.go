package neo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
	"github.com/skyfall-io/impact-sim-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFeed records calls and returns a canned result.
type countingFeed struct {
	calls     int
	scenarios []domain.ImpactScenario
	err       error
}

func (f *countingFeed) FetchRecent(context.Context, int) ([]domain.ImpactScenario, error) {
	f.calls++
	return f.scenarios, f.err
}

func cachedFeed(inner domain.AsteroidFeed, clock clockwork.Clock) *CachedFeed {
	c := NewCachedFeed(inner, 4, observability.NewMetricsForTesting())
	c.clock = clock
	return c
}

func TestCachedFeed_HitWithinSameDay(t *testing.T) {
	inner := &countingFeed{scenarios: []domain.ImpactScenario{{ID: "neo-1", Source: domain.SourceExternal}}}
	cached := cachedFeed(inner, clockwork.NewFakeClockAt(testNow))

	first, err := cached.FetchRecent(context.Background(), 3)
	require.NoError(t, err)
	second, err := cached.FetchRecent(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second fetch must be served from cache")
	assert.Equal(t, first, second)
}

func TestCachedFeed_MissesOnNewDay(t *testing.T) {
	inner := &countingFeed{scenarios: []domain.ImpactScenario{{ID: "neo-1"}}}
	clock := clockwork.NewFakeClockAt(testNow)
	cached := cachedFeed(inner, clock)

	_, err := cached.FetchRecent(context.Background(), 3)
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)

	_, err = cached.FetchRecent(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls, "window moved to a new day")
}

func TestCachedFeed_DistinctWindowsDistinctEntries(t *testing.T) {
	inner := &countingFeed{scenarios: []domain.ImpactScenario{{ID: "neo-1"}}}
	cached := cachedFeed(inner, clockwork.NewFakeClockAt(testNow))

	_, err := cached.FetchRecent(context.Background(), 1)
	require.NoError(t, err)
	_, err = cached.FetchRecent(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)

	// Clamped windows share an entry: 10 days keys the same as 7.
	_, err = cached.FetchRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedFeed_ErrorsNotCached(t *testing.T) {
	inner := &countingFeed{err: domain.ErrUpstreamUnavailable}
	cached := cachedFeed(inner, clockwork.NewFakeClockAt(testNow))

	_, err := cached.FetchRecent(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))

	_, err = cached.FetchRecent(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls, "failures must not be cached")
}

func TestCachedFeed_EmptyResultsNotCached(t *testing.T) {
	inner := &countingFeed{}
	cached := cachedFeed(inner, clockwork.NewFakeClockAt(testNow))

	_, err := cached.FetchRecent(context.Background(), 3)
	require.NoError(t, err)
	_, err = cached.FetchRecent(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	cache := newLRUCache(2)
	a := []domain.ImpactScenario{{ID: "a"}}
	b := []domain.ImpactScenario{{ID: "b"}}
	c := []domain.ImpactScenario{{ID: "c"}}

	cache.put("a", a)
	cache.put("b", b)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.get("a")
	require.True(t, ok)

	cache.put("c", c)

	_, ok = cache.get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.get("a")
	assert.True(t, ok)
	_, ok = cache.get("c")
	assert.True(t, ok)
}
