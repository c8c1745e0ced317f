package songs

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL is how long a successful search result is reused.
	DefaultCacheTTL = time.Hour

	// DefaultCacheSize is the default maximum number of cached queries.
	DefaultCacheSize = 1000
)

type cacheEntry struct {
	key       string
	videos    []Video
	fetchedAt time.Time
}

// CachedSearcher wraps a Searcher with an in-memory result cache.
// Identical queries within the TTL reuse the stored videos instead of
// spending provider quota. Errors are never cached.
//
// Entries are kept in fetch order. Each insert first drops expired entries
// from the old end, then evicts the oldest entries until at most maxEntries
// remain.
type CachedSearcher struct {
	next       Searcher
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

// CacheOption configures a CachedSearcher.
type CacheOption func(*CachedSearcher)

// WithMaxEntries caps the number of cached queries. Non-positive values
// are ignored.
func WithMaxEntries(n int) CacheOption {
	return func(c *CachedSearcher) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewCachedSearcher creates a CachedSearcher. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedSearcher(next Searcher, ttl time.Duration, opts ...CacheOption) *CachedSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachedSearcher{
		next:       next,
		ttl:        ttl,
		maxEntries: DefaultCacheSize,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns cached videos for query when fresh, otherwise asks the
// wrapped searcher and stores a successful result.
func (c *CachedSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	key := strconv.Itoa(limit) + "|" + query

	if videos, ok := c.lookup(key); ok {
		return videos, nil
	}

	videos, err := c.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	c.store(key, videos)
	return videos, nil
}

func (c *CachedSearcher) lookup(key string) ([]Video, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.expired(entry, c.now()) {
		c.remove(el)
		return nil, false
	}
	return cloneVideos(entry.videos), true
}

func (c *CachedSearcher) store(key string, videos []Video) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	entry := &cacheEntry{key: key, videos: cloneVideos(videos), fetchedAt: now}

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToBack(el)
	} else {
		c.entries[key] = c.order.PushBack(entry)
	}

	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if !c.expired(el.Value.(*cacheEntry), now) {
			break
		}
		c.remove(el)
	}
	for c.order.Len() > c.maxEntries {
		c.remove(c.order.Front())
	}
}

func (c *CachedSearcher) expired(entry *cacheEntry, now time.Time) bool {
	return now.Sub(entry.fetchedAt) >= c.ttl
}

func (c *CachedSearcher) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

// Len returns the number of cached queries.
func (c *CachedSearcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneVideos(videos []Video) []Video {
	out := make([]Video, len(videos))
	copy(out, videos)
	return out
}
