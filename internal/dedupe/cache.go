// ABOUTME: Thread-safe TTL cache of recent add-student submissions
// ABOUTME: Maps an idempotency key to the student id it created

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Defaults used by the portal when nothing else is configured.
const (
	DefaultTTL     = 10 * time.Minute
	DefaultMaxSize = 1024
)

// cacheEntry stores the created id, when it was recorded and its place in
// the eviction order.
type cacheEntry struct {
	id        int64
	timestamp time.Time
	element   *list.Element
}

// Cache is a TTL-based, size-limited map from submission key to student id.
// A doubly-linked list keeps insertion order for O(1) eviction.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*cacheEntry
	order   *list.List // keys, oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum size. Non-positive
// values fall back to DefaultTTL and DefaultMaxSize. A background goroutine
// removes expired entries until Close is called.
func New(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	c := &Cache{
		seen:    make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Lookup returns the student id recorded for key, if it has not expired.
func (c *Cache) Lookup(key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.seen[key]
	if !ok || c.expired(entry) {
		return 0, false
	}
	return entry.id, true
}

// Remember records that key created the student with the given id. An
// existing entry is overwritten and its TTL restarted.
func (c *Cache) Remember(key string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.seen[key]; ok {
		entry.id = id
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	c.seen[key] = &cacheEntry{
		id:        id,
		timestamp: now,
		element:   c.order.PushBack(key),
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// expired must be called with mu held.
func (c *Cache) expired(entry *cacheEntry) bool {
	return c.now().Sub(entry.timestamp) >= c.ttl
}

// evictOldest must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, key)
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired drops every expired entry.
func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.seen {
		if c.expired(entry) {
			c.order.Remove(entry.element)
			delete(c.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
