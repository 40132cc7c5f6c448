package callcache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// volatileParams are request parameters excluded from cache keys because
// they change between otherwise identical calls or carry credentials.
var volatileParams = map[string]bool{
	"api_key":         true,
	"api_sig":         true,
	"format":          true,
	"nojsoncallback":  true,
	"oauth_nonce":     true,
	"oauth_signature": true,
	"oauth_timestamp": true,
	"oauth_token":     true,
}

// Key builds a cache key from an API call name and its request parameters.
// Volatile and credential parameters are dropped and the rest are sorted,
// so two requests for the same data produce the same key regardless of
// signing details.
func Key(callName string, params url.Values) string {
	names := make([]string, 0, len(params))
	for name := range params {
		if volatileParams[name] || strings.HasPrefix(name, "oauth_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(callName)
	for _, name := range names {
		b.WriteByte('&')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(name)))
	}
	return b.String()
}

// callName extracts the API call name from a cache key
func callName(key string) string {
	if i := strings.IndexByte(key, '&'); i >= 0 {
		return key[:i]
	}
	return key
}

// CallStats holds hit/miss counts for one API call name.
// The Snapshot slice also carries an "_all" aggregate entry.
type CallStats struct {
	Name   string
	Hits   int
	Misses int
}

type entry struct {
	value    []byte
	storedAt time.Time
}

type counter struct {
	hits   int
	misses int
}

// Cache stores raw API responses for the duration of one run and counts
// hits and misses per call name. It is not an optimization layer first:
// the counters are the primary product, making repeated lookups visible
// so callers can tell how many billable API calls a run actually made.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	counters   map[string]*counter
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithMaxEntries bounds the number of stored entries. When the bound is
// reached the oldest entry is evicted. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// WithTTL expires entries after the given duration. Zero means entries
// live for the whole run.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// withNow overrides the time source for tests
func withNow(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache. By default entries never expire and the
// cache is unbounded; it lives for a single process run.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		counters: make(map[string]*counter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up a cached response. Every lookup is counted: a hit
// increments the hit counters for the call name and for "_all", a miss
// increments the miss counters.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		ok = false
	}

	name := callName(key)
	if ok {
		c.count(name).hits++
		c.count("_all").hits++
		return e.value, true
	}
	c.count(name).misses++
	c.count("_all").misses++
	return nil, false
}

// Put stores a raw response under the given key
func (c *Cache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Len reports the number of stored entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns the per-call-name statistics sorted by name.
// The "_all" aggregate sorts first because '_' precedes the lowercase
// call names.
func (c *Cache) Snapshot() []CallStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := make([]CallStats, 0, len(c.counters))
	for name, ctr := range c.counters {
		stats = append(stats, CallStats{Name: name, Hits: ctr.hits, Misses: ctr.misses})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// String renders the usage report:
//
//	cache hits / misses:
//	  _all: 7 / 3
//	  flickr.photos.getInfo: 4 / 1
func (c *Cache) String() string {
	lines := []string{"cache hits / misses:"}
	for _, s := range c.Snapshot() {
		lines = append(lines, fmt.Sprintf("  %s: %d / %d", s.Name, s.Hits, s.Misses))
	}
	return strings.Join(lines, "\n")
}

func (c *Cache) count(name string) *counter {
	ctr, ok := c.counters[name]
	if !ok {
		ctr = &counter{}
		c.counters[name] = ctr
	}
	return ctr
}

// evictOldest removes the entry with the earliest store time.
// Called with the lock held.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
