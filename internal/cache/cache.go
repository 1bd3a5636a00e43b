// internal/cache/cache.go
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"campus-client/internal/metrics"
)

// FetchFunc loads a fresh value for a key from the remote store.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Options controls freshness for a single key.
type Options struct {
	// StaleAfter is how long a fetched value stays fresh.
	StaleAfter time.Duration
	// RefreshEvery is the background refresh cadence while the key is
	// watched. Zero disables background refresh.
	RefreshEvery time.Duration
}

type entry struct {
	value     interface{}
	hasValue  bool
	staleAt   time.Time
	observers int
	stop      chan struct{}
	opts      Options
	fetch     FetchFunc
}

// Cache is a keyed staleness cache with in-flight deduplication and
// observer-counted background refresh. Keys nobody watches stop
// refreshing; a janitor sweeps expired unwatched entries.
type Cache struct {
	logger *zap.Logger
	group  singleflight.Group
	cron   *cron.Cron

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// janitorGrace is how long an expired, unwatched entry survives before
// the sweep removes it.
const janitorGrace = 5 * time.Minute

func New(logger *zap.Logger) *Cache {
	c := &Cache{
		logger:  logger,
		entries: make(map[string]*entry),
		cron:    cron.New(),
	}

	if _, err := c.cron.AddFunc("@every 1m", c.sweep); err != nil {
		logger.Error("failed to schedule cache janitor", zap.Error(err))
	}
	c.cron.Start()

	return c
}

// Get returns the cached value for key if it is still fresh, otherwise
// fetches. Concurrent callers for the same key share one remote call.
// On fetch failure the previous value (if any) is returned alongside the
// error and stays in the cache.
func (c *Cache) Get(ctx context.Context, key string, opts Options, fetch FetchFunc) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{opts: opts, fetch: fetch}
		c.entries[key] = e
	}
	e.opts = opts
	e.fetch = fetch
	if e.hasValue && time.Now().Before(e.staleAt) {
		value := e.value
		c.mu.Unlock()
		metrics.CacheHits.WithLabelValues("get").Inc()
		return value, nil
	}
	c.mu.Unlock()

	metrics.CacheMisses.WithLabelValues("get").Inc()
	return c.fetchInto(ctx, key, e, opts.StaleAfter, fetch)
}

// Peek returns the cached value regardless of freshness, without
// triggering a fetch.
func (c *Cache) Peek(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Watch registers an observer for key and starts background refresh when
// the first observer arrives. Each Watch must be paired with an Unwatch.
func (c *Cache) Watch(key string, opts Options, fetch FetchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	e, ok := c.entries[key]
	if !ok {
		e = &entry{opts: opts, fetch: fetch}
		c.entries[key] = e
	}
	e.opts = opts
	e.fetch = fetch
	e.observers++
	if e.observers == 1 {
		metrics.CacheWatchedKeys.Inc()
		if opts.RefreshEvery > 0 {
			e.stop = make(chan struct{})
			go c.refreshLoop(key, e.stop, opts.RefreshEvery)
		}
	}
}

// Unwatch removes an observer; the last Unwatch stops background refresh.
func (c *Cache) Unwatch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.observers == 0 {
		return
	}
	e.observers--
	if e.observers == 0 {
		metrics.CacheWatchedKeys.Dec()
		if e.stop != nil {
			close(e.stop)
			e.stop = nil
		}
	}
}

// Forget drops a key outright.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if e.stop != nil {
			close(e.stop)
		}
		delete(c.entries, key)
	}
}

// Close stops the janitor and every refresh loop.
func (c *Cache) Close() {
	c.cron.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, e := range c.entries {
		if e.stop != nil {
			close(e.stop)
			e.stop = nil
		}
	}
}

// fetchInto runs one shared fetch for key. The fetch func and staleness
// window come in as arguments so the singleflight closure never touches
// entry fields outside the lock.
func (c *Cache) fetchInto(ctx context.Context, key string, e *entry, staleAfter time.Duration, fetch FetchFunc) (interface{}, error) {
	// The call is shared by every coalesced caller, so it must not die
	// with whichever caller happened to start it.
	fetchCtx := context.WithoutCancel(ctx)
	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		return fetch(fetchCtx)
	})
	if err != nil {
		metrics.PresenceFetchErrors.Inc()
		// Stale-but-available: the previous value stays usable.
		c.mu.Lock()
		prev := e.value
		hasPrev := e.hasValue
		c.mu.Unlock()
		if hasPrev {
			return prev, err
		}
		return nil, err
	}

	c.mu.Lock()
	e.value = value
	e.hasValue = true
	e.staleAt = time.Now().Add(staleAfter)
	c.mu.Unlock()

	return value, nil
}

func (c *Cache) refreshLoop(key string, stop chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			e, ok := c.entries[key]
			var fetch FetchFunc
			var staleAfter time.Duration
			if ok {
				fetch = e.fetch
				staleAfter = e.opts.StaleAfter
			}
			c.mu.Unlock()
			if !ok {
				return
			}

			metrics.CacheRefreshes.Inc()
			ctx, cancel := context.WithTimeout(context.Background(), every)
			if _, err := c.fetchInto(ctx, key, e, staleAfter, fetch); err != nil {
				c.logger.Warn("background refresh failed",
					zap.String("key", key),
					zap.Error(err))
			}
			cancel()
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.observers == 0 && e.hasValue && now.After(e.staleAt.Add(janitorGrace)) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("swept expired cache entries", zap.Int("count", removed))
	}
}
