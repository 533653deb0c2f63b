// Package forecastcache memoizes forecast responses so periodic runs over
// unchanged inputs do not resubmit identical series.
package forecastcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
	"github.com/couchcryptid/county-risk-forecast/internal/observability"
)

// CachedForecaster wraps a Forecaster with an in-memory LRU cache keyed by the
// full request content.
type CachedForecaster struct {
	inner   domain.Forecaster
	cache   *lruCache
	metrics *observability.Metrics
}

// New creates a cache decorator holding at most maxEntries responses.
func New(inner domain.Forecaster, maxEntries int, metrics *observability.Metrics) *CachedForecaster {
	return &CachedForecaster{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Forecast implements domain.Forecaster.
func (c *CachedForecaster) Forecast(ctx context.Context, req domain.ForecastRequest) (domain.ForecastFrame, error) {
	key := requestKey(req)
	if frame, ok := c.cache.get(key); ok {
		c.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return frame, nil
	}
	c.metrics.ForecastCache.WithLabelValues("miss").Inc()

	frame, err := c.inner.Forecast(ctx, req)
	if err != nil {
		return frame, err
	}
	// Empty answers are not cached so the next run asks again.
	if !frame.Empty() {
		c.cache.put(key, frame)
	}
	return frame, nil
}

// requestKey hashes everything the service sees: county, schema, and every
// (date, value) pair.
func requestKey(req domain.ForecastRequest) [sha256.Size]byte {
	h := sha256.New()
	for _, s := range []string{req.Key.County, req.Key.State, req.TimestampColumn, req.Frequency, req.TargetColumn} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	var buf [16]byte
	for _, p := range req.Series {
		binary.LittleEndian.PutUint64(buf[:8], uint64(p.Date.Unix()))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Value))
		h.Write(buf[:])
	}
	var key [sha256.Size]byte
	h.Sum(key[:0])
	return key
}

// lruCache is a thread-safe LRU of forecast frames.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[[sha256.Size]byte]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   [sha256.Size]byte
	value domain.ForecastFrame
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[[sha256.Size]byte]*entry),
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key [sha256.Size]byte) (domain.ForecastFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.ForecastFrame{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key [sha256.Size]byte, value domain.ForecastFrame) {
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
