// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultRecordCacheEntries is the record cache capacity used when a database
// is created without an explicit size.
const DefaultRecordCacheEntries = 1024

// RecordCacheMetrics tracks record cache behavior. The atomic counters are
// always maintained; the prometheus counters are additionally incremented
// once a registry has been provided via Register.
type RecordCacheMetrics struct {
	Hits      atomic.Uint64
	Misses    atomic.Uint64
	Evictions atomic.Uint64

	registerOnce     sync.Once
	hitsCounter      prometheus.Counter
	missesCounter    prometheus.Counter
	evictionsCounter prometheus.Counter
}

// Register registers prometheus metrics with the given registry. A nil
// registry is a no-op. This method is idempotent; calls after the first
// successful registration are no-ops.
func (m *RecordCacheMetrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}
	m.registerOnce.Do(func() {
		factory := promauto.With(registry)
		m.hitsCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "vestry_record_cache_hits_total",
			Help: "Total number of record cache hits",
		})
		m.missesCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "vestry_record_cache_misses_total",
			Help: "Total number of record cache misses",
		})
		m.evictionsCounter = factory.NewCounter(prometheus.CounterOpts{
			Name: "vestry_record_cache_evictions_total",
			Help: "Total number of record cache evictions",
		})
	})
}

func (m *RecordCacheMetrics) incHit() {
	m.Hits.Add(1)
	if m.hitsCounter != nil {
		m.hitsCounter.Inc()
	}
}

func (m *RecordCacheMetrics) incMiss() {
	m.Misses.Add(1)
	if m.missesCounter != nil {
		m.missesCounter.Inc()
	}
}

func (m *RecordCacheMetrics) incEviction() {
	m.Evictions.Add(1)
	if m.evictionsCounter != nil {
		m.evictionsCounter.Inc()
	}
}

// recordCacheEntry holds cached record bytes and the key for LRU tracking.
type recordCacheEntry struct {
	key  string
	data []byte
}

// RecordCache is a thread-safe LRU cache of canonical record bytes keyed by
// blob key. It only serves reads outside an explicit transaction; transacted
// reads go straight to the blob store so read-modify-write operations always
// see committed store state. Writers invalidate entries through post-commit
// transaction hooks.
type RecordCache struct {
	mu         sync.Mutex
	maxEntries int
	cache      map[string]*list.Element
	lruList    *list.List
	metrics    RecordCacheMetrics
}

// NewRecordCache creates a RecordCache holding up to maxEntries records.
// A maxEntries of zero or below disables caching entirely.
func NewRecordCache(maxEntries int) *RecordCache {
	return &RecordCache{
		maxEntries: maxEntries,
		cache:      make(map[string]*list.Element),
		lruList:    list.New(),
	}
}

// RegisterMetrics registers the cache's prometheus metrics with the given
// registry. A nil registry is a no-op.
func (c *RecordCache) RegisterMetrics(registry prometheus.Registerer) {
	c.metrics.Register(registry)
}

// Metrics returns the cache metrics
func (c *RecordCache) Metrics() *RecordCacheMetrics {
	return &c.metrics
}

// Get retrieves cached record bytes by blob key. Accessing an entry moves it
// to the front of the LRU list. The returned slice is a copy, so callers may
// freely modify it.
func (c *RecordCache) Get(key []byte) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[string(key)]
	if !ok {
		c.metrics.incMiss()
		return nil, false
	}
	c.lruList.MoveToFront(elem)
	c.metrics.incHit()

	entry := elem.Value.(*recordCacheEntry)
	return append([]byte(nil), entry.data...), true
}

// Put adds or updates record bytes in the cache. The stored value is a copy
// of data. If the cache exceeds its capacity, the least recently used entry
// is evicted.
func (c *RecordCache) Put(key []byte, data []byte) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := string(key)
	dataCopy := append([]byte(nil), data...)

	if elem, ok := c.cache[keyStr]; ok {
		c.lruList.MoveToFront(elem)
		entry := elem.Value.(*recordCacheEntry)
		entry.data = dataCopy
		return
	}

	entry := &recordCacheEntry{key: keyStr, data: dataCopy}
	c.cache[keyStr] = c.lruList.PushFront(entry)

	for c.lruList.Len() > c.maxEntries {
		c.evictOldest()
	}
}

// Delete removes the entry for the given blob key, if present.
func (c *RecordCache) Delete(key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyStr := string(key)
	if elem, ok := c.cache[keyStr]; ok {
		delete(c.cache, keyStr)
		c.lruList.Remove(elem)
	}
}

// Len returns the number of cached entries
func (c *RecordCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// evictOldest removes the least recently used entry from the cache.
// Must be called with the mutex held.
func (c *RecordCache) evictOldest() {
	elem := c.lruList.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*recordCacheEntry)
	delete(c.cache, entry.key)
	c.lruList.Remove(elem)
	c.metrics.incEviction()
}
