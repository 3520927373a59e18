package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/series"
)

// percentileCacheKey fingerprints a percentile resolution request. Hashing the
// reference sample's identity (name, unit, bounds, length) plus the percentile
// parameters gives a deterministic key, so repeated jobs against the same
// reference period share one computation.
func percentileCacheKey(th *Threshold, targetUnit string, excludeYear int) string {
	ref := th.Reference
	var first, last time.Time
	if !ref.IsEmpty() {
		first, last = ref.Times[0], ref.Times[len(ref.Times)-1]
	}
	input := fmt.Sprintf("%s|%s|%s|%d|%d|%s|%s|%g|%d|%s|%d",
		ref.Name, ref.Unit, targetUnit, ref.Len(), ref.Points(),
		first.Format(time.RFC3339), last.Format(time.RFC3339),
		th.Percentile, th.Window, th.Interpolation, excludeYear,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:12])
}

// percentileCache is a thread-safe LRU cache for resolved day-of-year
// percentile fields.
type percentileCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	head       *cacheEntry // most recently used
	tail       *cacheEntry // least recently used
}

type cacheEntry struct {
	key   string
	value *series.DOYField
	prev  *cacheEntry
	next  *cacheEntry
}

func newPercentileCache(maxEntries int) *percentileCache {
	return &percentileCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

func (c *percentileCache) get(key string) (*series.DOYField, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *percentileCache) put(key string, value *series.DOYField) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *percentileCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *percentileCache) addToFront(e *cacheEntry) {
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

func (c *percentileCache) remove(e *cacheEntry) {
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

func (c *percentileCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
