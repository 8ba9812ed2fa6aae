package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

type item struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache keeps documents as encoded JSON. A zero ttl never expires.
type MemoryCache struct {
	items map[string]item
	ttl   time.Duration
	mu    sync.RWMutex
	now   func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		items: make(map[string]item),
		ttl:   ttl,
		now:   time.Now,
	}
}

func memoryKey(collection, key string) string {
	return collection + "/" + key
}

func (c *MemoryCache) Get(_ context.Context, collection, key string) (Document, error) {
	k := memoryKey(collection, key)

	c.mu.RLock()
	it, exists := c.items[k]
	c.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}
	if c.expired(it) {
		c.Delete(collection, key)
		return nil, ErrNotFound
	}

	return decodeDocument(it.data)
}

func (c *MemoryCache) Set(_ context.Context, collection, key string, doc Document, mode WriteMode) error {
	k := memoryKey(collection, key)
	if doc == nil {
		doc = Document{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if mode == ModeMerge {
		base := []byte("{}")
		if it, ok := c.items[k]; ok && !c.expired(it) {
			base = it.data
		}
		if data, err = jsonpatch.MergePatch(base, data); err != nil {
			return err
		}
	}

	it := item{data: data}
	if c.ttl > 0 {
		it.expiresAt = c.now().Add(c.ttl)
	}
	c.items[k] = it
	return nil
}

func (c *MemoryCache) Delete(collection, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, memoryKey(collection, key))
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]item)
	return nil
}

func (c *MemoryCache) expired(it item) bool {
	return !it.expiresAt.IsZero() && c.now().After(it.expiresAt)
}
