package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

// MultiLevelCache fronts a durable cache with an in-process one.
//
// Every write bumps a generation counter under mu. A read only warms the
// memory layer when no write happened since it started reading the durable
// layer, so a slow read cannot resurrect a copy a write has evicted.
type MultiLevelCache struct {
	memory *MemoryCache
	db     Cache
	logger logger.Logger

	mu         sync.Mutex
	generation uint64
}

func NewMultiLevelCache(memory *MemoryCache, db Cache, logger logger.Logger) *MultiLevelCache {
	return &MultiLevelCache{
		memory: memory,
		db:     db,
		logger: logger,
	}
}

func (c *MultiLevelCache) Get(ctx context.Context, collection, key string) (Document, error) {
	if doc, err := c.memory.Get(ctx, collection, key); err == nil {
		return doc, nil
	}

	c.mu.Lock()
	started := c.generation
	c.mu.Unlock()

	doc, err := c.db.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != started {
		return doc, nil
	}
	if err := c.memory.Set(ctx, collection, key, doc, ModeOverwrite); err != nil {
		c.logger.WithError(err).Warn("Failed to warm memory cache")
	}
	return doc, nil
}

func (c *MultiLevelCache) Set(ctx context.Context, collection, key string, doc Document, mode WriteMode) error {
	err := c.db.Set(ctx, collection, key, doc, mode)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++

	if err != nil {
		// the durable write failed, so the memory copy may be stale
		c.memory.Delete(collection, key)
		return err
	}

	if mode == ModeMerge {
		// the merged result lives in the durable layer; reload on next read
		c.memory.Delete(collection, key)
		return nil
	}

	if err := c.memory.Set(ctx, collection, key, doc, ModeOverwrite); err != nil {
		c.logger.WithError(err).Warn("Failed to update memory cache")
		c.memory.Delete(collection, key)
	}
	return nil
}

func (c *MultiLevelCache) Close() error {
	return errors.Join(c.memory.Close(), c.db.Close())
}
