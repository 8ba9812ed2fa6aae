package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

type failingCache struct {
	*MemoryCache
	err error
}

func (c *failingCache) Set(ctx context.Context, collection, key string, doc Document, mode WriteMode) error {
	if c.err != nil {
		return c.err
	}
	return c.MemoryCache.Set(ctx, collection, key, doc, mode)
}

// pausedCache reads from the wrapped cache, then waits on release before
// returning the value it read.
type pausedCache struct {
	*MemoryCache
	read    chan struct{}
	release chan struct{}
}

func (c *pausedCache) Get(ctx context.Context, collection, key string) (Document, error) {
	doc, err := c.MemoryCache.Get(ctx, collection, key)
	select {
	case c.read <- struct{}{}:
	default:
	}
	<-c.release
	return doc, err
}

func TestMultiLevelCache(t *testing.T) {
	ctx := context.Background()

	t.Run("reads warm the memory layer", func(t *testing.T) {
		memory := NewMemoryCache(0)
		durable := NewMemoryCache(0)
		require.NoError(t, durable.Set(ctx, CollectionSummaries, "k", Document{"summary": "s"}, ModeOverwrite))
		c := NewMultiLevelCache(memory, durable, logger.NewTestLogger())

		doc, err := c.Get(ctx, CollectionSummaries, "k")
		require.NoError(t, err)
		assert.Equal(t, "s", doc["summary"])

		cached, err := memory.Get(ctx, CollectionSummaries, "k")
		require.NoError(t, err)
		assert.Equal(t, "s", cached["summary"])
	})

	t.Run("merge evicts the memory copy", func(t *testing.T) {
		memory := NewMemoryCache(0)
		durable := NewMemoryCache(0)
		c := NewMultiLevelCache(memory, durable, logger.NewTestLogger())

		require.NoError(t, c.Set(ctx, CollectionTranscripts, "k", Document{"title": "t"}, ModeOverwrite))
		require.NoError(t, c.Set(ctx, CollectionTranscripts, "k", Document{"tags": []any{"go"}}, ModeMerge))

		_, err := memory.Get(ctx, CollectionTranscripts, "k")
		assert.ErrorIs(t, err, ErrNotFound)

		doc, err := c.Get(ctx, CollectionTranscripts, "k")
		require.NoError(t, err)
		assert.Equal(t, "t", doc["title"])
		assert.Equal(t, []any{"go"}, doc["tags"])
	})

	t.Run("failed durable write leaves nothing behind", func(t *testing.T) {
		memory := NewMemoryCache(0)
		durable := &failingCache{MemoryCache: NewMemoryCache(0)}
		c := NewMultiLevelCache(memory, durable, logger.NewTestLogger())

		require.NoError(t, c.Set(ctx, CollectionSummaries, "k", Document{"summary": "old"}, ModeOverwrite))
		durable.err = errors.Join(ErrStore, errors.New("disk full"))

		err := c.Set(ctx, CollectionSummaries, "k", Document{"summary": "new"}, ModeOverwrite)
		assert.ErrorIs(t, err, ErrStore)

		_, err = memory.Get(ctx, CollectionSummaries, "k")
		assert.ErrorIs(t, err, ErrNotFound)

		doc, err := c.Get(ctx, CollectionSummaries, "k")
		require.NoError(t, err)
		assert.Equal(t, "old", doc["summary"])
	})

	t.Run("absent everywhere", func(t *testing.T) {
		c := NewMultiLevelCache(NewMemoryCache(0), NewMemoryCache(0), logger.NewTestLogger())
		_, err := c.Get(ctx, "c", "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("read racing a merge does not rewarm a stale copy", func(t *testing.T) {
		memory := NewMemoryCache(0)
		durable := &pausedCache{
			MemoryCache: NewMemoryCache(0),
			read:        make(chan struct{}, 1),
			release:     make(chan struct{}),
		}
		require.NoError(t, durable.MemoryCache.Set(ctx, "c", "k", Document{"a": "1"}, ModeOverwrite))
		c := NewMultiLevelCache(memory, durable, logger.NewTestLogger())

		stale := make(chan Document, 1)
		go func() {
			doc, _ := c.Get(ctx, "c", "k")
			stale <- doc
		}()

		<-durable.read
		require.NoError(t, c.Set(ctx, "c", "k", Document{"b": "2"}, ModeMerge))
		close(durable.release)
		assert.Equal(t, Document{"a": "1"}, <-stale)

		_, err := memory.Get(ctx, "c", "k")
		assert.ErrorIs(t, err, ErrNotFound)

		doc, err := c.Get(ctx, "c", "k")
		require.NoError(t, err)
		assert.Equal(t, Document{"a": "1", "b": "2"}, doc)
	})
}
