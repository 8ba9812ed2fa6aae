package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		c := NewMemoryCache(0)
		_, err := c.Get(ctx, CollectionTranscripts, "abc12345678")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("overwrite replaces fields", func(t *testing.T) {
		c := NewMemoryCache(0)
		require.NoError(t, c.Set(ctx, "c", "k", Document{"a": "1", "b": "2"}, ModeOverwrite))
		require.NoError(t, c.Set(ctx, "c", "k", Document{"a": "3"}, ModeOverwrite))

		doc, err := c.Get(ctx, "c", "k")
		require.NoError(t, err)
		assert.Equal(t, Document{"a": "3"}, doc)
	})

	t.Run("merge keeps undeclared fields", func(t *testing.T) {
		c := NewMemoryCache(0)
		require.NoError(t, c.Set(ctx, "c", "k", Document{"title": "t", "tags": []any{"x"}}, ModeOverwrite))
		require.NoError(t, c.Set(ctx, "c", "k", Document{"tags": []any{"go", "cache"}}, ModeMerge))

		doc, err := c.Get(ctx, "c", "k")
		require.NoError(t, err)
		assert.Equal(t, "t", doc["title"])
		assert.Equal(t, []any{"go", "cache"}, doc["tags"])
	})

	t.Run("collections are separate", func(t *testing.T) {
		c := NewMemoryCache(0)
		require.NoError(t, c.Set(ctx, CollectionTranscripts, "k", Document{"a": "1"}, ModeOverwrite))
		_, err := c.Get(ctx, CollectionSummaries, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returned documents are copies", func(t *testing.T) {
		c := NewMemoryCache(0)
		require.NoError(t, c.Set(ctx, "c", "k", Document{"a": "1"}, ModeOverwrite))

		doc, err := c.Get(ctx, "c", "k")
		require.NoError(t, err)
		doc["a"] = "mutated"

		again, err := c.Get(ctx, "c", "k")
		require.NoError(t, err)
		assert.Equal(t, "1", again["a"])
	})

	t.Run("ttl expiry", func(t *testing.T) {
		c := NewMemoryCache(time.Minute)
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }

		require.NoError(t, c.Set(ctx, "c", "k", Document{"a": "1"}, ModeOverwrite))
		_, err := c.Get(ctx, "c", "k")
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = c.Get(ctx, "c", "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

type sampleRecord struct {
	VideoID string   `json:"videoId"`
	Tags    []string `json:"tags,omitempty"`
	Minutes int      `json:"duration"`
}

func TestRecordHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	require.NoError(t, PutRecord(ctx, c, CollectionTranscripts, "abc12345678",
		sampleRecord{VideoID: "abc12345678", Minutes: 12}, ModeOverwrite))
	require.NoError(t, PutRecord(ctx, c, CollectionTranscripts, "abc12345678",
		map[string]any{"tags": []string{"golang"}}, ModeMerge))

	got, err := GetRecord[sampleRecord](ctx, c, CollectionTranscripts, "abc12345678")
	require.NoError(t, err)
	assert.Equal(t, &sampleRecord{VideoID: "abc12345678", Tags: []string{"golang"}, Minutes: 12}, got)

	_, err = GetRecord[sampleRecord](ctx, c, CollectionTranscripts, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
