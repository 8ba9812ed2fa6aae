package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/ytscribe/internal/database"
	"github.com/muratoffalex/ytscribe/internal/logger"
)

func newTestDBCache(t *testing.T) *DBCache {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db") + "?_pragma=busy_timeout(5000)"
	db, err := database.NewSQLiteDB(context.Background(), dsn, logger.NewTestLogger())
	require.NoError(t, err)
	c := NewDBCache(db)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDBCache(t *testing.T) {
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		c := newTestDBCache(t)
		_, err := c.Get(ctx, CollectionSummaries, "abc12345678")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("overwrite then merge", func(t *testing.T) {
		c := newTestDBCache(t)

		require.NoError(t, c.Set(ctx, CollectionTranscripts, "k", Document{
			"title":      "Video",
			"transcript": "hello world",
			"tags":       []any{"a"},
		}, ModeOverwrite))
		require.NoError(t, c.Set(ctx, CollectionTranscripts, "k", Document{
			"tags": []any{"golang", "sqlite"},
		}, ModeMerge))

		doc, err := c.Get(ctx, CollectionTranscripts, "k")
		require.NoError(t, err)
		assert.Equal(t, "Video", doc["title"])
		assert.Equal(t, "hello world", doc["transcript"])
		assert.Equal(t, []any{"golang", "sqlite"}, doc["tags"])
	})

	t.Run("merge into absent key creates it", func(t *testing.T) {
		c := newTestDBCache(t)

		require.NoError(t, c.Set(ctx, CollectionTranscripts, "new", Document{"tags": []any{"x"}, "drop": nil}, ModeMerge))

		doc, err := c.Get(ctx, CollectionTranscripts, "new")
		require.NoError(t, err)
		assert.Equal(t, Document{"tags": []any{"x"}}, doc)
	})

	t.Run("overwrite drops old fields", func(t *testing.T) {
		c := newTestDBCache(t)

		require.NoError(t, c.Set(ctx, CollectionSummaries, "k", Document{"summary": "a", "extra": true}, ModeOverwrite))
		require.NoError(t, c.Set(ctx, CollectionSummaries, "k", Document{"summary": "b"}, ModeOverwrite))

		doc, err := c.Get(ctx, CollectionSummaries, "k")
		require.NoError(t, err)
		assert.Equal(t, Document{"summary": "b"}, doc)
	})
}
