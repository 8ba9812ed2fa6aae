package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/muratoffalex/ytscribe/internal/database"
)

// DBCache persists documents in the SQLite documents table. Merge writes
// use json_patch, which follows the same RFC 7396 rules as the memory cache.
type DBCache struct {
	db database.Database
}

func NewDBCache(db database.Database) *DBCache {
	return &DBCache{db: db}
}

func (c *DBCache) Get(ctx context.Context, collection, key string) (Document, error) {
	var data string

	err := c.db.QueryRowContext(ctx, `
        SELECT data
        FROM documents
        WHERE collection = ? AND doc_key = ?
    `, collection, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}

	doc, err := decodeDocument([]byte(data))
	if err != nil {
		return nil, errors.Join(ErrStore, fmt.Errorf("decode %s/%s: %w", collection, key, err))
	}
	return doc, nil
}

func (c *DBCache) Set(ctx context.Context, collection, key string, doc Document, mode WriteMode) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	query := `
        INSERT INTO documents (collection, doc_key, data)
        VALUES (?, ?, json(?))
        ON CONFLICT(collection, doc_key) DO UPDATE SET
            data = excluded.data,
            updated_at = CURRENT_TIMESTAMP
    `
	if mode == ModeMerge {
		query = `
        INSERT INTO documents (collection, doc_key, data)
        VALUES (?, ?, json_patch('{}', ?))
        ON CONFLICT(collection, doc_key) DO UPDATE SET
            data = json_patch(documents.data, ?),
            updated_at = CURRENT_TIMESTAMP
    `
		_, err = c.db.ExecWithRetry(ctx, query, collection, key, string(data), string(data))
	} else {
		_, err = c.db.ExecWithRetry(ctx, query, collection, key, string(data))
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (c *DBCache) Close() error {
	return c.db.Close()
}
