package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collections used by the transcript service.
const (
	CollectionTranscripts  = "transcripts"
	CollectionMultilingual = "multilingual_transcripts"
	CollectionSummaries    = "summaries"
)

// ToDocument encodes v through its JSON tags.
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

func GetRecord[T any](ctx context.Context, c Cache, collection, key string) (*T, error) {
	doc, err := c.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return &out, nil
}

func PutRecord(ctx context.Context, c Cache, collection, key string, v any, mode WriteMode) error {
	doc, err := ToDocument(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, collection, key, doc, mode)
}
