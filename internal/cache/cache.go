package cache

import (
	"context"
	"errors"
)

// Document is a JSON-compatible record body.
type Document map[string]any

type WriteMode int

const (
	// ModeOverwrite replaces the stored document.
	ModeOverwrite WriteMode = iota
	// ModeMerge applies the document as a JSON merge patch (RFC 7396).
	ModeMerge
)

func (m WriteMode) String() string {
	if m == ModeMerge {
		return "merge"
	}
	return "overwrite"
}

var (
	ErrNotFound = errors.New("document not found")
	ErrStore    = errors.New("cache store failure")
)

type Cache interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	Set(ctx context.Context, collection, key string, doc Document, mode WriteMode) error
	Close() error
}
