package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWrites(t *testing.T) {
	tests := []struct {
		name   string
		target Document
		patch  Document
		want   Document
	}{
		{
			name: "nested objects merge, nulls delete, arrays replace",
			target: Document{
				"title": "Video",
				"meta":  map[string]any{"a": 1.0, "b": 2.0},
				"tags":  []any{"x"},
			},
			patch: Document{
				"title": nil,
				"meta":  map[string]any{"b": nil, "c": 3.0},
				"tags":  []any{"y", "z"},
			},
			want: Document{
				"meta": map[string]any{"a": 1.0, "c": 3.0},
				"tags": []any{"y", "z"},
			},
		},
		{
			name:   "object replaces scalar",
			target: Document{"a": "s"},
			patch:  Document{"a": map[string]any{"b": "c"}},
			want:   Document{"a": map[string]any{"b": "c"}},
		},
		{
			name:  "absent target",
			patch: Document{"tags": []any{"go"}, "drop": nil},
			want:  Document{"tags": []any{"go"}},
		},
	}

	backends := map[string]func(t *testing.T) Cache{
		"memory": func(t *testing.T) Cache { return NewMemoryCache(0) },
		"sqlite": func(t *testing.T) Cache { return newTestDBCache(t) },
	}

	ctx := context.Background()
	for backend, newCache := range backends {
		for _, tt := range tests {
			t.Run(backend+"/"+tt.name, func(t *testing.T) {
				c := newCache(t)
				if tt.target != nil {
					require.NoError(t, c.Set(ctx, "c", "k", tt.target, ModeOverwrite))
				}
				require.NoError(t, c.Set(ctx, "c", "k", tt.patch, ModeMerge))

				doc, err := c.Get(ctx, "c", "k")
				require.NoError(t, err)
				assert.Equal(t, tt.want, doc)
			})
		}
	}
}

func TestFlattenPatch(t *testing.T) {
	set, unset := map[string]any{}, map[string]any{}

	flattenPatch("", Document{
		"tags":  []any{"go"},
		"drop":  nil,
		"meta":  map[string]any{"lang": "en", "old": nil},
		"empty": map[string]any{},
	}, set, unset)

	assert.Equal(t, map[string]any{
		"tags":      []any{"go"},
		"meta.lang": "en",
		"empty":     map[string]any{},
	}, set)
	assert.Equal(t, map[string]any{"drop": "", "meta.old": ""}, unset)
}
