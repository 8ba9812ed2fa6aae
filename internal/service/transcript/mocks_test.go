package transcript

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/muratoffalex/ytscribe/internal/ai"
	"github.com/muratoffalex/ytscribe/internal/cache"
	"github.com/muratoffalex/ytscribe/internal/service/captions"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, rawURL string) (*youtube.VideoMetadata, error) {
	args := m.Called(ctx, rawURL)
	meta, _ := args.Get(0).(*youtube.VideoMetadata)
	return meta, args.Error(1)
}

func (m *mockResolver) Fetch(ctx context.Context, videoID string) (*youtube.VideoMetadata, error) {
	args := m.Called(ctx, videoID)
	meta, _ := args.Get(0).(*youtube.VideoMetadata)
	return meta, args.Error(1)
}

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) CheckModel(model string) error {
	return m.Called(model).Error(0)
}

func (m *mockSummarizer) Summarize(ctx context.Context, model string, req ai.SummaryRequest) (string, error) {
	args := m.Called(ctx, model, req)
	return args.String(0), args.Error(1)
}

// stubSource returns fixed lines per language and counts invocations.
type stubSource struct {
	name    string
	lines   map[string][]captions.CaptionLine
	gate    chan struct{}
	entered chan struct{}

	mu    sync.Mutex
	calls []string
}

func (s *stubSource) Name() string {
	return s.name
}

func (s *stubSource) Fetch(ctx context.Context, videoID, lang string) ([]captions.CaptionLine, error) {
	s.mu.Lock()
	s.calls = append(s.calls, videoID+"/"+lang)
	s.mu.Unlock()

	if s.entered != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	lines, ok := s.lines[lang]
	if !ok {
		return nil, &captions.FetchError{Source: s.name, Kind: captions.NotAvailable, Err: captions.ErrNoCaptionsAvailable}
	}
	return lines, nil
}

func (s *stubSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// countingCache counts writes to the wrapped cache. Writes to failCollection
// are rejected once it is set.
type countingCache struct {
	cache.Cache
	sets atomic.Int32

	mu             sync.Mutex
	failCollection string
}

func (c *countingCache) failWrites(collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCollection = collection
}

func (c *countingCache) Set(ctx context.Context, collection, key string, doc cache.Document, mode cache.WriteMode) error {
	c.sets.Add(1)
	c.mu.Lock()
	fail := c.failCollection != "" && c.failCollection == collection
	c.mu.Unlock()
	if fail {
		return errors.Join(cache.ErrStore, errors.New("write rejected"))
	}
	return c.Cache.Set(ctx, collection, key, doc, mode)
}
