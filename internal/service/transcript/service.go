package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/muratoffalex/ytscribe/internal/ai"
	"github.com/muratoffalex/ytscribe/internal/cache"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/service/captions"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

// TranscriptFetcher is satisfied by *captions.Orchestrator.
type TranscriptFetcher interface {
	GetTranscript(ctx context.Context, videoID, lang string) ([]captions.CaptionLine, error)
}

// Service implements the transcript and summary flows behind the HTTP routes.
type Service struct {
	resolver      youtube.MetadataResolver
	fetcher       TranscriptFetcher
	cache         cache.Cache
	summarizer    ai.Summarizer
	preferredLang string
	logger        logger.Logger
	now           func() time.Time

	inflight singleflight.Group
	locks    *keyedMutex
}

type Option func(*Service)

// WithPreferredLanguage changes the fallback language used when a request
// names none.
func WithPreferredLanguage(lang string) Option {
	return func(s *Service) {
		if lang != "" {
			s.preferredLang = lang
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	resolver youtube.MetadataResolver,
	fetcher TranscriptFetcher,
	store cache.Cache,
	summarizer ai.Summarizer,
	l logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		resolver:      resolver,
		fetcher:       fetcher,
		cache:         store,
		summarizer:    summarizer,
		preferredLang: captions.DefaultPreferredLanguage,
		logger:        l.WithField("component", "transcript"),
		now:           time.Now,
		locks:         newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// fetchLines resolves the track for lang and runs the fallback chain.
func (s *Service) fetchLines(ctx context.Context, meta *youtube.VideoMetadata, lang string) ([]captions.CaptionLine, youtube.CaptionTrack, error) {
	track, err := captions.SelectTrackPreferring(meta.Tracks, lang, s.preferredLang)
	if err != nil {
		return nil, youtube.CaptionTrack{}, fmt.Errorf("video %s: %w", meta.VideoID, err)
	}

	lines, err := s.fetcher.GetTranscript(ctx, meta.VideoID, track.LanguageCode)
	if err != nil {
		return nil, track, err
	}
	return lines, track, nil
}

// coalesce runs fn once for concurrent callers with the same key.
func coalesce[T any](s *Service, key string, fn func() (T, error)) (T, error) {
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		return fn()
	})
	if shared {
		s.logger.WithField("key", key).Debug("Joined in-flight request")
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// lookup returns nil without error when the key is absent.
func lookup[T any](ctx context.Context, s *Service, collection, key string) (*T, error) {
	rec, err := cache.GetRecord[T](ctx, s.cache, collection, key)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
