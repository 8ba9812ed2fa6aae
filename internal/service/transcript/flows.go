package transcript

import (
	"context"
	"fmt"

	"github.com/muratoffalex/ytscribe/internal/cache"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/service/captions"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

// Simple fetches a transcript without touching the cache.
func (s *Service) Simple(ctx context.Context, rawURL, lang string) (*SimpleResult, error) {
	meta, err := s.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	lines, track, err := s.fetchLines(ctx, meta, lang)
	if err != nil {
		return nil, err
	}

	return &SimpleResult{
		Duration:               meta.DurationMinutes(),
		Title:                  meta.Title,
		Transcript:             captions.JoinText(lines),
		TranscriptLanguageCode: track.LanguageCode,
		Languages:              meta.Languages(),
	}, nil
}

// SimpleCached serves languages from the multilingual record and appends
// newly fetched languages to it.
func (s *Service) SimpleCached(ctx context.Context, rawURL, lang string) (*SimpleResult, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	return coalesce(s, "v3:"+videoID+":"+lang, func() (*SimpleResult, error) {
		unlock := s.locks.Lock(cache.CollectionMultilingual + "/" + videoID)
		defer unlock()

		rec, err := lookup[MultilingualRecord](ctx, s, cache.CollectionMultilingual, videoID)
		if err != nil {
			return nil, err
		}

		if rec != nil {
			want := lang
			if want == "" {
				want = rec.DefaultLanguage
			}
			if entry, ok := rec.entry(want); ok && want != "" {
				s.logger.WithFields(logger.Fields{"video_id": videoID, "lang": want}).Debug("Multilingual cache hit")
				return &SimpleResult{
					Duration:               rec.Duration,
					Title:                  rec.Title,
					Transcript:             entry.Transcript,
					TranscriptLanguageCode: entry.Language,
					Languages:              rec.AvailableLanguages,
				}, nil
			}
		}

		meta, err := s.resolver.Fetch(ctx, videoID)
		if err != nil {
			return nil, err
		}
		lines, track, err := s.fetchLines(ctx, meta, lang)
		if err != nil {
			return nil, err
		}

		now := s.timestamp()
		if rec == nil {
			rec = &MultilingualRecord{VideoID: videoID}
		}
		rec.Title = meta.Title
		rec.Duration = meta.DurationMinutes()
		rec.AvailableLanguages = meta.Languages()
		if lang == "" {
			rec.DefaultLanguage = track.LanguageCode
		}
		rec.upsert(LanguageTranscript{
			Language:   track.LanguageCode,
			Transcript: captions.JoinText(lines),
			UpdatedAt:  now,
		})
		rec.UpdatedAt = now

		if err := cache.PutRecord(ctx, s.cache, cache.CollectionMultilingual, videoID, rec, cache.ModeMerge); err != nil {
			return nil, err
		}

		entry, _ := rec.entry(track.LanguageCode)
		return &SimpleResult{
			Duration:               rec.Duration,
			Title:                  rec.Title,
			Transcript:             entry.Transcript,
			TranscriptLanguageCode: entry.Language,
			Languages:              rec.AvailableLanguages,
		}, nil
	})
}

// languageKey keys records for languages other than the default one.
func languageKey(videoID, lang string) string {
	return videoID + ":" + lang
}

// findRecord returns the stored record serving (videoID, lang) and its key.
// The key is empty when no record serves the pair yet.
func (s *Service) findRecord(ctx context.Context, videoID, lang string) (string, *Record, error) {
	rec, err := lookup[Record](ctx, s, cache.CollectionTranscripts, videoID)
	if err != nil {
		return "", nil, err
	}
	if lang == "" || (rec != nil && rec.Language == lang) {
		return videoID, rec, nil
	}

	key := languageKey(videoID, lang)
	rec, err = lookup[Record](ctx, s, cache.CollectionTranscripts, key)
	if err != nil || rec == nil {
		return "", nil, err
	}
	return key, rec, nil
}

// keyFor stores a record under the bare video id when lang is the language a
// request without one resolves to, so each (videoID, language) pair has one record.
func (s *Service) keyFor(meta *youtube.VideoMetadata, lang string) string {
	if lang == "" {
		return meta.VideoID
	}
	def, err := captions.SelectTrackPreferring(meta.Tracks, "", s.preferredLang)
	if err == nil && def.LanguageCode == lang {
		return meta.VideoID
	}
	return languageKey(meta.VideoID, lang)
}

// Smart is the cache-first single-language flow. Extended records also carry
// tags, description, canonical URL and publish date.
func (s *Service) Smart(ctx context.Context, rawURL, lang string, extended bool) (*Record, bool, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, false, err
	}

	key, rec, err := s.findRecord(ctx, videoID, lang)
	if err != nil {
		return nil, false, err
	}
	if rec != nil && (!extended || rec.extended()) {
		return rec, true, nil
	}

	rec, err = coalesce(s, fmt.Sprintf("smart:%s:%s:%t", videoID, lang, extended), func() (*Record, error) {
		meta, err := s.resolver.Fetch(ctx, videoID)
		if err != nil {
			return nil, err
		}
		target := key
		if target == "" {
			target = s.keyFor(meta, lang)
		}
		return s.storeRecord(ctx, target, meta, lang, extended)
	})
	return rec, false, err
}

func (s *Service) storeRecord(ctx context.Context, key string, meta *youtube.VideoMetadata, lang string, extended bool) (*Record, error) {
	lines, track, err := s.fetchLines(ctx, meta, lang)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		VideoID:            meta.VideoID,
		Title:              meta.Title,
		Duration:           meta.DurationMinutes(),
		Transcript:         captions.JoinText(lines),
		Language:           track.LanguageCode,
		AvailableLanguages: meta.Languages(),
		UpdatedAt:          s.timestamp(),
	}
	if extended {
		rec.Tags = meta.Keywords
		rec.Description = meta.Description
		rec.CanonicalURL = meta.CanonicalURL()
		rec.PublishDate = meta.PublishDate
	}

	if err := cache.PutRecord(ctx, s.cache, cache.CollectionTranscripts, key, rec, cache.ModeMerge); err != nil {
		return nil, err
	}
	s.logger.WithFields(logger.Fields{
		"video_id": meta.VideoID,
		"lang":     rec.Language,
		"extended": extended,
	}).Info("Transcript cached")
	return rec, nil
}

// Full returns metadata plus structured transcripts for every listed
// language. A failing track is reported inline instead of failing the call.
func (s *Service) Full(ctx context.Context, rawURL string) (*FullResult, error) {
	meta, err := s.resolver.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(meta.Tracks) == 0 {
		return nil, fmt.Errorf("video %s: %w", meta.VideoID, captions.ErrNoCaptionsAvailable)
	}

	result := &FullResult{
		VideoID:         meta.VideoID,
		Title:           meta.Title,
		Description:     meta.Description,
		Author:          meta.Author,
		ChannelID:       meta.ChannelID,
		Category:        meta.Category,
		PublishDate:     meta.PublishDate,
		DurationSeconds: meta.DurationSeconds,
		Duration:        meta.DurationMinutes(),
		ThumbnailURL:    meta.ThumbnailURL,
	}

	seen := make(map[string]bool, len(meta.Tracks))
	for _, track := range meta.Tracks {
		if seen[track.LanguageCode] {
			continue
		}
		seen[track.LanguageCode] = true

		entry := TrackTranscript{
			Language:        track.LanguageCode,
			Name:            track.DisplayName,
			IsAutoGenerated: track.IsAutoGenerated,
		}
		lines, err := s.fetcher.GetTranscript(ctx, meta.VideoID, track.LanguageCode)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			entry.Error = err.Error()
		} else {
			entry.Segments = captions.WithEnd(lines)
		}
		result.Transcripts = append(result.Transcripts, entry)
	}

	return result, nil
}

// Captions returns structured lines. With an explicit language the fallback
// chain runs directly without a metadata lookup.
func (s *Service) Captions(ctx context.Context, videoID, lang string) (*CaptionsResult, error) {
	if !youtube.IsVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", youtube.ErrInvalidURL, videoID)
	}

	if lang == "" {
		meta, err := s.resolver.Fetch(ctx, videoID)
		if err != nil {
			return nil, err
		}
		lines, track, err := s.fetchLines(ctx, meta, "")
		if err != nil {
			return nil, err
		}
		return &CaptionsResult{VideoID: videoID, Lang: track.LanguageCode, Captions: lines}, nil
	}

	lines, err := s.fetcher.GetTranscript(ctx, videoID, lang)
	if err != nil {
		return nil, err
	}
	return &CaptionsResult{VideoID: videoID, Lang: lang, Captions: lines}, nil
}
