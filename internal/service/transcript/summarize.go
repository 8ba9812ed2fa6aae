package transcript

import (
	"context"
	"time"

	"github.com/muratoffalex/ytscribe/internal/ai"
	"github.com/muratoffalex/ytscribe/internal/cache"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/service/summary"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

type tagPatch struct {
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summarize returns the stored summary when one exists. Otherwise it loads
// the transcript, asks the model, composes the document and stores it.
// A record without summary text counts as absent.
func (s *Service) Summarize(ctx context.Context, rawURL, model string) (*SummaryRecord, bool, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, false, err
	}

	stored, err := lookup[SummaryRecord](ctx, s, cache.CollectionSummaries, videoID)
	if err != nil {
		return nil, false, err
	}
	if stored != nil && stored.Summary != "" {
		return stored, true, nil
	}

	if err := s.summarizer.CheckModel(model); err != nil {
		return nil, false, err
	}

	rec, err := coalesce(s, "summary:"+videoID, func() (*SummaryRecord, error) {
		return s.generateSummary(ctx, videoID, model)
	})
	return rec, false, err
}

func (s *Service) generateSummary(ctx context.Context, videoID, model string) (*SummaryRecord, error) {
	log := s.logger.WithFields(logger.Fields{
		"video_id": videoID,
		"model":    model,
	})

	meta, err := s.resolver.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	transcriptRec, err := lookup[Record](ctx, s, cache.CollectionTranscripts, videoID)
	if err != nil {
		return nil, err
	}
	if transcriptRec == nil || !transcriptRec.extended() {
		if transcriptRec, err = s.storeRecord(ctx, videoID, meta, "", true); err != nil {
			return nil, err
		}
	}

	text, err := s.summarizer.Summarize(ctx, model, ai.SummaryRequest{
		VideoID:    videoID,
		Title:      meta.Title,
		Transcript: transcriptRec.Transcript,
		Language:   transcriptRec.Language,
	})
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	tags := summary.TagsOrDerived(transcriptRec.Tags, meta.Title, meta.Description, text)
	doc, err := summary.Compose(summary.Document{
		Metadata:     meta,
		Tags:         tags,
		Summary:      text,
		CanonicalURL: transcriptRec.CanonicalURL,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	rec := &SummaryRecord{
		VideoID:   videoID,
		Summary:   doc,
		Tags:      tags,
		Model:     model,
		UpdatedAt: now,
	}
	if err := cache.PutRecord(ctx, s.cache, cache.CollectionSummaries, videoID, rec, cache.ModeOverwrite); err != nil {
		return nil, err
	}

	// the summary record already carries the tags; the transcript copy is best effort
	if err := cache.PutRecord(ctx, s.cache, cache.CollectionTranscripts, videoID, tagPatch{Tags: tags, UpdatedAt: now}, cache.ModeMerge); err != nil {
		log.WithError(err).Warn("Failed to merge tags into transcript record")
	}

	log.WithField("tags", len(tags)).Info("Summary generated")
	return rec, nil
}
