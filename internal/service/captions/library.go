package captions

import (
	"context"
	"errors"
	"net/http"

	ytlib "github.com/kkdai/youtube/v2"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

const SourceLibrary = "library"

// transcriptClient is the subset of *ytlib.Client used here.
type transcriptClient interface {
	GetVideoContext(ctx context.Context, id string) (*ytlib.Video, error)
	GetTranscriptCtx(ctx context.Context, video *ytlib.Video, lang string) (ytlib.VideoTranscript, error)
}

// LibrarySource reads the transcript panel through github.com/kkdai/youtube.
type LibrarySource struct {
	client transcriptClient
	logger logger.Logger
}

func NewLibrarySource(httpClient *http.Client, l logger.Logger) *LibrarySource {
	return &LibrarySource{
		client: &ytlib.Client{HTTPClient: httpClient},
		logger: l.WithField("source", SourceLibrary),
	}
}

func (s *LibrarySource) Name() string {
	return SourceLibrary
}

func (s *LibrarySource) Fetch(ctx context.Context, videoID, lang string) ([]CaptionLine, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, transient(SourceLibrary, 0, err)
	}
	if !hasTrack(video, lang) {
		return nil, notAvailable(SourceLibrary, ErrNoCaptionsAvailable)
	}

	segments, err := s.client.GetTranscriptCtx(ctx, video, lang)
	if err != nil {
		if errors.Is(err, ytlib.ErrTranscriptDisabled) {
			return nil, notAvailable(SourceLibrary, err)
		}
		return nil, transient(SourceLibrary, 0, err)
	}

	lines := make([]CaptionLine, 0, len(segments))
	for _, seg := range segments {
		text := cleanText(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, CaptionLine{
			Start:    float64(max(seg.StartMs, 0)) / 1000.0,
			Duration: float64(max(seg.Duration, 0)) / 1000.0,
			Text:     text,
		})
	}
	if len(lines) == 0 {
		return nil, notAvailable(SourceLibrary, ErrNoCaptionsAvailable)
	}

	s.logger.WithFields(logger.Fields{
		"video_id": videoID,
		"lang":     lang,
		"lines":    len(lines),
	}).Debug("Transcript fetched")
	return lines, nil
}

func hasTrack(video *ytlib.Video, lang string) bool {
	for _, track := range video.CaptionTracks {
		if track.LanguageCode == lang {
			return true
		}
	}
	return false
}
