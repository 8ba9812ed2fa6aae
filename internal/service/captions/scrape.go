package captions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/network"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

const (
	SourceScrape   = "scrape"
	maxCaptionSize = 8 << 20
)

// ScrapeSource requests the signed caption URL listed on the watch page.
// The URL is looked up again on every call since it expires.
type ScrapeSource struct {
	resolver youtube.MetadataResolver
	client   network.HTTPClient
	logger   logger.Logger
}

func NewScrapeSource(resolver youtube.MetadataResolver, client network.HTTPClient, l logger.Logger) *ScrapeSource {
	return &ScrapeSource{
		resolver: resolver,
		client:   client,
		logger:   l.WithField("source", SourceScrape),
	}
}

func (s *ScrapeSource) Name() string {
	return SourceScrape
}

func (s *ScrapeSource) Fetch(ctx context.Context, videoID, lang string) ([]CaptionLine, error) {
	meta, err := s.resolver.Fetch(ctx, videoID)
	if err != nil {
		if errors.Is(err, youtube.ErrPrivateVideo) || errors.Is(err, youtube.ErrVideoUnavailable) {
			return nil, notAvailable(SourceScrape, err)
		}
		return nil, transient(SourceScrape, statusOf(err), err)
	}

	track, ok := trackForLanguage(meta.Tracks, lang)
	if !ok {
		return nil, notAvailable(SourceScrape, ErrNoCaptionsAvailable)
	}

	body, status, err := s.get(ctx, track.SignedURL, videoID)
	if err != nil {
		return nil, transient(SourceScrape, status, err)
	}
	if lines := ParseXML(body); len(lines) > 0 {
		return lines, nil
	}

	jsonURL, err := withQuery(track.SignedURL, "fmt", "json3")
	if err != nil {
		return nil, transient(SourceScrape, 0, err)
	}
	body, status, err = s.get(ctx, jsonURL, videoID)
	if err != nil {
		return nil, transient(SourceScrape, status, err)
	}
	if body == "" {
		return nil, notAvailable(SourceScrape, ErrNoCaptionsAvailable)
	}
	lines, err := ParseJSON3([]byte(body))
	if err != nil {
		s.logger.WithError(err).WithField("video_id", videoID).Debug("Caption body is neither XML nor JSON")
		return nil, notAvailable(SourceScrape, ErrNoCaptionsAvailable)
	}
	if len(lines) == 0 {
		return nil, notAvailable(SourceScrape, ErrNoCaptionsAvailable)
	}
	return lines, nil
}

func (s *ScrapeSource) get(ctx context.Context, rawURL, videoID string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	youtube.SetBrowserHeaders(req, youtube.WatchURL(videoID))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("caption request returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptionSize))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("reading body failed: %w", err)
	}
	return string(data), resp.StatusCode, nil
}

// trackForLanguage picks the requested language, or the first track when
// lang is empty. A requested language that is not listed never matches.
func trackForLanguage(tracks []youtube.CaptionTrack, lang string) (youtube.CaptionTrack, bool) {
	if len(tracks) == 0 {
		return youtube.CaptionTrack{}, false
	}
	if lang == "" {
		return tracks[0], true
	}
	for _, t := range tracks {
		if t.LanguageCode == lang && !t.IsAutoGenerated {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return youtube.CaptionTrack{}, false
}

func withQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func statusOf(err error) int {
	var statusErr *youtube.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
