package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/network"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	acceptLanguage = "en-US,en;q=0.9"
	maxPageSize    = 10 << 20
)

// MetadataResolver is the seam used by flows and the scrape adapter.
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string) (*VideoMetadata, error)
	Fetch(ctx context.Context, videoID string) (*VideoMetadata, error)
}

// Resolver reads video metadata from the public watch page.
type Resolver struct {
	client  network.HTTPClient
	logger  logger.Logger
	baseURL string
}

type ResolverOption func(*Resolver)

// WithBaseURL points the resolver at another host, used in tests.
func WithBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

func NewResolver(client network.HTTPClient, l logger.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  client,
		logger:  l.WithField("component", "resolver"),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*VideoMetadata, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return r.Fetch(ctx, videoID)
}

func (r *Resolver) Fetch(ctx context.Context, videoID string) (*VideoMetadata, error) {
	if !IsVideoID(videoID) {
		return nil, ErrInvalidURL
	}
	log := r.logger.WithField("video_id", videoID)

	body, err := r.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	raw, err := findPlayerResponse(body)
	if err != nil {
		log.WithError(err).Warn("Player response not found on watch page")
		return nil, errors.Join(ErrMetadataFetch, err)
	}

	pr, err := decodePlayerResponse(raw)
	if err != nil {
		return nil, errors.Join(ErrMetadataFetch, fmt.Errorf("decode player response: %w", err))
	}

	if err := pr.playabilityError(); err != nil {
		log.WithFields(logger.Fields{
			"status": pr.PlayabilityStatus.Status,
			"reason": pr.PlayabilityStatus.Reason,
		}).Info("Video not playable")
		return nil, err
	}

	meta := pr.toMetadata(videoID)
	log.WithFields(logger.Fields{
		"title":  meta.Title,
		"tracks": len(meta.Tracks),
	}).Debug("Metadata resolved")
	return meta, nil
}

func (r *Resolver) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("hl", "en")
	q.Set("has_verified", "1")
	q.Set("bpctr", "9999999999")
	pageURL := r.baseURL + "/watch?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", errors.Join(ErrMetadataFetch, err)
	}
	SetBrowserHeaders(req, r.baseURL+"/")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrMetadataFetch, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: watch page returned 404", ErrVideoUnavailable)
	case resp.StatusCode != http.StatusOK:
		return "", errors.Join(ErrMetadataFetch, &StatusError{StatusCode: resp.StatusCode})
	}

	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxPageSize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", errors.Join(ErrMetadataFetch, fmt.Errorf("charset detection failed: %w", err))
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.Join(ErrMetadataFetch, fmt.Errorf("reading body failed: %w", err))
	}
	return string(data), nil
}

// findPlayerResponse looks for the script element that assigns
// ytInitialPlayerResponse and extracts its object literal.
func findPlayerResponse(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, playerResponseMarker) {
			return true
		}
		obj, err := extractJSONObject(text, playerResponseMarker)
		if err != nil {
			return true
		}
		found = obj
		return false
	})
	if found == "" {
		return "", fmt.Errorf("%s not found", playerResponseMarker)
	}
	return found, nil
}

// StatusError carries an unexpected upstream HTTP status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// SetBrowserHeaders makes a request look like it came from a desktop browser.
func SetBrowserHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", network.RandomUserAgent())
	req.Header.Set("Accept-Language", acceptLanguage)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}
