package captions

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/muratoffalex/ytscribe/internal/logger"
)

// Orchestrator tries sources strictly in order, one at a time.
type Orchestrator struct {
	sources []Source
	calls   map[string]*atomic.Int64
	logger  logger.Logger
}

func NewOrchestrator(l logger.Logger, sources ...Source) *Orchestrator {
	calls := make(map[string]*atomic.Int64, len(sources))
	for _, s := range sources {
		calls[s.Name()] = &atomic.Int64{}
	}
	return &Orchestrator{
		sources: sources,
		calls:   calls,
		logger:  l.WithField("component", "orchestrator"),
	}
}

// GetTranscript returns the first non-empty result. Any source failure moves
// on to the next source; only exhaustion is reported.
func (o *Orchestrator) GetTranscript(ctx context.Context, videoID, lang string) ([]CaptionLine, error) {
	log := o.logger.WithFields(logger.Fields{
		"video_id": videoID,
		"lang":     lang,
	})

	for _, source := range o.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.calls[source.Name()].Add(1)
		lines, err := source.Fetch(ctx, videoID, lang)
		if err == nil && len(lines) > 0 {
			log.WithFields(logger.Fields{
				"source": source.Name(),
				"lines":  len(lines),
			}).Info("Transcript acquired")
			return lines, nil
		}
		if err == nil {
			err = notAvailable(source.Name(), ErrNoCaptionsAvailable)
		}

		entry := log.WithError(err).WithField("source", source.Name())
		if KindOf(err) == NotAvailable {
			entry.Debug("Source has no captions, trying next")
		} else {
			entry.Warn("Source failed, trying next")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: video %s, language %q", ErrNoTranscriptAvailable, videoID, lang)
}

// Sources lists source names in fallback order.
func (o *Orchestrator) Sources() []string {
	names := make([]string, 0, len(o.sources))
	for _, s := range o.sources {
		names = append(names, s.Name())
	}
	return names
}

// Stats returns how many times each source was invoked.
func (o *Orchestrator) Stats() map[string]int64 {
	out := make(map[string]int64, len(o.calls))
	for name, counter := range o.calls {
		out[name] = counter.Load()
	}
	return out
}
