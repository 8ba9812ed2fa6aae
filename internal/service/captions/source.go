package captions

import (
	"context"
	"errors"
	"fmt"
)

// CaptionLine is one caption cue. Times are seconds.
type CaptionLine struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Source fetches caption lines for a video in one language.
type Source interface {
	Name() string
	Fetch(ctx context.Context, videoID, lang string) ([]CaptionLine, error)
}

type FailureKind int

const (
	// NotAvailable means the source has no captions for the pair.
	NotAvailable FailureKind = iota + 1
	// Transient covers network, tool and parse failures.
	Transient
)

func (k FailureKind) String() string {
	switch k {
	case NotAvailable:
		return "not_available"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

var (
	ErrNoCaptionsAvailable   = errors.New("no captions available")
	ErrNoTranscriptAvailable = errors.New("no transcript available")
)

// FetchError is the only error type a Source returns.
type FetchError struct {
	Source string
	Kind   FailureKind
	// Status is the upstream HTTP status, zero when not applicable.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Source, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func notAvailable(source string, err error) *FetchError {
	return &FetchError{Source: source, Kind: NotAvailable, Err: err}
}

func transient(source string, status int, err error) *FetchError {
	return &FetchError{Source: source, Kind: Transient, Status: status, Err: err}
}

// KindOf reports the failure kind of err, treating foreign errors as transient.
func KindOf(err error) FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Transient
}
