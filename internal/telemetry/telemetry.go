// Package telemetry exports study metrics over OTLP.
package telemetry

import (
	"context"
	"time"

	"github.com/sky-flux/vocab"
	"github.com/sky-flux/vocab/session"
)

// ReviewEvent describes one graded card.
type ReviewEvent struct {
	Grade        vocab.Grade
	Category     session.Category
	Recovery     bool
	Duration     time.Duration // time to answer
	IntervalDays int           // interval after scheduling
}

// SessionEvent describes one finished session.
type SessionEvent struct {
	Mode     session.Mode
	Stats    session.Stats
	Duration time.Duration
}

// Recorder receives study events.
type Recorder interface {
	RecordReview(ctx context.Context, ev ReviewEvent)
	RecordSession(ctx context.Context, ev SessionEvent)
	Close(ctx context.Context) error
}

// Config holds exporter settings.
type Config struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	Interval       time.Duration
	ServiceName    string
	ServiceVersion string
}

// New returns an OTLP exporter when cfg is enabled and a no-op recorder
// otherwise.
func New(ctx context.Context, cfg Config) (Recorder, error) {
	if !cfg.Enabled {
		return NoOp{}, nil
	}
	return NewExporter(ctx, cfg)
}

// NoOp discards every event.
type NoOp struct{}

func (NoOp) RecordReview(context.Context, ReviewEvent)   {}
func (NoOp) RecordSession(context.Context, SessionEvent) {}
func (NoOp) Close(context.Context) error                 { return nil }
