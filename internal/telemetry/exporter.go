package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const meterName = "github.com/sky-flux/vocab"

// Exporter records study metrics through an OpenTelemetry meter provider.
type Exporter struct {
	provider *sdkmetric.MeterProvider

	reviews         metric.Int64Counter
	reviewDuration  metric.Float64Histogram
	reviewInterval  metric.Int64Histogram
	sessions        metric.Int64Counter
	sessionCards    metric.Int64Histogram
	sessionSuccess  metric.Int64Histogram
	sessionDuration metric.Float64Histogram
	recoveries      metric.Int64Counter
}

var _ Recorder = (*Exporter)(nil)

// NewExporter creates an exporter that pushes to an OTLP/gRPC collector.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("telemetry: OTLP endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithInsecure(),
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	e, err := newExporter(ctx, sdkmetric.NewPeriodicReader(exp, readerOpts...), cfg)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

func newExporter(ctx context.Context, reader sdkmetric.Reader, cfg Config) (*Exporter, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "vocab"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(name),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(meterName)
	e := &Exporter{provider: provider}

	if e.reviews, err = meter.Int64Counter("vocab_reviews_total",
		metric.WithDescription("Cards graded"),
		metric.WithUnit("{review}")); err != nil {
		return nil, fmt.Errorf("telemetry: create reviews counter: %w", err)
	}
	if e.reviewDuration, err = meter.Float64Histogram("vocab_review_duration_seconds",
		metric.WithDescription("Time taken to answer a card"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("telemetry: create review duration histogram: %w", err)
	}
	if e.reviewInterval, err = meter.Int64Histogram("vocab_review_interval_days",
		metric.WithDescription("Interval assigned by the scheduler"),
		metric.WithUnit("d")); err != nil {
		return nil, fmt.Errorf("telemetry: create interval histogram: %w", err)
	}
	if e.sessions, err = meter.Int64Counter("vocab_sessions_total",
		metric.WithDescription("Study sessions finished"),
		metric.WithUnit("{session}")); err != nil {
		return nil, fmt.Errorf("telemetry: create sessions counter: %w", err)
	}
	if e.sessionCards, err = meter.Int64Histogram("vocab_session_cards",
		metric.WithDescription("Cards reviewed per session"),
		metric.WithUnit("{card}")); err != nil {
		return nil, fmt.Errorf("telemetry: create session cards histogram: %w", err)
	}
	if e.sessionSuccess, err = meter.Int64Histogram("vocab_session_success_rate",
		metric.WithDescription("Session success rate"),
		metric.WithUnit("%")); err != nil {
		return nil, fmt.Errorf("telemetry: create success rate histogram: %w", err)
	}
	if e.sessionDuration, err = meter.Float64Histogram("vocab_session_duration_seconds",
		metric.WithDescription("Wall-clock session length"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("telemetry: create session duration histogram: %w", err)
	}
	if e.recoveries, err = meter.Int64Counter("vocab_recovery_cards_total",
		metric.WithDescription("Confidence-recovery cards served"),
		metric.WithUnit("{card}")); err != nil {
		return nil, fmt.Errorf("telemetry: create recovery counter: %w", err)
	}
	return e, nil
}

// RecordReview records one graded card.
func (e *Exporter) RecordReview(ctx context.Context, ev ReviewEvent) {
	opt := metric.WithAttributes(
		attribute.String("grade", ev.Grade.String()),
		attribute.String("category", ev.Category.String()),
		attribute.Bool("recovery", ev.Recovery),
	)
	e.reviews.Add(ctx, 1, opt)
	if ev.Duration > 0 {
		e.reviewDuration.Record(ctx, ev.Duration.Seconds(), opt)
	}
	e.reviewInterval.Record(ctx, int64(ev.IntervalDays), opt)
}

// RecordSession records one finished session.
func (e *Exporter) RecordSession(ctx context.Context, ev SessionEvent) {
	opt := metric.WithAttributes(attribute.String("mode", ev.Mode.String()))
	e.sessions.Add(ctx, 1, opt)
	e.sessionCards.Record(ctx, int64(ev.Stats.TotalReviewed), opt)
	if ev.Stats.TotalReviewed > 0 {
		e.sessionSuccess.Record(ctx, int64(ev.Stats.SuccessRate), opt)
	}
	e.sessionDuration.Record(ctx, ev.Duration.Seconds(), opt)
	if n := ev.Stats.RecoveryCardsUsed; n > 0 {
		e.recoveries.Add(ctx, int64(n), opt)
	}
}

// Close flushes pending metrics and shuts the provider down.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
