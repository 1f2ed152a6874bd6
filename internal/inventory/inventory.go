// Package inventory assembles per-type collections into one inventory document.
package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/stocktake/internal/filter"
	"github.com/yairfalse/stocktake/pkg/resource"
)

// UnknownAccount is reported when the caller identity cannot be resolved.
const UnknownAccount = "unknown"

// Collector fetches normalized records. The AWS plugin implements it.
type Collector interface {
	AccountID(ctx context.Context) (string, error)
	Collect(ctx context.Context, t resource.Type) ([]resource.Record, error)
}

// Recorder receives the outcome of every per-type collection.
type Recorder interface {
	RecordCollect(ctx context.Context, result resource.CollectResult)
}

// Aggregator runs one inventory pass over all resource types.
type Aggregator struct {
	collector Collector
	filter    *filter.Filter
	recorder  Recorder
	now       func() time.Time
	tracer    trace.Tracer
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFilter skips excluded types and drops records failing the tag filter.
func WithFilter(f *filter.Filter) Option {
	return func(a *Aggregator) { a.filter = f }
}

// WithRecorder reports per-type results, typically to telemetry.
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

// WithClock overrides the time source used for the document timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithTracer sets the tracer for run and per-type collection spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) { a.tracer = t }
}

// New creates an Aggregator over c.
func New(c Collector, opts ...Option) *Aggregator {
	a := &Aggregator{
		collector: c,
		filter:    filter.New(nil, nil, nil),
		now:       time.Now,
		tracer:    otel.Tracer("stocktake/inventory"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run collects every resource type in order and assembles the document.
// Collection failures are logged and degrade to empty lists; Run never fails.
func (a *Aggregator) Run(ctx context.Context, region string) resource.Document {
	ctx, span := a.tracer.Start(ctx, "inventory.run", trace.WithAttributes(
		attribute.String("region", region),
	))
	defer span.End()

	if !a.filter.IsEmpty() {
		log.Info().Ctx(ctx).Msg("filter active")
	}

	accountID := a.accountID(ctx)

	resources := make(map[resource.Type][]resource.Record, len(resource.Types()))
	for _, t := range resource.Types() {
		if !a.filter.ShouldCollectType(t) {
			log.Debug().Ctx(ctx).Str("type", t.String()).Msg("type excluded by filter")
			resources[t] = []resource.Record{}
			continue
		}
		resources[t] = a.collect(ctx, region, t)
	}

	doc := resource.NewDocument(resource.FormatTime(a.now()), region, accountID, resources)
	logSummary(ctx, doc)
	return doc
}

func (a *Aggregator) accountID(ctx context.Context) string {
	id, err := a.collector.AccountID(ctx)
	if err != nil || id == "" {
		log.Warn().Ctx(ctx).Err(err).Msg("failed to resolve account id")
		return UnknownAccount
	}
	return id
}

func (a *Aggregator) collect(ctx context.Context, region string, t resource.Type) []resource.Record {
	ctx, span := a.tracer.Start(ctx, "inventory.collect", trace.WithAttributes(
		attribute.String("type", t.String()),
	))
	defer span.End()

	start := time.Now()
	records, err := a.collector.Collect(ctx, t)
	result := resource.CollectResult{
		Type:     t,
		Region:   region,
		Duration: time.Since(start),
		Error:    err,
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Ctx(ctx).
			Err(err).
			Str("type", t.String()).
			Str("region", region).
			Msg("collection failed")
		a.record(ctx, result)
		return []resource.Record{}
	}

	records = a.filter.Apply(records)
	if records == nil {
		records = []resource.Record{}
	}
	result.Records = records
	span.SetAttributes(attribute.Int("count", len(records)))
	a.record(ctx, result)

	log.Info().Ctx(ctx).
		Str("type", t.String()).
		Int("count", len(records)).
		Dur("duration", result.Duration).
		Msg("collected")

	return records
}

func (a *Aggregator) record(ctx context.Context, result resource.CollectResult) {
	if a.recorder != nil {
		a.recorder.RecordCollect(ctx, result)
	}
}

func logSummary(ctx context.Context, doc resource.Document) {
	event := log.Info().Ctx(ctx).
		Str("account_id", doc.AccountID).
		Str("region", doc.Region)
	for _, t := range resource.Types() {
		event = event.Int(t.String(), doc.Summary[t])
	}
	event.Int("total", doc.Total()).Msg("inventory summary")
}
