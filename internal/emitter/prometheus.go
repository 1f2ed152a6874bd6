package emitter

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// PrometheusEmitter exposes the latest inventory as OTEL gauges, scraped
// through the Prometheus exporter.
type PrometheusEmitter struct {
	meter metric.Meter

	// Metrics
	resourceCount    metric.Int64ObservableGauge
	environmentCount metric.Int64ObservableGauge
	untaggedCount    metric.Int64ObservableGauge
	runsTotal        metric.Int64Counter

	// State for observable gauges
	mu     sync.RWMutex
	latest *resource.Document
}

// NewPrometheusEmitter creates a Prometheus emitter on meter.
func NewPrometheusEmitter(meter metric.Meter) (*PrometheusEmitter, error) {
	e := &PrometheusEmitter{meter: meter}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return e, nil
}

func (e *PrometheusEmitter) initMetrics() error {
	var err error

	e.resourceCount, err = e.meter.Int64ObservableGauge(
		"stocktake_resources",
		metric.WithDescription("Resources in the latest inventory by type"),
	)
	if err != nil {
		return fmt.Errorf("create resources gauge: %w", err)
	}

	e.environmentCount, err = e.meter.Int64ObservableGauge(
		"stocktake_resources_by_environment",
		metric.WithDescription("Resources in the latest inventory by type and Environment tag"),
	)
	if err != nil {
		return fmt.Errorf("create resources_by_environment gauge: %w", err)
	}

	e.untaggedCount, err = e.meter.Int64ObservableGauge(
		"stocktake_untagged_resources",
		metric.WithDescription("Resources missing a cost attribution tag"),
	)
	if err != nil {
		return fmt.Errorf("create untagged_resources gauge: %w", err)
	}

	e.runsTotal, err = e.meter.Int64Counter(
		"stocktake_inventory_runs_total",
		metric.WithDescription("Total inventory runs"),
	)
	if err != nil {
		return fmt.Errorf("create inventory_runs counter: %w", err)
	}

	_, err = e.meter.RegisterCallback(e.observe, e.resourceCount, e.environmentCount, e.untaggedCount)
	if err != nil {
		return fmt.Errorf("register callback: %w", err)
	}

	return nil
}

// Emit stores the document for the next scrape.
func (e *PrometheusEmitter) Emit(ctx context.Context, doc resource.Document) error {
	e.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("region", doc.Region),
		attribute.String("account_id", doc.AccountID),
	))

	e.mu.Lock()
	e.latest = &doc
	e.mu.Unlock()

	log.Debug().Ctx(ctx).
		Str("region", doc.Region).
		Int("resources", doc.Total()).
		Msg("inventory gauges updated")

	return nil
}

// observe is the callback for the inventory gauges.
func (e *PrometheusEmitter) observe(_ context.Context, o metric.Observer) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.latest == nil {
		return nil
	}
	doc := e.latest

	for _, t := range resource.Types() {
		records, ok := doc.Records(t)
		if !ok {
			continue
		}
		base := []attribute.KeyValue{
			attribute.String("type", t.String()),
			attribute.String("region", doc.Region),
			attribute.String("account_id", doc.AccountID),
		}
		o.ObserveInt64(e.resourceCount, int64(len(records)), metric.WithAttributes(base...))

		byEnv := make(map[string]int64)
		untagged := map[string]int64{"Environment": 0, "Owner": 0}
		for _, r := range records {
			tags := r.TagSet()
			env := tags.Get("Environment", resource.NotAvailable)
			byEnv[env]++
			for tag := range untagged {
				if _, ok := tags[tag]; !ok {
					untagged[tag]++
				}
			}
		}

		for env, n := range byEnv {
			o.ObserveInt64(e.environmentCount, n, metric.WithAttributes(
				append(base, attribute.String("environment", env))...,
			))
		}
		for tag, n := range untagged {
			o.ObserveInt64(e.untaggedCount, n, metric.WithAttributes(
				append(base, attribute.String("tag", tag))...,
			))
		}
	}

	return nil
}

// Close is a no-op for Prometheus emitter.
func (e *PrometheusEmitter) Close() error {
	return nil
}
