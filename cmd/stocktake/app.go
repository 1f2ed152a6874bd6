package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"

	"github.com/yairfalse/stocktake/internal/archive"
	"github.com/yairfalse/stocktake/internal/config"
	"github.com/yairfalse/stocktake/internal/emitter"
	"github.com/yairfalse/stocktake/internal/export"
	"github.com/yairfalse/stocktake/internal/filter"
	"github.com/yairfalse/stocktake/internal/inventory"
	"github.com/yairfalse/stocktake/internal/plugin"
	"github.com/yairfalse/stocktake/internal/plugin/aws"
	"github.com/yairfalse/stocktake/internal/policy"
	"github.com/yairfalse/stocktake/internal/telemetry"
	"github.com/yairfalse/stocktake/pkg/resource"
)

// openCollector builds the collector for the configured account. Replaced in tests.
var openCollector = func(ctx context.Context, cfg *config.Config) (inventory.Collector, error) {
	return plugin.Open(ctx, aws.Name, plugin.Config{
		Region:  cfg.AWS.Region,
		Profile: cfg.AWS.Profile,
	})
}

// app bundles what one inventory invocation needs.
type app struct {
	cfg        *config.Config
	telemetry  *telemetry.Provider
	aggregator *inventory.Aggregator
}

func newApp(ctx context.Context, cfg *config.Config, opts ...telemetry.Option) (*app, error) {
	tp, err := telemetry.NewProvider(ctx, cfg.OTEL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telemetry provider: %w", err)
	}

	collector, err := openCollector(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("open aws plugin: %w", err)
	}

	f := filter.New(cfg.Filter.ExcludeTypes, cfg.Filter.IncludeTags, cfg.Filter.ExcludeTags)

	return &app{
		cfg:        cfg,
		telemetry:  tp,
		aggregator: inventory.New(collector,
			inventory.WithFilter(f),
			inventory.WithRecorder(tp),
			inventory.WithTracer(tp.Tracer()),
		),
	}, nil
}

// collect runs one inventory pass and hands the document to out.
func (a *app) collect(ctx context.Context, out emitter.Emitter) (resource.Document, error) {
	doc := a.aggregator.Run(ctx, a.cfg.AWS.Region)

	ctx, span := a.telemetry.StartSpan(ctx, "inventory.emit")
	defer span.End()

	if err := out.Emit(ctx, doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return doc, fmt.Errorf("write inventory: %w", err)
	}
	return doc, nil
}

func (a *app) shutdown(ctx context.Context) {
	if err := a.telemetry.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("telemetry shutdown failed")
	}
}

// outputs builds the emitters configured for a finished document: the
// file writer, then the optional policy audit and run archive.
func outputs(ctx context.Context, cfg *config.Config) (*emitter.MultiEmitter, error) {
	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	emitters := []emitter.Emitter{
		&export.Writer{Dir: cfg.Output.Dir, Format: format, CSV: cfg.Output.CSV},
	}

	if cfg.Policy.Enabled {
		var engine *policy.Engine
		if cfg.Policy.Path != "" {
			engine, err = policy.Load(ctx, cfg.Policy.Path)
		} else {
			engine, err = policy.New(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
		emitters = append(emitters, engine)
	}

	if cfg.Archive.Path != "" {
		a, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		emitters = append(emitters, a)
	}

	return emitter.NewMultiEmitter(emitters...), nil
}
