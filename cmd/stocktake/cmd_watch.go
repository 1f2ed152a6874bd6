package main

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yairfalse/stocktake/internal/daemon"
	"github.com/yairfalse/stocktake/internal/emitter"
	"github.com/yairfalse/stocktake/internal/telemetry"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the inventory on a schedule and serve metrics",
	Long: `Run the inventory immediately and then on every interval, writing
the same outputs as 'stocktake inventory' each time.

Resource counts, untagged resources and collection timings are served
in Prometheus format on /metrics, next to /healthz and /readyz.
Stops on SIGINT or SIGTERM.`,
	Example: `  stocktake watch                                 # Every hour, metrics on :9464
  stocktake watch --interval 15m --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("interval", "", "Time between runs (default 1h)")
	watchCmd.Flags().String("metrics-addr", "", "Metrics server address (default :9464)")
	configFlag(watchCmd.Flags(), "interval", "watch.interval")
	configFlag(watchCmd.Flags(), "metrics-addr", "watch.metrics_addr")
	addOutputFlags(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	reg := promclient.NewRegistry()
	a, err := newApp(ctx, cfg, telemetry.WithPrometheus(reg))
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	out, err := outputs(ctx, cfg)
	if err != nil {
		return err
	}

	gauges, err := emitter.NewPrometheusEmitter(a.telemetry.Meter())
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("create prometheus emitter: %w", err)
	}
	emit := emitter.NewMultiEmitter(out, gauges)
	defer func() {
		if err := emit.Close(); err != nil {
			log.Warn().Err(err).Msg("close outputs failed")
		}
	}()

	d, err := daemon.NewDaemon(daemon.Config{
		Interval: cfg.Watch.Interval,
		Addr:     cfg.Watch.MetricsAddr,
		Region:   cfg.AWS.Region,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, func(ctx context.Context) error {
		_, err := a.collect(ctx, emit)
		return err
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("region", cfg.AWS.Region).
		Dur("interval", cfg.Watch.Interval).
		Str("addr", d.Addr()).
		Msg("stocktake watching")

	return d.Run(ctx)
}
