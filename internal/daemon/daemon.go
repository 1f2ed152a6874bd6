// Package daemon runs the inventory on a schedule and serves metrics and health endpoints.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/rs/zerolog/log"
)

// RunFunc performs one inventory pass.
type RunFunc func(ctx context.Context) error

// Config holds daemon configuration
type Config struct {
	Interval time.Duration
	Addr     string       // Listen address for /metrics, /healthz, /readyz and /status
	Region   string       // Reported in metrics
	Metrics  http.Handler // Served on /metrics; nil disables the route
}

// Daemon manages periodic inventory runs
type Daemon struct {
	interval  time.Duration
	region    string
	run       RunFunc
	listener  net.Listener
	server    *http.Server
	metrics   *DaemonMetrics
	startTime time.Time
	runCount  atomic.Int64
	ready     atomic.Bool
}

// NewDaemon creates a daemon and binds its HTTP listener.
func NewDaemon(config Config, fn RunFunc) (*Daemon, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive (got %v)", config.Interval)
	}

	metrics, err := NewDaemonMetrics()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", config.Addr, err)
	}

	d := &Daemon{
		interval:  config.Interval,
		region:    config.Region,
		run:       fn,
		listener:  ln,
		metrics:   metrics,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	if config.Metrics != nil {
		mux.Handle("/metrics", config.Metrics)
	}
	mux.HandleFunc("/healthz", d.handleHealthz)
	mux.HandleFunc("/readyz", d.handleReadyz)
	mux.HandleFunc("/status", d.handleStatus)
	d.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	return d, nil
}

// Addr returns the bound listen address.
func (d *Daemon) Addr() string {
	return d.listener.Addr().String()
}

// Start runs the inventory immediately and then on every tick until ctx is done.
func (d *Daemon) Start(ctx context.Context) error {
	d.runOnce(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context) {
	d.runCount.Add(1)

	start := time.Now()
	err := d.run(ctx)
	status := "success"
	if err != nil {
		status = "failure"
		log.Error().Ctx(ctx).Err(err).Msg("inventory run failed")
	} else {
		d.ready.Store(true)
	}

	d.metrics.RecordRun(ctx, status, d.region)
	d.metrics.RecordRunDuration(ctx, time.Since(start).Seconds(), status)
}

// Serve serves HTTP until Close is called.
func (d *Daemon) Serve() error {
	log.Info().Str("addr", d.Addr()).Msg("serving metrics")
	if err := d.server.Serve(d.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Run serves HTTP and runs the schedule until ctx is done, SIGINT or SIGTERM
// arrives, or either actor fails.
func (d *Daemon) Run(ctx context.Context) error {
	var g run.Group

	g.Add(d.Serve, func(error) {
		_ = d.Close()
	})

	loopCtx, cancel := context.WithCancel(ctx)
	g.Add(func() error {
		if err := d.Start(loopCtx); err != nil {
			return err
		}
		return loopCtx.Err()
	}, func(error) {
		cancel()
	})

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err := g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		log.Info().Str("reason", err.Error()).Msg("shutting down")
		return nil
	}
	return err
}

// Close stops the HTTP server and releases the listener.
func (d *Daemon) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := d.server.Shutdown(ctx)
	_ = d.listener.Close()
	return err
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (d *Daemon) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !d.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no inventory yet"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d.Health()); err != nil {
		log.Warn().Err(err).Msg("failed to write status")
	}
}

// Health returns daemon health status
func (d *Daemon) Health() HealthStatus {
	return HealthStatus{
		Status: "healthy",
		Uptime: int64(time.Since(d.startTime).Seconds()),
		Runs:   d.RunCount(),
		Ready:  d.ready.Load(),
	}
}

// HealthStatus represents daemon health
type HealthStatus struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime_seconds"`
	Runs   int64  `json:"runs"`
	Ready  bool   `json:"ready"`
}

// RunCount returns total inventory runs started
func (d *Daemon) RunCount() int64 {
	return d.runCount.Load()
}
