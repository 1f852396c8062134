// Command healthserver serves /healthcheck and /liveness for every process
// publishing snapshots into HEALTH_MULTIPROC_DIR.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/prochealth/config"
	"github.com/jonwraymond/prochealth/health"
	"github.com/jonwraymond/prochealth/observe"
	"github.com/jonwraymond/prochealth/probes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "healthserver:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	log := obs.Logger()

	collector := health.NewCollector(
		health.WithDir(cfg.MultiprocDir),
		health.WithObserver(obs),
	)
	router := chi.NewRouter()
	health.NewResponder(collector).Mount(router)
	if cfg.Metrics.Exporter == "prometheus" {
		router.Handle("/metrics", promhttp.Handler())
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.SelfCheck {
		checker, err := selfChecker(cfg, obs)
		if err != nil {
			return err
		}
		checker.CheckIn()
		checker.MarkLive()
		checker.Start()
		g.Go(func() error {
			<-ctx.Done()
			checker.Stop()
			<-checker.Done()
			return nil
		})
		g.Go(func() error {
			ticker := time.NewTicker(cfg.RunPeriod)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					checker.CheckIn()
				}
			}
		})
	}

	g.Go(func() error {
		log.Info(ctx, "serving health endpoints",
			observe.Field{Key: "address", Value: cfg.HTTP.Address},
			observe.Field{Key: "dir", Value: cfg.MultiprocDir},
		)
		return health.Serve(ctx, cfg.HTTP.Address, router)
	})

	err = g.Wait()

	shutdownCtx, done := context.WithTimeout(context.Background(), health.ShutdownTimeout)
	defer done()
	if serr := obs.Shutdown(shutdownCtx); serr != nil {
		log.Error(shutdownCtx, "observer shutdown failed", observe.ErrorField(serr))
	}

	if err != nil {
		log.Error(context.Background(), "health server stopped", observe.ErrorField(err))
		return err
	}
	log.Info(context.Background(), "health server stopped")
	return nil
}

// selfChecker publishes the server's own health next to the workers'.
func selfChecker(cfg *config.Config, obs observe.Observer) (*health.Checker, error) {
	checker, err := health.NewChecker("healthserver",
		health.WithDir(cfg.MultiprocDir),
		health.WithInterval(cfg.RunPeriod),
		health.WithProbeTimeout(cfg.ProbeTimeout),
		health.WithCheckInTimeout(3*cfg.RunPeriod),
		health.WithObserver(obs),
	)
	if err != nil {
		return nil, err
	}
	if cfg.MultiprocDir != "" {
		checker.Register(probes.DiskUsage("snapshot-disk", cfg.MultiprocDir, 95))
	}
	checker.Register(health.NewMemoryProbe(health.MemoryProbeConfig{}))
	checker.Register(probes.Goroutines("goroutines", 10_000))
	return checker, nil
}

