// Command evalgraphd runs an evaluation engine with the built-in
// function kinds and exposes it over the HTTP inspection API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/evalgraph/component"
	"github.com/kbukum/evalgraph/config"
	"github.com/kbukum/evalgraph/engine"
	"github.com/kbukum/evalgraph/funcs"
	"github.com/kbukum/evalgraph/inspect"
	"github.com/kbukum/evalgraph/logger"
	"github.com/kbukum/evalgraph/observability"
	"github.com/kbukum/evalgraph/version"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return
	}

	if err := run(*configFile); err != nil {
		logger.Fatal("evalgraphd failed", logger.Fields("error", err.Error()))
	}
}

func run(configFile string) error {
	var cfg config.Config
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if err := config.LoadConfig("evalgraphd", &cfg, opts...); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = "evalgraphd"
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(&cfg.Logging)
	log := logger.WithComponent("main")
	log.Info("starting", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment,
	))

	ctx := context.Background()

	// Telemetry export is best-effort: a missing collector must not stop
	// the service.
	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig(cfg.Name))
	if err != nil {
		log.Warn("tracer init failed", logger.Fields("error", err.Error()))
	}
	meterCfg := observability.DefaultMeterConfig(cfg.Name)
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		log.Warn("meter init failed", logger.Fields("error", err.Error()))
	}

	var metrics *observability.Metrics
	if mp != nil {
		metrics, err = observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			log.Warn("metric instruments init failed", logger.Fields("error", err.Error()))
		}
	}

	registry := engine.NewRegistry()
	funcs.RegisterBuiltins(registry)
	for _, kind := range registry.List() {
		fn, _ := registry.Get(kind)
		fn = engine.WithTracing(fn, "eval")
		if metrics != nil {
			fn = engine.WithMetrics(fn, metrics)
		}
		registry.Register(kind, engine.WithLogging(fn, logger.Get(kind)))
		logger.ComponentRegistryInstance.RegisterFunction(kind, "registered")
	}

	evaluator := engine.New(registry, cfg.Evaluator.Options())
	if metrics != nil {
		evaluator.Subscribe(engine.MetricsListener(metrics))
	}
	logger.ComponentRegistryInstance.RegisterEngine(
		cfg.Name, cfg.Evaluator.Parallelism, cfg.Evaluator.KeepGoing, "active")

	components := component.NewRegistry()
	if cfg.Inspect.Enabled {
		server := inspect.NewServer(evaluator, inspect.Options{
			Addr:        cfg.Inspect.Addr,
			Prefix:      cfg.Inspect.Prefix,
			ServiceName: cfg.Name,
			Metrics:     metrics,
		})
		if err := components.Register(server); err != nil {
			return err
		}
	}

	if err := components.StartAll(ctx); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("shutting down", logger.Fields("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := components.StopAll(shutdownCtx); err != nil {
		log.Error("component shutdown failed", logger.Fields("error", err.Error()))
	}
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", logger.Fields("error", err.Error()))
		}
	}
	if mp != nil {
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Warn("meter shutdown failed", logger.Fields("error", err.Error()))
		}
	}

	log.Info("stopped")
	return nil
}
