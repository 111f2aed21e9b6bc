// Package main is the entry point for the LP position profitability analyzer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SimpleFi-finance/defi-analytics/business/position"
	"github.com/SimpleFi-finance/defi-analytics/business/pricing"
	pricingDI "github.com/SimpleFi-finance/defi-analytics/business/pricing/di"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability"
	profitabilityDI "github.com/SimpleFi-finance/defi-analytics/business/profitability/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/apm"
	"github.com/SimpleFi-finance/defi-analytics/internal/config"
	"github.com/SimpleFi-finance/defi-analytics/internal/health"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/metrics"
	"github.com/SimpleFi-finance/defi-analytics/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	dataset := flag.String("dataset", "adhoc", "Dataset for pools and addresses given by name")
	strict := flag.Bool("strict", false, "Keep only positions with one INVEST and one REDEEM")
	listPools := flag.Bool("list", false, "List configured pools and groups")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: lpanalyzer [flags] [POOL|GROUP|ADDRESS ...]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("lpanalyzer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	opts := runOptions{
		configPath: *configPath,
		dataset:    *dataset,
		strict:     *strict,
		listPools:  *listPools,
		args:       flag.Args(),
	}
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath string
	dataset    string
	strict     bool
	listPools  bool
	args       []string
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.strict {
		cfg.Collection.StrictSingleLeg = true
	}

	if opts.listPools {
		return listCatalogue(os.Stdout, &cfg.Collection)
	}

	var log *logger.Logger
	if cfg.App.LogFormat == "json" {
		log = logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, logger.OtelTraceID)
	} else {
		log = logger.NewConsole(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name)
	}
	log.Info(ctx, "starting lp analyzer",
		"version", version,
		"environment", cfg.App.Environment)

	targets, err := resolveTargets(&cfg.Collection, opts.args, opts.dataset)
	if err != nil {
		return err
	}

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(cfg.Health.Port, version, log)
		healthServer.RegisterCheck("pool_subgraph", mono.PoolSubgraph().Healthy)
		healthServer.RegisterCheck("farm_subgraph", mono.FarmSubgraph().Healthy)
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			healthServer.Stop(shutdownCtx)
		}()
	}

	// Define modules in dependency order
	modules := []monolith.Module{
		&pricing.Module{},       // Price oracle and reward valuation
		&position.Module{},      // Depends on pricing for reward decimals
		&profitability.Module{}, // Depends on position and pricing
	}

	if err := mono.Start(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	svcs := mono.Services()
	defer pricingDI.GetOracle(svcs).Close()
	if closer, ok := profitabilityDI.GetRecordSink(svcs).(io.Closer); ok {
		defer closer.Close()
	}

	collector := profitabilityDI.GetCollector(svcs)
	if healthServer != nil {
		collector.ReportTo(healthServer)
	}

	log.Info(ctx, "collecting", "targets", len(targets))
	start := time.Now()
	sum, err := collector.Collect(ctx, targets)
	log.Info(ctx, "collection finished",
		"collected", sum.Collected,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"records", sum.Records,
		"took", time.Since(start))
	return err
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	traceProvider, err := apm.NewTraceProvider(log, apm.Provider(cfg.Telemetry.TraceExporter), apm.Settings{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})
	if err != nil {
		log.Warn(ctx, "tracing disabled", "error", err)
	}

	meterProvider, err := metrics.Setup(ctx, metrics.Settings{
		ServiceName:    cfg.Telemetry.ServiceName,
		Exporter:       metrics.Exporter(cfg.Telemetry.MetricsExporter),
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Headers:        cfg.Telemetry.OTLPHeaders,
		Insecure:       true,
		PrometheusPort: cfg.Telemetry.PrometheusPort,
	}, log)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if meterProvider != nil {
			meterProvider.Shutdown(shutdownCtx)
		}
		traceProvider.Stop()
	}
}

func listCatalogue(w io.Writer, c *config.CollectionConfig) error {
	fmt.Fprintln(w, "pools:")
	for _, name := range c.PoolNames() {
		addr, _ := c.Pool(name)
		fmt.Fprintf(w, "  %-12s %s\n", name, strings.ToLower(addr.Hex()))
	}
	fmt.Fprintln(w, "groups:")
	for _, g := range sortedKeys(c.Groups) {
		fmt.Fprintf(w, "  %-12s %s\n", g, strings.Join(c.Groups[g], ", "))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
