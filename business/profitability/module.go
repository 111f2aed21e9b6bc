// Package profitability implements the profitability bounded context:
// valuing reconstructed positions against holding, per market and across
// a collection of markets.
package profitability

import (
	"context"

	positionDI "github.com/SimpleFi-finance/defi-analytics/business/position/di"
	pricingDI "github.com/SimpleFi-finance/defi-analytics/business/pricing/di"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	profitabilityDI "github.com/SimpleFi-finance/defi-analytics/business/profitability/di"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/infra/csvsink"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/infra/postgres"
	"github.com/SimpleFi-finance/defi-analytics/internal/config"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/monolith"
)

// Module implements the profitability bounded context.
type Module struct{}

// RegisterServices registers all profitability services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, profitabilityDI.Calculator, func(sr di.ServiceRegistry) *app.ProfitCalculator {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return app.NewProfitCalculator(pricingDI.GetOracle(sr), log)
	})

	di.RegisterToken(c, profitabilityDI.Analyzer, func(sr di.ServiceRegistry) *app.Analyzer {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		analyzer, err := app.NewAnalyzer(
			positionDI.GetPositionSource(sr),
			positionDI.GetReconstructor(sr),
			positionDI.GetCorrelator(sr),
			pricingDI.GetRewardValuer(sr),
			profitabilityDI.GetCalculator(sr),
			app.AnalyzerConfig{
				Intermediaries:  cfg.Collection.IntermediaryAddresses(),
				StrictSingleLeg: cfg.Collection.StrictSingleLeg,
			},
			log,
		)
		if err != nil {
			panic("failed to create analyzer: " + err.Error())
		}
		return analyzer
	})

	// Record sink - CSV files by default, Postgres when configured
	di.RegisterToken(c, profitabilityDI.RecordSink, func(sr di.ServiceRegistry) app.RecordSink {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if cfg.Collection.Sink == config.SinkPostgres {
			store, err := postgres.Open(cfg.Database, log)
			if err != nil {
				panic("failed to open postgres sink: " + err.Error())
			}
			return store
		}
		return csvsink.New(cfg.Collection.OutputDir, log)
	})

	di.RegisterToken(c, profitabilityDI.Collector, func(sr di.ServiceRegistry) *app.Collector {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return app.NewCollector(profitabilityDI.GetAnalyzer(sr), profitabilityDI.GetRecordSink(sr), nil, log)
	})

	return nil
}

// Startup initializes the profitability module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "profitability module started",
		"sink", cfg.Collection.Sink,
		"strict_single_leg", cfg.Collection.StrictSingleLeg,
		"intermediaries", len(cfg.Collection.Intermediaries))
	return nil
}
