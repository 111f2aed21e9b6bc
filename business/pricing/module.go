// Package pricing implements the pricing bounded context: historical token
// prices from pool reserve ratios and the valuation of farm rewards.
package pricing

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SimpleFi-finance/defi-analytics/business/pricing/app"
	pricingDI "github.com/SimpleFi-finance/defi-analytics/business/pricing/di"
	"github.com/SimpleFi-finance/defi-analytics/business/pricing/infra/ethereum"
	"github.com/SimpleFi-finance/defi-analytics/business/pricing/infra/subgraph"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/config"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/monolith"
	graph "github.com/SimpleFi-finance/defi-analytics/internal/subgraph"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Reserve source - subgraph by default, archive node when configured
	di.RegisterToken(c, pricingDI.ReserveSource, func(sr di.ServiceRegistry) app.ReserveSource {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		if cfg.Pricing.Source == config.PriceSourceEthereum {
			client := sr.Get(monolith.ServiceEthClient).(*ethclient.Client)
			src, err := ethereum.NewSource(client, ethereum.Config{
				Factory:     cfg.Ethereum.FactoryAddressHex(),
				Concurrency: cfg.Pricing.Concurrency,
				Registerer:  prometheus.DefaultRegisterer,
			}, log)
			if err != nil {
				panic("failed to create ethereum reserve source: " + err.Error())
			}
			return src
		}

		return subgraph.NewSource(sr.Get(monolith.ServicePoolSubgraph).(*graph.Client), log)
	})

	di.RegisterToken(c, pricingDI.Oracle, func(sr di.ServiceRegistry) *app.Oracle {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		registry := sr.Get(monolith.ServiceAssetRegistry).(*asset.Registry)

		oracle, err := app.NewOracle(app.OracleConfig{
			WETH:                cfg.Pricing.WETHAddress(),
			AnchorPool:          cfg.Pricing.AnchorPoolAddress(),
			AnchorQuoteDecimals: cfg.Pricing.AnchorQuoteDecimals,
			ChunkSize:           cfg.Pricing.ChunkSize,
			Concurrency:         cfg.Pricing.Concurrency,
		}, pricingDI.GetReserveSource(sr), registry, log)
		if err != nil {
			panic("failed to create price oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, pricingDI.RewardValuer, func(sr di.ServiceRegistry) *app.RewardValuer {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return app.NewRewardValuer(pricingDI.GetOracle(sr), log)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	if cfg.Pricing.Source == config.PriceSourceEthereum && mono.EthClient() == nil {
		return apperror.Validation(apperror.CodeConfigurationError,
			"pricing.source=ethereum requires ethereum.http_url")
	}

	mono.Logger().Info(ctx, "pricing module started",
		"source", cfg.Pricing.Source,
		"anchor_pool", cfg.Pricing.AnchorPool,
		"chunk_size", cfg.Pricing.ChunkSize)
	return nil
}
