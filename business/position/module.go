// Package position implements the position bounded context: fetching
// fragment histories, stitching them into positions and attributing farm
// rewards.
package position

import (
	"context"

	"github.com/SimpleFi-finance/defi-analytics/business/position/app"
	positionDI "github.com/SimpleFi-finance/defi-analytics/business/position/di"
	"github.com/SimpleFi-finance/defi-analytics/business/position/infra/subgraph"
	pricingDI "github.com/SimpleFi-finance/defi-analytics/business/pricing/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/monolith"
	graph "github.com/SimpleFi-finance/defi-analytics/internal/subgraph"
)

// Module implements the position bounded context.
type Module struct{}

// RegisterServices registers all position services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, positionDI.PositionSource, func(sr di.ServiceRegistry) app.PositionSource {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		pools := sr.Get(monolith.ServicePoolSubgraph).(*graph.Client)
		farms := sr.Get(monolith.ServiceFarmSubgraph).(*graph.Client)
		return subgraph.NewSource(pools, farms, log)
	})

	di.RegisterToken(c, positionDI.Reconstructor, func(sr di.ServiceRegistry) *app.Reconstructor {
		return app.NewReconstructor(sr.Get(monolith.ServiceLogger).(logger.LoggerInterface))
	})

	// Reward token decimals come from the price oracle.
	di.RegisterToken(c, positionDI.Correlator, func(sr di.ServiceRegistry) *app.Correlator {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return app.NewCorrelator(pricingDI.GetOracle(sr), log)
	})

	return nil
}

// Startup initializes the position module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "position module started",
		"pool_subgraph", mono.PoolSubgraph().Name(),
		"farm_subgraph", mono.FarmSubgraph().Name())
	return nil
}
