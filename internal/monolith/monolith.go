// Package monolith wires shared infrastructure and hosts the bounded-context
// modules of the analyzer.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/config"
	"github.com/SimpleFi-finance/defi-analytics/internal/di"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
	"github.com/SimpleFi-finance/defi-analytics/internal/subgraph"
)

// Names of the shared services every module can resolve.
const (
	ServiceConfig        = "config"
	ServiceLogger        = "logger"
	ServiceEthClient     = "ethClient"
	ServiceAssetRegistry = "assetRegistry"
	ServicePoolSubgraph  = "poolSubgraph"
	ServiceFarmSubgraph  = "farmSubgraph"
)

// Monolith is what modules see of the host during Startup.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	// EthClient is nil unless ethereum.http_url is configured.
	EthClient() *ethclient.Client
	PoolSubgraph() *subgraph.Client
	FarmSubgraph() *subgraph.Client
	Services() di.ServiceRegistry
}

// Module is a bounded context. All modules register before any starts.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App owns the shared clients and the service container.
type App struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	eth       *ethclient.Client
	pools     *subgraph.Client
	farms     *subgraph.Client
	container di.Container
}

var _ Monolith = (*App)(nil)

// New dials the configured data sources and seeds the container with them.
func New(cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	a := &App{cfg: cfg, log: log, container: di.NewContainer()}

	var err error
	if a.pools, err = newSubgraph("pool-subgraph", cfg.Subgraph.PoolURL, &cfg.Subgraph, log); err != nil {
		return nil, err
	}
	if a.farms, err = newSubgraph("farm-subgraph", cfg.Subgraph.FarmURL, &cfg.Subgraph, log); err != nil {
		return nil, err
	}
	if url := cfg.Ethereum.HTTPURL; url != "" {
		if a.eth, err = ethclient.Dial(url); err != nil {
			return nil, apperror.External(apperror.CodeEthereumConnectionFailed, url, err)
		}
		a.container.Register(ServiceEthClient, a.eth)
	}

	a.container.Register(ServiceConfig, cfg)
	a.container.Register(ServiceLogger, log)
	a.container.Register(ServiceAssetRegistry, asset.DefaultRegistry())
	a.container.Register(ServicePoolSubgraph, a.pools)
	a.container.Register(ServiceFarmSubgraph, a.farms)
	return a, nil
}

func newSubgraph(name, url string, c *config.SubgraphConfig, log logger.LoggerInterface) (*subgraph.Client, error) {
	return subgraph.New(subgraph.Options{
		Name:              name,
		URL:               url,
		PageSize:          c.PageSize,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.RequestsPerMinute,
	}, log)
}

func (a *App) Config() *config.Config { return a.cfg }
func (a *App) Logger() logger.LoggerInterface { return a.log }
func (a *App) EthClient() *ethclient.Client { return a.eth }
func (a *App) PoolSubgraph() *subgraph.Client { return a.pools }
func (a *App) FarmSubgraph() *subgraph.Client { return a.farms }
func (a *App) Services() di.ServiceRegistry { return a.container }

// Start registers every module's services, then starts them in order.
func (a *App) Start(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
	}
	return nil
}

// Close releases the ethereum connection.
func (a *App) Close() {
	if a.eth != nil {
		a.eth.Close()
	}
}
