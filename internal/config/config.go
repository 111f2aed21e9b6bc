// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Subgraph   SubgraphConfig   `mapstructure:"subgraph"`
	Ethereum   EthereumConfig   `mapstructure:"ethereum"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Collection CollectionConfig `mapstructure:"collection"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Health     HealthConfig     `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // json or console
}

// SubgraphConfig holds the indexed dataset endpoints.
type SubgraphConfig struct {
	PoolURL           string        `mapstructure:"pool_url"`
	FarmURL           string        `mapstructure:"farm_url"`
	PageSize          int           `mapstructure:"page_size"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// EthereumConfig holds the archive node used by the on-chain reserve source.
type EthereumConfig struct {
	HTTPURL        string `mapstructure:"http_url"`
	ChainID        uint64 `mapstructure:"chain_id"`
	FactoryAddress string `mapstructure:"factory_address"`
}

// FactoryAddressHex returns the pair factory as common.Address.
func (c *EthereumConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

const (
	PriceSourceSubgraph = "subgraph"
	PriceSourceEthereum = "ethereum"
)

// PricingConfig drives the reserve-ratio price oracle.
type PricingConfig struct {
	Source              string `mapstructure:"source"`
	WETH                string `mapstructure:"weth"`
	AnchorPool          string `mapstructure:"anchor_pool"`
	AnchorQuoteDecimals int32  `mapstructure:"anchor_quote_decimals"`
	ChunkSize           int    `mapstructure:"chunk_size"`
	Concurrency         int    `mapstructure:"concurrency"`
}

func (c *PricingConfig) WETHAddress() common.Address {
	return common.HexToAddress(c.WETH)
}

func (c *PricingConfig) AnchorPoolAddress() common.Address {
	return common.HexToAddress(c.AnchorPool)
}

const (
	SinkCSV      = "csv"
	SinkPostgres = "postgres"
)

// CollectionConfig selects what is analyzed and where results go.
type CollectionConfig struct {
	OutputDir       string              `mapstructure:"output_dir"`
	Sink            string              `mapstructure:"sink"`
	StrictSingleLeg bool                `mapstructure:"strict_single_leg"`
	Intermediaries  []string            `mapstructure:"intermediaries"`
	Pools           map[string]string   `mapstructure:"pools"`
	Groups          map[string][]string `mapstructure:"groups"`
}

// IntermediaryAddresses returns the configured farm/staking contracts.
func (c *CollectionConfig) IntermediaryAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Intermediaries))
	for _, s := range c.Intermediaries {
		out = append(out, common.HexToAddress(s))
	}
	return out
}

// Pool looks up a named pool, case-insensitively.
func (c *CollectionConfig) Pool(name string) (common.Address, bool) {
	addr, ok := c.Pools[strings.ToLower(name)]
	if !ok {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// Group returns the pool names of a named group, case-insensitively.
func (c *CollectionConfig) Group(name string) ([]string, bool) {
	names, ok := c.Groups[strings.ToLower(name)]
	return names, ok
}

// PoolNames returns every configured pool name in upper case, sorted.
func (c *CollectionConfig) PoolNames() []string {
	names := make([]string, 0, len(c.Pools))
	for n := range c.Pools {
		names = append(names, strings.ToUpper(n))
	}
	sort.Strings(names)
	return names
}

// DatabaseConfig holds the relational sink connection.
type DatabaseConfig struct {
	DSN          string        `mapstructure:"dsn"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnMaxLife  time.Duration `mapstructure:"conn_max_life"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ServiceName     string `mapstructure:"service_name"`
	TraceExporter   string `mapstructure:"trace_exporter"` // zipkin, console, otlp-grpc, otlp-http
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string `mapstructure:"otlp_headers"` // key=value
	MetricsExporter string `mapstructure:"metrics_exporter"`
	PrometheusPort  int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the optional probe server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "LPA_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LPA_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LPA_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("subgraph.pool_url", "LPA_SUBGRAPH_POOL_URL")
	v.BindEnv("subgraph.farm_url", "LPA_SUBGRAPH_FARM_URL")

	v.BindEnv("ethereum.http_url", "LPA_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "LPA_ETH_CHAIN_ID", "ETH_CHAIN_ID")

	v.BindEnv("pricing.source", "LPA_PRICE_SOURCE")

	v.BindEnv("collection.output_dir", "LPA_OUTPUT_DIR")
	v.BindEnv("collection.sink", "LPA_SINK")

	v.BindEnv("database.dsn", "LPA_DATABASE_DSN", "DATABASE_URL")

	v.BindEnv("telemetry.enabled", "LPA_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LPA_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LPA_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "LPA_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lp-analyzer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("subgraph.pool_url", "https://api.thegraph.com/subgraphs/name/simplefi-finance/sushiswap")
	v.SetDefault("subgraph.farm_url", "https://api.thegraph.com/subgraphs/name/simplefi-finance/sushiswap-farms")
	v.SetDefault("subgraph.page_size", 1000)
	v.SetDefault("subgraph.timeout", "120s")
	v.SetDefault("subgraph.requests_per_minute", 600)

	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.factory_address", "0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac")

	v.SetDefault("pricing.source", PriceSourceSubgraph)
	v.SetDefault("pricing.weth", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	v.SetDefault("pricing.anchor_pool", "0x397ff1542f962076d0bfe58ea045ffa2d347aca0")
	v.SetDefault("pricing.anchor_quote_decimals", 6)
	v.SetDefault("pricing.chunk_size", 100)
	v.SetDefault("pricing.concurrency", 4)

	v.SetDefault("collection.output_dir", "stats")
	v.SetDefault("collection.sink", SinkCSV)
	v.SetDefault("collection.strict_single_leg", false)
	v.SetDefault("collection.intermediaries", []string{
		"0xc2edad668740f1aa35e4d8f227fb8e17dca888cd", // MasterChef
		"0xef0881ec094552b2e128cf945ef17a6752b4ec5d", // MasterChefV2
	})
	v.SetDefault("collection.pools", defaultPools)
	v.SetDefault("collection.groups", defaultGroups)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_life", "30m")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "lp-analyzer")
	v.SetDefault("telemetry.trace_exporter", "console")
	v.SetDefault("telemetry.metrics_exporter", "prometheus")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)
}

// normalize lowercases catalogue keys; viper already does so for keys read
// from files but not for values set programmatically.
func (c *Config) normalize() {
	pools := make(map[string]string, len(c.Collection.Pools))
	for k, v := range c.Collection.Pools {
		pools[strings.ToLower(k)] = strings.ToLower(v)
	}
	c.Collection.Pools = pools

	groups := make(map[string][]string, len(c.Collection.Groups))
	for k, v := range c.Collection.Groups {
		groups[strings.ToLower(k)] = v
	}
	c.Collection.Groups = groups

	c.Pricing.Source = strings.ToLower(c.Pricing.Source)
	c.Collection.Sink = strings.ToLower(c.Collection.Sink)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Subgraph.PoolURL == "" {
		return fmt.Errorf("subgraph.pool_url is required")
	}
	if c.Subgraph.FarmURL == "" {
		return fmt.Errorf("subgraph.farm_url is required")
	}
	if c.Subgraph.PageSize <= 0 {
		return fmt.Errorf("subgraph.page_size must be positive")
	}

	switch c.Pricing.Source {
	case PriceSourceSubgraph:
	case PriceSourceEthereum:
		if c.Ethereum.HTTPURL == "" {
			return fmt.Errorf("ethereum.http_url is required when pricing.source is %q", PriceSourceEthereum)
		}
		if !common.IsHexAddress(c.Ethereum.FactoryAddress) {
			return fmt.Errorf("invalid ethereum.factory_address: %s", c.Ethereum.FactoryAddress)
		}
	default:
		return fmt.Errorf("unknown pricing.source: %s", c.Pricing.Source)
	}
	if !common.IsHexAddress(c.Pricing.WETH) {
		return fmt.Errorf("invalid pricing.weth: %s", c.Pricing.WETH)
	}
	if !common.IsHexAddress(c.Pricing.AnchorPool) {
		return fmt.Errorf("invalid pricing.anchor_pool: %s", c.Pricing.AnchorPool)
	}
	if c.Pricing.ChunkSize <= 0 {
		return fmt.Errorf("pricing.chunk_size must be positive")
	}
	if c.Pricing.Concurrency <= 0 {
		return fmt.Errorf("pricing.concurrency must be positive")
	}

	for _, addr := range c.Collection.Intermediaries {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid collection.intermediaries entry: %s", addr)
		}
	}
	for name, addr := range c.Collection.Pools {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid address for pool %s: %s", name, addr)
		}
	}
	for group, names := range c.Collection.Groups {
		for _, n := range names {
			if _, ok := c.Collection.Pool(n); !ok {
				return fmt.Errorf("group %s references unknown pool %s", group, n)
			}
		}
	}

	switch c.Collection.Sink {
	case SinkCSV:
		if c.Collection.OutputDir == "" {
			return fmt.Errorf("collection.output_dir is required for the csv sink")
		}
	case SinkPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres sink")
		}
	default:
		return fmt.Errorf("unknown collection.sink: %s", c.Collection.Sink)
	}

	return nil
}
