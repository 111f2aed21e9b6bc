package app

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apm"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/cache"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

const (
	tracerName = "price-oracle"
	meterName  = "price-oracle"
)

var _ SeriesPricer = (*Oracle)(nil)

// OracleConfig holds the anchor pool and batching parameters.
type OracleConfig struct {
	WETH                common.Address
	AnchorPool          common.Address
	AnchorQuoteDecimals int32
	ChunkSize           int
	Concurrency         int
}

type lookup[T any] struct {
	value T
	ok    bool
}

type snapshotKey struct {
	pool  common.Address
	block uint64
}

type oracleMetrics struct {
	sourceCalls   metric.Int64Counter
	sourceLatency metric.Float64Histogram
	cacheHits     metric.Int64Counter
	unpriced      metric.Int64Counter
}

// Oracle prices tokens in USD at historical blocks from pool reserve
// ratios. ETH/USD comes from the anchor pool and every other token from
// its own ETH pair. Lookups are cached for the life of the Oracle,
// negative results included. Errors are never cached.
type Oracle struct {
	cfg      OracleConfig
	source   ReserveSource
	registry *asset.Registry
	log      logger.LoggerInterface

	decimals  *cache.Cache[common.Address, lookup[int32]]
	pairs     *cache.Cache[common.Address, lookup[common.Address]]
	snapshots *cache.Cache[snapshotKey, lookup[domain.ReserveSnapshot]]
	group     singleflight.Group

	tracer  *apm.Tracer
	metrics *oracleMetrics
}

// NewOracle creates an Oracle. Tokens in registry never hit the source
// for decimals.
func NewOracle(cfg OracleConfig, source ReserveSource, registry *asset.Registry, log logger.LoggerInterface) (*Oracle, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if registry == nil {
		registry = asset.NewRegistry()
	}

	o := &Oracle{
		cfg:       cfg,
		source:    source,
		registry:  registry,
		log:       log,
		decimals:  cache.New[common.Address, lookup[int32]](),
		pairs:     cache.New[common.Address, lookup[common.Address]](),
		snapshots: cache.New[snapshotKey, lookup[domain.ReserveSnapshot]](),
		tracer:    apm.NewTracer(tracerName),
	}
	if err := o.initMetrics(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Oracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &oracleMetrics{}

	o.metrics.sourceCalls, err = meter.Int64Counter(
		"price_source_calls_total",
		metric.WithDescription("Reserve source calls by kind"),
	)
	if err != nil {
		return err
	}

	o.metrics.sourceLatency, err = meter.Float64Histogram(
		"price_source_latency_ms",
		metric.WithDescription("Reserve source call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	o.metrics.cacheHits, err = meter.Int64Counter(
		"price_cache_hits_total",
		metric.WithDescription("Oracle cache hits by cache"),
	)
	if err != nil {
		return err
	}

	o.metrics.unpriced, err = meter.Int64Counter(
		"price_unpriced_tokens_total",
		metric.WithDescription("Tokens that could not be priced"),
	)
	return err
}

// Close releases the caches.
func (o *Oracle) Close() {
	o.decimals.Close()
	o.pairs.Close()
	o.snapshots.Close()
}

// Decimals resolves the decimals of token.
func (o *Oracle) Decimals(ctx context.Context, token common.Address) (int32, bool, error) {
	if d, ok := o.registry.Decimals(token); ok {
		return d, true, nil
	}
	return resolveOnce(ctx, o, o.decimals, "decimals", token,
		func(ctx context.Context) (int32, bool, error) {
			return o.source.TokenDecimals(ctx, token)
		})
}

// EthPair resolves the pool pairing token with WETH.
func (o *Oracle) EthPair(ctx context.Context, token common.Address) (common.Address, bool, error) {
	return resolveOnce(ctx, o, o.pairs, "eth_pair", token,
		func(ctx context.Context) (common.Address, bool, error) {
			return o.source.EthPair(ctx, token, o.cfg.WETH)
		})
}

// resolveOnce serves a per-token lookup from c, collapsing concurrent
// misses for the same token into one source call.
func resolveOnce[T any](
	ctx context.Context,
	o *Oracle,
	c *cache.Cache[common.Address, lookup[T]],
	kind string,
	token common.Address,
	fetch func(context.Context) (T, bool, error),
) (T, bool, error) {
	if e, ok := c.Get(ctx, token); ok {
		o.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", kind)))
		return e.value, e.ok, nil
	}

	v, err, _ := o.group.Do(kind+":"+token.Hex(), func() (any, error) {
		if e, ok := c.Get(ctx, token); ok {
			return e, nil
		}
		start := time.Now()
		val, ok, err := fetch(ctx)
		o.recordSourceCall(ctx, kind, start)
		if err != nil {
			return nil, err
		}
		e := lookup[T]{value: val, ok: ok}
		c.Set(ctx, token, e)
		return e, nil
	})
	if err != nil {
		var zero T
		return zero, false, apperror.Wrap(err, apperror.CodePriceSourceFailed, kind+" of "+token.Hex())
	}

	e := v.(lookup[T])
	return e.value, e.ok, nil
}

func (o *Oracle) recordSourceCall(ctx context.Context, kind string, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	o.metrics.sourceCalls.Add(ctx, 1, attrs)
	o.metrics.sourceLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}

// PriceOf returns the USD price of token at block.
func (o *Oracle) PriceOf(ctx context.Context, token common.Address, block uint64) (price decimal.Decimal, ok bool, err error) {
	series, err := o.PriceSeriesOf(ctx, token, []uint64{block})
	if err != nil {
		return price, false, err
	}
	price, ok = series.At(block)
	return price, ok, nil
}

// PriceSeriesOf prices token at each of blocks. Blocks at which the token
// cannot be priced are absent from the series.
func (o *Oracle) PriceSeriesOf(ctx context.Context, token common.Address, blocks []uint64) (domain.PriceSeries, error) {
	ctx, span := o.tracer.Start(ctx, "oracle.price_series",
		attribute.String("token", token.Hex()),
		attribute.Int("blocks", len(blocks)),
	)
	defer span.End()

	series, err := o.priceSeries(ctx, token, domain.SortedUniqueBlocks(blocks))
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("priced", len(series)))
	return series, nil
}

func (o *Oracle) priceSeries(ctx context.Context, token common.Address, blocks []uint64) (domain.PriceSeries, error) {
	eth, err := o.ethUSDSeries(ctx, blocks)
	if err != nil {
		return nil, err
	}
	if token == o.cfg.WETH {
		return eth, nil
	}

	pair, ok, err := o.EthPair(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		o.unpriceable(ctx, token, "no eth pair")
		return domain.PriceSeries{}, nil
	}

	dec, ok, err := o.Decimals(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		o.unpriceable(ctx, token, "unknown decimals")
		return domain.PriceSeries{}, nil
	}

	exact, err := o.fetchSnapshots(ctx, pair, blocks)
	if err != nil {
		return nil, err
	}
	filled := domain.FillSnapshots(blocks, exact)

	series := make(domain.PriceSeries, len(blocks))
	for _, b := range blocks {
		ethUSD, ok := eth.At(b)
		if !ok {
			continue
		}
		snap, ok := filled[b]
		if !ok {
			continue
		}
		if p, ok := domain.TokenPriceFromReserves(snap, token, dec, o.cfg.WETH, ethUSD); ok {
			series[b] = p
		}
	}
	return series, nil
}

func (o *Oracle) unpriceable(ctx context.Context, token common.Address, reason string) {
	o.metrics.unpriced.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	o.log.Debug(ctx, "token cannot be priced", "token", token.Hex(), "reason", reason)
}

// ethUSDSeries prices ETH from the anchor pool. blocks must be sorted and
// unique.
func (o *Oracle) ethUSDSeries(ctx context.Context, blocks []uint64) (domain.PriceSeries, error) {
	exact, err := o.fetchSnapshots(ctx, o.cfg.AnchorPool, blocks)
	if err != nil {
		return nil, err
	}
	filled := domain.FillSnapshots(blocks, exact)

	series := make(domain.PriceSeries, len(blocks))
	for _, b := range blocks {
		snap, ok := filled[b]
		if !ok {
			continue
		}
		if p, ok := domain.EthUSDFromReserves(snap, o.cfg.WETH, o.cfg.AnchorQuoteDecimals); ok {
			series[b] = p
		}
	}
	return series, nil
}

// fetchSnapshots returns the exact snapshots of pool at blocks, fetching
// uncached blocks in chunks.
func (o *Oracle) fetchSnapshots(ctx context.Context, pool common.Address, blocks []uint64) (map[uint64]domain.ReserveSnapshot, error) {
	exact := make(map[uint64]domain.ReserveSnapshot, len(blocks))

	var missing []uint64
	for _, b := range blocks {
		e, ok := o.snapshots.Get(ctx, snapshotKey{pool: pool, block: b})
		if !ok {
			missing = append(missing, b)
			continue
		}
		if e.ok {
			exact[b] = e.value
		}
	}
	if hits := len(blocks) - len(missing); hits > 0 {
		o.metrics.cacheHits.Add(ctx, int64(hits), metric.WithAttributes(attribute.String("cache", "reserves")))
	}

	for _, chunk := range domain.Chunk(missing, o.cfg.ChunkSize) {
		start := time.Now()
		got, err := o.source.Reserves(ctx, pool, chunk)
		o.recordSourceCall(ctx, "reserves", start)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodePriceSourceFailed, "reserves of "+pool.Hex())
		}

		for _, b := range chunk {
			s, ok := got[b]
			o.snapshots.Set(ctx, snapshotKey{pool: pool, block: b}, lookup[domain.ReserveSnapshot]{value: s, ok: ok})
			if ok {
				exact[b] = s
			}
		}
	}
	return exact, nil
}

// PriceSeriesForTokens prices every token over blocks, running up to
// Concurrency tokens at once. The anchor pool is fetched first so the
// per-token queries share its snapshots.
func (o *Oracle) PriceSeriesForTokens(ctx context.Context, tokens []common.Address, blocks []uint64) (map[common.Address]domain.PriceSeries, error) {
	ctx, span := o.tracer.Start(ctx, "oracle.price_series_for_tokens",
		attribute.Int("tokens", len(tokens)),
		attribute.Int("blocks", len(blocks)),
	)
	defer span.End()

	blocks = domain.SortedUniqueBlocks(blocks)
	if _, err := o.ethUSDSeries(ctx, blocks); err != nil {
		span.NoticeError(err)
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[common.Address]domain.PriceSeries, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, token := range tokens {
		g.Go(func() error {
			series, err := o.priceSeries(gctx, token, blocks)
			if err != nil {
				return err
			}
			mu.Lock()
			out[token] = series
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.NoticeError(err)
		return nil, err
	}
	return out, nil
}
