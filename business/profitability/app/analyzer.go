package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	positionapp "github.com/SimpleFi-finance/defi-analytics/business/position/app"
	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apm"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

const analyzerName = "lp-analyzer"

// Target is one market to analyze. Dataset groups the output of several
// targets, Name labels the output of this one.
type Target struct {
	Dataset string
	Name    string
	Market  common.Address
}

// Result is the outcome of one market run.
type Result struct {
	Target  Target
	Records []*domain.Record
	Stats   domain.BatchStats
}

// AnalyzerConfig holds the eligible intermediaries and filters.
type AnalyzerConfig struct {
	Intermediaries  []common.Address
	StrictSingleLeg bool
}

type analyzerMetrics struct {
	positions metric.Int64Counter
	duration  metric.Float64Histogram
}

// Analyzer runs the whole pipeline for one market: reconstruction, farm
// reward attribution and valuation, then profitability.
type Analyzer struct {
	source        PositionSource
	reconstructor *positionapp.Reconstructor
	correlator    *positionapp.Correlator
	valuer        RewardValuer
	calculator    *ProfitCalculator
	cfg           AnalyzerConfig
	log           logger.LoggerInterface

	tracer  *apm.Tracer
	metrics *analyzerMetrics
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(
	source PositionSource,
	reconstructor *positionapp.Reconstructor,
	correlator *positionapp.Correlator,
	valuer RewardValuer,
	calculator *ProfitCalculator,
	cfg AnalyzerConfig,
	log logger.LoggerInterface,
) (*Analyzer, error) {
	a := &Analyzer{
		source:        source,
		reconstructor: reconstructor,
		correlator:    correlator,
		valuer:        valuer,
		calculator:    calculator,
		cfg:           cfg,
		log:           log,
		tracer:        apm.NewTracer(analyzerName),
	}
	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) initMetrics() error {
	meter := otel.Meter(analyzerName)
	var err error

	a.metrics = &analyzerMetrics{}

	a.metrics.positions, err = meter.Int64Counter(
		"lp_positions_total",
		metric.WithDescription("Positions by market and outcome"),
	)
	if err != nil {
		return err
	}

	a.metrics.duration, err = meter.Float64Histogram(
		"lp_market_run_duration_ms",
		metric.WithDescription("Time to analyze one market"),
		metric.WithUnit("ms"),
	)
	return err
}

// Run analyzes target. Positions that cannot be priced are counted and
// skipped. Malformed data and transport failures abort the market.
func (a *Analyzer) Run(ctx context.Context, target Target) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "analyzer.run",
		attribute.String("market", target.Market.Hex()),
		attribute.String("name", target.Name),
	)
	defer span.End()
	start := time.Now()

	res, err := a.run(ctx, target)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	a.record(ctx, target, res.Stats, time.Since(start))
	span.SetAttributes(
		attribute.Int("reconstructed", res.Stats.Reconstructed),
		attribute.Int("priced", res.Stats.Priced),
	)
	return res, nil
}

func (a *Analyzer) run(ctx context.Context, target Target) (*Result, error) {
	res := &Result{Target: target}
	stats := &res.Stats

	fragments, err := a.source.FetchRawPositions(ctx, target.Market)
	if err != nil {
		return nil, err
	}

	fm, hasFarm, err := a.source.FarmMarketForLPToken(ctx, target.Market)
	if err != nil {
		return nil, err
	}
	eligible := positiondomain.NewAddressSet(a.cfg.Intermediaries...)
	if hasFarm {
		eligible.Add(fm.Farm)
	} else {
		a.log.Info(ctx, "no farm for market, rewards will be zero", "market", target.Market.Hex())
	}

	positions, rs := a.reconstructor.Reconstruct(ctx, fragments, eligible)
	stats.Fragments = rs.Fragments
	stats.Reconstructed = rs.Reconstructed
	stats.SkippedIncomplete = rs.Incomplete
	stats.NotStarting = rs.NotStarting
	stats.Untracked = rs.Untracked
	stats.NonChronological = rs.NonChronological

	if a.cfg.StrictSingleLeg {
		kept := positionapp.SingleLegPositions(positions)
		stats.StrictFiltered = len(positions) - len(kept)
		positions = kept
	}

	attr := positiondomain.Attribution{}
	if hasFarm && len(positions) > 0 {
		farmTxs, err := a.source.FetchFarmTransactions(ctx, fm.ID)
		if err != nil {
			return nil, err
		}
		if attr, err = a.correlator.Attribute(ctx, positions, farmTxs, fm.Farm); err != nil {
			return nil, err
		}
		if attr, err = a.valuer.Value(ctx, attr); err != nil {
			return nil, err
		}
		stats.FarmTransactions = attr.TransactionCount()
	}

	for _, pos := range positions {
		rec, skip, err := a.calculator.Calculate(ctx, pos, attr)
		if err != nil {
			return nil, err
		}
		if skip != domain.NotSkipped {
			stats.Skip(skip)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	stats.Priced = len(res.Records)

	return res, nil
}

func (a *Analyzer) record(ctx context.Context, target Target, s domain.BatchStats, took time.Duration) {
	a.log.Info(ctx, "market analyzed",
		"name", target.Name,
		"market", target.Market.Hex(),
		"fragments", s.Fragments,
		"reconstructed", s.Reconstructed,
		"priced", s.Priced,
		"skipped_unpriced", s.SkippedUnpriced,
		"skipped_same_date", s.SkippedSameDate,
		"skipped_incomplete", s.SkippedIncomplete,
		"not_starting", s.NotStarting,
		"untracked", s.Untracked,
		"non_chronological", s.NonChronological,
		"strict_filtered", s.StrictFiltered,
		"farm_transactions", s.FarmTransactions,
		"took", took)

	m := attribute.String("market", target.Market.Hex())
	for outcome, n := range map[string]int{
		"reconstructed":     s.Reconstructed,
		"priced":            s.Priced,
		"unpriced":          s.SkippedUnpriced,
		"same_date":         s.SkippedSameDate,
		"incomplete":        s.SkippedIncomplete,
		"not_starting":      s.NotStarting,
		"untracked":         s.Untracked,
		"non_chronological": s.NonChronological,
		"strict_filtered":   s.StrictFiltered,
	} {
		a.metrics.positions.Add(ctx, int64(n), metric.WithAttributes(m, attribute.String("outcome", outcome)))
	}
	a.metrics.duration.Record(ctx, float64(took.Milliseconds()), metric.WithAttributes(m))
}
