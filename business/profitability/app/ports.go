// Package app contains the profitability calculator, the per-market
// analyzer and the collector that drives it over many markets.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	pricingdomain "github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
)

// PriceOracle prices leg tokens.
type PriceOracle interface {
	Decimals(ctx context.Context, token common.Address) (int32, bool, error)
	PriceSeriesForTokens(ctx context.Context, tokens []common.Address, blocks []uint64) (map[common.Address]pricingdomain.PriceSeries, error)
}

// PositionSource is the subset of the indexed dataset the analyzer reads.
type PositionSource interface {
	FetchRawPositions(ctx context.Context, market common.Address) (map[positiondomain.FragmentID][]positiondomain.Transaction, error)
	FetchFarmTransactions(ctx context.Context, farmMarket string) (map[common.Address][]positiondomain.Transaction, error)
	FarmMarketForLPToken(ctx context.Context, lp common.Address) (positiondomain.FarmMarket, bool, error)
}

// RewardValuer prices attributed farm rewards.
type RewardValuer interface {
	Value(ctx context.Context, attr positiondomain.Attribution) (positiondomain.Attribution, error)
}

// RecordSink persists the records of one target.
type RecordSink interface {
	// Exists reports whether target was already collected.
	Exists(ctx context.Context, target Target) (bool, error)

	// Write stores records for target, replacing earlier output.
	Write(ctx context.Context, target Target, records []*domain.Record) error
}
