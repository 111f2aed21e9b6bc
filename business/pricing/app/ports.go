// Package app contains the price oracle, reward valuation and the ports
// they read reserve data through.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
)

// ReserveSource reads historical pool state.
type ReserveSource interface {
	// Reserves returns the snapshot of pool at each of blocks. Blocks at
	// which the pool had no state are absent from the result.
	Reserves(ctx context.Context, pool common.Address, blocks []uint64) (map[uint64]domain.ReserveSnapshot, error)

	// TokenDecimals returns the decimals of token, ok false if unknown.
	TokenDecimals(ctx context.Context, token common.Address) (int32, bool, error)

	// EthPair finds the pool pairing token with weth, ok false if none.
	EthPair(ctx context.Context, token, weth common.Address) (common.Address, bool, error)
}

// SeriesPricer prices several tokens over a set of blocks.
type SeriesPricer interface {
	PriceSeriesForTokens(ctx context.Context, tokens []common.Address, blocks []uint64) (map[common.Address]domain.PriceSeries, error)
}
