// Package app contains the use cases of the position context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SimpleFi-finance/defi-analytics/business/position/domain"
)

// PositionSource reads position histories from the indexed dataset.
type PositionSource interface {
	// FetchRawPositions returns every closed fragment of market, each with
	// its transactions in chronological order.
	FetchRawPositions(ctx context.Context, market common.Address) (map[domain.FragmentID][]domain.Transaction, error)
	// FetchFarmTransactions returns the transactions of closed farm
	// positions in farmMarket, keyed by account.
	FetchFarmTransactions(ctx context.Context, farmMarket string) (map[common.Address][]domain.Transaction, error)
	// FarmMarketForLPToken finds the farm staking pool accepting lp.
	FarmMarketForLPToken(ctx context.Context, lp common.Address) (domain.FarmMarket, bool, error)
}

// DecimalsResolver resolves the decimals of reward tokens.
type DecimalsResolver interface {
	Decimals(ctx context.Context, token common.Address) (int32, bool, error)
}
