package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// RewardValuer prices attributed farm rewards in USD at the block they
// were claimed.
type RewardValuer struct {
	prices SeriesPricer
	log    logger.LoggerInterface
}

func NewRewardValuer(prices SeriesPricer, log logger.LoggerInterface) *RewardValuer {
	return &RewardValuer{prices: prices, log: log}
}

// Value returns a copy of attr holding only farm transactions with at
// least one non-zero reward, each reward carrying its price and USD value.
// Prices for every reward token are fetched in one batch over all reward
// blocks. A reward whose token has no price at its block is left with
// Priced false.
func (v *RewardValuer) Value(ctx context.Context, attr positiondomain.Attribution) (positiondomain.Attribution, error) {
	out := make(positiondomain.Attribution, len(attr))

	var (
		tokens []common.Address
		blocks []uint64
		seen   = make(map[common.Address]struct{})
	)

	for _, id := range positiondomain.SortedFragmentIDs(attr) {
		var kept []positiondomain.FarmTransaction
		for _, ftx := range attr[id] {
			var rewards []positiondomain.Reward
			for _, r := range ftx.Rewards {
				if !r.Amount.IsPositive() {
					continue
				}
				rewards = append(rewards, r)
				if _, ok := seen[r.Token]; !ok {
					seen[r.Token] = struct{}{}
					tokens = append(tokens, r.Token)
				}
			}
			if len(rewards) == 0 {
				continue
			}
			ftx.Rewards = rewards
			kept = append(kept, ftx)
			blocks = append(blocks, ftx.BlockNumber)
		}
		if len(kept) > 0 {
			out[id] = kept
		}
	}

	if len(tokens) == 0 {
		return out, nil
	}

	series, err := v.prices.PriceSeriesForTokens(ctx, tokens, blocks)
	if err != nil {
		return nil, err
	}

	unpriced := 0
	for _, txs := range out {
		for i := range txs {
			for j := range txs[i].Rewards {
				r := &txs[i].Rewards[j]
				price, ok := series[r.Token].At(txs[i].BlockNumber)
				if !ok {
					unpriced++
					continue
				}
				r.Price = price
				r.Priced = true
				r.ValueUSD = r.Amount.Mul(price)
			}
		}
	}

	v.log.Debug(ctx, "farm rewards valued",
		"positions", len(out),
		"tokens", len(tokens),
		"unpriced", unpriced)

	return out, nil
}
