package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// Correlator attributes farm transactions to the pool positions whose
// transfer legs triggered them.
type Correlator struct {
	decimals DecimalsResolver
	log      logger.LoggerInterface
}

func NewCorrelator(decimals DecimalsResolver, log logger.LoggerInterface) *Correlator {
	return &Correlator{decimals: decimals, log: log}
}

// Attribute matches each position's transfer legs to or from farm against
// the same account's farm transactions by transaction hash. A farm
// transaction is attributed to at most one position.
func (c *Correlator) Attribute(
	ctx context.Context,
	positions []domain.Position,
	farmTxs map[common.Address][]domain.Transaction,
	farm common.Address,
) (domain.Attribution, error) {
	out := make(domain.Attribution)
	if len(farmTxs) == 0 {
		return out, nil
	}

	byHash := make(map[common.Address]map[common.Hash][]domain.Transaction)
	index := func(account common.Address) map[common.Hash][]domain.Transaction {
		if m, ok := byHash[account]; ok {
			return m
		}
		m := make(map[common.Hash][]domain.Transaction)
		for _, tx := range farmTxs[account] {
			m[tx.Hash] = append(m[tx.Hash], tx)
		}
		byHash[account] = m
		return m
	}

	seen := make(map[string]struct{})

	for _, pos := range positions {
		if len(farmTxs[pos.Account()]) == 0 {
			continue
		}
		accountTxs := index(pos.Account())

		for _, leg := range pos.Transactions {
			if cp, ok := leg.Counterparty(); !ok || cp != farm {
				continue
			}

			for _, ftx := range accountTxs[leg.Hash] {
				if _, dup := seen[ftx.ID]; dup {
					continue
				}
				seen[ftx.ID] = struct{}{}

				rewards, err := c.rewards(ctx, pos.ID, ftx)
				if err != nil {
					return nil, err
				}
				out[pos.ID] = append(out[pos.ID], domain.FarmTransaction{
					Transaction: ftx,
					Rewards:     rewards,
				})
			}
		}
	}

	c.log.Debug(ctx, "farm transactions attributed",
		"farm", farm.Hex(),
		"positions", len(out),
		"transactions", out.TransactionCount())

	return out, nil
}

func (c *Correlator) rewards(ctx context.Context, pos domain.FragmentID, ftx domain.Transaction) ([]domain.Reward, error) {
	balances, err := ftx.RewardBalances()
	if err != nil {
		return nil, apperror.New(apperror.CodeMalformedBalance,
			apperror.WithCause(err),
			apperror.WithContextf("position %s tx %s", pos, ftx.ID))
	}

	rewards := make([]domain.Reward, 0, len(balances))
	for _, b := range balances {
		dec, ok, err := c.decimals.Decimals(ctx, b.Token)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodePriceSourceFailed, "reward token decimals")
		}

		r := domain.Reward{Token: b.Token, Amount: decimal.Zero, DecimalsKnown: ok}
		if ok {
			r.Amount = b.Amount(dec)
		} else {
			c.log.Debug(ctx, "reward token decimals unknown, recording zero",
				"token", b.Token.Hex(), "tx", ftx.ID)
		}
		rewards = append(rewards, r)
	}
	return rewards, nil
}
