package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// ProfitCalculator values positions against holding their invested tokens.
type ProfitCalculator struct {
	prices PriceOracle
	log    logger.LoggerInterface
}

// NewProfitCalculator creates a ProfitCalculator.
func NewProfitCalculator(prices PriceOracle, log logger.LoggerInterface) *ProfitCalculator {
	return &ProfitCalculator{prices: prices, log: log}
}

type leg struct {
	typ      positiondomain.TransactionType
	block    uint64
	balances []asset.Balance
}

// Calculate values pos. Every INVEST and REDEEM leg is priced at its own
// block. The hold counterfactual values the cumulative invested amount of
// each token at the last price seen while redeeming it. A position that
// opens and closes at the same time, or has any leg or reward that cannot
// be priced, is skipped with a reason and no error.
func (c *ProfitCalculator) Calculate(
	ctx context.Context,
	pos positiondomain.Position,
	attr positiondomain.Attribution,
) (*domain.Record, domain.SkipReason, error) {
	first, last := pos.First(), pos.Last()
	if first.Timestamp.Equal(last.Timestamp) {
		return nil, domain.SkipSameDate, nil
	}

	legs, err := decodeLegs(pos)
	if err != nil {
		return nil, domain.NotSkipped, err
	}

	tokens, blocks := legTokensAndBlocks(legs)
	tokenMeta := make(map[common.Address]*asset.Token, len(tokens))
	for _, t := range tokens {
		dec, ok, err := c.prices.Decimals(ctx, t)
		if err != nil {
			return nil, domain.NotSkipped, apperror.Wrap(err, apperror.CodePriceSourceFailed, "leg token decimals")
		}
		if !ok || dec > asset.MaxDecimals {
			c.log.Debug(ctx, "leg token decimals unknown", "position", pos.ID.String(), "token", t.Hex())
			return nil, domain.SkipUnpriced, nil
		}
		tokenMeta[t] = asset.NewToken(t, "", dec)
	}

	series, err := c.prices.PriceSeriesForTokens(ctx, tokens, blocks)
	if err != nil {
		return nil, domain.NotSkipped, err
	}

	invested := decimal.Zero
	redeemed := decimal.Zero
	cumulative := make(map[common.Address]asset.Amount, len(tokens))
	lastPrice := make(map[common.Address]decimal.Decimal, len(tokens))

	for _, l := range legs {
		for _, b := range l.balances {
			price, ok := series[b.Token].At(l.block)
			if !ok {
				c.log.Debug(ctx, "leg cannot be priced",
					"position", pos.ID.String(),
					"token", b.Token.Hex(),
					"block", l.block)
				return nil, domain.SkipUnpriced, nil
			}

			amount := asset.NewAmount(tokenMeta[b.Token], b.Raw)
			switch l.typ {
			case positiondomain.Invest:
				invested = invested.Add(amount.Value(price))
				if prev, seen := cumulative[b.Token]; seen {
					amount = prev.MustAdd(amount)
				}
				cumulative[b.Token] = amount
			case positiondomain.Redeem:
				redeemed = redeemed.Add(amount.Value(price))
				lastPrice[b.Token] = price
			}
		}
	}

	held := decimal.Zero
	for token, amount := range cumulative {
		price, ok := lastPrice[token]
		if !ok {
			// invested but never redeemed: nothing to value the hold at
			return nil, domain.SkipUnpriced, nil
		}
		held = held.Add(amount.Value(price))
	}
	if invested.IsZero() || held.IsZero() {
		return nil, domain.SkipUnpriced, nil
	}

	claimed, ok := attr.ClaimedUSD(pos.ID)
	if !ok {
		return nil, domain.SkipUnpriced, nil
	}

	poolNet := redeemed.Sub(invested)
	hodlNet := held.Sub(invested)

	rec := &domain.Record{
		Position:              pos.ID.String(),
		Account:               pos.Account(),
		Market:                pos.Market(),
		StartBlock:            first.BlockNumber,
		EndBlock:              last.BlockNumber,
		StartDate:             first.Timestamp,
		EndDate:               last.Timestamp,
		InvestmentValue:       invested,
		RedemptionValue:       redeemed,
		RedemptionValueIfHeld: held,
		PoolNetGain:           poolNet,
		HodlNetGain:           hodlNet,
		PoolROI:               poolNet.Div(invested),
		HodlROI:               hodlNet.Div(invested),
		PoolVsHodlROI:         redeemed.Sub(held).Div(held),
		ClaimedRewardsUSD:     claimed,
		TxCount:               len(pos.Transactions),
	}
	if len(legs) > 0 && legs[0].typ == positiondomain.Invest {
		if bs := legs[0].balances; len(bs) > 0 {
			rec.TokenA = bs[0].Token
			if len(bs) > 1 {
				rec.TokenB = bs[1].Token
			}
		}
	}
	return rec, domain.NotSkipped, nil
}

func decodeLegs(pos positiondomain.Position) ([]leg, error) {
	legs := make([]leg, 0, len(pos.Transactions))
	for _, tx := range pos.Transactions {
		if tx.Type != positiondomain.Invest && tx.Type != positiondomain.Redeem {
			continue
		}
		balances, err := tx.InputBalances()
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedBalance,
				apperror.WithCause(err),
				apperror.WithContextf("position %s tx %s", pos.ID, tx.ID))
		}
		legs = append(legs, leg{typ: tx.Type, block: tx.BlockNumber, balances: balances})
	}
	return legs, nil
}

func legTokensAndBlocks(legs []leg) ([]common.Address, []uint64) {
	seen := make(map[common.Address]struct{})
	var tokens []common.Address
	blocks := make([]uint64, 0, len(legs))
	for _, l := range legs {
		blocks = append(blocks, l.block)
		for _, b := range l.balances {
			if _, ok := seen[b.Token]; ok {
				continue
			}
			seen[b.Token] = struct{}{}
			tokens = append(tokens, b.Token)
		}
	}
	return tokens, blocks
}
