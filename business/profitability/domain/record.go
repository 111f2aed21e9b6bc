// Package domain contains the profitability record and batch statistics.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// DateLayout is how position dates are written, always in UTC.
const DateLayout = "2006-01-02 15:04:05"

// Header is the fixed column order of a Record.
var Header = []string{
	"account",
	"market",
	"position_start_block",
	"position_end_block",
	"position_start_date",
	"position_end_date",
	"tokenA",
	"tokenB",
	"position_investment_value",
	"position_redemption_value",
	"position_redemption_value_if_held",
	"pool_net_gain",
	"hodl_net_gain",
	"pool_roi",
	"hodl_roi",
	"pool_vs_hodl_roi",
	"claimed_rewards_in_USD",
	"tx_count",
}

// Record is the profitability of one closed position against holding its
// invested tokens.
type Record struct {
	// Position is the id of the position's starting fragment. It is not
	// part of the CSV row.
	Position string

	Account    common.Address
	Market     common.Address
	StartBlock uint64
	EndBlock   uint64
	StartDate  time.Time
	EndDate    time.Time
	TokenA     common.Address
	TokenB     common.Address

	InvestmentValue       decimal.Decimal
	RedemptionValue       decimal.Decimal
	RedemptionValueIfHeld decimal.Decimal
	PoolNetGain           decimal.Decimal
	HodlNetGain           decimal.Decimal
	PoolROI               decimal.Decimal
	HodlROI               decimal.Decimal
	PoolVsHodlROI         decimal.Decimal
	ClaimedRewardsUSD     decimal.Decimal

	TxCount int
}

// Row renders r in Header order.
func (r *Record) Row() []string {
	return []string{
		hexLower(r.Account),
		hexLower(r.Market),
		strconv.FormatUint(r.StartBlock, 10),
		strconv.FormatUint(r.EndBlock, 10),
		r.StartDate.UTC().Format(DateLayout),
		r.EndDate.UTC().Format(DateLayout),
		hexLower(r.TokenA),
		hexLower(r.TokenB),
		r.InvestmentValue.String(),
		r.RedemptionValue.String(),
		r.RedemptionValueIfHeld.String(),
		r.PoolNetGain.String(),
		r.HodlNetGain.String(),
		r.PoolROI.String(),
		r.HodlROI.String(),
		r.PoolVsHodlROI.String(),
		r.ClaimedRewardsUSD.String(),
		strconv.Itoa(r.TxCount),
	}
}

func hexLower(a common.Address) string {
	return strings.ToLower(a.Hex())
}
