package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
)

// DivisionPrecision is the number of decimal places kept by reserve-ratio
// divisions.
const DivisionPrecision = 18

// EthUSDFromReserves prices ETH in the anchor pool's quote token:
// (reserveQuote/10^quoteDecimals) / (reserveETH/10^18).
func EthUSDFromReserves(s ReserveSnapshot, weth common.Address, quoteDecimals int32) (decimal.Decimal, bool) {
	if s.Empty() {
		return decimal.Zero, false
	}

	var ethReserve, quoteReserve decimal.Decimal
	switch weth {
	case s.Token0:
		ethReserve = asset.ScaleDown(s.Reserve0, asset.ETHDecimals)
		quoteReserve = asset.ScaleDown(s.Reserve1, quoteDecimals)
	case s.Token1:
		ethReserve = asset.ScaleDown(s.Reserve1, asset.ETHDecimals)
		quoteReserve = asset.ScaleDown(s.Reserve0, quoteDecimals)
	default:
		return decimal.Zero, false
	}

	return quoteReserve.DivRound(ethReserve, DivisionPrecision), true
}

// TokenPriceFromReserves prices token through its ETH pair:
// (ethReserve/10^18) / (tokenReserve/10^tokenDecimals) × ethUSD.
func TokenPriceFromReserves(
	s ReserveSnapshot,
	token common.Address,
	tokenDecimals int32,
	weth common.Address,
	ethUSD decimal.Decimal,
) (decimal.Decimal, bool) {
	if s.Empty() {
		return decimal.Zero, false
	}

	var ethRaw, tokenRaw = s.Reserve0, s.Reserve1
	switch {
	case s.Token0 == weth && s.Token1 == token:
	case s.Token1 == weth && s.Token0 == token:
		ethRaw, tokenRaw = s.Reserve1, s.Reserve0
	default:
		return decimal.Zero, false
	}

	priceInETH := asset.ScaleDown(ethRaw, asset.ETHDecimals).
		DivRound(asset.ScaleDown(tokenRaw, tokenDecimals), DivisionPrecision)
	return priceInETH.Mul(ethUSD), true
}
