package app

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	pricingdomain "github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

var (
	account    = common.HexToAddress("0x0000000000000d9054f605ca65a2647c2b521422")
	market     = common.HexToAddress("0x397ff1542f962076d0bfe58ea045ffa2d347aca0")
	farm       = common.HexToAddress("0xc2edad668740f1aa35e4d8f227fb8e17dca888cd")
	usdc       = asset.AddrUSDC
	weth       = asset.AddrWETH
	sushiToken = asset.AddrSUSHI

	// 2021-03-01 00:00:00 UTC
	day0 int64 = 1614556800
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

type fakeOracle struct {
	mu       sync.Mutex
	decimals map[common.Address]int32
	series   map[common.Address]pricingdomain.PriceSeries
	err      error
	calls    int
}

func (f *fakeOracle) Decimals(ctx context.Context, token common.Address) (int32, bool, error) {
	d, ok := f.decimals[token]
	return d, ok, nil
}

func (f *fakeOracle) PriceSeriesForTokens(ctx context.Context, tokens []common.Address, blocks []uint64) (map[common.Address]pricingdomain.PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[common.Address]pricingdomain.PriceSeries, len(tokens))
	for _, t := range tokens {
		out[t] = f.series[t]
	}
	return out, nil
}

// usdcWethOracle prices USDC at $1 and ETH at $2000 until block 199, then
// $2200.
func usdcWethOracle() *fakeOracle {
	eth := pricingdomain.PriceSeries{}
	stable := pricingdomain.PriceSeries{}
	for _, b := range []uint64{100, 150, 200, 300} {
		stable[b] = decimal.NewFromInt(1)
		eth[b] = decimal.NewFromInt(2000)
		if b >= 200 {
			eth[b] = decimal.NewFromInt(2200)
		}
	}
	return &fakeOracle{
		decimals: map[common.Address]int32{usdc: 6, weth: 18},
		series:   map[common.Address]pricingdomain.PriceSeries{usdc: stable, weth: eth},
	}
}

func bal(token common.Address, raw string) string {
	return strings.ToLower(token.Hex()) + "|INPUT|" + raw
}

func tx(typ positiondomain.TransactionType, block uint64, at int64, balances ...string) positiondomain.Transaction {
	return positiondomain.Transaction{
		ID:                fmt.Sprintf("tx-%d-%s", block, typ),
		Hash:              common.BigToHash(new(big.Int).SetUint64(block)),
		BlockNumber:       block,
		Timestamp:         time.Unix(at, 0).UTC(),
		Type:              typ,
		Account:           account,
		InputTokenAmounts: balances,
	}
}

func positionOf(seq uint64, txs ...positiondomain.Transaction) positiondomain.Position {
	id := positiondomain.FragmentID{Account: account, Market: market, Kind: "INVESTMENT", Seq: seq}
	return positiondomain.Position{
		ID:           id,
		Fragments:    []positiondomain.FragmentID{id},
		Transactions: txs,
	}
}

// roundTrip invests 100 USDC + 0.05 WETH at block 100 and redeems
// 106 USDC + 0.05 WETH at block 200.
func roundTrip(seq uint64) positiondomain.Position {
	return positionOf(seq,
		tx(positiondomain.Invest, 100, day0, bal(usdc, "100000000"), bal(weth, "50000000000000000")),
		tx(positiondomain.Redeem, 200, day0+86400, bal(usdc, "106000000"), bal(weth, "50000000000000000")),
	)
}
