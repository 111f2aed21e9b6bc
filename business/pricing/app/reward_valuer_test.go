package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/business/pricing/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/asset"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

type fakePricer struct {
	series map[common.Address]domain.PriceSeries
	err    error

	gotTokens []common.Address
	gotBlocks []uint64
	calls     int
}

func (f *fakePricer) PriceSeriesForTokens(ctx context.Context, tokens []common.Address, blocks []uint64) (map[common.Address]domain.PriceSeries, error) {
	f.calls++
	f.gotTokens = tokens
	f.gotBlocks = blocks
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

func reward(token common.Address, amount string) positiondomain.Reward {
	return positiondomain.Reward{Token: token, Amount: decimal.RequireFromString(amount), DecimalsKnown: true}
}

func farmTx(id string, block uint64, rewards ...positiondomain.Reward) positiondomain.FarmTransaction {
	return positiondomain.FarmTransaction{
		Transaction: positiondomain.Transaction{ID: id, BlockNumber: block},
		Rewards:     rewards,
	}
}

func valuerFixture() (positiondomain.Attribution, positiondomain.FragmentID, positiondomain.FragmentID) {
	market := common.HexToAddress("0x397ff1542f962076d0bfe58ea045ffa2d347aca0")
	first := positiondomain.FragmentID{Account: common.HexToAddress("0x01"), Market: market, Kind: "INVESTMENT", Seq: 1}
	second := positiondomain.FragmentID{Account: common.HexToAddress("0x02"), Market: market, Kind: "INVESTMENT", Seq: 1}

	return positiondomain.Attribution{
		first: {
			farmTx("stake", 10, reward(asset.AddrSUSHI, "0")),
			farmTx("harvest", 20, reward(asset.AddrSUSHI, "1.5"), reward(yfi, "0")),
			farmTx("exit", 30, reward(asset.AddrSUSHI, "2"), reward(orphan, "4")),
		},
		second: {
			farmTx("stake", 11, reward(asset.AddrSUSHI, "0")),
		},
	}, first, second
}

func TestRewardValuer_Value(t *testing.T) {
	attr, first, second := valuerFixture()
	pricer := &fakePricer{series: map[common.Address]domain.PriceSeries{
		asset.AddrSUSHI: {
			20: decimal.RequireFromString("2"),
			30: decimal.RequireFromString("3"),
		},
		orphan: {},
	}}

	got, err := NewRewardValuer(pricer, logger.New(io.Discard, logger.LevelError, "test", nil)).
		Value(context.Background(), attr)
	require.NoError(t, err)

	assert.NotContains(t, got, second)
	txs := got[first]
	require.Len(t, txs, 2)

	harvest := txs[0]
	assert.Equal(t, "harvest", harvest.ID)
	require.Len(t, harvest.Rewards, 1)
	assert.True(t, harvest.Rewards[0].Priced)
	requirePrice(t, "2", harvest.Rewards[0].Price)
	requirePrice(t, "3", harvest.Rewards[0].ValueUSD)

	exit := txs[1]
	require.Len(t, exit.Rewards, 2)
	assert.True(t, exit.Rewards[0].Priced)
	requirePrice(t, "6", exit.Rewards[0].ValueUSD)
	assert.False(t, exit.Rewards[1].Priced)

	_, ok := got.ClaimedUSD(first)
	assert.False(t, ok)

	assert.Equal(t, 1, pricer.calls)
	assert.ElementsMatch(t, []common.Address{asset.AddrSUSHI, orphan}, pricer.gotTokens)
	assert.ElementsMatch(t, []uint64{20, 30}, pricer.gotBlocks)

	// The input is left untouched.
	assert.Len(t, attr[first], 3)
	assert.Len(t, attr[first][1].Rewards, 2)
	assert.False(t, attr[first][1].Rewards[0].Priced)
}

func TestRewardValuer_ClaimedTotal(t *testing.T) {
	attr, first, _ := valuerFixture()
	attr[first] = attr[first][:2]
	pricer := &fakePricer{series: map[common.Address]domain.PriceSeries{
		asset.AddrSUSHI: {20: decimal.RequireFromString("2")},
	}}

	got, err := NewRewardValuer(pricer, logger.New(io.Discard, logger.LevelError, "test", nil)).
		Value(context.Background(), attr)
	require.NoError(t, err)

	total, ok := got.ClaimedUSD(first)
	require.True(t, ok)
	requirePrice(t, "3", total)
}

func TestRewardValuer_NoRewardsSkipsPricing(t *testing.T) {
	_, _, second := valuerFixture()
	attr := positiondomain.Attribution{second: {farmTx("stake", 11, reward(asset.AddrSUSHI, "0"))}}
	pricer := &fakePricer{}

	got, err := NewRewardValuer(pricer, logger.New(io.Discard, logger.LevelError, "test", nil)).
		Value(context.Background(), attr)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, pricer.calls)
}

func TestRewardValuer_PricingError(t *testing.T) {
	attr, _, _ := valuerFixture()
	pricer := &fakePricer{err: errors.New("boom")}

	_, err := NewRewardValuer(pricer, logger.New(io.Discard, logger.LevelError, "test", nil)).
		Value(context.Background(), attr)
	require.Error(t, err)
}
