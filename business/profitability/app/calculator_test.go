package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	positiondomain "github.com/SimpleFi-finance/defi-analytics/business/position/domain"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
)

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculate_RoundTrip(t *testing.T) {
	calc := NewProfitCalculator(usdcWethOracle(), testLogger())

	pos := roundTrip(1)
	rec, skip, err := calc.Calculate(context.Background(), pos, nil)
	require.NoError(t, err)
	require.Equal(t, domain.NotSkipped, skip)
	require.NotNil(t, rec)

	assert.Equal(t, pos.ID.String(), rec.Position)
	assert.Equal(t, account, rec.Account)
	assert.Equal(t, market, rec.Market)
	assert.Equal(t, uint64(100), rec.StartBlock)
	assert.Equal(t, uint64(200), rec.EndBlock)
	assert.Equal(t, usdc, rec.TokenA)
	assert.Equal(t, weth, rec.TokenB)
	assert.Equal(t, 2, rec.TxCount)

	requireDecimal(t, "200", rec.InvestmentValue)
	requireDecimal(t, "216", rec.RedemptionValue)
	requireDecimal(t, "210", rec.RedemptionValueIfHeld)
	requireDecimal(t, "16", rec.PoolNetGain)
	requireDecimal(t, "10", rec.HodlNetGain)
	requireDecimal(t, "0.08", rec.PoolROI)
	requireDecimal(t, "0.05", rec.HodlROI)
	requireDecimal(t, "0.0286", rec.PoolVsHodlROI.Round(4))
	requireDecimal(t, "0", rec.ClaimedRewardsUSD)
}

func TestCalculate_MultiTrancheThroughFarm(t *testing.T) {
	pos := positionOf(1,
		tx(positiondomain.Invest, 100, day0, bal(usdc, "100000000"), bal(weth, "50000000000000000")),
		tx(positiondomain.Invest, 150, day0+3600, bal(usdc, "50000000"), bal(weth, "25000000000000000")),
		tx(positiondomain.TransferOut, 150, day0+3600),
		tx(positiondomain.TransferIn, 190, day0+7200),
		tx(positiondomain.Redeem, 200, day0+86400, bal(usdc, "160000000"), bal(weth, "75000000000000000")),
	)
	pos.Transactions[2].TransferredTo = farm
	pos.Transactions[3].TransferredFrom = farm

	rec, skip, err := NewProfitCalculator(usdcWethOracle(), testLogger()).Calculate(context.Background(), pos, nil)
	require.NoError(t, err)
	require.Equal(t, domain.NotSkipped, skip)

	requireDecimal(t, "300", rec.InvestmentValue)
	requireDecimal(t, "325", rec.RedemptionValue)
	requireDecimal(t, "315", rec.RedemptionValueIfHeld)
	requireDecimal(t, "25", rec.PoolNetGain)
	requireDecimal(t, "15", rec.HodlNetGain)
	assert.Equal(t, 5, rec.TxCount)
}

func TestCalculate_ClaimedRewards(t *testing.T) {
	pos := roundTrip(1)
	attr := positiondomain.Attribution{
		pos.ID: {
			{Rewards: []positiondomain.Reward{
				{Token: sushiToken, Priced: true, ValueUSD: decimal.RequireFromString("7.5")},
			}},
			{Rewards: []positiondomain.Reward{
				{Token: sushiToken, Priced: true, ValueUSD: decimal.RequireFromString("5")},
			}},
		},
	}

	rec, skip, err := NewProfitCalculator(usdcWethOracle(), testLogger()).Calculate(context.Background(), pos, attr)
	require.NoError(t, err)
	require.Equal(t, domain.NotSkipped, skip)
	requireDecimal(t, "12.5", rec.ClaimedRewardsUSD)
}

func TestCalculate_Skips(t *testing.T) {
	tests := []struct {
		name   string
		pos    func() positiondomain.Position
		oracle func() *fakeOracle
		attr   func(positiondomain.FragmentID) positiondomain.Attribution
		want   domain.SkipReason
	}{
		{
			name: "opens and closes at the same time",
			pos: func() positiondomain.Position {
				return positionOf(1,
					tx(positiondomain.Invest, 100, day0, bal(usdc, "1")),
					tx(positiondomain.Redeem, 100, day0, bal(usdc, "1")),
				)
			},
			want: domain.SkipSameDate,
		},
		{
			name: "leg price missing at its block",
			pos:  func() positiondomain.Position { return roundTrip(1) },
			oracle: func() *fakeOracle {
				o := usdcWethOracle()
				delete(o.series[weth], 200)
				return o
			},
			want: domain.SkipUnpriced,
		},
		{
			name: "token without a price series",
			pos:  func() positiondomain.Position { return roundTrip(1) },
			oracle: func() *fakeOracle {
				o := usdcWethOracle()
				delete(o.series, usdc)
				return o
			},
			want: domain.SkipUnpriced,
		},
		{
			name: "leg token decimals unknown",
			pos:  func() positiondomain.Position { return roundTrip(1) },
			oracle: func() *fakeOracle {
				o := usdcWethOracle()
				delete(o.decimals, weth)
				return o
			},
			want: domain.SkipUnpriced,
		},
		{
			name: "invested token never redeemed",
			pos: func() positiondomain.Position {
				return positionOf(1,
					tx(positiondomain.Invest, 100, day0, bal(usdc, "100000000"), bal(weth, "50000000000000000")),
					tx(positiondomain.Redeem, 200, day0+60, bal(usdc, "106000000")),
				)
			},
			want: domain.SkipUnpriced,
		},
		{
			name: "zero investment",
			pos: func() positiondomain.Position {
				return positionOf(1,
					tx(positiondomain.Invest, 100, day0, bal(usdc, "0"), bal(weth, "0")),
					tx(positiondomain.Redeem, 200, day0+60, bal(usdc, "0"), bal(weth, "0")),
				)
			},
			want: domain.SkipUnpriced,
		},
		{
			name: "reward without a price",
			pos:  func() positiondomain.Position { return roundTrip(1) },
			attr: func(id positiondomain.FragmentID) positiondomain.Attribution {
				return positiondomain.Attribution{id: {{Rewards: []positiondomain.Reward{
					{Token: sushiToken, Amount: decimal.NewFromInt(1), DecimalsKnown: true},
				}}}}
			},
			want: domain.SkipUnpriced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := usdcWethOracle()
			if tt.oracle != nil {
				oracle = tt.oracle()
			}
			pos := tt.pos()
			var attr positiondomain.Attribution
			if tt.attr != nil {
				attr = tt.attr(pos.ID)
			}

			rec, skip, err := NewProfitCalculator(oracle, testLogger()).Calculate(context.Background(), pos, attr)
			require.NoError(t, err)
			assert.Nil(t, rec)
			assert.Equal(t, tt.want, skip)
		})
	}
}

func TestCalculate_Errors(t *testing.T) {
	t.Run("malformed balance", func(t *testing.T) {
		pos := roundTrip(1)
		pos.Transactions[1].InputTokenAmounts = []string{"not-a-balance"}

		_, _, err := NewProfitCalculator(usdcWethOracle(), testLogger()).Calculate(context.Background(), pos, nil)
		require.Error(t, err)
		assert.Equal(t, apperror.CodeMalformedBalance, apperror.GetCode(err))
	})

	t.Run("oracle failure", func(t *testing.T) {
		oracle := usdcWethOracle()
		oracle.err = errors.New("boom")

		_, _, err := NewProfitCalculator(oracle, testLogger()).Calculate(context.Background(), roundTrip(1), nil)
		require.Error(t, err)
	})
}

func TestCalculate_PoolVsHodlSign(t *testing.T) {
	for _, redeemUSDC := range []string{"90000000", "104000000", "110000000"} {
		pos := roundTrip(1)
		pos.Transactions[1].InputTokenAmounts[0] = bal(usdc, redeemUSDC)

		rec, _, err := NewProfitCalculator(usdcWethOracle(), testLogger()).Calculate(context.Background(), pos, nil)
		require.NoError(t, err)

		beatsHold := rec.RedemptionValue.GreaterThan(rec.RedemptionValueIfHeld)
		assert.Equal(t, beatsHold, rec.PoolVsHodlROI.IsPositive(), "redeemed %s", redeemUSDC)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	calc := NewProfitCalculator(usdcWethOracle(), testLogger())
	a, _, err := calc.Calculate(context.Background(), roundTrip(1), nil)
	require.NoError(t, err)
	b, _, err := calc.Calculate(context.Background(), roundTrip(1), nil)
	require.NoError(t, err)
	assert.Equal(t, a.Row(), b.Row())
}
