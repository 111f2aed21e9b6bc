package domain

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func TestRecordRow(t *testing.T) {
	r := &Record{
		Account:    common.HexToAddress("0x0000000000000D9054F605cA65A2647c2B521422"),
		Market:     common.HexToAddress("0x397FF1542f962076d0BFE58eA045FfA2d347ACa0"),
		StartBlock: 100,
		EndBlock:   250,
		StartDate:  time.Date(2021, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)),
		EndDate:    time.Unix(1617235200, 0),
		TokenA:     common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		TokenB:     common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),

		InvestmentValue:       decimal.RequireFromString("200"),
		RedemptionValue:       decimal.RequireFromString("216"),
		RedemptionValueIfHeld: decimal.RequireFromString("210"),
		PoolNetGain:           decimal.RequireFromString("16"),
		HodlNetGain:           decimal.RequireFromString("10"),
		PoolROI:               decimal.RequireFromString("0.08"),
		HodlROI:               decimal.RequireFromString("0.05"),
		PoolVsHodlROI:         decimal.RequireFromString("0.0285714286"),
		ClaimedRewardsUSD:     decimal.RequireFromString("12.5"),
		TxCount:               3,
	}

	row := r.Row()
	if len(row) != len(Header) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(Header))
	}

	want := map[string]string{
		"account":                   "0x0000000000000d9054f605ca65a2647c2b521422",
		"market":                    "0x397ff1542f962076d0bfe58ea045ffa2d347aca0",
		"position_start_block":      "100",
		"position_end_block":        "250",
		"position_start_date":       "2021-03-01 11:00:00",
		"position_end_date":         "2021-04-01 00:00:00",
		"tokenA":                    "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"position_investment_value": "200",
		"pool_roi":                  "0.08",
		"pool_vs_hodl_roi":          "0.0285714286",
		"claimed_rewards_in_USD":    "12.5",
		"tx_count":                  "3",
	}
	for i, col := range Header {
		if w, ok := want[col]; ok && row[i] != w {
			t.Errorf("%s = %q, want %q", col, row[i], w)
		}
	}
}

func TestBatchStatsSkip(t *testing.T) {
	var s BatchStats
	s.Skip(SkipSameDate)
	s.Skip(SkipUnpriced)
	s.Skip(SkipUnpriced)
	s.Skip(NotSkipped)

	if s.SkippedSameDate != 1 || s.SkippedUnpriced != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.Skipped() != 3 {
		t.Errorf("Skipped() = %d, want 3", s.Skipped())
	}
}
