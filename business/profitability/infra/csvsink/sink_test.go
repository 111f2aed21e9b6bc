package csvsink

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

func record(block uint64) *domain.Record {
	return &domain.Record{
		Account:         common.HexToAddress("0x01"),
		Market:          common.HexToAddress("0x397ff1542f962076d0bfe58ea045ffa2d347aca0"),
		StartBlock:      block,
		EndBlock:        block + 10,
		StartDate:       time.Unix(1614556800, 0),
		EndDate:         time.Unix(1614643200, 0),
		InvestmentValue: decimal.NewFromInt(200),
		PoolROI:         decimal.RequireFromString("0.08"),
		TxCount:         2,
	}
}

func TestSink(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := New(dir, logger.New(io.Discard, logger.LevelError, "test", nil))
	target := app.Target{Dataset: "top20_tvl", Name: "USDC_WETH"}

	exists, err := sink.Exists(ctx, target)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, sink.Write(ctx, target, []*domain.Record{record(100), record(200)}))

	path := filepath.Join(dir, "top20_tvl", "USDC_WETH.csv")
	assert.Equal(t, path, sink.Path(target))

	exists, err = sink.Exists(ctx, target)
	require.NoError(t, err)
	assert.True(t, exists)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Header, rows[0])
	assert.Equal(t, "100", rows[1][2])
	assert.Equal(t, "2021-03-01 00:00:00", rows[1][4])
	assert.Equal(t, "200", rows[2][2])

	leftovers, err := filepath.Glob(filepath.Join(dir, "top20_tvl", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSink_EmptyMarketStillMarksDone(t *testing.T) {
	ctx := context.Background()
	sink := New(t.TempDir(), logger.New(io.Discard, logger.LevelError, "test", nil))
	target := app.Target{Dataset: "adhoc", Name: "EMPTY"}

	require.NoError(t, sink.Write(ctx, target, nil))

	exists, err := sink.Exists(ctx, target)
	require.NoError(t, err)
	assert.True(t, exists)
}
