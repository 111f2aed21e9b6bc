package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/health"
)

type memorySink struct {
	existing map[string]bool
	written  map[string][]*domain.Record
	writeErr error
}

func newMemorySink(existing ...string) *memorySink {
	s := &memorySink{existing: map[string]bool{}, written: map[string][]*domain.Record{}}
	for _, name := range existing {
		s.existing[name] = true
	}
	return s
}

func (s *memorySink) Exists(ctx context.Context, t Target) (bool, error) {
	return s.existing[t.Name], nil
}

func (s *memorySink) Write(ctx context.Context, t Target, records []*domain.Record) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written[t.Name] = records
	return nil
}

type progressLog struct {
	updates []health.Progress
}

func (p *progressLog) SetProgress(pr health.Progress) {
	p.updates = append(p.updates, pr)
}

func TestCollect(t *testing.T) {
	broken := common.HexToAddress("0xbad")
	src := marketFixture()
	src.failMarket = broken

	sink := newMemorySink("DAI_WETH")
	progress := &progressLog{}
	c := NewCollector(newTestAnalyzer(t, src, rewardOracle(), AnalyzerConfig{}), sink, progress, testLogger())

	targets := []Target{
		{Dataset: "stablecoin", Name: "DAI_WETH", Market: market},
		{Dataset: "stablecoin", Name: "BROKEN", Market: broken},
		{Dataset: "stablecoin", Name: "USDC_WETH", Market: market},
	}
	sum, err := c.Collect(context.Background(), targets)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BROKEN")
	assert.Equal(t, Summary{Collected: 1, Skipped: 1, Failed: 1, Records: 1}, sum)

	assert.NotContains(t, sink.written, "DAI_WETH")
	assert.NotContains(t, sink.written, "BROKEN")
	assert.Len(t, sink.written["USDC_WETH"], 1)

	require.NotEmpty(t, progress.updates)
	final := progress.updates[len(progress.updates)-1]
	assert.Equal(t, health.Progress{Done: 3, Failed: 1, Total: 3}, final)
}

func TestCollect_WriteFailure(t *testing.T) {
	sink := newMemorySink()
	sink.writeErr = errors.New("disk full")
	c := NewCollector(newTestAnalyzer(t, marketFixture(), rewardOracle(), AnalyzerConfig{}), sink, nil, testLogger())

	sum, err := c.Collect(context.Background(), []Target{{Name: "USDC_WETH", Market: market}})
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, sum.Failed)
	assert.Zero(t, sum.Collected)
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := newMemorySink()
	c := NewCollector(newTestAnalyzer(t, marketFixture(), rewardOracle(), AnalyzerConfig{}), sink, nil, testLogger())

	_, err := c.Collect(ctx, []Target{{Name: "USDC_WETH", Market: market}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.written)
}
