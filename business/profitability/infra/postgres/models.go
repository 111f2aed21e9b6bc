// Package postgres stores profitability records with gorm.
package postgres

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
)

// RecordRow is one position's profitability. (dataset, position) is unique;
// the position id embeds account and market.
type RecordRow struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Dataset    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_lp_record_key,priority:1"`
	Position   string `gorm:"type:varchar(160);not null;uniqueIndex:idx_lp_record_key,priority:2"`
	Account    string `gorm:"type:char(42);not null;index"`
	Market     string `gorm:"type:char(42);not null;index"`
	StartBlock uint64 `gorm:"not null"`
	EndBlock   uint64 `gorm:"not null"`
	Name       string `gorm:"type:varchar(64);index"`

	StartDate time.Time `gorm:"type:timestamptz;not null"`
	EndDate   time.Time `gorm:"type:timestamptz;not null"`
	TokenA    string    `gorm:"type:char(42)"`
	TokenB    string    `gorm:"type:char(42)"`

	InvestmentValue       decimal.Decimal `gorm:"type:numeric"`
	RedemptionValue       decimal.Decimal `gorm:"type:numeric"`
	RedemptionValueIfHeld decimal.Decimal `gorm:"type:numeric"`
	PoolNetGain           decimal.Decimal `gorm:"type:numeric"`
	HodlNetGain           decimal.Decimal `gorm:"type:numeric"`
	PoolROI               decimal.Decimal `gorm:"column:pool_roi;type:numeric"`
	HodlROI               decimal.Decimal `gorm:"column:hodl_roi;type:numeric"`
	PoolVsHodlROI         decimal.Decimal `gorm:"column:pool_vs_hodl_roi;type:numeric"`
	ClaimedRewardsUSD     decimal.Decimal `gorm:"column:claimed_rewards_usd;type:numeric"`
	TxCount               int

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (RecordRow) TableName() string { return "lp_profitability_records" }

// CollectedTarget marks a target as collected, including markets that
// produced no records.
type CollectedTarget struct {
	Dataset     string    `gorm:"type:varchar(64);primaryKey"`
	Name        string    `gorm:"type:varchar(64);primaryKey"`
	Market      string    `gorm:"type:char(42);not null"`
	Records     int       `gorm:"not null"`
	CollectedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (CollectedTarget) TableName() string { return "lp_collected_targets" }

func toRow(t app.Target, r *domain.Record) RecordRow {
	return RecordRow{
		Dataset:               t.Dataset,
		Name:                  t.Name,
		Position:              r.Position,
		Account:               strings.ToLower(r.Account.Hex()),
		Market:                strings.ToLower(r.Market.Hex()),
		StartBlock:            r.StartBlock,
		EndBlock:              r.EndBlock,
		StartDate:             r.StartDate.UTC(),
		EndDate:               r.EndDate.UTC(),
		TokenA:                strings.ToLower(r.TokenA.Hex()),
		TokenB:                strings.ToLower(r.TokenB.Hex()),
		InvestmentValue:       r.InvestmentValue,
		RedemptionValue:       r.RedemptionValue,
		RedemptionValueIfHeld: r.RedemptionValueIfHeld,
		PoolNetGain:           r.PoolNetGain,
		HodlNetGain:           r.HodlNetGain,
		PoolROI:               r.PoolROI,
		HodlROI:               r.HodlROI,
		PoolVsHodlROI:         r.PoolVsHodlROI,
		ClaimedRewardsUSD:     r.ClaimedRewardsUSD,
		TxCount:               r.TxCount,
	}
}
