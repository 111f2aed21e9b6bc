package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	"github.com/SimpleFi-finance/defi-analytics/business/profitability/domain"
	"github.com/SimpleFi-finance/defi-analytics/internal/apperror"
	"github.com/SimpleFi-finance/defi-analytics/internal/config"
	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

const batchSize = 500

var _ app.RecordSink = (*Store)(nil)

// Store upserts records keyed by dataset and starting fragment id.
type Store struct {
	db  *gorm.DB
	log logger.LoggerInterface
}

// Open connects and migrates the schema.
func Open(cfg config.DatabaseConfig, log logger.LoggerInterface) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:      gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, apperror.External(apperror.CodeServiceUnavailable, "postgres", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperror.External(apperror.CodeServiceUnavailable, "postgres", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)
	}

	if err := db.AutoMigrate(&RecordRow{}, &CollectedTarget{}); err != nil {
		return nil, apperror.New(apperror.CodeSinkWriteFailed, apperror.WithCause(err), apperror.WithContext("migrate"))
	}

	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Exists(ctx context.Context, t app.Target) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&CollectedTarget{}).
		Where("dataset = ? AND name = ?", t.Dataset, t.Name).
		Count(&n).Error
	if err != nil {
		return false, apperror.New(apperror.CodeSinkWriteFailed, apperror.WithCause(err), apperror.WithContextf("lookup %s/%s", t.Dataset, t.Name))
	}
	return n > 0, nil
}

// Write upserts records and marks t collected in one transaction.
func (s *Store) Write(ctx context.Context, t app.Target, records []*domain.Record) error {
	rows := uniqueRows(t, records)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := tx.Clauses(upsertRecords()).CreateInBatches(&rows, batchSize).Error; err != nil {
				return err
			}
		}
		done := CollectedTarget{
			Dataset:     t.Dataset,
			Name:        t.Name,
			Market:      strings.ToLower(t.Market.Hex()),
			Records:     len(rows),
			CollectedAt: time.Now().UTC(),
		}
		return tx.Clauses(upsertCollected()).Create(&done).Error
	})
	if err != nil {
		return apperror.New(apperror.CodeSinkWriteFailed, apperror.WithCause(err), apperror.WithContextf("write %s/%s", t.Dataset, t.Name))
	}

	s.log.Info(ctx, "records stored", "dataset", t.Dataset, "name", t.Name, "records", len(rows))
	return nil
}

// uniqueRows maps records to rows, keeping the last record per position so
// one batch never hits the same conflict key twice.
func uniqueRows(t app.Target, records []*domain.Record) []RecordRow {
	rows := make([]RecordRow, 0, len(records))
	at := make(map[string]int, len(records))
	for _, r := range records {
		row := toRow(t, r)
		if i, dup := at[row.Position]; dup {
			rows[i] = row
			continue
		}
		at[row.Position] = len(rows)
		rows = append(rows, row)
	}
	return rows
}

func upsertRecords() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "dataset"}, {Name: "position"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "account", "market", "start_block", "end_block", "start_date", "end_date", "token_a", "token_b",
			"investment_value", "redemption_value", "redemption_value_if_held",
			"pool_net_gain", "hodl_net_gain", "pool_roi", "hodl_roi", "pool_vs_hodl_roi",
			"claimed_rewards_usd", "tx_count", "updated_at",
		}),
	}
}

func upsertCollected() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "dataset"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"market", "records", "collected_at"}),
	}
}
