package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillDailySummaries = "2026-08-10_backfill_daily_summaries"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillDailySummaries, apply: backfillDailySummaries},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillDailySummaries creates summary rows for user/date pairs that have
// logged meals but were never rolled up.
func backfillDailySummaries(db *gorm.DB) error {
	const statement = `
INSERT INTO daily_summary (user_id, date, total_calories_consumed, total_calories_burned, net_calories, total_protein, total_fat, total_carbs)
SELECT m.user_id,
       m.date,
       COALESCE(SUM(m.calories), 0),
       COALESCE((SELECT SUM(a.calories_burned) FROM activities a WHERE a.user_id = m.user_id AND a.date = m.date), 0),
       COALESCE(SUM(m.calories), 0) - COALESCE((SELECT SUM(a.calories_burned) FROM activities a WHERE a.user_id = m.user_id AND a.date = m.date), 0),
       COALESCE(SUM(m.protein), 0),
       COALESCE(SUM(m.fat), 0),
       COALESCE(SUM(m.carbohydrates), 0)
FROM meals m
WHERE NOT EXISTS (
    SELECT 1 FROM daily_summary s WHERE s.user_id = m.user_id AND s.date = m.date
)
GROUP BY m.user_id, m.date`
	return db.Exec(statement).Error
}
