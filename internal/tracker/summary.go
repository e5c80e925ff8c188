package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mealTotals mirrors the aggregate projection over the meals table.
type mealTotals struct {
	Calories      float64
	Protein       float64
	Fat           float64
	Carbohydrates float64
}

// Resync recomputes the daily summary for one user and date from the
// underlying meal and activity rows and upserts it. Absent rows sum to zero.
// This is the only path that writes daily_summary; it must run after every
// meal insertion and every activity insertion or deletion for the date.
func (s *Service) Resync(ctx context.Context, userID uint, date string) error {
	var meals mealTotals
	err := s.db.WithContext(ctx).Model(&Meal{}).
		Select("COALESCE(SUM(calories), 0) AS calories, COALESCE(SUM(protein), 0) AS protein, COALESCE(SUM(fat), 0) AS fat, COALESCE(SUM(carbohydrates), 0) AS carbohydrates").
		Where("user_id = ? AND date = ?", userID, date).
		Scan(&meals).Error
	if err != nil {
		return fmt.Errorf("tracker: sum meals: %w", err)
	}

	var burned float64
	err = s.db.WithContext(ctx).Model(&Activity{}).
		Select("COALESCE(SUM(calories_burned), 0)").
		Where("user_id = ? AND date = ?", userID, date).
		Scan(&burned).Error
	if err != nil {
		return fmt.Errorf("tracker: sum activities: %w", err)
	}

	summary := DailySummary{
		UserID:                userID,
		Date:                  date,
		TotalCaloriesConsumed: meals.Calories,
		TotalCaloriesBurned:   burned,
		NetCalories:           meals.Calories - burned,
		TotalProtein:          meals.Protein,
		TotalFat:              meals.Fat,
		TotalCarbs:            meals.Carbohydrates,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_calories_consumed", "total_calories_burned", "net_calories",
			"total_protein", "total_fat", "total_carbs",
		}),
	}).Create(&summary).Error
	if err != nil {
		return fmt.Errorf("tracker: upsert daily summary: %w", err)
	}

	s.logger.Debug("daily summary resynced",
		zap.Uint("user_id", userID),
		zap.String("date", date),
		zap.Float64("consumed", summary.TotalCaloriesConsumed),
		zap.Float64("burned", summary.TotalCaloriesBurned))
	return nil
}

// GetOrCreate returns the summary for the user and date, materializing it
// with a resync when absent. Dates with no underlying records yield an
// all-zero summary.
func (s *Service) GetOrCreate(ctx context.Context, userID uint, date string) (DailySummary, error) {
	var summary DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Take(&summary).Error
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DailySummary{}, fmt.Errorf("tracker: load daily summary: %w", err)
	}

	if err := s.Resync(ctx, userID, date); err != nil {
		return DailySummary{}, err
	}
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Take(&summary).Error
	if err != nil {
		return DailySummary{}, fmt.Errorf("tracker: reload daily summary: %w", err)
	}
	return summary, nil
}

// MonthSummaries returns the summary rows for the calendar month, ordered by
// date. Only materialized days appear; days without any writes are absent.
func (s *Service) MonthSummaries(ctx context.Context, userID uint, year, month int) ([]DailySummary, error) {
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	var end string
	if month == 12 {
		end = fmt.Sprintf("%04d-01-01", year+1)
	} else {
		end = fmt.Sprintf("%04d-%02d-01", year, month+1)
	}

	var summaries []DailySummary
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("tracker: list month summaries: %w", err)
	}
	return summaries, nil
}

// RemainingCalories is the user's calorie budget left for the day. Pure
// arithmetic over the summary; never persisted.
func RemainingCalories(summary DailySummary, targetCalories int) float64 {
	return float64(targetCalories) - (summary.TotalCaloriesConsumed - summary.TotalCaloriesBurned)
}
