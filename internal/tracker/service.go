package tracker

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthtrackhq/backend/internal/nutrition"
	"github.com/healthtrackhq/backend/internal/vision"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("tracker: database handle is required")
	errMissingResolver = errors.New("tracker: nutrition resolver is required")

	// ErrActivityNotFound indicates the activity does not exist or belongs
	// to another user.
	ErrActivityNotFound = errors.New("tracker: activity not found")
	// ErrNoFoodIdentified indicates the analyzer answered but saw no food.
	ErrNoFoodIdentified = errors.New("tracker: no food identified in image")
	// ErrAnalyzerNotConfigured indicates photo analysis was requested
	// without an image recognition backend.
	ErrAnalyzerNotConfigured = errors.New("tracker: image analyzer not configured")
)

// ServiceConfig describes the dependencies of the tracker Service.
type ServiceConfig struct {
	Database *gorm.DB
	Resolver *nutrition.Resolver
	// Analyzer may be nil when no image recognition credential is
	// configured; photo meals are then rejected.
	Analyzer *vision.Analyzer
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns meal, activity and vitals records plus the daily summary
// rollup derived from them.
type Service struct {
	db       *gorm.DB
	resolver *nutrition.Resolver
	analyzer *vision.Analyzer
	clock    func() time.Time
	logger   *zap.Logger
}

// NewService constructs the tracker Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Resolver == nil {
		return nil, errMissingResolver
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       cfg.Database,
		resolver: cfg.Resolver,
		analyzer: cfg.Analyzer,
		clock:    clock,
		logger:   logger,
	}, nil
}

// MealInput carries a validated manual meal entry.
type MealInput struct {
	MealType      string
	FoodItems     string
	Calories      float64
	Protein       float64
	Fat           float64
	Carbohydrates float64
}

// AddMeal records a manual meal entry and resyncs the summary for its date.
func (s *Service) AddMeal(ctx context.Context, userID uint, date string, input MealInput) (Meal, error) {
	meal := Meal{
		UserID:        userID,
		Date:          date,
		MealType:      input.MealType,
		FoodItems:     input.FoodItems,
		Calories:      input.Calories,
		Protein:       input.Protein,
		Fat:           input.Fat,
		Carbohydrates: input.Carbohydrates,
		CreatedAt:     s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&meal).Error; err != nil {
		return Meal{}, fmt.Errorf("tracker: insert meal: %w", err)
	}
	if err := s.Resync(ctx, userID, date); err != nil {
		return Meal{}, err
	}
	s.logger.Info("meal added",
		zap.Uint("user_id", userID),
		zap.String("date", date),
		zap.String("meal_type", meal.MealType))
	return meal, nil
}

// ItemNutrition is the resolved nutrition of one identified food item at the
// chosen portion size.
type ItemNutrition struct {
	Food         string              `json:"food"`
	Nutrition    nutrition.Nutrition `json:"nutrition"`
	PortionGrams float64             `json:"portion_grams"`
}

// PhotoMealResult reports what a photo analysis produced.
type PhotoMealResult struct {
	Meal      Meal                `json:"-"`
	MealID    uint                `json:"meal_id"`
	FoodItems []string            `json:"food_items"`
	Breakdown []ItemNutrition     `json:"breakdown"`
	Total     nutrition.Nutrition `json:"nutrition"`
}

// AddMealFromPhoto identifies foods in the image, resolves each item's
// nutrition at the given portion multiplier (1.0 means 100g per item), stores
// the aggregated meal with the encoded image, and resyncs the summary.
func (s *Service) AddMealFromPhoto(ctx context.Context, userID uint, date, mealType string, imageBytes []byte, portionMultiplier float64) (PhotoMealResult, error) {
	if s.analyzer == nil {
		return PhotoMealResult{}, ErrAnalyzerNotConfigured
	}
	if portionMultiplier <= 0 {
		portionMultiplier = nutrition.ReferenceServingScale
	}

	foods, err := s.analyzer.IdentifyFoods(ctx, imageBytes)
	if err != nil {
		return PhotoMealResult{}, err
	}
	if len(foods) == 0 {
		return PhotoMealResult{}, ErrNoFoodIdentified
	}

	var total nutrition.Nutrition
	breakdown := make([]ItemNutrition, 0, len(foods))
	for _, food := range foods {
		adjusted := s.resolver.ResolvePer100g(ctx, food).Scale(portionMultiplier)
		breakdown = append(breakdown, ItemNutrition{
			Food:         food,
			Nutrition:    adjusted,
			PortionGrams: portionMultiplier * 100,
		})
		total.Calories += adjusted.Calories
		total.Protein += adjusted.Protein
		total.Fat += adjusted.Fat
		total.Carbohydrates += adjusted.Carbohydrates
	}

	meal := Meal{
		UserID:        userID,
		Date:          date,
		MealType:      mealType,
		FoodItems:     strings.Join(foods, ", "),
		Calories:      total.Calories,
		Protein:       total.Protein,
		Fat:           total.Fat,
		Carbohydrates: total.Carbohydrates,
		ImageData:     base64.StdEncoding.EncodeToString(imageBytes),
		CreatedAt:     s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&meal).Error; err != nil {
		return PhotoMealResult{}, fmt.Errorf("tracker: insert photo meal: %w", err)
	}
	if err := s.Resync(ctx, userID, date); err != nil {
		return PhotoMealResult{}, err
	}

	s.logger.Info("photo meal added",
		zap.Uint("user_id", userID),
		zap.String("date", date),
		zap.Strings("foods", foods),
		zap.Float64("portion_multiplier", portionMultiplier),
		zap.Float64("calories", total.Calories))
	return PhotoMealResult{
		Meal:      meal,
		MealID:    meal.ID,
		FoodItems: foods,
		Breakdown: breakdown,
		Total:     total,
	}, nil
}

// MealsForDate lists a day's meals in breakfast, lunch, snacks, dinner order.
func (s *Service) MealsForDate(ctx context.Context, userID uint, date string) ([]Meal, error) {
	var meals []Meal
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("CASE meal_type WHEN 'breakfast' THEN 1 WHEN 'lunch' THEN 2 WHEN 'snacks' THEN 3 WHEN 'dinner' THEN 4 END").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("tracker: list meals: %w", err)
	}
	return meals, nil
}

// ActivityInput carries a validated activity entry.
type ActivityInput struct {
	ActivityName    string
	DurationMinutes int
	CaloriesBurned  float64
	Notes           string
}

// AddActivity records an exercise entry and resyncs the summary for its date.
func (s *Service) AddActivity(ctx context.Context, userID uint, date string, input ActivityInput) (Activity, error) {
	activity := Activity{
		UserID:          userID,
		Date:            date,
		ActivityName:    input.ActivityName,
		DurationMinutes: input.DurationMinutes,
		CaloriesBurned:  input.CaloriesBurned,
		Notes:           input.Notes,
		CreatedAt:       s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		return Activity{}, fmt.Errorf("tracker: insert activity: %w", err)
	}
	if err := s.Resync(ctx, userID, date); err != nil {
		return Activity{}, err
	}
	s.logger.Info("activity added",
		zap.Uint("user_id", userID),
		zap.String("date", date),
		zap.String("activity", input.ActivityName))
	return activity, nil
}

// DeleteActivity removes the user's activity and resyncs the summary for the
// date it was logged on.
func (s *Service) DeleteActivity(ctx context.Context, userID, activityID uint) error {
	var activity Activity
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", activityID, userID).
		Take(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrActivityNotFound
	}
	if err != nil {
		return fmt.Errorf("tracker: load activity: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&Activity{}, activity.ID).Error; err != nil {
		return fmt.Errorf("tracker: delete activity: %w", err)
	}
	if err := s.Resync(ctx, userID, activity.Date); err != nil {
		return err
	}
	s.logger.Info("activity deleted",
		zap.Uint("user_id", userID),
		zap.Uint("activity_id", activityID),
		zap.String("date", activity.Date))
	return nil
}

// ActivitiesForDate lists a day's activities, newest first.
func (s *Service) ActivitiesForDate(ctx context.Context, userID uint, date string) ([]Activity, error) {
	var activities []Activity
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at DESC").
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("tracker: list activities: %w", err)
	}
	return activities, nil
}

// AddVitals records a body-composition measurement.
func (s *Service) AddVitals(ctx context.Context, vitals Vitals) (Vitals, error) {
	if err := s.db.WithContext(ctx).Create(&vitals).Error; err != nil {
		return Vitals{}, fmt.Errorf("tracker: insert vitals: %w", err)
	}
	s.logger.Info("vitals added",
		zap.Uint("user_id", vitals.UserID),
		zap.String("date", vitals.Date))
	return vitals, nil
}

// VitalsRange lists vitals entries between two dates inclusive, oldest first.
func (s *Service) VitalsRange(ctx context.Context, userID uint, from, to string) ([]Vitals, error) {
	var vitals []Vitals
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Order("date ASC").
		Find(&vitals).Error
	if err != nil {
		return nil, fmt.Errorf("tracker: list vitals: %w", err)
	}
	return vitals, nil
}
