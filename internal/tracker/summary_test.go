package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/healthtrackhq/backend/internal/cache"
	"github.com/healthtrackhq/backend/internal/nutrition"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:tracker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	err = db.AutoMigrate(&Meal{}, &Activity{}, &Vitals{}, &DailySummary{}, &cache.Entry{}, &nutrition.FoodFact{})
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	resolver, err := nutrition.NewResolver(nutrition.ResolverConfig{Database: db})
	if err != nil {
		t.Fatalf("unexpected resolver error: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db, Resolver: resolver})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func TestResyncSumsMealsAndActivities(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)
	ctx := context.Background()

	meals := []Meal{
		{UserID: 1, Date: "2024-01-01", MealType: MealTypeBreakfast, Calories: 300, Protein: 20, Fat: 10, Carbohydrates: 30},
		{UserID: 1, Date: "2024-01-01", MealType: MealTypeDinner, Calories: 450, Protein: 35, Fat: 12, Carbohydrates: 40},
		{UserID: 1, Date: "2024-01-02", MealType: MealTypeLunch, Calories: 999},
		{UserID: 2, Date: "2024-01-01", MealType: MealTypeLunch, Calories: 700},
	}
	for i := range meals {
		if err := db.Create(&meals[i]).Error; err != nil {
			t.Fatalf("failed to seed meal: %v", err)
		}
	}
	activities := []Activity{
		{UserID: 1, Date: "2024-01-01", ActivityName: "run", CaloriesBurned: 250},
		{UserID: 1, Date: "2024-01-01", ActivityName: "walk", CaloriesBurned: 100},
		{UserID: 1, Date: "2024-01-02", ActivityName: "swim", CaloriesBurned: 400},
	}
	for i := range activities {
		if err := db.Create(&activities[i]).Error; err != nil {
			t.Fatalf("failed to seed activity: %v", err)
		}
	}

	if err := service.Resync(ctx, 1, "2024-01-01"); err != nil {
		t.Fatalf("unexpected resync error: %v", err)
	}

	var summary DailySummary
	if err := db.Where("user_id = ? AND date = ?", 1, "2024-01-01").Take(&summary).Error; err != nil {
		t.Fatalf("expected summary row: %v", err)
	}
	if summary.TotalCaloriesConsumed != 750 {
		t.Fatalf("expected consumed 750, got %v", summary.TotalCaloriesConsumed)
	}
	if summary.TotalCaloriesBurned != 350 {
		t.Fatalf("expected burned 350, got %v", summary.TotalCaloriesBurned)
	}
	if summary.NetCalories != 400 {
		t.Fatalf("expected net 400, got %v", summary.NetCalories)
	}
	if summary.TotalProtein != 55 || summary.TotalFat != 22 || summary.TotalCarbs != 70 {
		t.Fatalf("unexpected macro totals: %+v", summary)
	}
}

func TestResyncEmptyDateYieldsZeroSummary(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)

	if err := service.Resync(context.Background(), 7, "2024-03-15"); err != nil {
		t.Fatalf("unexpected resync error: %v", err)
	}

	var summary DailySummary
	if err := db.Where("user_id = ? AND date = ?", 7, "2024-03-15").Take(&summary).Error; err != nil {
		t.Fatalf("expected materialized summary: %v", err)
	}
	if summary.TotalCaloriesConsumed != 0 || summary.TotalCaloriesBurned != 0 || summary.NetCalories != 0 {
		t.Fatalf("expected all-zero summary, got %+v", summary)
	}
}

func TestResyncIsIdempotentAndOverwrites(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)
	ctx := context.Background()

	if err := db.Create(&Meal{UserID: 1, Date: "2024-01-01", MealType: MealTypeLunch, Calories: 500}).Error; err != nil {
		t.Fatalf("failed to seed meal: %v", err)
	}
	if err := service.Resync(ctx, 1, "2024-01-01"); err != nil {
		t.Fatalf("unexpected resync error: %v", err)
	}
	if err := db.Create(&Meal{UserID: 1, Date: "2024-01-01", MealType: MealTypeDinner, Calories: 300}).Error; err != nil {
		t.Fatalf("failed to seed meal: %v", err)
	}
	if err := service.Resync(ctx, 1, "2024-01-01"); err != nil {
		t.Fatalf("unexpected second resync error: %v", err)
	}

	var count int64
	if err := db.Model(&DailySummary{}).Where("user_id = ? AND date = ?", 1, "2024-01-01").Count(&count).Error; err != nil {
		t.Fatalf("failed to count summaries: %v", err)
	}
	if count != 1 {
		t.Fatalf("resync must keep one row per user+date, got %d", count)
	}

	var summary DailySummary
	if err := db.Where("user_id = ? AND date = ?", 1, "2024-01-01").Take(&summary).Error; err != nil {
		t.Fatalf("expected summary row: %v", err)
	}
	if summary.TotalCaloriesConsumed != 800 {
		t.Fatalf("expected overwritten total 800, got %v", summary.TotalCaloriesConsumed)
	}
}

func TestMealThenActivityScenario(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)
	ctx := context.Background()

	_, err := service.AddMeal(ctx, 1, "2024-01-01", MealInput{MealType: MealTypeLunch, FoodItems: "pasta", Calories: 500})
	if err != nil {
		t.Fatalf("unexpected meal error: %v", err)
	}
	_, err = service.AddActivity(ctx, 1, "2024-01-01", ActivityInput{ActivityName: "cycling", DurationMinutes: 40, CaloriesBurned: 200})
	if err != nil {
		t.Fatalf("unexpected activity error: %v", err)
	}

	summary, err := service.GetOrCreate(ctx, 1, "2024-01-01")
	if err != nil {
		t.Fatalf("unexpected summary error: %v", err)
	}
	if summary.NetCalories != 300 {
		t.Fatalf("expected net calories 300, got %v", summary.NetCalories)
	}
}

func TestDeleteOnlyActivityResyncsToZeroBurned(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)
	ctx := context.Background()

	_, err := service.AddMeal(ctx, 1, "2024-01-01", MealInput{MealType: MealTypeBreakfast, FoodItems: "eggs", Calories: 420})
	if err != nil {
		t.Fatalf("unexpected meal error: %v", err)
	}
	activity, err := service.AddActivity(ctx, 1, "2024-01-01", ActivityInput{ActivityName: "run", CaloriesBurned: 180})
	if err != nil {
		t.Fatalf("unexpected activity error: %v", err)
	}

	if err := service.DeleteActivity(ctx, 1, activity.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}

	summary, err := service.GetOrCreate(ctx, 1, "2024-01-01")
	if err != nil {
		t.Fatalf("unexpected summary error: %v", err)
	}
	if summary.TotalCaloriesBurned != 0 {
		t.Fatalf("expected zero burned after deletion, got %v", summary.TotalCaloriesBurned)
	}
	if summary.NetCalories != summary.TotalCaloriesConsumed {
		t.Fatalf("expected net equal to consumed, got %+v", summary)
	}
}

func TestGetOrCreateMaterializesLazily(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)
	ctx := context.Background()

	if err := db.Create(&Meal{UserID: 3, Date: "2024-02-10", MealType: MealTypeSnacks, Calories: 150}).Error; err != nil {
		t.Fatalf("failed to seed meal: %v", err)
	}

	// No summary row exists yet; the read must create one from the
	// underlying records.
	summary, err := service.GetOrCreate(ctx, 3, "2024-02-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalCaloriesConsumed != 150 {
		t.Fatalf("expected lazily computed total 150, got %v", summary.TotalCaloriesConsumed)
	}

	again, err := service.GetOrCreate(ctx, 3, "2024-02-10")
	if err != nil {
		t.Fatalf("unexpected error on second read: %v", err)
	}
	if again != summary {
		t.Fatalf("second read must return the stored row: %+v vs %+v", again, summary)
	}
}

func TestMonthSummariesBoundaries(t *testing.T) {
	db := newTestDatabase(t)
	service := newTestService(t, db)
	ctx := context.Background()

	dates := []string{"2023-12-31", "2024-01-01", "2024-01-15", "2024-01-31", "2024-02-01"}
	for _, date := range dates {
		if err := db.Create(&DailySummary{UserID: 1, Date: date, TotalCaloriesConsumed: 100}).Error; err != nil {
			t.Fatalf("failed to seed summary: %v", err)
		}
	}

	summaries, err := service.MonthSummaries(ctx, 1, 2024, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 January rows, got %d", len(summaries))
	}
	if summaries[0].Date != "2024-01-01" || summaries[2].Date != "2024-01-31" {
		t.Fatalf("unexpected ordering: %+v", summaries)
	}

	december, err := service.MonthSummaries(ctx, 1, 2023, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(december) != 1 || december[0].Date != "2023-12-31" {
		t.Fatalf("year rollover boundary failed: %+v", december)
	}
}

func TestRemainingCalories(t *testing.T) {
	summary := DailySummary{TotalCaloriesConsumed: 1800, TotalCaloriesBurned: 300}
	if got := RemainingCalories(summary, 2000); got != 500 {
		t.Fatalf("expected 500 remaining, got %v", got)
	}
	if got := RemainingCalories(DailySummary{}, 2000); got != 2000 {
		t.Fatalf("expected full budget for empty summary, got %v", got)
	}
}
