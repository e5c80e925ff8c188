package accounts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/healthtrackhq/backend/internal/tracker"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:accounts_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&User{}, &tracker.Meal{}, &tracker.Activity{}, &tracker.Vitals{}, &tracker.DailySummary{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDatabase(t)
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, db
}

func mustRegister(t *testing.T, service *Service, username, password string) User {
	t.Helper()
	user, err := service.Register(context.Background(), RegisterInput{Username: username, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

func TestRegisterHashesPasswordAndDefaults(t *testing.T) {
	service, _ := newTestService(t)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "secret123",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if user.Name != "alice" {
		t.Fatalf("expected name to default to username, got %q", user.Name)
	}
	if user.TargetCalories != DefaultTargetCalories {
		t.Fatalf("expected default target %d, got %d", DefaultTargetCalories, user.TargetCalories)
	}
	if user.Email == nil || *user.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %v", user.Email)
	}
}

func TestRegisterValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"empty username", RegisterInput{Username: "", Password: "secret123"}},
		{"short username", RegisterInput{Username: "ab", Password: "secret123"}},
		{"bad characters", RegisterInput{Username: "bad name!", Password: "secret123"}},
		{"short password", RegisterInput{Username: "bob", Password: "12345"}},
		{"bad email", RegisterInput{Username: "bob", Password: "secret123", Email: "not-an-email"}},
	}
	for _, tc := range cases {
		if _, err := service.Register(ctx, tc.input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, RegisterInput{Username: "carol", Password: "secret123", Email: "carol@example.com"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := service.Register(ctx, RegisterInput{Username: "carol", Password: "other456"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: expected ErrUserExists, got %v", err)
	}
	if _, err := service.Register(ctx, RegisterInput{Username: "carol2", Password: "other456", Email: "carol@example.com"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate email: expected ErrUserExists, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	registered := mustRegister(t, service, "dave", "secret123")

	user, err := service.Authenticate(ctx, "dave", "secret123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %d, got %d", registered.ID, user.ID)
	}

	if _, err := service.Authenticate(ctx, "dave", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Authenticate(ctx, "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := mustRegister(t, service, "erin", "secret123")

	name := "Erin Appleton"
	age := 34
	height := 172.5
	target := 1800
	profile, err := service.UpdateProfile(ctx, user.ID, ProfileUpdate{
		Name:           &name,
		Age:            &age,
		Height:         &height,
		TargetCalories: &target,
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.Name != name || profile.Age != age || profile.Height != height || profile.TargetCalories != target {
		t.Fatalf("unexpected profile after update: %+v", profile)
	}

	reloaded, err := service.Profile(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if reloaded.TargetCalories != target {
		t.Fatalf("expected persisted target %d, got %d", target, reloaded.TargetCalories)
	}
}

func TestUpdateProfileRangeValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := mustRegister(t, service, "frank", "secret123")

	badAge := 0
	if _, err := service.UpdateProfile(ctx, user.ID, ProfileUpdate{Age: &badAge}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("age 0: expected ErrInvalidInput, got %v", err)
	}
	badHeight := 40.0
	if _, err := service.UpdateProfile(ctx, user.ID, ProfileUpdate{Height: &badHeight}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("height 40: expected ErrInvalidInput, got %v", err)
	}
	badTarget := 200
	if _, err := service.UpdateProfile(ctx, user.ID, ProfileUpdate{TargetCalories: &badTarget}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("target 200: expected ErrInvalidInput, got %v", err)
	}

	profile, err := service.Profile(ctx, user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.TargetCalories != DefaultTargetCalories {
		t.Fatalf("rejected update must not change target, got %d", profile.TargetCalories)
	}
}

func TestDeleteCascades(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := mustRegister(t, service, "grace", "secret123")
	other := mustRegister(t, service, "henry", "secret123")

	seed := []interface{}{
		&tracker.Meal{UserID: user.ID, Date: "2026-08-01", MealType: tracker.MealTypeBreakfast, FoodItems: "oatmeal", Calories: 150},
		&tracker.Activity{UserID: user.ID, Date: "2026-08-01", ActivityName: "run", CaloriesBurned: 200},
		&tracker.Vitals{UserID: user.ID, Date: "2026-08-01", Weight: 70},
		&tracker.DailySummary{UserID: user.ID, Date: "2026-08-01", TotalCaloriesConsumed: 150},
		&tracker.Meal{UserID: other.ID, Date: "2026-08-01", MealType: tracker.MealTypeLunch, FoodItems: "salad", Calories: 120},
	}
	for _, row := range seed {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := service.Delete(ctx, "grace"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := service.ByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	for _, model := range []interface{}{&tracker.Meal{}, &tracker.Activity{}, &tracker.Vitals{}, &tracker.DailySummary{}} {
		var count int64
		if err := db.Model(model).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected no rows for deleted user in %T, got %d", model, count)
		}
	}
	var otherMeals int64
	if err := db.Model(&tracker.Meal{}).Where("user_id = ?", other.ID).Count(&otherMeals).Error; err != nil {
		t.Fatalf("count other: %v", err)
	}
	if otherMeals != 1 {
		t.Fatalf("delete must not touch other users, got %d meals", otherMeals)
	}

	if err := service.Delete(ctx, "grace"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("second delete: expected ErrUserNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()
	user := mustRegister(t, service, "irene", "secret123")

	seed := []interface{}{
		&tracker.Meal{UserID: user.ID, Date: "2026-08-01", MealType: tracker.MealTypeBreakfast, FoodItems: "toast", Calories: 180},
		&tracker.Meal{UserID: user.ID, Date: "2026-08-02", MealType: tracker.MealTypeDinner, FoodItems: "pasta", Calories: 600},
		&tracker.Activity{UserID: user.ID, Date: "2026-08-01", ActivityName: "walk", CaloriesBurned: 120},
		&tracker.Vitals{UserID: user.ID, Date: "2026-08-01", Weight: 71.2},
		&tracker.Vitals{UserID: user.ID, Date: "2026-08-03", Weight: 70.4},
		&tracker.DailySummary{UserID: user.ID, Date: "2026-08-01", TotalCaloriesConsumed: 180},
		&tracker.DailySummary{UserID: user.ID, Date: "2026-08-02", TotalCaloriesConsumed: 600},
	}
	for _, row := range seed {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	stats, err := service.Stats(ctx, "irene")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MealCount != 2 || stats.ActivityCount != 1 || stats.VitalsCount != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.HasWeight || stats.LatestWeight != 70.4 {
		t.Fatalf("expected latest weight 70.4, got %+v", stats)
	}
	if !stats.HasAverage || stats.AverageCalories != 390 {
		t.Fatalf("expected average 390, got %+v", stats)
	}
}

func TestStatsEmptyUser(t *testing.T) {
	service, _ := newTestService(t)
	mustRegister(t, service, "jules", "secret123")

	stats, err := service.Stats(context.Background(), "jules")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.HasWeight || stats.HasAverage {
		t.Fatalf("expected no weight or average for fresh user: %+v", stats)
	}
	if _, err := service.Stats(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
