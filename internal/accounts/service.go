package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healthtrackhq/backend/internal/tracker"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("accounts: database handle is required")

	// ErrInvalidInput covers all registration and profile validation
	// failures; the wrapped message names the offending field.
	ErrInvalidInput = errors.New("accounts: invalid input")
	// ErrUserExists indicates the username or email is already taken.
	ErrUserExists = errors.New("accounts: username or email already exists")
	// ErrInvalidCredentials indicates a failed login. It deliberately does
	// not distinguish unknown users from wrong passwords.
	ErrInvalidCredentials = errors.New("accounts: invalid username or password")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("accounts: user not found")
)

// ServiceConfig describes the dependencies of the accounts Service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages user accounts, credentials and profiles, plus the admin
// operations that span a user's tracked data.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the accounts Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Name     string
}

// Register creates an account after validating the signup fields.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)

	if username == "" || password == "" {
		return User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if len(username) < 3 {
		return User{}, fmt.Errorf("%w: username must be at least 3 characters", ErrInvalidInput)
	}
	if !validUsername(username) {
		return User{}, fmt.Errorf("%w: username can only contain letters, numbers, and underscores", ErrInvalidInput)
	}
	if len(password) < 6 {
		return User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if email != "" && !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	var existing int64
	query := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", username)
	if email != "" {
		query = query.Or("email = ?", email)
	}
	if err := query.Count(&existing).Error; err != nil {
		return User{}, fmt.Errorf("accounts: check existing user: %w", err)
	}
	if existing > 0 {
		return User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("accounts: hash password: %w", err)
	}

	if name == "" {
		name = username
	}
	user := User{
		Username:       username,
		PasswordHash:   string(hash),
		Name:           name,
		TargetCalories: DefaultTargetCalories,
		CreatedAt:      s.clock().UTC(),
	}
	if email != "" {
		user.Email = &email
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return User{}, fmt.Errorf("accounts: create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("username", username),
		zap.Uint("user_id", user.ID))
	return user, nil
}

// Authenticate verifies a username/password pair and returns the account.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("accounts: load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("failed login attempt", zap.String("username", username))
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ByID loads one account.
func (s *Service) ByID(ctx context.Context, userID uint) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Take(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("accounts: load user: %w", err)
	}
	return user, nil
}

// Profile returns the externally visible profile for the account.
func (s *Service) Profile(ctx context.Context, userID uint) (Profile, error) {
	user, err := s.ByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return user.profile(), nil
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	Name           *string
	Age            *int
	Height         *float64
	TargetCalories *int
}

// UpdateProfile applies a partial profile update after range validation.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (Profile, error) {
	updates := map[string]interface{}{}
	if update.Name != nil {
		updates["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Age != nil {
		if *update.Age < 1 || *update.Age > 150 {
			return Profile{}, fmt.Errorf("%w: age must be between 1 and 150", ErrInvalidInput)
		}
		updates["age"] = *update.Age
	}
	if update.Height != nil {
		if *update.Height < 50 || *update.Height > 300 {
			return Profile{}, fmt.Errorf("%w: height must be between 50 and 300 cm", ErrInvalidInput)
		}
		updates["height"] = *update.Height
	}
	if update.TargetCalories != nil {
		if *update.TargetCalories < 500 || *update.TargetCalories > 10000 {
			return Profile{}, fmt.Errorf("%w: calorie target must be between 500 and 10000", ErrInvalidInput)
		}
		updates["target_calories"] = *update.TargetCalories
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Updates(updates)
		if result.Error != nil {
			return Profile{}, fmt.Errorf("accounts: update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return Profile{}, ErrUserNotFound
		}
	}
	return s.Profile(ctx, userID)
}

// List returns every account, for the admin tooling.
func (s *Service) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("accounts: list users: %w", err)
	}
	return users, nil
}

// Delete removes the named account and everything it owns: meals,
// activities, vitals and summary rows.
func (s *Service) Delete(ctx context.Context, username string) error {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("accounts: load user: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&tracker.Meal{}, &tracker.Activity{}, &tracker.Vitals{}, &tracker.DailySummary{},
		} {
			if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("accounts: delete user data: %w", err)
			}
		}
		if err := tx.Delete(&User{}, user.ID).Error; err != nil {
			return fmt.Errorf("accounts: delete user: %w", err)
		}
		s.logger.Info("user deleted",
			zap.String("username", username),
			zap.Uint("user_id", user.ID))
		return nil
	})
}

// Stats reports tracked-data counts and headline figures for one account.
func (s *Service) Stats(ctx context.Context, username string) (UserStats, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserStats{}, ErrUserNotFound
	}
	if err != nil {
		return UserStats{}, fmt.Errorf("accounts: load user: %w", err)
	}

	stats := UserStats{
		Username:       user.Username,
		Name:           user.Name,
		TargetCalories: user.TargetCalories,
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&tracker.Meal{}).Where("user_id = ?", user.ID).Count(&stats.MealCount).Error; err != nil {
		return UserStats{}, fmt.Errorf("accounts: count meals: %w", err)
	}
	if err := db.Model(&tracker.Activity{}).Where("user_id = ?", user.ID).Count(&stats.ActivityCount).Error; err != nil {
		return UserStats{}, fmt.Errorf("accounts: count activities: %w", err)
	}
	if err := db.Model(&tracker.Vitals{}).Where("user_id = ?", user.ID).Count(&stats.VitalsCount).Error; err != nil {
		return UserStats{}, fmt.Errorf("accounts: count vitals: %w", err)
	}

	var latest tracker.Vitals
	err = db.Where("user_id = ?", user.ID).Order("date DESC").Take(&latest).Error
	if err == nil {
		stats.LatestWeight = latest.Weight
		stats.HasWeight = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return UserStats{}, fmt.Errorf("accounts: latest vitals: %w", err)
	}

	var average *float64
	err = db.Model(&tracker.DailySummary{}).
		Select("AVG(total_calories_consumed)").
		Where("user_id = ?", user.ID).
		Scan(&average).Error
	if err != nil {
		return UserStats{}, fmt.Errorf("accounts: average calories: %w", err)
	}
	if average != nil {
		stats.AverageCalories = *average
		stats.HasAverage = true
	}
	return stats, nil
}

// Reset deletes all data from every table. Admin tooling only.
func (s *Service) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"meals", "activities", "vitals", "daily_summary", "api_cache", "food_cache", "users",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("accounts: reset %s: %w", table, err)
			}
		}
		s.logger.Warn("database reset: all data deleted")
		return nil
	})
}

func validUsername(username string) bool {
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
