package accounts

import "time"

// DefaultTargetCalories is assigned to new accounts until the user sets a
// goal of their own.
const DefaultTargetCalories = 2000

// User is a registered account. Email is a pointer so absent addresses stay
// NULL under the unique index instead of colliding on the empty string.
type User struct {
	ID             uint      `gorm:"column:id;primaryKey"`
	Username       string    `gorm:"column:username;size:190;not null;uniqueIndex"`
	PasswordHash   string    `gorm:"column:password_hash;size:190;not null"`
	Email          *string   `gorm:"column:email;size:320;uniqueIndex"`
	Name           string    `gorm:"column:name;size:255"`
	Age            int       `gorm:"column:age"`
	Height         float64   `gorm:"column:height"`
	TargetCalories int       `gorm:"column:target_calories;not null;default:2000"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// Profile is the externally visible slice of a User.
type Profile struct {
	Username       string  `json:"username"`
	Email          string  `json:"email,omitempty"`
	Name           string  `json:"name"`
	Age            int     `json:"age,omitempty"`
	Height         float64 `json:"height,omitempty"`
	TargetCalories int     `json:"target_calories"`
}

func (u User) profile() Profile {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	return Profile{
		Username:       u.Username,
		Email:          email,
		Name:           u.Name,
		Age:            u.Age,
		Height:         u.Height,
		TargetCalories: u.TargetCalories,
	}
}

// UserStats summarizes one account for the admin tooling.
type UserStats struct {
	Username        string
	Name            string
	TargetCalories  int
	MealCount       int64
	ActivityCount   int64
	VitalsCount     int64
	LatestWeight    float64
	HasWeight       bool
	AverageCalories float64
	HasAverage      bool
}
