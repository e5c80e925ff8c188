package tracker

import "time"

// Meal types, in the order meals are listed for a day.
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeSnacks    = "snacks"
	MealTypeDinner    = "dinner"
)

// ValidMealType reports whether the value is one of the four meal slots.
func ValidMealType(mealType string) bool {
	switch mealType {
	case MealTypeBreakfast, MealTypeLunch, MealTypeSnacks, MealTypeDinner:
		return true
	}
	return false
}

// Meal is one logged meal. Rows are written once at creation, either from
// manual entry or photo analysis, and are immutable afterwards; the nutrition
// fields are the summed per-item resolution results.
type Meal struct {
	ID            uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID        uint      `gorm:"column:user_id;not null;index:idx_meals_user_date,priority:1" json:"-"`
	Date          string    `gorm:"column:date;size:10;not null;index:idx_meals_user_date,priority:2" json:"date"`
	MealType      string    `gorm:"column:meal_type;size:20;not null" json:"meal_type"`
	FoodItems     string    `gorm:"column:food_items;type:text" json:"food_items"`
	Calories      float64   `gorm:"column:calories" json:"calories"`
	Protein       float64   `gorm:"column:protein" json:"protein"`
	Fat           float64   `gorm:"column:fat" json:"fat"`
	Carbohydrates float64   `gorm:"column:carbohydrates" json:"carbohydrates"`
	ImageData     string    `gorm:"column:image_data;type:text" json:"image_data,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Meal) TableName() string {
	return "meals"
}

// Activity is one logged exercise entry. Unlike meals, activities can be
// deleted; deletion resyncs the summary for the affected date.
type Activity struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID          uint      `gorm:"column:user_id;not null;index:idx_activities_user_date,priority:1" json:"-"`
	Date            string    `gorm:"column:date;size:10;not null;index:idx_activities_user_date,priority:2" json:"date"`
	ActivityName    string    `gorm:"column:activity_name;size:255;not null" json:"activity_name"`
	DurationMinutes int       `gorm:"column:duration_minutes" json:"duration_minutes"`
	CaloriesBurned  float64   `gorm:"column:calories_burned" json:"calories_burned"`
	Notes           string    `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Activity) TableName() string {
	return "activities"
}

// Vitals is one body-composition measurement entry.
type Vitals struct {
	ID                       uint    `gorm:"column:id;primaryKey" json:"id"`
	UserID                   uint    `gorm:"column:user_id;not null;index:idx_vitals_user_date,priority:1" json:"-"`
	Date                     string  `gorm:"column:date;size:10;not null;index:idx_vitals_user_date,priority:2" json:"date"`
	Weight                   float64 `gorm:"column:weight" json:"weight"`
	BMI                      float64 `gorm:"column:bmi" json:"bmi,omitempty"`
	BodyFatPercentage        float64 `gorm:"column:body_fat_percentage" json:"body_fat_percentage,omitempty"`
	SkeletalMusclePercentage float64 `gorm:"column:skeletal_muscle_percentage" json:"skeletal_muscle_percentage,omitempty"`
	FatFreeMass              float64 `gorm:"column:fat_free_mass" json:"fat_free_mass,omitempty"`
	SubcutaneousFat          float64 `gorm:"column:subcutaneous_fat" json:"subcutaneous_fat,omitempty"`
	VisceralFat              float64 `gorm:"column:visceral_fat" json:"visceral_fat,omitempty"`
	BodyWaterPercentage      float64 `gorm:"column:body_water_percentage" json:"body_water_percentage,omitempty"`
	MuscleMass               float64 `gorm:"column:muscle_mass" json:"muscle_mass,omitempty"`
	BoneMass                 float64 `gorm:"column:bone_mass" json:"bone_mass,omitempty"`
	ProteinPercentage        float64 `gorm:"column:protein_percentage" json:"protein_percentage,omitempty"`
	BMR                      float64 `gorm:"column:bmr" json:"bmr,omitempty"`
	MetabolicAge             int     `gorm:"column:metabolic_age" json:"metabolic_age,omitempty"`
}

// TableName provides the explicit table binding for GORM.
func (Vitals) TableName() string {
	return "vitals"
}

// DailySummary is the denormalized per-user/per-day rollup. It is derived
// state: always recomputable from the meal and activity rows for the same
// key, and only ever written by Resync.
type DailySummary struct {
	ID                    uint    `gorm:"column:id;primaryKey" json:"-"`
	UserID                uint    `gorm:"column:user_id;not null;uniqueIndex:idx_daily_summary_user_date,priority:1" json:"-"`
	Date                  string  `gorm:"column:date;size:10;not null;uniqueIndex:idx_daily_summary_user_date,priority:2" json:"date"`
	TotalCaloriesConsumed float64 `gorm:"column:total_calories_consumed;not null;default:0" json:"total_calories_consumed"`
	TotalCaloriesBurned   float64 `gorm:"column:total_calories_burned;not null;default:0" json:"total_calories_burned"`
	NetCalories           float64 `gorm:"column:net_calories;not null;default:0" json:"net_calories"`
	TotalProtein          float64 `gorm:"column:total_protein;not null;default:0" json:"total_protein"`
	TotalFat              float64 `gorm:"column:total_fat;not null;default:0" json:"total_fat"`
	TotalCarbs            float64 `gorm:"column:total_carbs;not null;default:0" json:"total_carbs"`
}

// TableName provides the explicit table binding for GORM.
func (DailySummary) TableName() string {
	return "daily_summary"
}
