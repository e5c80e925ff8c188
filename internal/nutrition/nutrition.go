package nutrition

import "time"

// Nutrition carries the four tracked macro fields. The basis (per 100g or per
// serving) depends on where a value came from; see Resolver.
type Nutrition struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
}

// Scale returns the nutrition multiplied by the given factor.
func (n Nutrition) Scale(factor float64) Nutrition {
	return Nutrition{
		Calories:      n.Calories * factor,
		Protein:       n.Protein * factor,
		Fat:           n.Fat * factor,
		Carbohydrates: n.Carbohydrates * factor,
	}
}

// IsZero reports whether every macro field is zero.
func (n Nutrition) IsZero() bool {
	return n.Calories == 0 && n.Protein == 0 && n.Fat == 0 && n.Carbohydrates == 0
}

// ReferenceServingScale converts per-100g values to the fixed assumed serving
// of roughly 150g used when no portion size is supplied.
const ReferenceServingScale = 1.5

// FoodFact stores resolved nutrition for a food name, always normalized to a
// 100g reference serving. Callers apply a serving multiplier at read time.
type FoodFact struct {
	ID            uint      `gorm:"column:id;primaryKey"`
	FoodName      string    `gorm:"column:food_name;size:255;not null;uniqueIndex"`
	Calories      float64   `gorm:"column:calories"`
	Protein       float64   `gorm:"column:protein"`
	Fat           float64   `gorm:"column:fat"`
	Carbohydrates float64   `gorm:"column:carbohydrates"`
	ServingSize   string    `gorm:"column:serving_size;size:50;default:100g"`
	LastUpdated   time.Time `gorm:"column:last_updated;not null"`
}

// TableName provides the explicit table binding for GORM.
func (FoodFact) TableName() string {
	return "food_cache"
}

// PerHundredGrams exposes the stored macros as a Nutrition value.
func (f FoodFact) PerHundredGrams() Nutrition {
	return Nutrition{
		Calories:      f.Calories,
		Protein:       f.Protein,
		Fat:           f.Fat,
		Carbohydrates: f.Carbohydrates,
	}
}
