package nutrition

// estimate pairs a common food name with its per-100g macros.
type estimate struct {
	name    string
	per100g Nutrition
}

// builtinEstimates is the offline nutrition table consulted before any
// external lookup. It is an ordered slice, not a map: matching is
// first-match-wins and table order is the documented tie-break, so iteration
// must be deterministic.
var builtinEstimates = []estimate{
	{"chicken", Nutrition{Calories: 165, Protein: 31, Fat: 3.6, Carbohydrates: 0}},
	{"potato", Nutrition{Calories: 77, Protein: 2, Fat: 0.1, Carbohydrates: 17}},
	{"green beans", Nutrition{Calories: 31, Protein: 1.8, Fat: 0.2, Carbohydrates: 7}},
	{"butternut squash", Nutrition{Calories: 45, Protein: 1, Fat: 0.1, Carbohydrates: 12}},
	{"rice", Nutrition{Calories: 130, Protein: 2.7, Fat: 0.3, Carbohydrates: 28}},
	{"bread", Nutrition{Calories: 265, Protein: 9, Fat: 3.2, Carbohydrates: 49}},
	{"egg", Nutrition{Calories: 155, Protein: 13, Fat: 11, Carbohydrates: 1.1}},
	{"salmon", Nutrition{Calories: 208, Protein: 20, Fat: 13, Carbohydrates: 0}},
	{"beef", Nutrition{Calories: 250, Protein: 26, Fat: 15, Carbohydrates: 0}},
	{"pasta", Nutrition{Calories: 131, Protein: 5, Fat: 1.1, Carbohydrates: 25}},
	{"apple", Nutrition{Calories: 52, Protein: 0.3, Fat: 0.2, Carbohydrates: 14}},
	{"banana", Nutrition{Calories: 89, Protein: 1.1, Fat: 0.3, Carbohydrates: 23}},
	{"broccoli", Nutrition{Calories: 34, Protein: 2.8, Fat: 0.4, Carbohydrates: 7}},
	{"carrot", Nutrition{Calories: 41, Protein: 0.9, Fat: 0.2, Carbohydrates: 10}},
	{"cheese", Nutrition{Calories: 402, Protein: 25, Fat: 33, Carbohydrates: 1.3}},
	{"milk", Nutrition{Calories: 42, Protein: 3.4, Fat: 1, Carbohydrates: 5}},
	{"yogurt", Nutrition{Calories: 59, Protein: 10, Fat: 0.4, Carbohydrates: 3.6}},
	{"avocado", Nutrition{Calories: 160, Protein: 2, Fat: 15, Carbohydrates: 9}},
	{"tomato", Nutrition{Calories: 18, Protein: 0.9, Fat: 0.2, Carbohydrates: 3.9}},
	{"lettuce", Nutrition{Calories: 15, Protein: 1.4, Fat: 0.2, Carbohydrates: 2.9}},
}
