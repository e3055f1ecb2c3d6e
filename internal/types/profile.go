package types

// IngredientRef identifies an ingredient by catalog id, by name, or both.
// The profile collaborator is not consistent about which field it fills in.
type IngredientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PersonalInfo describes the account holder.
type PersonalInfo struct {
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// FamilyInfo holds the household composition counts used to size portions
// for family plans.
type FamilyInfo struct {
	Children  int `json:"children"`
	Teenagers int `json:"teenagers"`
	Adults    int `json:"adults"`
	Elderly   int `json:"elderly"`
}

// Total returns the number of household members.
func (f FamilyInfo) Total() int {
	return f.Children + f.Teenagers + f.Adults + f.Elderly
}

// DietaryPreferences carries the exclusion inputs for catalog filtering.
type DietaryPreferences struct {
	DietTypeID          string          `json:"diet_type_id"`
	Allergies           []IngredientRef `json:"allergies"`
	DislikedIngredients []IngredientRef `json:"disliked_ingredients"`
}

// NutritionGoals holds the daily targets computed by the profile collaborator.
// CaloriesPerDay is a pointer so an absent value is distinguishable from zero;
// plan generation cannot proceed without it.
type NutritionGoals struct {
	CaloriesPerDay *float64 `json:"calories_per_day"`
	ProteinGrams   float64  `json:"protein_grams"`
	CarbsGrams     float64  `json:"carbs_grams"`
	FatGrams       float64  `json:"fat_grams"`
}

// NutritionProfile is the normalized profile shape the planner works with.
type NutritionProfile struct {
	IsFamily           bool               `json:"is_family"`
	PersonalInfo       PersonalInfo       `json:"personal_info"`
	FamilyInfo         *FamilyInfo        `json:"family_info,omitempty"`
	DietaryPreferences DietaryPreferences `json:"dietary_preferences"`
	NutritionGoals     NutritionGoals     `json:"nutrition_goals"`
}

// HouseholdSize returns the portion multiplier for this profile: the member
// count for family plans, 1 otherwise.
func (p *NutritionProfile) HouseholdSize() int {
	if p.IsFamily && p.FamilyInfo != nil {
		if n := p.FamilyInfo.Total(); n > 0 {
			return n
		}
	}
	return 1
}
