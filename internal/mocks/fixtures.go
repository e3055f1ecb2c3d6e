package mocks

import (
	"fmt"

	"github.com/nutrikit/mealplan-service/internal/types"
)

// Fixture catalog: mealsPerCategory meals in each of the named categories,
// with deterministic ids like "soups-2". Every meal gets one ingredient
// named after its category plus one meal-specific ingredient.
func FixtureCatalog(categories []string, mealsPerCategory int) *types.Catalog {
	catalog := &types.Catalog{}
	for _, cat := range categories {
		catalog.Categories = append(catalog.Categories, types.MealCategory{ID: cat, Name: cat})
		for i := 0; i < mealsPerCategory; i++ {
			id := fmt.Sprintf("%s-%d", cat, i)
			catalog.Meals = append(catalog.Meals, types.Meal{
				ID:         id,
				Name:       "Meal " + id,
				CategoryID: cat,
				Calories:   400,
				Ingredients: []types.IngredientRef{
					{ID: "ing-" + cat, Name: cat + " base"},
					{ID: "ing-" + id, Name: "ingredient " + id},
				},
			})
		}
	}
	return catalog
}

// FixtureProfile builds an individual profile with the given calorie target.
func FixtureProfile(calories float64) *types.NutritionProfile {
	return &types.NutritionProfile{
		PersonalInfo:   types.PersonalInfo{Age: 30, Gender: "female"},
		NutritionGoals: types.NutritionGoals{CaloriesPerDay: &calories},
	}
}

// FixtureFamilyProfile builds a family profile with the given composition.
func FixtureFamilyProfile(calories float64, family types.FamilyInfo) *types.NutritionProfile {
	p := FixtureProfile(calories)
	p.IsFamily = true
	p.FamilyInfo = &family
	return p
}
