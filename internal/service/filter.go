package service

import (
	"strings"

	"github.com/nutrikit/mealplan-service/internal/types"
)

// MinPlanCandidates is the minimum filtered-catalog size needed before
// either generation path is attempted: two meals per serving time.
const MinPlanCandidates = 6

// FilterCatalog removes every meal containing an ingredient the user is
// allergic to or dislikes. Matching is by ingredient id or by
// case-insensitive name. Pure: the input catalog is not modified.
func FilterCatalog(catalog *types.Catalog, prefs types.DietaryPreferences) *types.Catalog {
	excludedIDs := make(map[string]bool)
	excludedNames := make(map[string]bool)
	for _, ref := range prefs.Allergies {
		addExclusion(ref, excludedIDs, excludedNames)
	}
	for _, ref := range prefs.DislikedIngredients {
		addExclusion(ref, excludedIDs, excludedNames)
	}

	filtered := &types.Catalog{
		Meals:      make([]types.Meal, 0, len(catalog.Meals)),
		Categories: catalog.Categories,
	}
	for _, meal := range catalog.Meals {
		if !mealExcluded(meal, excludedIDs, excludedNames) {
			filtered.Meals = append(filtered.Meals, meal)
		}
	}
	return filtered
}

func addExclusion(ref types.IngredientRef, ids, names map[string]bool) {
	if ref.ID != "" {
		ids[ref.ID] = true
	}
	if ref.Name != "" {
		names[strings.ToLower(ref.Name)] = true
	}
}

func mealExcluded(meal types.Meal, ids, names map[string]bool) bool {
	for _, ing := range meal.Ingredients {
		if ing.ID != "" && ids[ing.ID] {
			return true
		}
		if ing.Name != "" && names[strings.ToLower(ing.Name)] {
			return true
		}
	}
	return false
}
