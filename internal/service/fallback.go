package service

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/nutrikit/mealplan-service/internal/types"
	"github.com/nutrikit/mealplan-service/models"
)

// Selection policy for the deterministic path.
const (
	minMealsPerSection    = 2
	targetMealsPerSection = 3
	categoryQuota         = 1
)

// FallbackSelector builds a plan without any external call: categories are
// walked in stable name order and meals drawn per-category up to a quota,
// relaxing the quota when a section would otherwise fall below the minimum.
// The randomness source is injected so tests can pin selection. One selector
// serves all requests; rand.Rand is not goroutine-safe, so draws are
// serialized by the mutex.
type FallbackSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackSelector creates a selector drawing from src.
func NewFallbackSelector(src rand.Source) *FallbackSelector {
	return &FallbackSelector{rng: rand.New(src)}
}

// Select fills all three sections from the filtered catalog. Portion amounts
// are always the household size; the model path never influences this.
func (s *FallbackSelector) Select(in GenerateInput) (models.JSONBSections, error) {
	byCategory := groupByCategory(in.Catalog)
	categoryOrder := orderedCategories(in.Catalog)

	sections := make(models.JSONBSections, 0, len(models.ServingTimes()))
	for _, servingTime := range models.ServingTimes() {
		meals, err := s.selectForSection(in, byCategory, categoryOrder)
		if err != nil {
			return nil, err
		}
		sections = append(sections, models.Section{
			ServingTime: servingTime,
			Meals:       meals,
		})
	}
	return sections, nil
}

func (s *FallbackSelector) selectForSection(in GenerateInput, byCategory map[string][]types.Meal, categoryOrder []string) ([]models.PlannedMeal, error) {
	picked := make([]models.PlannedMeal, 0, targetMealsPerSection)
	used := make(map[string]bool)

	// Shuffle within each category with the injected source so two sections
	// of the same plan do not mirror each other, while a fixed seed keeps
	// the whole selection reproducible.
	shuffled := make(map[string][]types.Meal, len(byCategory))
	s.mu.Lock()
	for _, id := range categoryOrder {
		meals := byCategory[id]
		cp := make([]types.Meal, len(meals))
		copy(cp, meals)
		s.rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
		shuffled[id] = cp
	}
	s.mu.Unlock()

	// First pass: up to the per-category quota from each category.
	for _, categoryID := range categoryOrder {
		if len(picked) >= targetMealsPerSection {
			break
		}
		taken := 0
		for _, meal := range shuffled[categoryID] {
			if taken >= categoryQuota || len(picked) >= targetMealsPerSection {
				break
			}
			if used[meal.ID] {
				continue
			}
			picked = append(picked, s.plannedMeal(meal, in.HouseholdSize))
			used[meal.ID] = true
			taken++
		}
	}

	// Relaxed pass: the quota no longer applies; drain remaining candidates
	// in category order until the minimum is met.
	if len(picked) < minMealsPerSection {
		for _, categoryID := range categoryOrder {
			for _, meal := range shuffled[categoryID] {
				if len(picked) >= minMealsPerSection {
					break
				}
				if used[meal.ID] {
					continue
				}
				picked = append(picked, s.plannedMeal(meal, in.HouseholdSize))
				used[meal.ID] = true
			}
		}
	}

	if len(picked) < minMealsPerSection {
		return nil, ErrFallbackExhausted
	}
	return picked, nil
}

func (s *FallbackSelector) plannedMeal(meal types.Meal, household int) models.PlannedMeal {
	return models.PlannedMeal{
		MealID:      meal.ID,
		IsEaten:     false,
		PortionSize: policyPortion(meal, household),
		MealDetail:  models.SnapshotDetail(&meal),
	}
}

// policyPortion sizes a portion to the household: the member count for
// family plans, 1 otherwise. Portion amount is policy-owned.
func policyPortion(meal types.Meal, household int) models.PortionSize {
	unit := meal.PortionUnit
	if unit == "" {
		unit = "serving"
	}
	if household < 1 {
		household = 1
	}
	return models.PortionSize{Amount: float64(household), Unit: unit}
}

// groupByCategory indexes meals by category, each group in stable id order.
func groupByCategory(catalog *types.Catalog) map[string][]types.Meal {
	groups := make(map[string][]types.Meal)
	for _, meal := range catalog.Meals {
		groups[meal.CategoryID] = append(groups[meal.CategoryID], meal)
	}
	for _, meals := range groups {
		sort.Slice(meals, func(i, j int) bool { return meals[i].ID < meals[j].ID })
	}
	return groups
}

// orderedCategories returns category ids sorted by category name, falling
// back to id for unnamed categories and appending categories that appear
// only on meals. The order is stable across calls.
func orderedCategories(catalog *types.Catalog) []string {
	type entry struct{ id, name string }
	seen := make(map[string]bool)
	entries := make([]entry, 0, len(catalog.Categories))

	for _, cat := range catalog.Categories {
		if seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		name := cat.Name
		if name == "" {
			name = cat.ID
		}
		entries = append(entries, entry{id: cat.ID, name: name})
	}
	for _, meal := range catalog.Meals {
		if !seen[meal.CategoryID] {
			seen[meal.CategoryID] = true
			entries = append(entries, entry{id: meal.CategoryID, name: meal.CategoryID})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return entries[i].id < entries[j].id
	})

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}
