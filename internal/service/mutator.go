package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nutrikit/mealplan-service/models"
)

// PlanMutator applies incremental edits to a cache-resident plan. Every edit
// is a full read-modify-overwrite of the cached value; concurrent edits to
// the same key race with last-writer-wins semantics.
type PlanMutator struct {
	cache  PlanCache
	loader CatalogLoader
}

// NewPlanMutator creates a PlanMutator.
func NewPlanMutator(cache PlanCache, loader CatalogLoader) *PlanMutator {
	return &PlanMutator{cache: cache, loader: loader}
}

// ReplaceMeal swaps oldMealID for newMealID in the given section. The new id
// must reference a current catalog entry, whose detail is snapshotted.
// IsEaten resets to false; the portion carries over unless an override is
// supplied. A missing old id is a reported error, not a no-op.
func (m *PlanMutator) ReplaceMeal(ctx context.Context, userID uuid.UUID, date string, servingTime models.ServingTime, oldMealID, newMealID string, portion *models.PortionSize) (*models.MealPlan, error) {
	plan, section, err := m.locate(ctx, userID, date, servingTime)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, meal := range section.Meals {
		if meal.MealID == newMealID && newMealID != oldMealID {
			return nil, fmt.Errorf("%w: %s", ErrMealAlreadyPlanned, newMealID)
		}
		if meal.MealID == oldMealID {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMealNotInPlan, oldMealID)
	}

	catalog, err := m.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	catalogMeal := catalog.MealByID(newMealID)
	if catalogMeal == nil {
		return nil, fmt.Errorf("%w: %s", ErrMealNotInCatalog, newMealID)
	}

	newPortion := section.Meals[idx].PortionSize
	if portion != nil {
		if portion.Amount <= 0 {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidPortion, portion.Amount)
		}
		newPortion = *portion
	}

	section.Meals[idx] = models.PlannedMeal{
		MealID:      newMealID,
		IsEaten:     false,
		PortionSize: newPortion,
		MealDetail:  models.SnapshotDetail(catalogMeal),
	}

	if err := m.cache.Set(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// RemoveMeal deletes the meal from the section. A missing id is a reported
// error, consistent with ReplaceMeal.
func (m *PlanMutator) RemoveMeal(ctx context.Context, userID uuid.UUID, date string, servingTime models.ServingTime, mealID string) (*models.MealPlan, error) {
	plan, section, err := m.locate(ctx, userID, date, servingTime)
	if err != nil {
		return nil, err
	}

	kept := section.Meals[:0]
	found := false
	for _, meal := range section.Meals {
		if meal.MealID == mealID {
			found = true
			continue
		}
		kept = append(kept, meal)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrMealNotInPlan, mealID)
	}
	section.Meals = kept

	if err := m.cache.Set(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// locate loads the cached plan and resolves the target section. Mutation
// requires a plan already staged in cache.
func (m *PlanMutator) locate(ctx context.Context, userID uuid.UUID, date string, servingTime models.ServingTime) (*models.MealPlan, *models.Section, error) {
	if !models.ValidServingTime(servingTime) {
		return nil, nil, fmt.Errorf("%w: %q", ErrSectionNotFound, servingTime)
	}

	plan, err := m.cache.Get(ctx, userID, date)
	if err != nil {
		return nil, nil, err
	}

	section := plan.Section(servingTime)
	if section == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrSectionNotFound, servingTime)
	}
	return plan, section, nil
}
