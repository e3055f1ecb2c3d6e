package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutrikit/mealplan-service/models"
)

// PlanPersister moves plans between the cache and durable storage. Saving
// upserts by (userID, date); loading is read-through, repopulating the cache
// on a durable hit.
type PlanPersister struct {
	db               *gorm.DB
	cache            PlanCache
	invalidateOnSave bool
}

// NewPlanPersister creates a PlanPersister. invalidateOnSave controls
// whether a successful save clears the cache entry, leaving durable storage
// as sole authority until the next generation.
func NewPlanPersister(db *gorm.DB, cache PlanCache, invalidateOnSave bool) *PlanPersister {
	return &PlanPersister{db: db, cache: cache, invalidateOnSave: invalidateOnSave}
}

// Save commits the cached plan for (user, date) to durable storage. A second
// save for the same key fully replaces the stored sections rather than
// merging. Without a cached plan there is nothing to persist.
func (p *PlanPersister) Save(ctx context.Context, userID uuid.UUID, date string) (*models.MealPlan, error) {
	plan, err := p.cache.Get(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	var existing models.MealPlan
	err = p.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&existing).Error

	switch {
	case err == nil:
		existing.ForFamily = plan.ForFamily
		existing.Household = plan.Household
		existing.Sections = plan.Sections
		existing.GeneratedByAI = plan.GeneratedByAI
		existing.Metadata = plan.Metadata
		if err := p.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update stored plan: %w", err)
		}
		plan = &existing

	case errors.Is(err, gorm.ErrRecordNotFound):
		if plan.ID == uuid.Nil {
			plan.ID = uuid.New()
		}
		if err := p.db.WithContext(ctx).Create(plan).Error; err != nil {
			return nil, fmt.Errorf("failed to store plan: %w", err)
		}

	default:
		return nil, fmt.Errorf("failed to query stored plan: %w", err)
	}

	if p.invalidateOnSave {
		if err := p.cache.Delete(ctx, userID, date); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// Load returns the plan for (user, date), consulting the cache first and
// falling back to durable storage. A durable hit repopulates the cache so
// subsequent reads and edits see it.
func (p *PlanPersister) Load(ctx context.Context, userID uuid.UUID, date string) (*models.MealPlan, error) {
	plan, err := p.cache.Get(ctx, userID, date)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, ErrPlanNotCached) {
		return nil, err
	}

	var stored models.MealPlan
	err = p.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stored plan: %w", err)
	}

	if err := p.cache.Set(ctx, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}
