// Package mocks provides in-memory stand-ins for the plan cache and the
// external collaborators, used by unit tests.
package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nutrikit/mealplan-service/internal/service"
	"github.com/nutrikit/mealplan-service/internal/types"
	"github.com/nutrikit/mealplan-service/models"
)

// MemoryPlanCache is a map-backed PlanCache. Values round-trip through JSON
// so callers get the same copy semantics Redis gives them: mutating a
// returned plan never changes the stored value.
type MemoryPlanCache struct {
	mu    sync.Mutex
	plans map[string][]byte
}

// NewMemoryPlanCache creates an empty in-memory plan cache.
func NewMemoryPlanCache() *MemoryPlanCache {
	return &MemoryPlanCache{plans: make(map[string][]byte)}
}

func cacheKey(userID uuid.UUID, date string) string {
	return fmt.Sprintf("plan:%s:%s", userID, date)
}

// Get implements service.PlanCache.
func (c *MemoryPlanCache) Get(ctx context.Context, userID uuid.UUID, date string) (*models.MealPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.plans[cacheKey(userID, date)]
	if !ok {
		return nil, service.ErrPlanNotCached
	}
	var plan models.MealPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Set implements service.PlanCache.
func (c *MemoryPlanCache) Set(ctx context.Context, plan *models.MealPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[cacheKey(plan.UserID, plan.Date)] = data
	return nil
}

// Delete implements service.PlanCache.
func (c *MemoryPlanCache) Delete(ctx context.Context, userID uuid.UUID, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.plans, cacheKey(userID, date))
	return nil
}

// Len reports how many plans are cached.
func (c *MemoryPlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.plans)
}

// ProfileResolver returns a fixed profile or error.
type ProfileResolver struct {
	Profile *types.NutritionProfile
	Err     error
}

// Resolve implements service.ProfileResolver.
func (r *ProfileResolver) Resolve(ctx context.Context, bearer string) (*types.NutritionProfile, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Profile, nil
}

// CatalogLoader returns a fixed catalog or error.
type CatalogLoader struct {
	Catalog *types.Catalog
	Err     error
}

// Load implements service.CatalogLoader.
func (l *CatalogLoader) Load(ctx context.Context) (*types.Catalog, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Catalog, nil
}

// PlanGenerator returns fixed sections or an error, recording whether it
// was invoked.
type PlanGenerator struct {
	Sections models.JSONBSections
	Err      error
	Called   bool
}

// GeneratePlan implements service.PlanGenerator.
func (g *PlanGenerator) GeneratePlan(ctx context.Context, in service.GenerateInput) (models.JSONBSections, error) {
	g.Called = true
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Sections, nil
}
