package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nutrikit/mealplan-service/internal/types"
	"github.com/nutrikit/mealplan-service/models"
)

// PlannerService orchestrates plan generation: profile and catalog are
// fetched concurrently, the catalog is exclusion-filtered, and the plan is
// produced by the model path with automatic deterministic fallback. The
// result lives in the cache only until an explicit save.
type PlannerService struct {
	resolver   ProfileResolver
	loader     CatalogLoader
	generator  PlanGenerator // nil disables the model path
	fallback   *FallbackSelector
	cache      PlanCache
	llmTimeout time.Duration
	logger     *zap.Logger
}

// NewPlannerService creates a PlannerService. A nil generator disables the
// model path; every plan then comes from the deterministic selector.
func NewPlannerService(
	resolver ProfileResolver,
	loader CatalogLoader,
	generator PlanGenerator,
	fallback *FallbackSelector,
	cache PlanCache,
	llmTimeout time.Duration,
	logger *zap.Logger,
) *PlannerService {
	return &PlannerService{
		resolver:   resolver,
		loader:     loader,
		generator:  generator,
		fallback:   fallback,
		cache:      cache,
		llmTimeout: llmTimeout,
		logger:     logger,
	}
}

// Generate produces a fresh plan for (user, date) and stages it in the
// cache, overwriting any prior entry. The model path is an optimization:
// any model failure yields a fallback-selected plan, never an error.
func (s *PlannerService) Generate(ctx context.Context, userID uuid.UUID, bearer, date string, forFamily *bool, preferences string) (*models.MealPlan, error) {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	// Carry the regeneration counter from any prior cached plan, then
	// invalidate the key so stale data cannot survive a regeneration race.
	regenerations := 0
	if prior, err := s.cache.Get(ctx, userID, date); err == nil {
		regenerations = prior.Metadata.Regenerations + 1
	}
	if err := s.cache.Delete(ctx, userID, date); err != nil {
		return nil, err
	}

	// Profile and catalog have no data dependency; fetch them concurrently.
	var (
		profile *types.NutritionProfile
		catalog *types.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.resolver.Resolve(gctx, bearer)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		c, err := s.loader.Load(gctx)
		if err != nil {
			return err
		}
		catalog = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if profile.NutritionGoals.CaloriesPerDay == nil {
		return nil, ErrNutritionGoalsMissing
	}

	family := profile.IsFamily
	if forFamily != nil {
		family = *forFamily
	}
	household := 1
	if family {
		household = profile.HouseholdSize()
	}

	filtered := FilterCatalog(catalog, profile.DietaryPreferences)
	if len(filtered.Meals) < MinPlanCandidates {
		return nil, fmt.Errorf("%w: %d of %d required", ErrInsufficientCandidates, len(filtered.Meals), MinPlanCandidates)
	}

	in := GenerateInput{
		Profile:       profile,
		Catalog:       filtered,
		HouseholdSize: household,
		Date:          date,
		Preferences:   preferences,
	}

	sections, usedFallback, err := s.generateSections(ctx, in)
	if err != nil {
		return nil, err
	}

	plan := &models.MealPlan{
		ID:            uuid.New(),
		UserID:        userID,
		Date:          date,
		ForFamily:     family,
		Sections:      sections,
		GeneratedByAI: !usedFallback,
		Metadata: models.JSONBMetadata{
			ProfileCalories: *profile.NutritionGoals.CaloriesPerDay,
			HouseholdSize:   household,
			GeneratedAt:     time.Now().UTC(),
			UsedFallback:    usedFallback,
			Regenerations:   regenerations,
		},
	}
	if family && profile.FamilyInfo != nil {
		plan.Household = models.JSONBHousehold(*profile.FamilyInfo)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("generated plan failed validation: %w", err)
	}

	if err := s.cache.Set(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// generateSections runs the model path when enabled and falls back to the
// deterministic selector on any model error. Partial model output is
// discarded wholesale.
func (s *PlannerService) generateSections(ctx context.Context, in GenerateInput) (models.JSONBSections, bool, error) {
	if s.generator != nil {
		tctx, cancel := timeoutContext(ctx, s.llmTimeout)
		sections, err := s.generator.GeneratePlan(tctx, in)
		cancel()
		if err == nil {
			return sections, false, nil
		}
		s.logger.Warn("model path failed, using fallback selector",
			zap.String("date", in.Date),
			zap.Error(err))
	}

	sections, err := s.fallback.Select(in)
	if err != nil {
		return nil, true, err
	}
	return sections, true, nil
}

// Stage places a caller-built plan directly into the cache, bypassing both
// generation paths. The plan must satisfy the same structural invariants as
// a generated one; meal details missing from the payload are snapshotted
// from the live catalog.
func (s *PlannerService) Stage(ctx context.Context, plan *models.MealPlan) (*models.MealPlan, error) {
	if _, err := time.Parse(models.DateFormat, plan.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", plan.Date, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	catalog, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	for si := range plan.Sections {
		for mi := range plan.Sections[si].Meals {
			meal := &plan.Sections[si].Meals[mi]
			catalogMeal := catalog.MealByID(meal.MealID)
			if catalogMeal == nil {
				return nil, fmt.Errorf("%w: %s", ErrMealNotInCatalog, meal.MealID)
			}
			if meal.MealDetail.Name == "" {
				meal.MealDetail = models.SnapshotDetail(catalogMeal)
			}
		}
	}

	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if err := s.cache.Set(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
