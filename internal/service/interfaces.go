package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/nutrikit/mealplan-service/internal/types"
	"github.com/nutrikit/mealplan-service/models"
)

// ProfileResolver fetches a caller's nutrition profile from the identity
// collaborator using the request's bearer credential.
type ProfileResolver interface {
	Resolve(ctx context.Context, bearer string) (*types.NutritionProfile, error)
}

// CatalogLoader fetches the candidate meal catalog from the catalog
// collaborator, already normalized to the internal shape.
type CatalogLoader interface {
	Load(ctx context.Context) (*types.Catalog, error)
}

// PlanGenerator produces a plan through the generative-model path. Any
// failure is treated as a signal to use deterministic fallback selection.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req GenerateInput) (models.JSONBSections, error)
}

// PlanCache stages plans between generation and durable persistence.
// Writes are full overwrites; there is no cross-operation transaction, and
// concurrent writers to the same key race with last-writer-wins semantics.
type PlanCache interface {
	Get(ctx context.Context, userID uuid.UUID, date string) (*models.MealPlan, error)
	Set(ctx context.Context, plan *models.MealPlan) error
	Delete(ctx context.Context, userID uuid.UUID, date string) error
}

// GenerateInput is the shared input to both generation paths.
type GenerateInput struct {
	Profile       *types.NutritionProfile
	Catalog       *types.Catalog // already exclusion-filtered
	HouseholdSize int
	Date          string
	Preferences   string // optional free-text request hints
}
