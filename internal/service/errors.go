package service

import "errors"

// Precondition and dependency errors surfaced to callers.
var (
	// ErrProfileNotFound means the identity has no nutrition profile yet.
	ErrProfileNotFound = errors.New("nutrition profile not found")

	// ErrNutritionGoalsMissing means the profile lacks a daily calorie
	// target; no meaningful plan can be sized without one.
	ErrNutritionGoalsMissing = errors.New("nutrition goals missing from profile")

	// ErrCatalogUnavailable means the meal catalog collaborator returned
	// nothing usable.
	ErrCatalogUnavailable = errors.New("meal catalog unavailable")

	// ErrInsufficientCandidates means exclusion filtering left fewer meals
	// than the minimum needed to fill three sections.
	ErrInsufficientCandidates = errors.New("insufficient candidate meals after exclusion filtering")

	// ErrFallbackExhausted means the deterministic selector ran out of
	// candidates before reaching the per-section minimum.
	ErrFallbackExhausted = errors.New("fallback selection exhausted candidate meals")

	// ErrInvalidToken is returned for malformed or expired bearer tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Cache and mutation errors.
var (
	// ErrPlanNotCached means no plan is staged in the cache for the key.
	ErrPlanNotCached = errors.New("no cached plan for that date")

	// ErrPlanNotFound means neither the cache nor durable storage holds a
	// plan for the key.
	ErrPlanNotFound = errors.New("meal plan not found")

	// ErrSectionNotFound means the cached plan has no section for the
	// requested serving time.
	ErrSectionNotFound = errors.New("serving time section not found")

	// ErrMealNotInPlan means the target meal id is absent from the section.
	// Edits against a missing id are reported, not silently ignored.
	ErrMealNotInPlan = errors.New("meal not found in plan section")

	// ErrMealNotInCatalog means a meal id being added does not reference a
	// current catalog entry.
	ErrMealNotInCatalog = errors.New("meal not found in catalog")

	// ErrMealAlreadyPlanned means the replacement id is already present in
	// the section; meal ids are unique within a section.
	ErrMealAlreadyPlanned = errors.New("meal already present in section")

	// ErrInvalidPortion means a caller-supplied portion override has a
	// non-positive amount.
	ErrInvalidPortion = errors.New("portion amount must be positive")
)

// errGenerationInvalid marks model-path output that failed validation. It is
// absorbed by the planner, which falls back to deterministic selection, and
// never reaches a caller.
var errGenerationInvalid = errors.New("model output invalid")
