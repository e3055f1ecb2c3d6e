package api

import "github.com/nutrikit/mealplan-service/models"

// GeneratePlanRequest asks for a fresh plan for one calendar day.
type GeneratePlanRequest struct {
	Date        string `json:"date" binding:"required"`
	ForFamily   *bool  `json:"forFamily"`
	Preferences string `json:"preferences"`
}

// ReplaceMealRequest swaps one meal for another in a cached plan.
type ReplaceMealRequest struct {
	Date        string              `json:"date" binding:"required"`
	ServingTime models.ServingTime  `json:"servingTime" binding:"required"`
	OldMealID   string              `json:"oldMealId" binding:"required"`
	NewMealID   string              `json:"newMealId" binding:"required"`
	PortionSize *models.PortionSize `json:"portionSize"`
}

// RemoveMealRequest drops a meal from a cached plan.
type RemoveMealRequest struct {
	Date        string             `json:"date" binding:"required"`
	ServingTime models.ServingTime `json:"servingTime" binding:"required"`
	MealID      string             `json:"mealId" binding:"required"`
}

// SavePlanRequest commits a cached plan to durable storage.
type SavePlanRequest struct {
	Date string `json:"date" binding:"required"`
}

// StagePlanRequest places an externally assembled plan directly into the
// cache, bypassing both generation paths.
type StagePlanRequest struct {
	Date          string                     `json:"date" binding:"required"`
	MealPlan      models.JSONBSections       `json:"mealPlan" binding:"required"`
	ForFamily     bool                       `json:"forFamily"`
	Household     *models.JSONBHousehold     `json:"household"`
	GeneratedByAI bool                       `json:"generatedByAI"`
	AIMetadata    *models.GenerationMetadata `json:"aiMetadata"`
}
