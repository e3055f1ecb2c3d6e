package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nutrikit/mealplan-service/internal/middleware"
	"github.com/nutrikit/mealplan-service/internal/service"
	"github.com/nutrikit/mealplan-service/models"
)

// MealPlanHandler handles meal-plan requests
type MealPlanHandler struct {
	planner     *service.PlannerService
	mutator     *service.PlanMutator
	persister   *service.PlanPersister
	authService middleware.TokenValidator
}

// NewMealPlanHandler creates a new MealPlanHandler instance
func NewMealPlanHandler(
	planner *service.PlannerService,
	mutator *service.PlanMutator,
	persister *service.PlanPersister,
	authService middleware.TokenValidator,
) *MealPlanHandler {
	return &MealPlanHandler{
		planner:     planner,
		mutator:     mutator,
		persister:   persister,
		authService: authService,
	}
}

// RegisterRoutes registers the meal-plan routes
func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	plans := router.Group("/meal-plans")
	plans.Use(middleware.AuthMiddleware(h.authService))
	{
		plans.POST("/generate", h.Generate)
		plans.GET("", h.Get)
		plans.PUT("/replace-meal", h.ReplaceMeal)
		plans.DELETE("/remove-meal", h.RemoveMeal)
		plans.POST("/save", h.Save)
		plans.POST("/cache", h.Stage)
	}
}

// Generate produces and caches a new plan for the requested date.
func (h *MealPlanHandler) Generate(c *gin.Context) {
	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(models.DateFormat, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as " + models.DateFormat})
		return
	}

	userID, bearer, ok := callerIdentity(c)
	if !ok {
		return
	}

	plan, err := h.planner.Generate(c.Request.Context(), userID, bearer, req.Date, req.ForFamily, req.Preferences)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealPlan": plan})
}

// Get performs a read-through fetch: cache first, durable storage on miss.
func (h *MealPlanHandler) Get(c *gin.Context) {
	date := c.Query("date")
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as " + models.DateFormat})
		return
	}

	userID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	plan, err := h.persister.Load(c.Request.Context(), userID, date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealPlan": plan})
}

// ReplaceMeal swaps a meal within a cached plan section.
func (h *MealPlanHandler) ReplaceMeal(c *gin.Context) {
	var req ReplaceMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	plan, err := h.mutator.ReplaceMeal(c.Request.Context(), userID, req.Date, req.ServingTime, req.OldMealID, req.NewMealID, req.PortionSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealPlan": plan})
}

// RemoveMeal drops a meal from a cached plan section.
func (h *MealPlanHandler) RemoveMeal(c *gin.Context) {
	var req RemoveMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	plan, err := h.mutator.RemoveMeal(c.Request.Context(), userID, req.Date, req.ServingTime, req.MealID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealPlan": plan})
}

// Save commits the cached plan to durable storage.
func (h *MealPlanHandler) Save(c *gin.Context) {
	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	plan, err := h.persister.Save(c.Request.Context(), userID, req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mealPlan": plan})
}

// Stage places an externally assembled plan into the cache after the same
// structural validation a generated plan gets.
func (h *MealPlanHandler) Stage(c *gin.Context) {
	var req StagePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(models.DateFormat, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as " + models.DateFormat})
		return
	}

	userID, _, ok := callerIdentity(c)
	if !ok {
		return
	}

	plan := &models.MealPlan{
		UserID:        userID,
		Date:          req.Date,
		ForFamily:     req.ForFamily,
		Sections:      req.MealPlan,
		GeneratedByAI: req.GeneratedByAI,
	}
	if req.Household != nil {
		plan.Household = *req.Household
	}
	if req.AIMetadata != nil {
		plan.Metadata = models.JSONBMetadata(*req.AIMetadata)
	}
	if err := plan.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	staged, err := h.planner.Stage(c.Request.Context(), plan)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"mealPlan": staged})
}

// callerIdentity pulls the authenticated user id and raw bearer token set by
// the auth middleware.
func callerIdentity(c *gin.Context) (uuid.UUID, string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, "", false
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, "", false
	}
	bearer, _ := c.Get("bearer_token")
	token, _ := bearer.(string)
	return userID, token, true
}

// respondError maps service errors onto HTTP statuses. Model-path failures
// never reach this point; they are absorbed by the planner's fallback.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrPlanNotCached),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrSectionNotFound),
		errors.Is(err, service.ErrMealNotInPlan),
		errors.Is(err, service.ErrMealNotInCatalog):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNutritionGoalsMissing):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientCandidates),
		errors.Is(err, service.ErrFallbackExhausted),
		errors.Is(err, service.ErrMealAlreadyPlanned),
		errors.Is(err, service.ErrInvalidPortion):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCatalogUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
