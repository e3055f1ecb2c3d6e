package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutrikit/mealplan-service/internal/api"
	"github.com/nutrikit/mealplan-service/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(planHandler *api.MealPlanHandler, health gin.HandlerFunc) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(middleware.CORS())

	if health != nil {
		router.GET("/health", health)
	} else {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	planHandler.RegisterRoutes(v1)

	return router
}
