package server

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nutrikit/mealplan-service/config"
	"github.com/nutrikit/mealplan-service/internal/api"
	"github.com/nutrikit/mealplan-service/internal/client"
	"github.com/nutrikit/mealplan-service/internal/router"
	"github.com/nutrikit/mealplan-service/internal/service"
)

// Server wires the meal-plan service together and owns the HTTP lifecycle.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// New builds a fully wired server from configuration and live connections.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *Server {
	authService := service.NewAuthService(cfg.JWTSecret)
	planCache := service.NewRedisPlanCache(redisClient, cfg.PlanCacheTTL)

	profileClient := client.NewProfileClient(cfg.ProfileServiceURL)
	catalogClient := client.NewCatalogClient(cfg.CatalogServiceURL)

	// The model path is an optimization; without an API key the planner
	// runs on the deterministic selector alone.
	var generator service.PlanGenerator
	if cfg.LLMAPIKey != "" {
		generator = service.NewLLMService(cfg, logger)
	}
	fallback := service.NewFallbackSelector(rand.NewSource(time.Now().UnixNano()))

	planner := service.NewPlannerService(profileClient, catalogClient, generator, fallback, planCache, cfg.LLMTimeout, logger)
	mutator := service.NewPlanMutator(planCache, catalogClient)
	persister := service.NewPlanPersister(db, planCache, cfg.InvalidateCacheOnSave)

	planHandler := api.NewMealPlanHandler(planner, mutator, persister, authService)

	health := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, checks)
	}

	engine := router.SetupRouter(planHandler, health)

	return &Server{
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting meal-plan service", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
