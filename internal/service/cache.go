package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nutrikit/mealplan-service/models"
)

// RedisPlanCache stores serialized plans in Redis under plan:{userID}:{date}
// with a fixed TTL. Writes fully overwrite the prior value; there is no
// partial merge and no transaction across read-modify-write sequences.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlanCache creates a plan cache backed by the given Redis client.
func NewRedisPlanCache(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl}
}

func planKey(userID uuid.UUID, date string) string {
	return fmt.Sprintf("plan:%s:%s", userID, date)
}

// Get returns the cached plan, or ErrPlanNotCached when the key is absent
// or expired.
func (c *RedisPlanCache) Get(ctx context.Context, userID uuid.UUID, date string) (*models.MealPlan, error) {
	data, err := c.client.Get(ctx, planKey(userID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlanNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plan from cache: %w", err)
	}

	var plan models.MealPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached plan: %w", err)
	}
	return &plan, nil
}

// Set writes the full plan, overwriting any previous value for the key and
// restarting the TTL.
func (c *RedisPlanCache) Set(ctx context.Context, plan *models.MealPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	if err := c.client.Set(ctx, planKey(plan.UserID, plan.Date), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write plan to cache: %w", err)
	}
	return nil
}

// Delete invalidates the key outright. Used before a fresh generation so
// stale data cannot survive a regeneration race.
func (c *RedisPlanCache) Delete(ctx context.Context, userID uuid.UUID, date string) error {
	if err := c.client.Del(ctx, planKey(userID, date)).Err(); err != nil {
		return fmt.Errorf("failed to delete plan from cache: %w", err)
	}
	return nil
}
