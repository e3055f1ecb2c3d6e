package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nutrikit/mealplan-service/internal/service"
	"github.com/nutrikit/mealplan-service/internal/types"
)

// ProfileClient resolves nutrition profiles from the identity/profile
// collaborator. The bearer credential of the incoming request is forwarded
// unchanged; this service never mints its own.
type ProfileClient struct {
	baseURL string
	client  *http.Client
}

// NewProfileClient creates a ProfileClient for the given collaborator base URL.
func NewProfileClient(baseURL string) *ProfileClient {
	return &ProfileClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve fetches the caller's nutrition profile. A 404 from the
// collaborator maps to service.ErrProfileNotFound.
func (c *ProfileClient) Resolve(ctx context.Context, bearer string) (*types.NutritionProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/profile/nutrition", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, service.ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("profile service returned status %d", resp.StatusCode)
	}

	var profile types.NutritionProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}

	return &profile, nil
}
