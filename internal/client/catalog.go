package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nutrikit/mealplan-service/internal/service"
	"github.com/nutrikit/mealplan-service/internal/types"
)

// CatalogClient loads the candidate meal catalog from the catalog
// collaborator. The collaborator's response envelope is not uniform across
// endpoints (bare array, {"data": [...]}, or a named key); every shape is
// normalized here so the rest of the service sees one internal form.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

// NewCatalogClient creates a CatalogClient for the given collaborator base URL.
func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Load fetches meals and categories. An empty or undecodable meal list is a
// hard failure (service.ErrCatalogUnavailable); a plan cannot be built from
// a guessed catalog.
func (c *CatalogClient) Load(ctx context.Context) (*types.Catalog, error) {
	mealsBody, err := c.get(ctx, "/api/v1/meals")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrCatalogUnavailable, err)
	}

	var meals []types.Meal
	if err := decodeEnvelope(mealsBody, "meals", &meals); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrCatalogUnavailable, err)
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("%w: catalog returned no meals", service.ErrCatalogUnavailable)
	}

	categoriesBody, err := c.get(ctx, "/api/v1/categories")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrCatalogUnavailable, err)
	}

	var categories []types.MealCategory
	if err := decodeEnvelope(categoriesBody, "categories", &categories); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrCatalogUnavailable, err)
	}

	return &types.Catalog{Meals: meals, Categories: categories}, nil
}

func (c *CatalogClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	return body, nil
}

// decodeEnvelope normalizes the collaborator's inconsistent envelopes into
// out (a pointer to a slice). It tries, in order: a bare JSON array, a
// {"data": [...]} wrapper, and a wrapper named after the resource. Anything
// else fails closed.
func decodeEnvelope(body []byte, key string, out interface{}) error {
	if json.Unmarshal(body, out) == nil {
		return nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return fmt.Errorf("unrecognized response envelope: %w", err)
	}

	for _, k := range []string{"data", key} {
		if raw, ok := wrapper[k]; ok {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("failed to decode %q envelope: %w", k, err)
			}
			return nil
		}
	}

	return fmt.Errorf("unrecognized response envelope: no usable key")
}
