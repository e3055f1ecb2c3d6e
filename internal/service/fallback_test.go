package service_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrikit/mealplan-service/internal/mocks"
	"github.com/nutrikit/mealplan-service/internal/service"
	"github.com/nutrikit/mealplan-service/models"
)

func fallbackInput(household int) service.GenerateInput {
	return service.GenerateInput{
		Profile:       mocks.FixtureProfile(1800),
		Catalog:       mocks.FixtureCatalog([]string{"mains", "salads", "soups"}, 2),
		HouseholdSize: household,
		Date:          "2024-06-01",
	}
}

func TestFallbackSelectorFillsAllSections(t *testing.T) {
	selector := service.NewFallbackSelector(rand.NewSource(1))

	sections, err := selector.Select(fallbackInput(1))
	require.NoError(t, err)
	require.Len(t, sections, 3)

	for i, servingTime := range models.ServingTimes() {
		assert.Equal(t, servingTime, sections[i].ServingTime)
		assert.GreaterOrEqual(t, len(sections[i].Meals), 2)
		assert.LessOrEqual(t, len(sections[i].Meals), 3)
	}
}

func TestFallbackSelectorIsDeterministicForSeed(t *testing.T) {
	first, err := service.NewFallbackSelector(rand.NewSource(42)).Select(fallbackInput(1))
	require.NoError(t, err)

	second, err := service.NewFallbackSelector(rand.NewSource(42)).Select(fallbackInput(1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFallbackSelectorNeverRepeatsMealWithinSection(t *testing.T) {
	selector := service.NewFallbackSelector(rand.NewSource(7))

	sections, err := selector.Select(fallbackInput(1))
	require.NoError(t, err)

	for _, sec := range sections {
		seen := make(map[string]bool)
		for _, meal := range sec.Meals {
			assert.False(t, seen[meal.MealID], "meal %s repeated in %s", meal.MealID, sec.ServingTime)
			seen[meal.MealID] = true
		}
	}
}

func TestFallbackSelectorPortionFollowsHousehold(t *testing.T) {
	selector := service.NewFallbackSelector(rand.NewSource(3))

	sections, err := selector.Select(fallbackInput(4))
	require.NoError(t, err)

	for _, sec := range sections {
		for _, meal := range sec.Meals {
			assert.Equal(t, float64(4), meal.PortionSize.Amount)
			assert.False(t, meal.IsEaten)
			assert.NotEmpty(t, meal.MealDetail.Name)
		}
	}
}

func TestFallbackSelectorRelaxesCategoryQuota(t *testing.T) {
	// One category only: the quota pass yields a single meal, the relaxed
	// pass must pull a second from the same category.
	in := fallbackInput(1)
	in.Catalog = mocks.FixtureCatalog([]string{"mains"}, 2)

	sections, err := service.NewFallbackSelector(rand.NewSource(5)).Select(in)
	require.NoError(t, err)

	for _, sec := range sections {
		assert.Len(t, sec.Meals, 2)
	}
}

// One selector instance serves every request, so concurrent Select calls
// share its random source. Run under -race.
func TestFallbackSelectorConcurrentSelects(t *testing.T) {
	selector := service.NewFallbackSelector(rand.NewSource(9))
	in := fallbackInput(1)

	var wg sync.WaitGroup
	results := make([]models.JSONBSections, 8)
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = selector.Select(in)
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], 3)
	}
}

func TestFallbackSelectorExhaustedOnTinyCatalog(t *testing.T) {
	in := fallbackInput(1)
	in.Catalog = mocks.FixtureCatalog([]string{"mains"}, 1)

	_, err := service.NewFallbackSelector(rand.NewSource(5)).Select(in)
	assert.ErrorIs(t, err, service.ErrFallbackExhausted)
}
