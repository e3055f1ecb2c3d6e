package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nutrikit/mealplan-service/config"
	"github.com/nutrikit/mealplan-service/models"
)

// catalogSampleLimit bounds how many catalog entries are embedded in the
// prompt; the full catalog would blow up payload cost on large menus.
const catalogSampleLimit = 40

// LLMService generates plans through a chat-completions API. It makes one
// call per generation attempt; there is no model-side retry loop. Every
// validation failure wraps errGenerationInvalid so the planner can fall back
// deterministically.
type LLMService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	logger *zap.Logger
}

// NewLLMService creates an LLMService from configuration.
func NewLLMService(cfg *config.Config, logger *zap.Logger) *LLMService {
	return &LLMService{
		apiKey: cfg.LLMAPIKey,
		apiURL: cfg.LLMAPIURL,
		model:  cfg.LLMModel,
		client: &http.Client{Timeout: cfg.LLMTimeout},
		logger: logger,
	}
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat-completions wire format.
type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

// llmPlannedMeal is the per-meal shape the model is asked to emit.
type llmPlannedMeal struct {
	MealID      string             `json:"meal_id"`
	PortionSize models.PortionSize `json:"portion_size"`
}

// GeneratePlan builds the prompt, invokes the model once, and strictly
// validates the structured result against the filtered catalog.
func (s *LLMService) GeneratePlan(ctx context.Context, in GenerateInput) (models.JSONBSections, error) {
	content, err := s.complete(ctx, s.systemPrompt(), s.userPrompt(in))
	if err != nil {
		return nil, err
	}
	return s.parsePlan(content, in)
}

func (s *LLMService) systemPrompt() string {
	return `You are a professional nutritionist planning one day of meals. Respond ONLY with a JSON object of this exact shape:
{
    "breakfast": [{"meal_id": "<id from the catalog>", "portion_size": {"amount": 1, "unit": "serving"}}],
    "lunch": [{"meal_id": "...", "portion_size": {"amount": 1, "unit": "serving"}}],
    "dinner": [{"meal_id": "...", "portion_size": {"amount": 1, "unit": "serving"}}]
}

Rules:
- Use ONLY meal ids from the provided catalog. Never invent ids.
- Put 2 or 3 meals in each of breakfast, lunch and dinner.
- Do not repeat a meal id within the same section.
- Output nothing except the JSON object.`
}

func (s *LLMService) userPrompt(in GenerateInput) string {
	var b strings.Builder

	if in.Profile.IsFamily && in.Profile.FamilyInfo != nil {
		f := in.Profile.FamilyInfo
		fmt.Fprintf(&b, "Plan a day of meals for a family of %d (children: %d, teenagers: %d, adults: %d, elderly: %d).\n",
			f.Total(), f.Children, f.Teenagers, f.Adults, f.Elderly)
	} else {
		fmt.Fprintf(&b, "Plan a day of meals for one person (age %d, %s).\n",
			in.Profile.PersonalInfo.Age, in.Profile.PersonalInfo.Gender)
	}

	if in.Profile.NutritionGoals.CaloriesPerDay != nil {
		fmt.Fprintf(&b, "Daily calorie target per person: %.0f kcal.\n", *in.Profile.NutritionGoals.CaloriesPerDay)
	}
	if in.Preferences != "" {
		fmt.Fprintf(&b, "Additional preferences: %s\n", in.Preferences)
	}

	b.WriteString("\nAvailable meals (id | name | category | calories):\n")
	sample := in.Catalog.Meals
	if len(sample) > catalogSampleLimit {
		sample = sample[:catalogSampleLimit]
	}
	for _, meal := range sample {
		fmt.Fprintf(&b, "%s | %s | %s | %.0f\n", meal.ID, meal.Name, meal.CategoryID, meal.Calories)
	}

	return b.String()
}

// complete performs the single chat-completions round trip.
func (s *LLMService) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}

// parsePlan validates the raw model text into plan sections. Shape
// mismatches are expected, not exceptional; every branch wraps
// errGenerationInvalid so the caller falls back.
func (s *LLMService) parsePlan(content string, in GenerateInput) (models.JSONBSections, error) {
	cleaned := stripCodeFences(content)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", errGenerationInvalid, err)
	}

	times := models.ServingTimes()
	if len(raw) != len(times) {
		return nil, fmt.Errorf("%w: expected %d sections, got %d", errGenerationInvalid, len(times), len(raw))
	}

	sections := make(models.JSONBSections, 0, len(times))
	for _, servingTime := range times {
		entry, ok := raw[string(servingTime)]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q section", errGenerationInvalid, servingTime)
		}

		var llmMeals []llmPlannedMeal
		if err := json.Unmarshal(entry, &llmMeals); err != nil {
			return nil, fmt.Errorf("%w: bad %q section: %v", errGenerationInvalid, servingTime, err)
		}
		if len(llmMeals) == 0 {
			return nil, fmt.Errorf("%w: empty %q section", errGenerationInvalid, servingTime)
		}

		meals := make([]models.PlannedMeal, 0, len(llmMeals))
		seen := make(map[string]bool, len(llmMeals))
		for _, lm := range llmMeals {
			catalogMeal := in.Catalog.MealByID(lm.MealID)
			if catalogMeal == nil {
				return nil, fmt.Errorf("%w: meal %q not in candidate catalog", errGenerationInvalid, lm.MealID)
			}
			if seen[lm.MealID] {
				return nil, fmt.Errorf("%w: meal %q repeated in %q section", errGenerationInvalid, lm.MealID, servingTime)
			}
			seen[lm.MealID] = true

			// Portion amount is policy-owned: a mismatch from the model is
			// corrected, not rejected.
			meals = append(meals, models.PlannedMeal{
				MealID:      lm.MealID,
				IsEaten:     false,
				PortionSize: policyPortion(*catalogMeal, in.HouseholdSize),
				MealDetail:  models.SnapshotDetail(catalogMeal),
			})
		}

		sections = append(sections, models.Section{ServingTime: servingTime, Meals: meals})
	}

	return sections, nil
}

// stripCodeFences removes surrounding markdown fencing some models emit even
// when asked for bare JSON.
func stripCodeFences(content string) string {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	return strings.TrimSpace(cleaned)
}

// timeoutContext bounds the model round trip below the request deadline.
func timeoutContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
