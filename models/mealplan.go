package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nutrikit/mealplan-service/internal/types"
)

// ServingTime is one of the three mandatory daily plan slots.
type ServingTime string

const (
	Breakfast ServingTime = "breakfast"
	Lunch     ServingTime = "lunch"
	Dinner    ServingTime = "dinner"
)

// ServingTimes returns the canonical section order.
func ServingTimes() []ServingTime {
	return []ServingTime{Breakfast, Lunch, Dinner}
}

// ValidServingTime reports whether s is a known serving-time value.
func ValidServingTime(s ServingTime) bool {
	switch s {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// DateFormat is the calendar-day format used for plan keys.
const DateFormat = "2006-01-02"

// PortionSize describes how much of a meal is planned.
type PortionSize struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// MealDetail is a denormalized snapshot of catalog data captured when the
// meal is added, so plans render without re-querying the catalog.
type MealDetail struct {
	Name        string  `json:"name"`
	CategoryID  string  `json:"category_id"`
	Description string  `json:"description"`
	Calories    float64 `json:"calories"`
	ImageURL    string  `json:"image_url"`
}

// SnapshotDetail captures a MealDetail from a catalog entry.
func SnapshotDetail(m *types.Meal) MealDetail {
	return MealDetail{
		Name:        m.Name,
		CategoryID:  m.CategoryID,
		Description: m.Description,
		Calories:    m.Calories,
		ImageURL:    m.ImageURL,
	}
}

// PlannedMeal is a single catalog meal placed in a plan section.
type PlannedMeal struct {
	MealID      string      `json:"meal_id"`
	IsEaten     bool        `json:"is_eaten"`
	PortionSize PortionSize `json:"portion_size"`
	MealDetail  MealDetail  `json:"meal_detail"`
}

// Section groups the meals planned for one serving time.
type Section struct {
	ServingTime ServingTime   `json:"serving_time"`
	Meals       []PlannedMeal `json:"meals"`
}

// GenerationMetadata records how a plan was produced. Diagnostic only.
type GenerationMetadata struct {
	ProfileCalories float64   `json:"profile_calories"`
	HouseholdSize   int       `json:"household_size"`
	GeneratedAt     time.Time `json:"generated_at"`
	UsedFallback    bool      `json:"used_fallback"`
	Regenerations   int       `json:"regenerations"`
}

// JSONBSections stores plan sections as a JSONB column.
type JSONBSections []Section

// Value implements the driver.Valuer interface
func (s JSONBSections) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface
func (s *JSONBSections) Scan(value interface{}) error {
	if value == nil {
		*s = JSONBSections{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// JSONBHousehold stores the household composition as a JSONB column.
type JSONBHousehold types.FamilyInfo

// Value implements the driver.Valuer interface
func (h JSONBHousehold) Value() (driver.Value, error) {
	return json.Marshal(h)
}

// Scan implements the sql.Scanner interface
func (h *JSONBHousehold) Scan(value interface{}) error {
	if value == nil {
		*h = JSONBHousehold{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, h)
}

// JSONBMetadata stores generation metadata as a JSONB column.
type JSONBMetadata GenerationMetadata

// Value implements the driver.Valuer interface
func (m JSONBMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *JSONBMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = JSONBMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// MealPlan is one user's plan for one calendar day. It is born in the cache
// and becomes a durable row only through an explicit save.
type MealPlan struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_meal_plans_user_date" json:"user_id"`
	Date          string         `gorm:"size:10;not null;uniqueIndex:idx_meal_plans_user_date" json:"date"`
	ForFamily     bool           `json:"for_family"`
	Household     JSONBHousehold `gorm:"type:jsonb" json:"household"`
	Sections      JSONBSections  `gorm:"type:jsonb;not null;default:'[]'" json:"sections"`
	GeneratedByAI bool           `json:"generated_by_ai"`
	Metadata      JSONBMetadata  `gorm:"type:jsonb" json:"metadata"`
}

// Section returns the plan section for the given serving time, or nil.
func (p *MealPlan) Section(t ServingTime) *Section {
	for i := range p.Sections {
		if p.Sections[i].ServingTime == t {
			return &p.Sections[i]
		}
	}
	return nil
}

// Validate checks the structural invariants every plan must satisfy:
// exactly one section per serving time, unique meal ids within a section,
// and strictly positive portion amounts.
func (p *MealPlan) Validate() error {
	if len(p.Sections) != len(ServingTimes()) {
		return fmt.Errorf("plan must have exactly %d sections, got %d", len(ServingTimes()), len(p.Sections))
	}

	seen := make(map[ServingTime]bool, len(p.Sections))
	for _, sec := range p.Sections {
		if !ValidServingTime(sec.ServingTime) {
			return fmt.Errorf("unknown serving time %q", sec.ServingTime)
		}
		if seen[sec.ServingTime] {
			return fmt.Errorf("duplicate section for serving time %q", sec.ServingTime)
		}
		seen[sec.ServingTime] = true

		ids := make(map[string]bool, len(sec.Meals))
		for _, meal := range sec.Meals {
			if meal.MealID == "" {
				return fmt.Errorf("section %q contains a meal without an id", sec.ServingTime)
			}
			if ids[meal.MealID] {
				return fmt.Errorf("section %q contains meal %q twice", sec.ServingTime, meal.MealID)
			}
			ids[meal.MealID] = true
			if meal.PortionSize.Amount <= 0 {
				return fmt.Errorf("meal %q has non-positive portion amount", meal.MealID)
			}
		}
	}
	return nil
}
