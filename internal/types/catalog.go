package types

// MealCategory is a catalog grouping such as "soups" or "salads".
type MealCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Meal is a single selectable catalog entry after boundary normalization.
type Meal struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CategoryID  string          `json:"category_id"`
	Description string          `json:"description"`
	Calories    float64         `json:"calories"`
	ImageURL    string          `json:"image_url"`
	PortionUnit string          `json:"portion_unit"`
	Ingredients []IngredientRef `json:"ingredients"`
}

// Catalog is the full candidate set the planner selects from.
type Catalog struct {
	Meals      []Meal         `json:"meals"`
	Categories []MealCategory `json:"categories"`
}

// MealByID returns the catalog entry for id, or nil when absent.
func (c *Catalog) MealByID(id string) *Meal {
	for i := range c.Meals {
		if c.Meals[i].ID == id {
			return &c.Meals[i]
		}
	}
	return nil
}
