package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Diet is a dietary restriction category.
type Diet string

const (
	DietNonVeg    Diet = "Non-Veg"
	DietVeg       Diet = "Veg"
	DietPureVegan Diet = "Pure Vegan"
	DietJain      Diet = "Jain"
)

// Goal is a health objective shaping the calorie and macro strategy of a plan.
type Goal string

const (
	GoalMaintainWeight Goal = "Maintain Weight"
	GoalWeightLoss     Goal = "Weight Loss"
	GoalMuscleGain     Goal = "Muscle Gain"
	GoalImproveEnergy  Goal = "Improve Energy"
)

// ErrNoIngredients indicates an empty ingredient list; no remote call is made.
var ErrNoIngredients = errors.New("ingredients list cannot be empty")

// ParseDiet matches a diet label case-insensitively.
func ParseDiet(s string) (Diet, error) {
	for _, d := range []Diet{DietNonVeg, DietVeg, DietPureVegan, DietJain} {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown diet %q", s)
}

// ParseGoal matches a goal label case-insensitively.
func ParseGoal(s string) (Goal, error) {
	for _, g := range []Goal{GoalMaintainWeight, GoalWeightLoss, GoalMuscleGain, GoalImproveEnergy} {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown goal %q", s)
}

// UserPreferences is the dietary input for one plan request. It is
// request-scoped and never persisted.
type UserPreferences struct {
	Diet                 Diet   `json:"diet"`
	Goal                 Goal   `json:"goal"`
	AvailableIngredients string `json:"availableIngredients"`
}

// Check performs the client-side shape checks that must pass before any
// remote call is attempted.
func (p UserPreferences) Check() error {
	if _, err := ParseDiet(string(p.Diet)); err != nil {
		return err
	}
	if _, err := ParseGoal(string(p.Goal)); err != nil {
		return err
	}
	if strings.TrimSpace(p.AvailableIngredients) == "" {
		return ErrNoIngredients
	}
	return nil
}

// ValidationResponse is the outcome of the dietary compliance check.
// Reason is empty when IsValid is true.
type ValidationResponse struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason"`
}

// Meal is a single meal in a one-day plan.
type Meal struct {
	MealType    string `json:"mealType"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Calories    int    `json:"calories"`
}

// MealPlan is a single day's set of meals plus the aggregate calorie total
// and an explanatory summary. ID and SavedAt are assigned when the plan is
// persisted; an empty Meals slice is a valid "no plan possible" outcome
// explained via Summary.
type MealPlan struct {
	ID            string     `json:"id,omitempty"`
	Meals         []Meal     `json:"meals"`
	TotalCalories int        `json:"totalCalories"`
	Summary       string     `json:"summary"`
	SavedAt       *time.Time `json:"savedAt,omitempty"`
}
