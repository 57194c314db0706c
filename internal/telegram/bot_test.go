package telegram

import (
	"strings"
	"testing"

	"nutriplan/internal/planner"
)

func TestParsePreferences(t *testing.T) {
	prefs, err := parsePreferences("veg | weight loss | spinach, paneer, rice")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if prefs.Diet != planner.DietVeg {
		t.Errorf("Expected Veg diet, got %s", prefs.Diet)
	}
	if prefs.Goal != planner.GoalWeightLoss {
		t.Errorf("Expected Weight Loss goal, got %s", prefs.Goal)
	}
	if prefs.AvailableIngredients != "spinach, paneer, rice" {
		t.Errorf("Unexpected ingredients: %q", prefs.AvailableIngredients)
	}

	// Ingredients may themselves contain no pipes but any commas.
	if _, err := parsePreferences("jain | muscle gain | tofu, lentils, rice"); err != nil {
		t.Errorf("Expected valid Jain request, got %v", err)
	}
}

func TestParsePreferencesErrors(t *testing.T) {
	cases := map[string]string{
		"MissingParts":     "veg | weight loss",
		"UnknownDiet":      "keto | weight loss | eggs",
		"UnknownGoal":      "veg | bulking | rice",
		"EmptyIngredients": "veg | weight loss |   ",
		"FreeText":         "make me a plan please",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parsePreferences(input); err == nil {
				t.Errorf("Expected an error for %q", input)
			}
		})
	}
}

func TestTelegramUserID(t *testing.T) {
	if id := telegramUserID(42); id != "tg:42" {
		t.Errorf("Expected tg:42, got %s", id)
	}
}

func TestFormatPlanMarkdown(t *testing.T) {
	plan := planner.MealPlan{
		Meals: []planner.Meal{
			{MealType: "Breakfast", Name: "Oatmeal", Description: "Oats with almonds.", Calories: 350},
			{MealType: "Dinner", Name: "Lentil Bowl", Description: "", Calories: 550},
		},
		TotalCalories: 900,
		Summary:       "A balanced day.",
	}

	output := formatPlanMarkdown(plan)

	if !strings.Contains(output, "🍽 *Your Meal Plan*") {
		t.Error("Missing plan header")
	}
	if !strings.Contains(output, "*Breakfast*: Oatmeal (350 kcal)") {
		t.Error("Missing breakfast line")
	}
	if !strings.Contains(output, "_Oats with almonds._") {
		t.Error("Missing meal description")
	}
	if !strings.Contains(output, "🔥 *Total:* 900 kcal") {
		t.Error("Missing calorie total")
	}
	if !strings.Contains(output, "📝 A balanced day.") {
		t.Error("Missing summary")
	}
}
