package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"nutriplan/internal/llm"
	"nutriplan/internal/shared"

	"github.com/google/generative-ai-go/genai"
)

//go:embed generator_prompt.md
var generatorPrompt string

// generatorTemperature allows creative meal combinations, unlike the
// near-deterministic validator.
const generatorTemperature = 0.7

type generatorPromptData struct {
	Diet        Diet
	Goal        Goal
	Ingredients string
}

// GenerationResult carries the generated plan and its execution meta.
// A nil Plan with a nil error means the model returned an empty payload.
type GenerationResult struct {
	Plan *MealPlan
	Meta shared.AgentMeta
}

func mealPlanSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"meals": {
				Type:        genai.TypeArray,
				Description: "An array of meals for the day.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"mealType": {
							Type:        genai.TypeString,
							Description: "The type of meal (e.g., 'Breakfast', 'Lunch', 'Dinner', 'Snack').",
						},
						"name": {
							Type:        genai.TypeString,
							Description: "Name of the meal/dish.",
						},
						"description": {
							Type:        genai.TypeString,
							Description: "A short description of the meal, including simple preparation steps or ingredients.",
						},
						"calories": {
							Type:        genai.TypeInteger,
							Description: "Estimated number of calories for this meal.",
						},
					},
					Required: []string{"mealType", "name", "description", "calories"},
				},
			},
			"totalCalories": {
				Type:        genai.TypeInteger,
				Description: "The total estimated calories for all meals combined for the day.",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "A brief summary of why this meal plan fits the user's goals, or if a full plan couldn't be generated, an explanation of why.",
			},
		},
		Required: []string{"meals", "totalCalories", "summary"},
	}
}

func (p *Planner) runGenerator(ctx context.Context, prefs UserPreferences) (GenerationResult, error) {
	start := time.Now()

	prompt, err := buildGeneratorPrompt(generatorPromptData{
		Diet:        prefs.Diet,
		Goal:        prefs.Goal,
		Ingredients: prefs.AvailableIngredients,
	})
	if err != nil {
		return GenerationResult{}, err
	}

	resp, err := p.textGen.GenerateStructured(ctx, llm.Request{
		Prompt:      prompt,
		Schema:      mealPlanSchema(),
		Temperature: generatorTemperature,
	})
	if err != nil {
		return GenerationResult{}, fmt.Errorf("failed to generate meal plan: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "Generator",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	// An empty payload resolves to an absent plan, not an error.
	if resp.Content == "" {
		return GenerationResult{Meta: meta}, nil
	}

	plan := &MealPlan{}
	if err := json.Unmarshal([]byte(resp.Content), plan); err != nil {
		return GenerationResult{Meta: meta}, fmt.Errorf(
			"failed to parse meal plan %w. Response: %s",
			err,
			resp.Content,
		)
	}

	return GenerationResult{Plan: plan, Meta: meta}, nil
}

func buildGeneratorPrompt(data generatorPromptData) (string, error) {
	tmpl, err := template.New("generator").Parse(generatorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
