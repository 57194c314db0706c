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

//go:embed validator_prompt.md
var validatorPrompt string

// validatorTemperature keeps the compliance check near-deterministic.
const validatorTemperature = 0.1

type validatorPromptData struct {
	Diet        Diet
	Ingredients string
}

// ValidationResult carries the parsed validator output and its execution meta.
type ValidationResult struct {
	Response ValidationResponse
	Meta     shared.AgentMeta
}

func validationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isValid": {
				Type:        genai.TypeBoolean,
				Description: "True if the ingredients are compatible with the diet, false otherwise.",
			},
			"reason": {
				Type:        genai.TypeString,
				Description: "A brief, user-friendly explanation for why the ingredients are not valid. If they are valid, this should be an empty string.",
			},
		},
		Required: []string{"isValid", "reason"},
	}
}

func (p *Planner) runValidator(ctx context.Context, prefs UserPreferences) (ValidationResult, error) {
	start := time.Now()

	prompt, err := buildValidatorPrompt(validatorPromptData{
		Diet:        prefs.Diet,
		Ingredients: prefs.AvailableIngredients,
	})
	if err != nil {
		return ValidationResult{}, err
	}

	resp, err := p.textGen.GenerateStructured(ctx, llm.Request{
		Prompt:      prompt,
		Schema:      validationSchema(),
		Temperature: validatorTemperature,
	})
	if err != nil {
		return ValidationResult{}, fmt.Errorf("failed to validate preferences: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "Validator",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	// An empty payload means the ingredients could not be validated; that is
	// an invalid outcome with a generic reason, not a failure of the flow.
	if resp.Content == "" {
		return ValidationResult{
			Response: ValidationResponse{
				IsValid: false,
				Reason:  "Could not validate ingredients. The service returned an empty response.",
			},
			Meta: meta,
		}, nil
	}

	var vr ValidationResponse
	if err := json.Unmarshal([]byte(resp.Content), &vr); err != nil {
		return ValidationResult{Meta: meta}, fmt.Errorf(
			"failed to parse validation response %w. Response: %s",
			err,
			resp.Content,
		)
	}

	return ValidationResult{Response: vr, Meta: meta}, nil
}

func buildValidatorPrompt(data validatorPromptData) (string, error) {
	tmpl, err := template.New("validator").Parse(validatorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
