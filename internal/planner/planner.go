package planner

import (
	"context"

	"nutriplan/internal/llm"
	"nutriplan/internal/shared"
)

// Planner orchestrates the two-stage validate-then-generate flow against the
// generative model.
type Planner struct {
	textGen llm.StructuredGenerator
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.StructuredGenerator) *Planner {
	return &Planner{textGen: textGen}
}

// Validate runs the dietary compliance check for the given preferences.
func (p *Planner) Validate(ctx context.Context, prefs UserPreferences) (ValidationResult, error) {
	return p.runValidator(ctx, prefs)
}

// Generate creates a one-day meal plan for the given preferences. Callers are
// expected to validate first; Generate does not re-check compliance.
func (p *Planner) Generate(ctx context.Context, prefs UserPreferences) (GenerationResult, error) {
	return p.runGenerator(ctx, prefs)
}

// Outcome is the terminal state of one plan request.
//
// Exactly one of the following holds: Rejected is true and Reason explains the
// dietary violation; Plan is non-nil and holds the generated plan; or both are
// zero, meaning the model returned an empty payload and no plan exists.
type Outcome struct {
	Rejected bool
	Reason   string
	Plan     *MealPlan
	Metas    []shared.AgentMeta
}

// Plan runs the full orchestration: client-side input check, validation, and
// generation. Generation is only attempted after validation succeeds; a
// rejection short-circuits with the model-provided reason so the second, more
// expensive call is never spent on input known to violate the diet.
//
// Metas are populated for every upstream call that was made, including calls
// whose responses failed to parse, so usage can always be recorded.
func (p *Planner) Plan(ctx context.Context, prefs UserPreferences) (Outcome, error) {
	if err := prefs.Check(); err != nil {
		return Outcome{}, err
	}

	vres, err := p.runValidator(ctx, prefs)
	metas := []shared.AgentMeta{vres.Meta}
	if err != nil {
		return Outcome{Metas: metas}, err
	}

	if !vres.Response.IsValid {
		return Outcome{
			Rejected: true,
			Reason:   vres.Response.Reason,
			Metas:    metas,
		}, nil
	}

	gres, err := p.runGenerator(ctx, prefs)
	metas = append(metas, gres.Meta)
	if err != nil {
		return Outcome{Metas: metas}, err
	}

	return Outcome{Plan: gres.Plan, Metas: metas}, nil
}
