package core

import (
	"context"
	"slowpoke/pkg/domain"
)

// Rule inspects a recipe before any operation is sequenced.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RecipeView) (domain.Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine builds a rules engine with the checks every workflow
// shares.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRecipeShapeRule())
	engine.Register(NewPlateGeometryRule())
	engine.Register(NewPartLocationsRule())
	engine.Register(NewOutputCapacityRule())
	return engine
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	if rule == nil {
		return
	}
	e.rules = append(e.rules, rule)
}

// Rules returns a copy of the registered rules.
func (e *RulesEngine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RecipeView) (domain.Result, error) {
	var combined domain.Result
	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return domain.Result{}, err
		}
		res, err := rule.Evaluate(ctx, view)
		if err != nil {
			return domain.Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
